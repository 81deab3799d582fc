package telemetry

import (
	"context"
	"log/slog"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"go.opentelemetry.io/otel"
)

// InstrumentPerfStats samples process health every 30 seconds until ctx
// is cancelled.
func InstrumentPerfStats(ctx context.Context) {
	meter := otel.Meter("perf_stats")
	cpuGauge, _ := meter.Float64Gauge("cpu_usage")
	heapGauge, _ := meter.Int64Gauge("heap_alloc_mb")
	liveObjectsGauge, _ := meter.Int64Gauge("live_objects")
	goroutineGauge, _ := meter.Int64Gauge("goroutine_count")

	go func() {
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()

		var stats runtime.MemStats
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
			}

			runtime.ReadMemStats(&stats)
			heapGauge.Record(ctx, int64(stats.Alloc/1_000_000))
			liveObjectsGauge.Record(ctx, int64(stats.Mallocs-stats.Frees))
			goroutineGauge.Record(ctx, int64(runtime.NumGoroutine()))

			// blocks for the sampling window, which is why cpu goes last
			usage, err := cpu.Percent(time.Minute, false)
			if err != nil {
				slog.WarnContext(ctx, "failed to sample cpu usage", "err", err)
				continue
			}
			cpuGauge.Record(ctx, usage[0])
		}
	}()
}
