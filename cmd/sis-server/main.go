package main

import (
	"flag"
	"log/slog"
	"os"

	"karesis-backend/lib/configutil"
	"karesis-backend/lib/restyutil"
	"karesis-backend/lib/serviceutil"
	"karesis-backend/lib/telemetry"
	"karesis-backend/lib/tokenstore"
	"karesis-backend/services/sis"
)

type Config struct {
	Port int `json:"port"`
	// portal mirror base urls tried in order during login
	Mirrors []string `json:"mirrors"`
	// when set, every portal request/response pair is dumped here
	RestyDebugDir string           `json:"resty_debug_dir"`
	Telemetry     telemetry.Config `json:"telemetry"`
}

func main() {
	verbose := flag.Bool("v", false, "Enable verbose logging/instrumentation.")
	flag.Parse()

	if *verbose {
		slog.SetLogLoggerLevel(slog.LevelDebug)
	}

	ctx := serviceutil.SignalContext()

	cfg, err := configutil.ReadConfig[Config]("config.json5")
	if os.IsNotExist(err) {
		slog.Info("no config file found, using defaults")
	} else if err != nil {
		serviceutil.Fatal("read config", err)
	}
	if cfg.Port == 0 {
		cfg.Port = 12000
	}

	tel, err := telemetry.Setup(ctx, "sis-server", cfg.Telemetry)
	if err != nil {
		slog.Warn("telemetry disabled", "err", err)
	} else {
		defer tel.Shutdown(ctx)
		telemetry.InstrumentPerfStats(ctx)
	}

	var debug restyutil.InstrumentOutput
	if cfg.RestyDebugDir != "" {
		debug = restyutil.NewFilesystemOutput(cfg.RestyDebugDir)
	}

	service := sis.NewService(sis.Options{
		Store:   tokenstore.NewMemory(),
		Mirrors: cfg.Mirrors,
		Debug:   debug,
	})

	go serviceutil.StartHttpServer(cfg.Port, service.Handler())
	<-ctx.Done()
}
