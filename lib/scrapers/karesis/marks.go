package karesis

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel/codes"
)

type CourseMarks struct {
	Summary map[string]any   `json:"summary"`
	Details []map[string]any `json:"details"`
}

type MarksReport struct {
	Courses []CourseMarks `json:"courses"`
}

// Marks fetches the mark listing and, for each row that links to a detail
// endpoint, the per-component mark rows behind it. A failed detail fetch
// degrades that one row to an empty detail list instead of failing the
// whole report.
func (c *Client) Marks(ctx context.Context) (MarksReport, error) {
	ctx, span := tracer.Start(ctx, "client:Marks")
	defer span.End()

	base, err := c.requireBase()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return MarksReport{}, err
	}

	listing, err := c.getJsonList(ctx, base+"/mark-details")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch mark listing")
		return MarksReport{}, err
	}

	courses := make([]CourseMarks, 0, len(listing))
	for _, row := range listing {
		details := []map[string]any{}
		link, ok := row["details_url"].(string)
		if ok && link != "" {
			rows, err := c.getJsonList(ctx, link)
			if err != nil {
				slog.WarnContext(ctx, "failed to fetch mark detail, degrading to empty", "url", link, "err", err)
			} else {
				details = rows
			}
		}
		courses = append(courses, CourseMarks{
			Summary: row,
			Details: details,
		})
	}

	return MarksReport{Courses: courses}, nil
}
