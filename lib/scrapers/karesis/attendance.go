package karesis

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// fallback when a summary row carries no explicit id, the details link
// always ends in /attendance-details/<digits>
var detailsUrlIdRegex = regexp.MustCompile(`/attendance-details/(\d+)`)

// AttendanceSummary returns the portal's per-course attendance rows
// verbatim, the row fields are server-defined and passed through as-is.
func (c *Client) AttendanceSummary(ctx context.Context) ([]map[string]any, error) {
	ctx, span := tracer.Start(ctx, "client:AttendanceSummary")
	defer span.End()

	base, err := c.requireBase()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	rows, err := c.getJsonList(ctx, base+"/attendance-details")
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch attendance summary")
		return nil, err
	}
	return rows, nil
}

// AttendanceDetail returns the per-session rows for one course, keyed by
// the portal's assignment id.
func (c *Client) AttendanceDetail(ctx context.Context, assignId string) ([]map[string]any, error) {
	ctx, span := tracer.Start(ctx, "client:AttendanceDetail")
	defer span.End()
	span.SetAttributes(attribute.String("assign_id", assignId))

	base, err := c.requireBase()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	rows, err := c.getJsonList(ctx, base+"/attendance-details/"+assignId)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch attendance detail")
		return nil, err
	}
	return rows, nil
}

type CourseAttendance struct {
	CourseCode any              `json:"course_code"`
	CourseName any              `json:"course_name"`
	Summary    map[string]any   `json:"summary"`
	Sessions   []map[string]any `json:"sessions"`
}

type AttendanceReport struct {
	Summary []map[string]any            `json:"summary"`
	Courses map[string]CourseAttendance `json:"courses"`
}

// AttendanceFull combines the summary listing with a per-course detail
// fetch. Rows with no derivable assignment id are skipped, the detail
// requests run sequentially, one per course.
func (c *Client) AttendanceFull(ctx context.Context) (AttendanceReport, error) {
	ctx, span := tracer.Start(ctx, "client:AttendanceFull")
	defer span.End()

	summary, err := c.AttendanceSummary(ctx)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch summary")
		return AttendanceReport{}, err
	}

	courses := map[string]CourseAttendance{}
	for _, row := range summary {
		assignId := assignIdFromRow(row)
		if assignId == "" {
			slog.DebugContext(ctx, "skipping summary row with no derivable assignment id")
			continue
		}

		sessions, err := c.AttendanceDetail(ctx, assignId)
		if err != nil {
			span.SetStatus(codes.Error, "failed to fetch course detail")
			return AttendanceReport{}, err
		}
		courses[assignId] = CourseAttendance{
			CourseCode: row["course_code"],
			CourseName: row["course_name"],
			Summary:    row,
			Sessions:   sessions,
		}
	}

	return AttendanceReport{
		Summary: summary,
		Courses: courses,
	}, nil
}

// assignIdFromRow derives the course's assignment id from a summary row.
// An explicit assign_id or id field wins over the details_url fallback.
func assignIdFromRow(row map[string]any) string {
	if id := stringifyId(row["assign_id"]); id != "" {
		return id
	}
	if id := stringifyId(row["id"]); id != "" {
		return id
	}
	link, ok := row["details_url"].(string)
	if !ok {
		return ""
	}
	groups := detailsUrlIdRegex.FindStringSubmatch(link)
	if len(groups) < 2 {
		return ""
	}
	return groups[1]
}

// ids come back from the portal as either json strings or numbers
func stringifyId(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return ""
}
