package karesis

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestAssignIdFromRow(t *testing.T) {
	// explicit assign_id wins over everything else
	require.Equal(t, "7", assignIdFromRow(map[string]any{
		"assign_id":   "7",
		"id":          "8",
		"details_url": "https://portal/attendance-details/9",
	}))
	// id is the second choice
	require.Equal(t, "8", assignIdFromRow(map[string]any{
		"id":          "8",
		"details_url": "https://portal/attendance-details/9",
	}))
	// numeric ids are rendered without a fractional part
	require.Equal(t, "8", assignIdFromRow(map[string]any{"id": float64(8)}))
	// trailing id parsed out of the details url
	require.Equal(t, "42", assignIdFromRow(map[string]any{
		"details_url": "https://portal/attendance-details/42",
	}))
	// underivable
	require.Equal(t, "", assignIdFromRow(map[string]any{"course_name": "No Id"}))
	require.Equal(t, "", assignIdFromRow(map[string]any{"details_url": "https://portal/attendance-details/abc"}))
}

func TestAttendanceFull(t *testing.T) {
	ctx := testContext(t)
	portal := newFakePortal(t)

	explicitRow := map[string]any{
		"assign_id":   "7",
		"course_code": "CS2021",
		"course_name": "Algorithms",
	}
	urlRow := map[string]any{
		"course_code": "MA2011",
		"course_name": "Linear Algebra",
		"details_url": portal.srv.URL + "/attendance-details/42",
	}
	skippedRow := map[string]any{
		"course_name": "No Id Here",
	}
	portal.serveJson("/attendance-details", []map[string]any{explicitRow, urlRow, skippedRow})

	sessions7 := []map[string]any{{"date": "2024-07-01", "status": "P"}}
	sessions42 := []map[string]any{{"date": "2024-07-01", "status": "A"}, {"date": "2024-07-02", "status": "P"}}
	portal.serveJson("/attendance-details/7", sessions7)
	portal.serveJson("/attendance-details/42", sessions42)

	client := newTestClient(t, portal.srv.URL)
	err := client.Login(ctx, "9922004001", testPassword)
	require.NoError(t, err)

	report, err := client.AttendanceFull(ctx)
	require.NoError(t, err)
	require.Len(t, report.Summary, 3)

	expected := map[string]CourseAttendance{
		"7": {
			CourseCode: "CS2021",
			CourseName: "Algorithms",
			Summary:    explicitRow,
			Sessions:   sessions7,
		},
		"42": {
			CourseCode: "MA2011",
			CourseName: "Linear Algebra",
			Summary:    urlRow,
			Sessions:   sessions42,
		},
	}
	diff := cmp.Diff(expected, report.Courses)
	require.Empty(t, diff)
}

func TestAttendanceSummaryPassthrough(t *testing.T) {
	ctx := testContext(t)
	portal := newFakePortal(t)

	rows := []map[string]any{{"course_code": "CS2021", "present": float64(30), "absent": float64(2)}}
	portal.serveJson("/attendance-details", rows)

	client := newTestClient(t, portal.srv.URL)
	err := client.Login(ctx, "9922004001", testPassword)
	require.NoError(t, err)

	got, err := client.AttendanceSummary(ctx)
	require.NoError(t, err)
	require.Empty(t, cmp.Diff(rows, got))
}
