package cmd

import (
	"encoding/json"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var attendanceCmd = &cobra.Command{
	Use:   "attendance",
	Short: "Show per-course attendance with session counts.",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := client.R().Get("/attendance/details")
		if err != nil {
			return err
		}
		if err := expectOk(res); err != nil {
			return err
		}

		var out struct {
			Courses map[string]struct {
				CourseCode any              `json:"course_code"`
				CourseName any              `json:"course_name"`
				Sessions   []map[string]any `json:"sessions"`
			} `json:"courses"`
		}
		err = json.Unmarshal(res.Body(), &out)
		if err != nil {
			return err
		}

		ids := make([]string, 0, len(out.Courses))
		for id := range out.Courses {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		t := newTable()
		t.AppendHeader(table.Row{"Assign ID", "Code", "Course", "Sessions"})
		for _, id := range ids {
			course := out.Courses[id]
			t.AppendRow(table.Row{id, course.CourseCode, course.CourseName, len(course.Sessions)})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(attendanceCmd)
}
