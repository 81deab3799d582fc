package cmd

import (
	"encoding/json"
	"sort"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Show the scraped student profile.",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := client.R().Get("/profile")
		if err != nil {
			return err
		}
		if err := expectOk(res); err != nil {
			return err
		}

		var out struct {
			Raw map[string]string `json:"raw"`
		}
		err = json.Unmarshal(res.Body(), &out)
		if err != nil {
			return err
		}

		keys := make([]string, 0, len(out.Raw))
		for k := range out.Raw {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		t := newTable()
		t.AppendHeader(table.Row{"Field", "Value"})
		for _, k := range keys {
			t.AppendRow(table.Row{k, out.Raw[k]})
		}
		t.Render()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
}
