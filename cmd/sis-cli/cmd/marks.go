package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var marksCmd = &cobra.Command{
	Use:   "marks",
	Short: "Dump the mark report as json.",
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := client.R().Get("/marks")
		if err != nil {
			return err
		}
		if err := expectOk(res); err != nil {
			return err
		}

		var pretty bytes.Buffer
		err = json.Indent(&pretty, res.Body(), "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(pretty.String())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(marksCmd)
}
