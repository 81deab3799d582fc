package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var loginCmd = &cobra.Command{
	Use:   "login <register no> <password>",
	Short: "Log into the portal and print the issued bearer token.",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		res, err := client.R().
			SetBody(map[string]string{
				"username": args[0],
				"password": args[1],
			}).
			Post("/auth/login")
		if err != nil {
			return err
		}
		if err := expectOk(res); err != nil {
			return err
		}

		var out struct {
			Token string `json:"token"`
		}
		err = json.Unmarshal(res.Body(), &out)
		if err != nil {
			return err
		}

		fmt.Println("export SIS_TOKEN=" + out.Token)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loginCmd)
}
