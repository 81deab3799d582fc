package cmd

import (
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var BaseUrl string

var client = resty.New()

var rootCmd = &cobra.Command{
	Use:   "sis-cli",
	Short: "sis-cli is a CLI interface for the KARE SIS proxy service.",
}

func Execute() {
	client.SetBaseURL(BaseUrl)
	if token, ok := os.LookupEnv("SIS_TOKEN"); ok {
		client.SetAuthToken(token)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(os.Stdout)
	return t
}

// fails the command when the service answered with an error payload
func expectOk(res *resty.Response) error {
	if res.StatusCode() >= 400 {
		return fmt.Errorf("%s: %s", res.Status(), res.String())
	}
	return nil
}
