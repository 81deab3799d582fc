package main

import (
	"fmt"
	"os"

	"karesis-backend/cmd/sis-cli/cmd"
)

func main() {
	baseUrl, ok := os.LookupEnv("SIS_BASE_URL")
	if !ok {
		fmt.Println("You should specify the base url of the sis service in the environment variable SIS_BASE_URL.")
		os.Exit(1)
	}
	cmd.BaseUrl = baseUrl

	cmd.Execute()
}
