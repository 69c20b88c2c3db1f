package main

import (
	"os"

	"hr-analytics/internal/cli"
)

func main() {
	os.Exit(int(cli.Run()))
}
