// Package main is the entry point for the kitchen-cost CLI.
package main

import (
	"os"

	"kitchen-cost/cmd/cli/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
