// Command taskmasterctl is a one-shot control-protocol client: it sends a
// single request to a running taskmasterd and prints the response.
package main

import (
	"os"

	"github.com/fatih/color"

	"github.com/taskmasterd/taskmasterd/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		color.New(color.FgRed).Fprintf(os.Stderr, "taskmasterctl: %v\n", err)
		os.Exit(1)
	}
}
