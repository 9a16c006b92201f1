// Command taskmasterd is the process supervisor daemon: it loads one or
// more configuration sources, runs the Control Endpoint and health-check
// ticker, and supervises every declared program until killed.
package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/taskmasterd/taskmasterd/internal/control"
	"github.com/taskmasterd/taskmasterd/internal/health"
	"github.com/taskmasterd/taskmasterd/internal/registry"
)

var (
	configPaths []string
	socketPath  string
)

var rootCmd = &cobra.Command{
	Use:           "taskmasterd",
	Short:         "Process supervisor daemon",
	SilenceErrors: true,
	SilenceUsage:  true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(configPaths, socketPath)
	},
}

func init() {
	rootCmd.Flags().StringArrayVar(&configPaths, "config", nil,
		"configuration source to load at startup (may be repeated)")
	rootCmd.Flags().StringVar(&socketPath, "socket", "/tmp/taskmasterd.sock",
		"control endpoint socket path")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "taskmasterd: %v\n", err)
		os.Exit(1)
	}
}

// run loads every declared source, starts the Control Endpoint, then runs
// the health ticker on the calling goroutine — the daemon's only
// startup-fatal condition is a bind failure.
func run(configPaths []string, socketPath string) error {
	reg := registry.New()
	for _, p := range configPaths {
		if err := reg.Load(p); err != nil {
			log.Printf("taskmasterd: %v", err)
		}
	}

	ep := control.New(socketPath, reg)
	if err := ep.ListenAndServe(); err != nil {
		return fmt.Errorf("bind control socket: %w", err)
	}

	log.Printf("taskmasterd: supervising %d source(s)", len(configPaths))
	health.New(reg).Run()
	return nil
}
