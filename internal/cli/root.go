// Package cli is the cobra command tree for taskmasterctl: a one-shot
// control-protocol client. Each invocation opens one connection, sends one
// request, prints the response, and exits — it does not reimplement the
// interactive line editor, syntax highlighting, or tab completion of the
// reference client; those are out of scope.
package cli

import (
	"github.com/spf13/cobra"
)

var socketPath string

var rootCmd = &cobra.Command{
	Use:           "taskmasterctl",
	Short:         "Control client for taskmasterd",
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the taskmasterctl command tree.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&socketPath, "socket", "/tmp/taskmasterd.sock", "control socket path")
}
