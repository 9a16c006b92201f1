package cli

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/taskmasterd/taskmasterd/internal/protocol"
)

// canonicalize resolves p to an absolute, symlink-resolved path before it
// is sent over the wire, matching the reference client's behavior for
// load/unload PATH arguments.
func canonicalize(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	return abs, nil
}

var loadCmd = &cobra.Command{
	Use:   "load path",
	Short: "Load a configuration source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := canonicalize(args[0])
		if err != nil {
			return err
		}
		resp, err := sendRequest(protocol.Request{Type: protocol.ReqLoadFile, Path: path})
		if err != nil {
			return err
		}
		printResponse(resp)
		return nil
	},
}

var unloadCmd = &cobra.Command{
	Use:   "unload path",
	Short: "Unload a configuration source",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := canonicalize(args[0])
		if err != nil {
			return err
		}
		resp, err := sendRequest(protocol.Request{Type: protocol.ReqUnloadFile, Path: path})
		if err != nil {
			return err
		}
		printResponse(resp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(loadCmd)
	rootCmd.AddCommand(unloadCmd)
}
