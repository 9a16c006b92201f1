package cli

import (
	"github.com/spf13/cobra"

	"github.com/taskmasterd/taskmasterd/internal/protocol"
)

var reloadCmd = &cobra.Command{
	Use:   "reload",
	Short: "Reparse every loaded source and reconcile",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := sendRequest(protocol.Request{Type: protocol.ReqReload})
		if err != nil {
			return err
		}
		printResponse(resp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(reloadCmd)
}
