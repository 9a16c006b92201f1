package cli

import (
	"github.com/spf13/cobra"

	"github.com/taskmasterd/taskmasterd/internal/protocol"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show aggregate status of every loaded source and task",
	RunE: func(cmd *cobra.Command, args []string) error {
		resp, err := sendRequest(protocol.Request{Type: protocol.ReqStatus})
		if err != nil {
			return err
		}
		printResponse(resp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
