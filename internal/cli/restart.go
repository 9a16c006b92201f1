package cli

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taskmasterd/taskmasterd/internal/protocol"
)

var restartCmd = &cobra.Command{
	Use:   "restart [task-id]",
	Short: "Stop then start every Task, or a single Task by id",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 {
			resp, err := sendRequest(protocol.Request{Type: protocol.ReqRestart})
			if err != nil {
				return err
			}
			printResponse(resp)
			return nil
		}

		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return invalidTaskID(args[0])
		}
		resp, err := sendRequest(protocol.Request{Type: protocol.ReqRestartTask, TaskID: id})
		if err != nil {
			return err
		}
		printResponse(resp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(restartCmd)
}
