package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/taskmasterd/taskmasterd/internal/protocol"
)

func invalidTaskID(arg string) error {
	return fmt.Errorf("invalid task id %q: expected a decimal number", arg)
}

var startCmd = &cobra.Command{
	Use:   "start task-id",
	Short: "Start the identified Task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return invalidTaskID(args[0])
		}
		resp, err := sendRequest(protocol.Request{Type: protocol.ReqStartTask, TaskID: id})
		if err != nil {
			return err
		}
		printResponse(resp)
		return nil
	},
}

var stopCmd = &cobra.Command{
	Use:   "stop task-id",
	Short: "Gracefully stop the identified Task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return invalidTaskID(args[0])
		}
		resp, err := sendRequest(protocol.Request{Type: protocol.ReqStopTask, TaskID: id})
		if err != nil {
			return err
		}
		printResponse(resp)
		return nil
	},
}

var infoCmd = &cobra.Command{
	Use:   "info task-id",
	Short: "Show configured options and status for the identified Task",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := strconv.ParseUint(args[0], 10, 64)
		if err != nil {
			return invalidTaskID(args[0])
		}
		resp, err := sendRequest(protocol.Request{Type: protocol.ReqInfoTask, TaskID: id})
		if err != nil {
			return err
		}
		printResponse(resp)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(startCmd)
	rootCmd.AddCommand(stopCmd)
	rootCmd.AddCommand(infoCmd)
}
