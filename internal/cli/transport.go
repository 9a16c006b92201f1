package cli

import (
	"fmt"
	"net"
	"os"

	"github.com/fatih/color"

	"github.com/taskmasterd/taskmasterd/internal/protocol"
)

// sendRequest dials the control socket, writes req, and reads back the
// single paired response.
func sendRequest(req protocol.Request) (protocol.Response, error) {
	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		return protocol.Response{}, fmt.Errorf("dial %s: %w", socketPath, err)
	}
	defer conn.Close()

	if err := protocol.WriteRequest(conn, req); err != nil {
		return protocol.Response{}, err
	}
	return protocol.ReadResponse(conn)
}

// printResponse renders a Response the way the reference client would:
// Err recolors to red, everything else prints in the default color (or
// green for a bare Success).
func printResponse(resp protocol.Response) {
	switch resp.Type {
	case protocol.RespErr:
		color.New(color.FgRed).Fprintln(os.Stderr, resp.Text)
	case protocol.RespSuccess:
		color.New(color.FgGreen).Println("OK")
	case protocol.RespOk, protocol.RespRaw:
		fmt.Println(resp.Text)
	default:
		fmt.Println(resp.Text)
	}
}
