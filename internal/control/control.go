// Package control implements the Control Endpoint: a listening Unix domain
// socket accepting framed control-protocol connections, each serviced on
// its own goroutine and dispatching requests against the shared Registry.
package control

import (
	"errors"
	"io"
	"log"
	"net"
	"os"

	"github.com/google/uuid"

	"github.com/taskmasterd/taskmasterd/internal/protocol"
	"github.com/taskmasterd/taskmasterd/internal/registry"
)

// Endpoint is the Control Endpoint: one listening socket dispatching
// requests against a shared Registry.
type Endpoint struct {
	SocketPath string
	Registry   *registry.Registry
}

// New returns an Endpoint bound to socketPath, dispatching against reg.
func New(socketPath string, reg *registry.Registry) *Endpoint {
	return &Endpoint{SocketPath: socketPath, Registry: reg}
}

// ListenAndServe removes any stale socket file, binds a fresh one, and
// accepts connections in the background. A bind failure is returned
// synchronously and is the one fatal-to-the-daemon error in this package;
// every subsequent per-connection error is logged and isolated to that
// connection.
func (e *Endpoint) ListenAndServe() error {
	if err := os.Remove(e.SocketPath); err != nil && !os.IsNotExist(err) {
		return err
	}

	listener, err := net.Listen("unix", e.SocketPath)
	if err != nil {
		return err
	}

	log.Printf("control endpoint listening on %s", e.SocketPath)

	go func() {
		for {
			conn, err := listener.Accept()
			if err != nil {
				log.Printf("control: accept error: %v", err)
				continue
			}
			go e.handleConn(conn)
		}
	}()

	return nil
}

// handleConn services one connection's requests in order until a read or
// decode failure, at which point the connection is closed and no further
// response is synthesized for the failed frame.
func (e *Endpoint) handleConn(conn net.Conn) {
	defer conn.Close()
	connID := uuid.NewString()

	for {
		req, err := protocol.ReadRequest(conn)
		if err != nil {
			if !errors.Is(err, io.EOF) {
				log.Printf("control[%s]: protocol error: %v", connID, err)
			}
			return
		}

		resp := e.dispatch(req)

		if err := protocol.WriteResponse(conn, resp); err != nil {
			log.Printf("control[%s]: write response: %v", connID, err)
			return
		}
	}
}

// dispatch runs exactly one request to completion and returns exactly one
// response. Every branch either calls straight through to a Registry method
// that itself acquires the Registry mutex for the branch's whole duration,
// or (Status/Reload/Restart) does the same.
func (e *Endpoint) dispatch(req protocol.Request) protocol.Response {
	switch req.Type {
	case protocol.ReqStatus:
		return protocol.Raw(e.Registry.Status())

	case protocol.ReqReload:
		if err := e.Registry.ReloadAll(); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.Success()

	case protocol.ReqRestart:
		e.Registry.RestartAll()
		return protocol.Success()

	case protocol.ReqStartTask:
		if err := e.Registry.StartTask(req.TaskID); err != nil {
			return taskErr(err)
		}
		return protocol.Success()

	case protocol.ReqStopTask:
		if err := e.Registry.StopTask(req.TaskID); err != nil {
			return taskErr(err)
		}
		return protocol.Success()

	case protocol.ReqRestartTask:
		if err := e.Registry.RestartTask(req.TaskID); err != nil {
			return taskErr(err)
		}
		return protocol.Success()

	case protocol.ReqInfoTask:
		info, err := e.Registry.InfoTask(req.TaskID)
		if err != nil {
			return taskErr(err)
		}
		return protocol.Raw(info)

	case protocol.ReqLoadFile:
		if err := e.Registry.Load(req.Path); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.Ok("loaded " + req.Path)

	case protocol.ReqUnloadFile:
		if err := e.Registry.Unload(req.Path); err != nil {
			return protocol.Err(err.Error())
		}
		return protocol.Ok("unloaded " + req.Path)

	default:
		return protocol.Err("Not implemented")
	}
}

func taskErr(err error) protocol.Response {
	if errors.Is(err, registry.ErrTaskNotFound) {
		return protocol.Err("Task not found")
	}
	return protocol.Err(err.Error())
}
