// Package protocol defines the control channel's wire messages — a
// discriminated-union Request and Response — and the length-prefixed JSON
// codec that frames them over a stream connection.
package protocol

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
)

// MaxFrameSize bounds a single frame's payload, guarding against a
// corrupted or hostile length prefix asking for an unbounded allocation.
const MaxFrameSize = 10 * 1024 * 1024 // 10MB

// RequestType discriminates the Request union.
type RequestType string

const (
	ReqStatus      RequestType = "Status"
	ReqReload      RequestType = "Reload"
	ReqRestart     RequestType = "Restart"
	ReqStartTask   RequestType = "StartTask"
	ReqStopTask    RequestType = "StopTask"
	ReqRestartTask RequestType = "RestartTask"
	ReqInfoTask    RequestType = "InfoTask"
	ReqLoadFile    RequestType = "LoadFile"
	ReqUnloadFile  RequestType = "UnloadFile"
)

// Request is one frame sent by a client. TaskID is meaningful for the
// *Task variants; Path is meaningful for LoadFile/UnloadFile.
type Request struct {
	Type   RequestType `json:"type"`
	TaskID uint64      `json:"task_id,omitempty"`
	Path   string      `json:"path,omitempty"`
}

// ResponseType discriminates the Response union.
type ResponseType string

const (
	RespSuccess ResponseType = "Success"
	RespOk      ResponseType = "Ok"
	RespRaw     ResponseType = "Raw"
	RespErr     ResponseType = "Err"
)

// Response is one frame sent by the server, exactly one per Request.
type Response struct {
	Type ResponseType `json:"type"`
	Text string       `json:"text,omitempty"`
}

// Ok builds a RespOk response carrying a short human message.
func Ok(msg string) Response { return Response{Type: RespOk, Text: msg} }

// Raw builds a RespRaw response whose body should be printed verbatim.
func Raw(body string) Response { return Response{Type: RespRaw, Text: body} }

// Err builds a RespErr response carrying a failure reason.
func Err(msg string) Response { return Response{Type: RespErr, Text: msg} }

// Success builds the no-body success response.
func Success() Response { return Response{Type: RespSuccess} }

// WriteRequest frames and writes a Request: a 4-byte big-endian length
// prefix followed by its JSON encoding.
func WriteRequest(w io.Writer, req Request) error {
	return writeFrame(w, req)
}

// ReadRequest reads one framed Request. A read/decode failure here means
// the connection is no longer usable; callers should close it without
// synthesizing a response.
func ReadRequest(r io.Reader) (Request, error) {
	var req Request
	err := readFrame(r, &req)
	return req, err
}

// WriteResponse frames and writes a Response.
func WriteResponse(w io.Writer, resp Response) error {
	return writeFrame(w, resp)
}

// ReadResponse reads one framed Response.
func ReadResponse(r io.Reader) (Response, error) {
	var resp Response
	err := readFrame(r, &resp)
	return resp, err
}

func writeFrame(w io.Writer, v interface{}) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}
	var hdr [4]byte
	binary.BigEndian.PutUint32(hdr[:], uint32(len(payload)))
	if _, err := w.Write(hdr[:]); err != nil {
		return fmt.Errorf("write frame header: %w", err)
	}
	if _, err := w.Write(payload); err != nil {
		return fmt.Errorf("write frame payload: %w", err)
	}
	return nil
}

func readFrame(r io.Reader, v interface{}) error {
	var size uint32
	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		return err
	}
	if size > MaxFrameSize {
		return fmt.Errorf("frame too large: %d bytes", size)
	}
	payload := make([]byte, size)
	if _, err := io.ReadFull(r, payload); err != nil {
		return fmt.Errorf("read frame payload: %w", err)
	}
	if err := json.Unmarshal(payload, v); err != nil {
		return fmt.Errorf("decode frame: %w", err)
	}
	return nil
}
