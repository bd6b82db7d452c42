// Package hostrpc implements the wire protocol for the audio host's
// local remote-procedure service.
//
// This package contains:
//   - Command identifiers and per-command body types
//   - Request: header-carrying envelope, constructible only via NewRequest
//   - Response: envelope with a JSON body and a parsed error list
//   - Transport interface: gRPC (primary) and HTTP implementations
package hostrpc

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Command identifies a host command.
type Command string

const (
	CmdRegisterConnection  Command = "register_connection"
	CmdHostReadyCheck      Command = "host_ready_check"
	CmdGetSessionName      Command = "get_session_name"
	CmdGetSampleRate       Command = "get_session_sample_rate"
	CmdGetTimecodeRate     Command = "get_session_timecode_rate"
	CmdGetTrackList        Command = "get_track_list"
	CmdGetMemoryLocations  Command = "get_memory_locations"
	CmdCreateMemoryLocation Command = "create_memory_location"
)

// Header accompanies every request and response.
type Header struct {
	Command   Command `json:"command"`
	TaskID    string  `json:"task_id"`
	SessionID string  `json:"session_id,omitempty"`
	Status    string  `json:"status,omitempty"`
}

// Request is the outgoing envelope. The header is mandatory at the type
// level: a Request can only be built through NewRequest, which always
// constructs a complete header, so no runtime repair path exists.
type Request struct {
	header Header
	body   json.RawMessage
}

// NewRequest builds a request for cmd with the given JSON-encodable body.
// A fresh task-correlation id is assigned. Pass nil for commands without
// a body.
func NewRequest(cmd Command, body any) (*Request, error) {
	r := &Request{
		header: Header{
			Command: cmd,
			TaskID:  uuid.New().String(),
		},
	}
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("encode %s body: %w", cmd, err)
		}
		r.body = data
	}
	return r, nil
}

// SetSessionID stamps the current session id into the header. The
// connection manager calls this immediately before transmission so the
// header can never diverge from the manager's session identity.
func (r *Request) SetSessionID(id string) {
	r.header.SessionID = id
}

// Header returns a copy of the request header.
func (r *Request) Header() Header {
	return r.header
}

// Body returns the raw JSON body, nil for body-less commands.
func (r *Request) Body() json.RawMessage {
	return r.body
}

// MarshalJSON encodes the wire form of the request.
func (r *Request) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Header Header          `json:"header"`
		Body   json.RawMessage `json:"request_body,omitempty"`
	}{r.header, r.body})
}

// UnmarshalJSON decodes the wire form. Present for transports that echo
// requests back in diagnostics.
func (r *Request) UnmarshalJSON(data []byte) error {
	var wire struct {
		Header Header          `json:"header"`
		Body   json.RawMessage `json:"request_body"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	r.header = wire.Header
	r.body = wire.Body
	return nil
}

// Response is the incoming envelope.
type Response struct {
	Header Header          `json:"header"`
	Body   json.RawMessage `json:"response_body,omitempty"`
	Errors []CommandError  `json:"errors,omitempty"`
}

// DecodeBody unmarshals the response body into v.
func (r *Response) DecodeBody(v any) error {
	if len(r.Body) == 0 {
		return fmt.Errorf("%s: empty response body", r.Header.Command)
	}
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("decode %s body: %w", r.Header.Command, err)
	}
	return nil
}

// Err returns the first fatal entry in the error list, or nil when the
// list is empty or contains only warnings.
func (r *Response) Err() error {
	for i := range r.Errors {
		if r.Errors[i].Severity == SeverityError {
			return &r.Errors[i]
		}
	}
	return nil
}

// Warnings returns the non-fatal entries of the error list.
func (r *Response) Warnings() []CommandError {
	var out []CommandError
	for _, e := range r.Errors {
		if e.Severity == SeverityWarning {
			out = append(out, e)
		}
	}
	return out
}

// Severity tags an error-list entry at parse time.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

// CommandError is one entry of a response's error payload. The host's
// wire form flags non-fatal entries with is_warning; that boolean is
// folded into Severity during decoding.
type CommandError struct {
	Type     string `json:"type"`
	Message  string `json:"message"`
	Severity Severity
}

func (e *CommandError) Error() string {
	if e.Type != "" {
		return fmt.Sprintf("host error %s: %s", e.Type, e.Message)
	}
	return fmt.Sprintf("host error: %s", e.Message)
}

// UnmarshalJSON maps the wire is_warning flag onto Severity.
func (e *CommandError) UnmarshalJSON(data []byte) error {
	var wire struct {
		Type      string `json:"type"`
		Message   string `json:"message"`
		IsWarning bool   `json:"is_warning"`
	}
	if err := json.Unmarshal(data, &wire); err != nil {
		return err
	}
	e.Type = wire.Type
	e.Message = wire.Message
	if wire.IsWarning {
		e.Severity = SeverityWarning
	} else {
		e.Severity = SeverityError
	}
	return nil
}

// MarshalJSON writes the wire form back out.
func (e CommandError) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Type      string `json:"type"`
		Message   string `json:"message"`
		IsWarning bool   `json:"is_warning"`
	}{e.Type, e.Message, e.Severity == SeverityWarning})
}
