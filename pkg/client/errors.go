package client

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"slices"
)

const maxErrorBody = 64 << 10

// Flow is one user-interactive authentication flow offered by the server.
type Flow struct {
	Stages []string `json:"stages"`
}

// Error is a non-2xx homeserver response.
type Error struct {
	StatusCode int    `json:"-"`
	ErrCode    string `json:"errcode,omitempty"`
	Message    string `json:"error,omitempty"`

	// Set on 401 responses that start user-interactive authentication.
	Session   string         `json:"session,omitempty"`
	Flows     []Flow         `json:"flows,omitempty"`
	Completed []string       `json:"completed,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
}

func (e *Error) Error() string {
	if e.ErrCode == "" && e.Message == "" {
		return fmt.Sprintf("homeserver returned %d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("homeserver returned %d: %s %s", e.StatusCode, e.ErrCode, e.Message)
}

// IsAuthRequired reports whether the server asks for user-interactive auth.
func (e *Error) IsAuthRequired() bool {
	return e.StatusCode == http.StatusUnauthorized && len(e.Flows) > 0
}

// SupportsStage reports whether any offered flow consists of stage alone.
func (e *Error) SupportsStage(stage string) bool {
	for _, f := range e.Flows {
		if slices.Equal(f.Stages, []string{stage}) {
			return true
		}
	}
	return false
}

func newError(resp *http.Response) error {
	e := &Error{StatusCode: resp.StatusCode}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	if err == nil && len(data) > 0 {
		// Non-JSON bodies still produce an Error with the status code
		_ = json.Unmarshal(data, e)
	}
	e.StatusCode = resp.StatusCode
	return e
}

// AsError unwraps err into a homeserver Error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
