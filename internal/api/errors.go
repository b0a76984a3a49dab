package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/davelindo/eero-menu-bar-sub001/internal/payload"
)

var (
	// ErrUnauthenticated means a call required a credential and none was held.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrInvalidResponse covers transport failures: URL resolution, network
	// errors and bodies that are not JSON.
	ErrInvalidResponse = errors.New("invalid response")
	// ErrInvalidPayload means a 2xx body did not have the shape the caller
	// required.
	ErrInvalidPayload = errors.New("invalid payload")
)

// ServerError is a non-2xx response with a best-effort message.
type ServerError struct {
	Code    int
	Message string
}

func (e *ServerError) Error() string {
	return fmt.Sprintf("server error %d: %s", e.Code, e.Message)
}

// IsStatus reports whether err is a ServerError with the given code.
func IsStatus(err error, code int) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Code == code
}

func newServerError(status int, body []byte) *ServerError {
	var msg string
	if v, err := payload.Parse(body); err == nil {
		msg = payload.String(v, "meta.error", "message", "error")
	}
	if msg == "" {
		msg = fmt.Sprintf("request failed with status %d %s", status, http.StatusText(status))
	}
	return &ServerError{Code: status, Message: msg}
}
