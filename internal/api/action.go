package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// Action is a mutating call (pause a client, toggle the guest network...).
// Queueing and retry belong to the caller.
type Action struct {
	Endpoint string
	Method   string
	Payload  any
}

var validActionMethods = map[string]bool{
	http.MethodGet:    true,
	http.MethodPost:   true,
	http.MethodPut:    true,
	http.MethodPatch:  true,
	http.MethodDelete: true,
}

// Validate checks that the action can be sent.
func (a Action) Validate() error {
	if strings.TrimSpace(a.Endpoint) == "" {
		return fmt.Errorf("missing endpoint")
	}
	if !validActionMethods[strings.ToUpper(a.Method)] {
		return fmt.Errorf("invalid method: %s", a.Method)
	}
	return nil
}

// Perform sends action through the transport with authentication.
func (c *Client) Perform(ctx context.Context, action Action) error {
	if err := action.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	_, err := c.Call(ctx, strings.ToUpper(action.Method), action.Endpoint, action.Payload, true)
	return err
}
