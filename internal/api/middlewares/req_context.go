package middleware

import (
	"net/http"

	"github.com/google/uuid"
)

// RequestIDHeader carries the per-call correlation id.
const RequestIDHeader = "X-Request-Id"

// RequestID stamps every outbound request with a fresh id unless one is
// already set.
func RequestID(next http.RoundTripper) http.RoundTripper {
	return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
		if req.Header.Get(RequestIDHeader) != "" {
			return next.RoundTrip(req)
		}
		req = req.Clone(req.Context())
		req.Header.Set(RequestIDHeader, generateRequestID())
		return next.RoundTrip(req)
	})
}

func generateRequestID() string {
	return uuid.NewString()
}
