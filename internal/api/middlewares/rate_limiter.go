package middleware

import (
	"net/http"

	"golang.org/x/time/rate"
)

// NewRateLimiter blocks each request until limiter admits it or the request
// context ends.
func NewRateLimiter(limiter *rate.Limiter) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			if err := limiter.Wait(req.Context()); err != nil {
				return nil, err
			}
			return next.RoundTrip(req)
		})
	}
}
