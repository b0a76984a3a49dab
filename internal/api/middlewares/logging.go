package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

// NewLogging logs every outbound call at debug level.
func NewLogging(logger *logrus.Logger) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			fields := logrus.Fields{
				"request_id": req.Header.Get(RequestIDHeader),
				"method":     req.Method,
				"path":       req.URL.Path,
				"duration":   time.Since(start),
			}
			if resp != nil {
				fields["status"] = resp.StatusCode
			}
			if err != nil {
				logger.WithFields(fields).WithError(err).Debug("API call failed")
			} else {
				logger.WithFields(fields).Debug("API call")
			}
			return resp, err
		})
	}
}
