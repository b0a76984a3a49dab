package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	Requests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "eero_api_requests_total",
			Help: "Outbound vendor API requests by method and status code.",
		},
		[]string{"method", "code"},
	)
	Latency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "eero_api_request_duration_seconds",
			Help:    "Outbound vendor API request latency.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method"},
	)
)

// NewMetrics records request counts and latency. Transport failures are
// counted with code "error".
func NewMetrics(requests *prometheus.CounterVec, latency *prometheus.HistogramVec) Middleware {
	return func(next http.RoundTripper) http.RoundTripper {
		return RoundTripperFunc(func(req *http.Request) (*http.Response, error) {
			start := time.Now()
			resp, err := next.RoundTrip(req)

			code := "error"
			if resp != nil {
				code = strconv.Itoa(resp.StatusCode)
			}
			requests.WithLabelValues(req.Method, code).Inc()
			latency.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

			return resp, err
		})
	}
}
