package middleware

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var info = &grpc.UnaryServerInfo{FullMethod: "/grpc.health.v1.Health/Check"}

func TestContextMiddlewareSetsRequestID(t *testing.T) {
	var seen string
	_, err := ContextMiddleware(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		seen = RequestID(ctx)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Len(t, seen, 36)
	assert.Empty(t, RequestID(context.Background()))
}

func TestRateLimitingInterceptor(t *testing.T) {
	interceptor := NewRateLimitingInterceptor(rate.NewLimiter(rate.Limit(0.001), 1))
	handler := func(ctx context.Context, req interface{}) (interface{}, error) { return "ok", nil }

	resp, err := interceptor(context.Background(), nil, info, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	_, err = interceptor(context.Background(), nil, info, handler)
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}

func TestLoggingAndMetricsInterceptors(t *testing.T) {
	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)
	logger.SetOutput(io.Discard)

	requests := prometheus.NewCounterVec(prometheus.CounterOpts{Name: "test_requests_total", Help: "test"}, []string{"method", "code"})
	latency := prometheus.NewHistogramVec(prometheus.HistogramOpts{Name: "test_latency_seconds", Help: "test"}, []string{"method"})

	logging := NewLoggingInterceptor(logger)
	metrics := NewMetricsInterceptor(requests, latency)

	failing := func(ctx context.Context, req interface{}) (interface{}, error) {
		return nil, status.Error(codes.Unavailable, "down")
	}
	_, err := logging(context.Background(), nil, info, func(ctx context.Context, req interface{}) (interface{}, error) {
		return metrics(ctx, req, info, failing)
	})
	require.Error(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(requests.WithLabelValues("Check", "Unavailable")))
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, "Unavailable", hook.LastEntry().Data["code"])
	assert.True(t, errors.Is(hook.LastEntry().Data[logrus.ErrorKey].(error), err))
}
