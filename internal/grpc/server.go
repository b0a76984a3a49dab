package server

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health/grpc_health_v1"

	middleware "github.com/davelindo/eero-menu-bar-sub001/internal/grpc/middlewares"
)

// ServerConfig holds configuration options for the gRPC server
type ServerConfig struct {
	RateLimit      float64 // Requests per second
	RateLimitBurst int     // Maximum burst size for rate limiting
}

// DefaultServerConfig returns a ServerConfig with sensible defaults
func DefaultServerConfig() ServerConfig {
	return ServerConfig{
		RateLimit:      5.0,
		RateLimitBurst: 10,
	}
}

// RegisterMetrics registers the interceptor collectors with reg.
func RegisterMetrics(reg prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{middleware.Requests, middleware.Latency} {
		if err := reg.Register(c); err != nil {
			return err
		}
	}
	return nil
}

// SetupServer builds the gRPC server with all middleware and registers the
// health service.
func SetupServer(health *HealthChecker, config ServerConfig, logger *logrus.Logger, opts ...grpc.ServerOption) *grpc.Server {
	limiter := rate.NewLimiter(rate.Limit(config.RateLimit), config.RateLimitBurst)

	opts = append(opts, grpc.UnaryInterceptor(
		chainUnaryInterceptors(
			middleware.ContextMiddleware,                                              // Add request ID first
			middleware.NewRateLimitingInterceptor(limiter),                            // Rate limit early
			middleware.NewLoggingInterceptor(logger),                                  // Log all requests (with request ID)
			middleware.NewMetricsInterceptor(middleware.Requests, middleware.Latency), // Collect metrics
		),
	))
	server := grpc.NewServer(opts...)

	grpc_health_v1.RegisterHealthServer(server, health)
	return server
}

// chainUnaryInterceptors creates a single interceptor from multiple interceptors
func chainUnaryInterceptors(interceptors ...grpc.UnaryServerInterceptor) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req interface{}, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (interface{}, error) {
		chain := handler
		for i := len(interceptors) - 1; i >= 0; i-- {
			interceptor := interceptors[i]
			next := chain
			chain = func(currentCtx context.Context, currentReq interface{}) (interface{}, error) {
				return interceptor(currentCtx, currentReq, info, next)
			}
		}
		return chain(ctx, req)
	}
}
