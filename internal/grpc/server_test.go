package server_test

import (
	"context"
	"io"
	"net"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	server "github.com/davelindo/eero-menu-bar-sub001/internal/grpc"
)

const bufSize = 1024 * 1024

func startServer(t *testing.T, health *server.HealthChecker, config server.ServerConfig) grpc_health_v1.HealthClient {
	t.Helper()

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	lis := bufconn.Listen(bufSize)
	srv := server.SetupServer(health, config, logger)
	go func() {
		_ = srv.Serve(lis)
	}()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	return grpc_health_v1.NewHealthClient(conn)
}

func TestHealthCheck(t *testing.T) {
	health := server.NewHealthChecker()
	client := startServer(t, health, server.DefaultServerConfig())
	ctx := context.Background()

	_, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: server.SnapshotService})
	assert.Equal(t, codes.NotFound, status.Code(err))

	health.Report(true)
	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: server.SnapshotService})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	health.Report(false)
	resp, err = client.Check(ctx, &grpc_health_v1.HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestHealthWatch(t *testing.T) {
	health := server.NewHealthChecker()
	client := startServer(t, health, server.DefaultServerConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	stream, err := client.Watch(ctx, &grpc_health_v1.HealthCheckRequest{Service: server.SnapshotService})
	require.NoError(t, err)

	resp, err := stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVICE_UNKNOWN, resp.Status)

	health.Report(true)
	resp, err = stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	health.Shutdown()
	resp, err = stream.Recv()
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestRateLimitedCheck(t *testing.T) {
	health := server.NewHealthChecker()
	health.Report(true)
	client := startServer(t, health, server.ServerConfig{RateLimit: 0.001, RateLimitBurst: 1})
	ctx := context.Background()

	_, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: server.SnapshotService})
	require.NoError(t, err)

	_, err = client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: server.SnapshotService})
	assert.Equal(t, codes.ResourceExhausted, status.Code(err))
}
