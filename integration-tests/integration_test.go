//go:build integration
// +build integration

package integration_test

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/test/bufconn"

	"github.com/davelindo/eero-menu-bar-sub001/internal/api"
	middleware "github.com/davelindo/eero-menu-bar-sub001/internal/api/middlewares"
	"github.com/davelindo/eero-menu-bar-sub001/internal/cache"
	"github.com/davelindo/eero-menu-bar-sub001/internal/database"
	"github.com/davelindo/eero-menu-bar-sub001/internal/enrich"
	server "github.com/davelindo/eero-menu-bar-sub001/internal/grpc"
	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
	"github.com/davelindo/eero-menu-bar-sub001/internal/scheduler"
	"github.com/davelindo/eero-menu-bar-sub001/internal/snapshot"
	"github.com/davelindo/eero-menu-bar-sub001/internal/usage"
)

const bufSize = 1024 * 1024

var vendorRoutes = map[string]string{
	"/2.2/account": `{"networks": {"count": 1, "data": [{"url": "/2.2/networks/42", "name": "Home"}]}}`,
	"/2.2/networks/42": `{
		"url": "/2.2/networks/42",
		"name": "Home",
		"premium_status": "active",
		"resources": {"devices": "/2.2/networks/42/devices", "eeros": "/2.2/networks/42/eeros"}
	}`,
	"/2.2/networks/42/eeros": `[
		{"url": "/2.2/eeros/1", "location": "Living Room", "gateway": true, "status": "connected",
		 "mac_address": "F0:00:00:00:00:01", "resources": {"connections": "/2.2/eeros/1/connections"}},
		{"url": "/2.2/eeros/2", "location": "Office", "gateway": false, "status": "connected"}
	]`,
	"/2.2/eeros/1": `{"url": "/2.2/eeros/1", "ip_address": "192.168.4.1", "mesh_quality_bars": 5}`,
	"/2.2/eeros/1/connections": `{"ports": {"interfaces": [
		{"interface_number": 1, "has_carrier": true, "speed": "1000", "neighbor": {"name": "Office", "url": "/2.2/eeros/2", "type": "eero"}}
	]}}`,
	"/2.2/networks/42/devices": `[
		{"url": "/2.2/networks/42/devices/d1", "mac": "AA:AA:AA:AA:AA:AA", "nickname": "Laptop", "connected": true,
		 "wireless": true, "channel": 36, "connectivity": {"signal": "-55 dBm"}, "usage": {"down_mbps": 40, "up_mbps": 4},
		 "source": {"url": "/2.2/eeros/1"}},
		{"url": "/2.2/networks/42/devices/d2", "mac": "BB:BB:BB:BB:BB:BB", "nickname": "Printer", "connected": true,
		 "wireless": false, "source": {"location": "office"}}
	]`,
	"/2.2/networks/42/data_usage":         `{"download": 900, "upload": 90}`,
	"/2.2/networks/42/data_usage/eeros":   `{"values": [{"url": "/2.2/eeros/1", "download": 600, "upload": 60}]}`,
	"/2.2/networks/42/data_usage/devices": `{"values": [{"mac": "aa:aa:aa:aa:aa:aa", "name": "Laptop", "download": 300, "upload": 30}]}`,
}

// newVendorAPI serves vendorRoutes inside the vendor envelope. Only the
// "fresh" token is accepted; "stale" may only be used to refresh.
func newVendorAPI(t *testing.T) (*httptest.Server, *int32) {
	t.Helper()
	var refreshes int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		cookie, _ := r.Cookie("s")

		if r.URL.Path == api.DefaultRefreshPath && r.Method == http.MethodPost {
			atomic.AddInt32(&refreshes, 1)
			fmt.Fprint(w, `{"meta": {"code": 200}, "data": {"user_token": "fresh"}}`)
			return
		}
		if cookie == nil || cookie.Value != "fresh" {
			w.WriteHeader(http.StatusUnauthorized)
			fmt.Fprint(w, `{"meta": {"code": 401, "error": "error.session.refresh"}}`)
			return
		}

		body, ok := vendorRoutes[r.URL.Path]
		if !ok && strings.HasPrefix(r.URL.Path, "/2.2/networks/42/data_usage/devices/") {
			start := time.Now().Add(-2 * time.Hour).Truncate(time.Hour).Unix()
			body, ok = fmt.Sprintf(`{"values": [
				{"time": %d, "download": 120, "upload": 12},
				{"time": %d, "download": 0, "upload": 0},
				{"time": %d, "download": 80, "upload": 8}
			]}`, start, start+3600, start+7200), true
		}
		if !ok {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprintf(w, `{"meta": {"code": 404, "error": "%s not found"}}`, r.URL.Path)
			return
		}
		fmt.Fprintf(w, `{"meta": {"code": 200}, "data": %s}`, body)
	}))
	t.Cleanup(srv.Close)
	return srv, &refreshes
}

func newEngine(t *testing.T, baseURL string, logger *logrus.Logger) *snapshot.Engine {
	t.Helper()

	client, err := api.NewClient(api.Options{
		BaseURL:   baseURL,
		Transport: middleware.Chain(http.DefaultTransport, middleware.RequestID, middleware.NewLogging(logger)),
	}, api.NewSession(api.NewMemoryCredentials("stale")), logger)
	require.NoError(t, err)

	resolver := api.NewResolver(nil)
	pipeline := enrich.NewPipeline(client, resolver, logger,
		enrich.WithActivity(usage.NewFetcher(client, resolver, logger, usage.WithTimelineHours(6))))
	return snapshot.NewEngine(client, pipeline, logger)
}

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func TestAccountSnapshotAgainstVendorAPI(t *testing.T) {
	vendor, refreshes := newVendorAPI(t)
	engine := newEngine(t, vendor.URL, quietLogger())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	snap, raws, err := engine.FetchAccountWithRawPayloads(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(refreshes), "the stale token is refreshed exactly once")

	require.Len(t, snap.Networks, 1)
	require.Len(t, raws, 1)
	n := snap.Networks[0]
	assert.Equal(t, "Home", n.Name)
	assert.True(t, n.Premium)

	require.Len(t, n.Nodes, 2)
	gateway := n.Nodes[0]
	assert.Equal(t, "192.168.4.1", gateway.IP)
	assert.Equal(t, []string{"Laptop"}, gateway.ConnectedClientNames)
	require.NotEmpty(t, gateway.EthernetStatuses)
	assert.Equal(t, "Office", gateway.EthernetStatuses[0].NeighborName)
	assert.Equal(t, []string{"Printer"}, n.Nodes[1].ConnectedClientNames)

	require.NotNil(t, n.Mesh)
	assert.Equal(t, 2, n.Mesh.OnlineEeroCount)

	require.NotNil(t, n.Clients[0].Usage.Day)
	assert.Equal(t, int64(330), n.Clients[0].Usage.Day.Total())
	require.NotNil(t, gateway.Usage.Day)
	assert.Equal(t, int64(660), gateway.Usage.Day.Total())

	require.NotNil(t, n.Activity)
	require.Len(t, n.Activity.DeviceTimelines, 1)
	timeline := n.Activity.DeviceTimelines[0]
	require.Len(t, timeline.Samples, 2, "zero samples are dropped")
	assert.Equal(t, int64(200), timeline.TotalDownload)

	require.NotNil(t, n.Realtime)
	assert.Equal(t, 40.0, n.Realtime.DownloadMbps)
}

func TestSchedulerReportsHealth(t *testing.T) {
	vendor, _ := newVendorAPI(t)
	logger := quietLogger()
	engine := newEngine(t, vendor.URL, logger)

	health := server.NewHealthChecker()
	lis := bufconn.Listen(bufSize)
	srv := server.SetupServer(health, server.DefaultServerConfig(), logger)
	go func() {
		_ = srv.Serve(lis)
	}()
	defer srv.Stop()

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	defer conn.Close()
	client := grpc_health_v1.NewHealthClient(conn)

	snapshots, err := cache.New(4)
	require.NoError(t, err)
	sched := scheduler.NewScheduler(context.Background(), engine, snapshots, logger, scheduler.WithHealth(health))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err = sched.RunOnce(ctx)
	require.NoError(t, err)

	resp, err := client.Check(ctx, &grpc_health_v1.HealthCheckRequest{Service: server.SnapshotService})
	require.NoError(t, err)
	assert.Equal(t, grpc_health_v1.HealthCheckResponse_SERVING, resp.Status)

	cached, ok := snapshots.Get(nil)
	require.True(t, ok)
	assert.Len(t, cached.Networks, 1)
}

func TestUsageHistoryRoundTrip(t *testing.T) {
	host := os.Getenv("DB_HOST")
	if host == "" {
		t.Skip("DB_HOST not set")
	}
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		host,
		getEnvOrDefault("DB_PORT", "5432"),
		getEnvOrDefault("DB_USER", "eerosnap"),
		getEnvOrDefault("DB_PASSWORD", "eerosnap"),
		getEnvOrDefault("DB_NAME", "eerosnap"),
	)

	repo, err := database.NewPostgresRepo(connStr)
	require.NoError(t, err)
	defer repo.Close()

	ctx := context.Background()
	require.NoError(t, repo.EnsureSchema(ctx))

	hour := time.Now().UTC().Truncate(time.Hour)
	key := fmt.Sprintf("it-%d", time.Now().UnixNano())
	snap := &models.AccountSnapshot{
		FetchedAt: hour,
		Networks: []models.Network{{
			ExternalID: "42",
			Activity: &models.ActivitySummary{
				DeviceTimelines: []models.DeviceTimeline{{
					Key: key,
					Samples: []models.TimelineSample{
						{Time: hour.Add(-90 * time.Minute), Download: 10, Upload: 1},
						{Time: hour.Add(-80 * time.Minute), Download: 20, Upload: 2},
					},
				}},
			},
		}},
	}
	require.NoError(t, repo.StoreSnapshot(ctx, snap))
	// Storing twice upserts instead of duplicating.
	require.NoError(t, repo.StoreSnapshot(ctx, snap))

	points, err := repo.QueryDeviceUsage(ctx, "42", key, hour.Add(-3*time.Hour), hour, "1h")
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, int64(30), points[0].Download)
	assert.Equal(t, int64(3), points[0].Upload)
}

// Helper function to get environment variables with defaults
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
