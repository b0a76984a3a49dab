package server

import (
	"context"
	"sync"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/status"
)

// SnapshotService is the health service name tracking snapshot refreshes.
const SnapshotService = "snapshot"

type servingStatus = grpc_health_v1.HealthCheckResponse_ServingStatus

// HealthChecker implements the gRPC health checking protocol
type HealthChecker struct {
	grpc_health_v1.UnimplementedHealthServer
	mu       sync.RWMutex
	status   map[string]servingStatus
	watchers map[string]map[chan servingStatus]struct{}
}

func NewHealthChecker() *HealthChecker {
	return &HealthChecker{
		status:   make(map[string]servingStatus),
		watchers: make(map[string]map[chan servingStatus]struct{}),
	}
}

func (h *HealthChecker) Check(ctx context.Context, req *grpc_health_v1.HealthCheckRequest) (*grpc_health_v1.HealthCheckResponse, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if status, ok := h.status[req.Service]; ok {
		return &grpc_health_v1.HealthCheckResponse{
			Status: status,
		}, nil
	}

	return nil, status.Error(codes.NotFound, "unknown service")
}

// Watch streams the current status of the service, then every change until
// the client goes away. Unknown services report SERVICE_UNKNOWN.
func (h *HealthChecker) Watch(req *grpc_health_v1.HealthCheckRequest, stream grpc_health_v1.Health_WatchServer) error {
	updates := make(chan servingStatus, 1)

	h.mu.Lock()
	last, ok := h.status[req.Service]
	if !ok {
		last = grpc_health_v1.HealthCheckResponse_SERVICE_UNKNOWN
	}
	if h.watchers[req.Service] == nil {
		h.watchers[req.Service] = make(map[chan servingStatus]struct{})
	}
	h.watchers[req.Service][updates] = struct{}{}
	h.mu.Unlock()

	defer func() {
		h.mu.Lock()
		delete(h.watchers[req.Service], updates)
		h.mu.Unlock()
	}()

	if err := stream.Send(&grpc_health_v1.HealthCheckResponse{Status: last}); err != nil {
		return err
	}
	for {
		select {
		case s := <-updates:
			if s == last {
				continue
			}
			last = s
			if err := stream.Send(&grpc_health_v1.HealthCheckResponse{Status: s}); err != nil {
				return err
			}
		case <-stream.Context().Done():
			return status.Error(codes.Canceled, "watch cancelled")
		}
	}
}

// SetServingStatus sets the serving status of a service
func (h *HealthChecker) SetServingStatus(service string, status servingStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status[service] = status

	// Watchers only need the newest value.
	for ch := range h.watchers[service] {
		select {
		case <-ch:
		default:
		}
		ch <- status
	}
}

// Report records the outcome of a snapshot refresh for both the snapshot
// service and the server as a whole.
func (h *HealthChecker) Report(serving bool) {
	s := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		s = grpc_health_v1.HealthCheckResponse_SERVING
	}
	h.SetServingStatus(SnapshotService, s)
	h.SetServingStatus("", s)
}

// Shutdown marks every known service NOT_SERVING.
func (h *HealthChecker) Shutdown() {
	h.mu.RLock()
	services := make([]string, 0, len(h.status))
	for service := range h.status {
		services = append(services, service)
	}
	h.mu.RUnlock()

	for _, service := range services {
		h.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	}
}
