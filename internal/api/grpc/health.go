package grpc

import (
	"context"
	"net"
	"sync"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"arriendo-cajas-backend/internal/api/grpc/interceptor"
	"arriendo-cajas-backend/internal/logger"
)

// ServiceName is the health service name load balancers probe besides the overall ""
const ServiceName = "arriendo.v1.Backend"

// Check reports whether a dependency is usable
type Check func(ctx context.Context) error

// HealthServer exposes grpc.health.v1 backed by periodic dependency checks
type HealthServer struct {
	server   *grpc.Server
	health   *health.Server
	check    Check
	interval time.Duration

	mu      sync.Mutex
	serving bool
}

func NewHealthServer(check Check, interval time.Duration) *HealthServer {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	s := grpc.NewServer(grpc.ChainUnaryInterceptor(interceptor.Recovery(), interceptor.Logging()))
	hs := health.NewServer()
	healthpb.RegisterHealthServer(s, hs)
	reflection.Register(s)

	h := &HealthServer{server: s, health: hs, check: check, interval: interval}
	h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return h
}

func (h *HealthServer) set(st healthpb.HealthCheckResponse_ServingStatus) {
	h.health.SetServingStatus("", st)
	h.health.SetServingStatus(ServiceName, st)
}

// Refresh runs the dependency check once and publishes the result
func (h *HealthServer) Refresh(ctx context.Context) bool {
	ok := true
	if h.check != nil {
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := h.check(ctx)
		cancel()
		if err != nil {
			logger.Warn("Health check failed", "error", err)
			ok = false
		}
	}

	h.mu.Lock()
	changed := ok != h.serving
	h.serving = ok
	h.mu.Unlock()

	if ok {
		h.set(healthpb.HealthCheckResponse_SERVING)
	} else {
		h.set(healthpb.HealthCheckResponse_NOT_SERVING)
	}
	if changed {
		logger.Info("Health status changed", "serving", ok)
	}
	return ok
}

// Watch refreshes the status every interval until ctx is done
func (h *HealthServer) Watch(ctx context.Context) {
	h.Refresh(ctx)
	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Refresh(ctx)
		}
	}
}

// Serve blocks until the listener fails or Stop is called
func (h *HealthServer) Serve(lis net.Listener) error {
	return h.server.Serve(lis)
}

// Stop marks the service as not serving and drains in-flight calls
func (h *HealthServer) Stop() {
	h.health.Shutdown()
	h.server.GracefulStop()
}
