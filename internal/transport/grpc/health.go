package grpc_server

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"github.com/waste3d/edemy-api/internal/logger"
)

// Check probes one dependency. A nil error means it is usable.
type Check func(ctx context.Context) error

// HealthServer reports the service NOT_SERVING while any dependency check fails.
// Each check is also published as its own service name, e.g. "postgres".
type HealthServer struct {
	srv      *health.Server
	checks   map[string]Check
	interval time.Duration
	timeout  time.Duration
	log      logger.Logger
}

func NewHealthServer(log logger.Logger, interval time.Duration, checks map[string]Check) *HealthServer {
	h := &HealthServer{
		srv:      health.NewServer(),
		checks:   checks,
		interval: interval,
		timeout:  2 * time.Second,
		log:      log,
	}
	h.srv.SetServingStatus("", healthpb.HealthCheckResponse_NOT_SERVING)
	for name := range checks {
		h.srv.SetServingStatus(name, healthpb.HealthCheckResponse_NOT_SERVING)
	}
	return h
}

// NewServer builds a gRPC server exposing the health service and reflection.
func NewServer(h *HealthServer) *grpc.Server {
	s := grpc.NewServer()
	healthpb.RegisterHealthServer(s, h.srv)
	reflection.Register(s)
	return s
}

// Probe runs every check once and updates the published statuses.
func (h *HealthServer) Probe(ctx context.Context) bool {
	healthy := true
	for name, check := range h.checks {
		cctx, cancel := context.WithTimeout(ctx, h.timeout)
		err := check(cctx)
		cancel()

		status := healthpb.HealthCheckResponse_SERVING
		if err != nil {
			h.log.Warn("health check "+name+" failed", err)
			status = healthpb.HealthCheckResponse_NOT_SERVING
			healthy = false
		}
		h.srv.SetServingStatus(name, status)
	}

	overall := healthpb.HealthCheckResponse_SERVING
	if !healthy {
		overall = healthpb.HealthCheckResponse_NOT_SERVING
	}
	h.srv.SetServingStatus("", overall)
	return healthy
}

// Run probes immediately and then every interval until ctx is done. On exit all
// services are reported NOT_SERVING so clients drain before shutdown.
func (h *HealthServer) Run(ctx context.Context) {
	h.Probe(ctx)

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			h.srv.Shutdown()
			return
		case <-ticker.C:
			h.Probe(ctx)
		}
	}
}
