package api

import (
	"context"
	"time"

	"pos-catalog-browser/internal/store"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// HealthReporter publishes the serving status of the catalog API over the gRPC
// health checking protocol, following database reachability.
type HealthReporter struct {
	server  *health.Server
	pinger  store.Pinger
	service string
	logger  *zap.Logger
}

// NewHealthReporter creates a reporter for the named service. Both the overall ("") and the
// named service status start as NOT_SERVING until the first Check.
func NewHealthReporter(pinger store.Pinger, service string, logger *zap.Logger) *HealthReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	hs := health.NewServer()
	hs.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	hs.SetServingStatus(service, grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	return &HealthReporter{server: hs, pinger: pinger, service: service, logger: logger}
}

// Check pings the database once and updates the serving status accordingly.
func (h *HealthReporter) Check(ctx context.Context) grpc_health_v1.HealthCheckResponse_ServingStatus {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	status := grpc_health_v1.HealthCheckResponse_SERVING
	if err := h.pinger.Ping(ctx); err != nil {
		status = grpc_health_v1.HealthCheckResponse_NOT_SERVING
		h.logger.Warn("gRPC health check DB ping failed", zap.Error(err))
	}
	h.server.SetServingStatus("", status)
	h.server.SetServingStatus(h.service, status)
	return status
}

// Watch runs Check immediately and then every interval until ctx is done.
func (h *HealthReporter) Watch(ctx context.Context, interval time.Duration) {
	h.Check(ctx)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Check(ctx)
		}
	}
}

// Shutdown sets every status to NOT_SERVING and ignores later updates.
func (h *HealthReporter) Shutdown() {
	h.server.Shutdown()
}

// NewGRPCServer builds the gRPC server exposing the health service and reflection.
func NewGRPCServer(reporter *HealthReporter, logger *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := grpc.NewServer(opts...)

	// Register gRPC Health Checking Protocol service.
	grpc_health_v1.RegisterHealthServer(s, reporter.server)
	logger.Info("gRPC health check service registered", zap.String("service", reporter.service))

	// Enable gRPC server reflection (useful for tools like grpcurl).
	reflection.Register(s)
	logger.Info("gRPC reflection service registered")

	return s
}
