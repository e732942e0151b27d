package api

import (
	"slices"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"

	"storefront-service/internal/catalog"
)

// HealthServiceName is the service name probes ask about. The empty name reports the same status.
const HealthServiceName = "storefront.v1.Storefront"

// SnapshotFeed is the synchronizer surface the health reporter follows.
type SnapshotFeed interface {
	Snapshot() *catalog.Snapshot
	Subscribe(fn func(*catalog.Snapshot)) func()
}

// HealthReporter drives the gRPC health status from catalog sync results.
type HealthReporter struct {
	server      *health.Server
	logger      *zap.Logger
	unsubscribe func()
}

// NewHealthReporter starts NOT_SERVING and follows every snapshot src publishes.
func NewHealthReporter(src SnapshotFeed, logger *zap.Logger) *HealthReporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	hr := &HealthReporter{server: health.NewServer(), logger: logger}
	hr.Update(src.Snapshot())
	hr.unsubscribe = src.Subscribe(hr.Update)
	return hr
}

// Serving reports whether snap can back the storefront: it was fetched at least once and
// its product slice is current.
func Serving(snap *catalog.Snapshot) bool {
	return snap != nil && !snap.FetchedAt.IsZero() && !slices.Contains(snap.Stale, catalog.SliceProducts)
}

// Update sets the serving status from snap.
func (hr *HealthReporter) Update(snap *catalog.Snapshot) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if Serving(snap) {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	hr.server.SetServingStatus("", status)
	hr.server.SetServingStatus(HealthServiceName, status)
	hr.logger.Debug("health status updated", zap.String("status", status.String()))
}

func (hr *HealthReporter) Server() *health.Server { return hr.server }

// Shutdown stops following the catalog and reports NOT_SERVING to every watcher.
func (hr *HealthReporter) Shutdown() {
	hr.unsubscribe()
	hr.server.Shutdown()
}

// NewGRPCServer builds the gRPC server with the health and reflection services registered.
func NewGRPCServer(hr *HealthReporter, logger *zap.Logger, opts ...grpc.ServerOption) *grpc.Server {
	s := grpc.NewServer(opts...)

	grpc_health_v1.RegisterHealthServer(s, hr.Server())
	logger.Info("gRPC health check service registered", zap.String("service", HealthServiceName))

	// Enable gRPC server reflection (useful for tools like grpcurl).
	reflection.Register(s)
	logger.Info("gRPC reflection service registered")

	return s
}
