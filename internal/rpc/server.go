// Package rpc exposes gRPC health checking and reflection for the service.
package rpc

import (
	"context"
	"database/sql"
	"log"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

const ServiceName = "vidhub"

type Server struct {
	GRPC   *grpc.Server
	Health *health.Server
	db     *sql.DB
}

// NewServer registers the health and reflection services. Status starts
// as NOT_SERVING until the first probe succeeds.
func NewServer(db *sql.DB) *Server {
	s := &Server{
		GRPC:   grpc.NewServer(),
		Health: health.NewServer(),
		db:     db,
	}
	healthpb.RegisterHealthServer(s.GRPC, s.Health)
	reflection.Register(s.GRPC)
	s.set(healthpb.HealthCheckResponse_NOT_SERVING)
	return s
}

func (s *Server) set(status healthpb.HealthCheckResponse_ServingStatus) {
	s.Health.SetServingStatus("", status)
	s.Health.SetServingStatus(ServiceName, status)
}

// Probe pings the database once and publishes the result.
func (s *Server) Probe(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := s.db.PingContext(ctx); err != nil {
		log.Printf("health probe failed: %v", err)
		s.set(healthpb.HealthCheckResponse_NOT_SERVING)
		return false
	}
	s.set(healthpb.HealthCheckResponse_SERVING)
	return true
}

// RunProbe probes every interval until ctx is done, then marks the
// service NOT_SERVING.
func (s *Server) RunProbe(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	s.Probe(ctx)
	for {
		select {
		case <-ctx.Done():
			s.Health.Shutdown()
			return
		case <-t.C:
			s.Probe(ctx)
		}
	}
}
