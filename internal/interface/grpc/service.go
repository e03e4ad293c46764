package grpcservice

import (
	"fmt"
	"net"

	log "github.com/sirupsen/logrus"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	grpchealth "google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService exposes the standard grpc health checking protocol so that
// orchestrators can check the daemon without going through the http api.
type HealthService struct {
	port       uint32
	grpcServer *grpc.Server
	health     *health.Server
}

func NewHealthService(port uint32) (*HealthService, error) {
	if port <= 0 {
		return nil, fmt.Errorf("missing health port")
	}

	grpcServer := grpc.NewServer()
	healthSvc := health.NewServer()
	grpchealth.RegisterHealthServer(grpcServer, healthSvc)
	healthSvc.SetServingStatus("", grpchealth.HealthCheckResponse_NOT_SERVING)

	return &HealthService{port, grpcServer, healthSvc}, nil
}

func (s *HealthService) Start() error {
	lis, err := net.Listen("tcp", s.address())
	if err != nil {
		return fmt.Errorf("failed to listen at %s: %s", s.address(), err)
	}

	// nolint:all
	go s.grpcServer.Serve(lis)
	s.health.SetServingStatus("", grpchealth.HealthCheckResponse_SERVING)
	log.Infof("health service listening at %s", s.address())
	return nil
}

func (s *HealthService) Stop() {
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
	log.Info("stopped health service")
}

func (s *HealthService) address() string {
	return fmt.Sprintf(":%d", s.port)
}
