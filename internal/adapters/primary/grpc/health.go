package grpc

import (
	"net"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

// ProbeServer expose le health check gRPC standard (K8s, grpcurl) à côté de l'API HTTP.
// Le store n'a pas de service gRPC propre : seul l'état de santé passe par ici.
type ProbeServer struct {
	server *grpc.Server
	health *health.Server
	name   string
}

// NewProbeServer crée le serveur, NOT_SERVING tant que SetServing(true) n'a pas été appelé.
func NewProbeServer(serviceName string, withReflection bool) *ProbeServer {
	s := grpc.NewServer(grpc.StatsHandler(otelgrpc.NewServerHandler()))

	h := health.NewServer()
	grpc_health_v1.RegisterHealthServer(s, h)

	if withReflection {
		reflection.Register(s)
	}

	p := &ProbeServer{server: s, health: h, name: serviceName}
	p.SetServing(false)
	return p
}

func (p *ProbeServer) SetServing(serving bool) {
	status := grpc_health_v1.HealthCheckResponse_NOT_SERVING
	if serving {
		status = grpc_health_v1.HealthCheckResponse_SERVING
	}
	p.health.SetServingStatus("", status)
	p.health.SetServingStatus(p.name, status)
}

// Serve bloque jusqu'à Stop/GracefulStop.
func (p *ProbeServer) Serve(lis net.Listener) error {
	return p.server.Serve(lis)
}

// GracefulStop passe NOT_SERVING puis laisse finir les appels en cours.
func (p *ProbeServer) GracefulStop() {
	p.health.Shutdown()
	p.server.GracefulStop()
}

func (p *ProbeServer) Stop() {
	p.server.Stop()
}
