package grpc

import (
	"fmt"
	"net"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/reflection"

	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// ServiceName имя сервиса в grpc.health.v1
const ServiceName = "primeconnect.Dashboard"

// Server gRPC сервер
type Server struct {
	grpcServer *grpc.Server
	health     *health.Server
	port       string
	log        *logger.Logger
	listener   net.Listener
}

// NewServer создает новый gRPC сервер с health сервисом и reflection
func NewServer(port string, log *logger.Logger, interceptors ...grpc.UnaryServerInterceptor) *Server {
	// Настройки keepalive для gRPC
	kaParams := keepalive.ServerParameters{
		MaxConnectionIdle:     time.Minute * 5,  // Максимальное время простоя соединения
		MaxConnectionAge:      time.Hour,        // Максимальное время жизни соединения
		MaxConnectionAgeGrace: time.Minute * 5,  // Дополнительное время для завершения запросов при закрытии соединения
		Time:                  time.Minute * 2,  // Время между пингами для проверки активности
		Timeout:               time.Second * 20, // Таймаут после которого соединение закрывается если нет ответа на пинг
	}

	opts := []grpc.ServerOption{
		grpc.KeepaliveParams(kaParams),
		grpc.ChainUnaryInterceptor(interceptors...),
	}
	grpcServer := grpc.NewServer(opts...)

	healthServer := health.NewServer()
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus(ServiceName, healthpb.HealthCheckResponse_NOT_SERVING)

	// Включаем reflection для удобства отладки (например, с помощью grpcurl)
	reflection.Register(grpcServer)

	return &Server{
		grpcServer: grpcServer,
		health:     healthServer,
		port:       port,
		log:        log,
	}
}

// Health возвращает health сервер для обновления статуса
func (s *Server) Health() *health.Server {
	return s.health
}

// Start слушает порт и запускает gRPC сервер
func (s *Server) Start() error {
	addr := ":" + s.port
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	return s.Serve(listener)
}

// Serve запускает gRPC сервер на готовом listener
func (s *Server) Serve(listener net.Listener) error {
	s.listener = listener
	s.log.Info("Starting gRPC server on %s", listener.Addr())

	if err := s.grpcServer.Serve(listener); err != nil {
		return fmt.Errorf("failed to serve: %w", err)
	}
	return nil
}

// Stop останавливает gRPC сервер
func (s *Server) Stop() {
	s.log.Info("Stopping gRPC server")
	s.health.Shutdown()
	s.grpcServer.GracefulStop()
}
