package grpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/internal/service"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// DashboardLoader загружает состояние дашборда клиента
type DashboardLoader interface {
	Load(ctx context.Context, identity *domain.Identity) (service.DashboardState, error)
}

// CatalogLoader загружает каталог пакетов
type CatalogLoader interface {
	Load(ctx context.Context, identity *domain.Identity) (service.CatalogState, error)
}

// DashboardRPC методы сервиса primeconnect.Dashboard
type DashboardRPC interface {
	GetDashboard(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	GetCatalog(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
}

// DashboardServer отдает данные дашборда по gRPC. Клиент определяется
// interceptor'ом аутентификации по bearer токену.
type DashboardServer struct {
	dashboard DashboardLoader
	catalog   CatalogLoader
	log       *logger.Logger
}

func NewDashboardServer(dashboard DashboardLoader, catalog CatalogLoader, log *logger.Logger) *DashboardServer {
	return &DashboardServer{
		dashboard: dashboard,
		catalog:   catalog,
		log:       log,
	}
}

// GetDashboard возвращает пакеты, подписку и платежи вызывающего клиента
func (s *DashboardServer) GetDashboard(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	identity := domain.IdentityFromContext(ctx)
	if identity == nil {
		return nil, status.Error(codes.Unauthenticated, domain.ErrUnauthenticated.Error())
	}

	state, err := s.dashboard.Load(ctx, identity)
	if err != nil {
		return nil, s.toStatus("GetDashboard", err)
	}
	return toStruct(state)
}

// GetCatalog возвращает активные пакеты и текущий тариф клиента
func (s *DashboardServer) GetCatalog(ctx context.Context, _ *emptypb.Empty) (*structpb.Struct, error) {
	state, err := s.catalog.Load(ctx, domain.IdentityFromContext(ctx))
	if err != nil {
		return nil, s.toStatus("GetCatalog", err)
	}
	return toStruct(state)
}

func (s *DashboardServer) toStatus(method string, err error) error {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return status.Error(codes.Unauthenticated, err.Error())
	case errors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	default:
		s.log.Errorw("gRPC request failed", "method", method, "error", err)
		return status.Error(codes.Internal, "internal error")
	}
}

// toStruct переводит состояние в google.protobuf.Struct через его JSON представление
func toStruct(v any) (*structpb.Struct, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	out, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return out, nil
}

// RegisterDashboard регистрирует сервис primeconnect.Dashboard. Вызывать до Start.
func (s *Server) RegisterDashboard(srv DashboardRPC) {
	s.grpcServer.RegisterService(&dashboardServiceDesc, srv)
}

func unaryHandler(method string, call func(DashboardRPC, context.Context, *emptypb.Empty) (*structpb.Struct, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(emptypb.Empty)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(DashboardRPC), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fmt.Sprintf("/%s/%s", ServiceName, method),
			}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(srv.(DashboardRPC), ctx, req.(*emptypb.Empty))
			})
		},
	}
}

var dashboardServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*DashboardRPC)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("GetDashboard", DashboardRPC.GetDashboard),
		unaryHandler("GetCatalog", DashboardRPC.GetCatalog),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "primeconnect/dashboard.proto",
}
