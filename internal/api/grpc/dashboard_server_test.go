package grpc

import (
	"context"
	"errors"
	"net"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/internal/interceptors"
	"github.com/Dhoini/primeconnect-dashboard/internal/middleware"
	"github.com/Dhoini/primeconnect-dashboard/internal/service"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

type tokenValidator map[string]string

func (v tokenValidator) Validate(token string) (*middleware.TokenClaims, error) {
	sub, ok := v[token]
	if !ok {
		return nil, errors.New("token is malformed")
	}
	c := &middleware.TokenClaims{UserEmail: sub + "@example.com"}
	c.Subject = sub
	return c, nil
}

type fakeDashboard struct {
	seen *domain.Identity
	err  error
}

func (f *fakeDashboard) Load(_ context.Context, identity *domain.Identity) (service.DashboardState, error) {
	f.seen = identity
	if f.err != nil {
		return service.DashboardState{}, f.err
	}
	return service.DashboardState{
		Packages: []domain.Package{{ID: "p1", Name: "Basic", Price: 1000, Status: domain.PackageStatusActive}},
		Payments: []domain.Payment{},
	}, nil
}

type fakeCatalog struct{}

func (fakeCatalog) Load(_ context.Context, identity *domain.Identity) (service.CatalogState, error) {
	state := service.CatalogState{Packages: []domain.Package{{ID: "p1", Name: "Basic", Status: domain.PackageStatusActive}}}
	if identity != nil {
		state.CurrentPackageID = "p1"
	}
	return state, nil
}

func startDashboardServer(t *testing.T, dashboard DashboardLoader) *grpc.ClientConn {
	t.Helper()
	log := logger.NewNop()
	auth := interceptors.NewAuthInterceptor(log, tokenValidator{"good-token": "cust-1"})
	srv := NewServer("0", log, interceptors.UnaryLogging(log), auth.Unary())
	srv.RegisterDashboard(NewDashboardServer(dashboard, fakeCatalog{}, log))

	lis := bufconn.Listen(1 << 20)
	go func() { _ = srv.Serve(lis) }()
	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func bearer(token string) context.Context {
	return metadata.AppendToOutgoingContext(context.Background(), "authorization", "Bearer "+token)
}

func TestDashboardServer_GetDashboardForCaller(t *testing.T) {
	dashboard := &fakeDashboard{}
	conn := startDashboardServer(t, dashboard)

	out := new(structpb.Struct)
	err := conn.Invoke(bearer("good-token"), "/primeconnect.Dashboard/GetDashboard", &emptypb.Empty{}, out)
	require.NoError(t, err)

	require.NotNil(t, dashboard.seen)
	assert.Equal(t, "cust-1", dashboard.seen.ID)

	packages := out.Fields["packages"].GetListValue().GetValues()
	require.Len(t, packages, 1)
	assert.Equal(t, "Basic", packages[0].GetStructValue().Fields["name"].GetStringValue())
	assert.Equal(t, 1000.0, packages[0].GetStructValue().Fields["price"].GetNumberValue())
}

func TestDashboardServer_RequiresToken(t *testing.T) {
	dashboard := &fakeDashboard{}
	conn := startDashboardServer(t, dashboard)

	err := conn.Invoke(context.Background(), "/primeconnect.Dashboard/GetDashboard", &emptypb.Empty{}, new(structpb.Struct))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	err = conn.Invoke(bearer("forged"), "/primeconnect.Dashboard/GetCatalog", &emptypb.Empty{}, new(structpb.Struct))
	assert.Equal(t, codes.Unauthenticated, status.Code(err))
	assert.Nil(t, dashboard.seen)

	// health остается публичным
	resp, err := healthpb.NewHealthClient(conn).Check(context.Background(), &healthpb.HealthCheckRequest{Service: ServiceName})
	require.NoError(t, err)
	assert.Equal(t, healthpb.HealthCheckResponse_NOT_SERVING, resp.Status)
}

func TestDashboardServer_GetCatalogMarksCurrentPackage(t *testing.T) {
	conn := startDashboardServer(t, &fakeDashboard{})

	out := new(structpb.Struct)
	err := conn.Invoke(bearer("good-token"), "/primeconnect.Dashboard/GetCatalog", &emptypb.Empty{}, out)
	require.NoError(t, err)
	assert.Equal(t, "p1", out.Fields["current_package_id"].GetStringValue())
}

func TestDashboardServer_LoadErrorsMapToCodes(t *testing.T) {
	conn := startDashboardServer(t, &fakeDashboard{err: errors.New("pool closed")})

	err := conn.Invoke(bearer("good-token"), "/primeconnect.Dashboard/GetDashboard", &emptypb.Empty{}, new(structpb.Struct))
	assert.Equal(t, codes.Internal, status.Code(err))
	assert.NotContains(t, status.Convert(err).Message(), "pool closed")
}
