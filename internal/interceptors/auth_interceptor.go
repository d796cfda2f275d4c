package interceptors

import (
	"context"
	"strings"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/internal/middleware"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// PublicMethodPrefixes методы, доступные без токена
var PublicMethodPrefixes = []string{
	"/grpc.health.v1.Health/",
	"/grpc.reflection.",
}

type AuthInterceptor struct {
	log       *logger.Logger
	validator middleware.TokenValidator
	public    []string
}

// NewAuthInterceptor создает interceptor аутентификации. Методы из public пропускаются без проверки.
func NewAuthInterceptor(log *logger.Logger, validator middleware.TokenValidator, public ...string) *AuthInterceptor {
	if len(public) == 0 {
		public = PublicMethodPrefixes
	}
	return &AuthInterceptor{
		log:       log,
		validator: validator,
		public:    public,
	}
}

// Unary возвращает UnaryServerInterceptor для проверки JWT.
func (i *AuthInterceptor) Unary() grpc.UnaryServerInterceptor {
	return func(
		ctx context.Context,
		req interface{},
		info *grpc.UnaryServerInfo,
		handler grpc.UnaryHandler,
	) (interface{}, error) {
		if i.isPublic(info.FullMethod) {
			return handler(ctx, req)
		}

		md, ok := metadata.FromIncomingContext(ctx)
		if !ok {
			i.log.Warnw("gRPC auth: missing metadata", "method", info.FullMethod)
			return nil, status.Errorf(codes.Unauthenticated, "missing metadata")
		}

		authHeaders := md.Get("authorization")
		if len(authHeaders) == 0 {
			i.log.Warnw("gRPC auth: missing authorization header", "method", info.FullMethod)
			return nil, status.Errorf(codes.Unauthenticated, "missing authorization header")
		}

		// Ожидаем "Bearer <token>"
		authHeader := authHeaders[0]
		if !strings.HasPrefix(authHeader, "Bearer ") {
			i.log.Warnw("gRPC auth: invalid authorization header format", "method", info.FullMethod)
			return nil, status.Errorf(codes.Unauthenticated, "invalid authorization header format")
		}

		claims, err := i.validator.Validate(strings.TrimPrefix(authHeader, "Bearer "))
		if err != nil {
			i.log.Warnw("gRPC auth: invalid token", "method", info.FullMethod, "error", err)
			return nil, status.Errorf(codes.Unauthenticated, "invalid token: %v", err)
		}
		if claims.Subject == "" {
			i.log.Warnw("gRPC auth: user id (sub) missing in token", "method", info.FullMethod)
			return nil, status.Errorf(codes.Unauthenticated, "user id (sub) missing in token")
		}

		identity := claims.Identity()
		i.log.Debugw("User authenticated via gRPC", "userID", identity.ID, "method", info.FullMethod)
		return handler(domain.WithIdentity(ctx, identity), req)
	}
}

func (i *AuthInterceptor) isPublic(method string) bool {
	for _, prefix := range i.public {
		if strings.HasPrefix(method, prefix) {
			return true
		}
	}
	return false
}
