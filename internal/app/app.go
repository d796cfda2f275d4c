package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	grpcapi "github.com/Dhoini/primeconnect-dashboard/internal/api/grpc"
	"github.com/Dhoini/primeconnect-dashboard/internal/api/rest"
	"github.com/Dhoini/primeconnect-dashboard/internal/api/rest/handlers"
	"github.com/Dhoini/primeconnect-dashboard/internal/config"
	"github.com/Dhoini/primeconnect-dashboard/internal/interceptors"
	"github.com/Dhoini/primeconnect-dashboard/internal/kafka"
	"github.com/Dhoini/primeconnect-dashboard/internal/metrics"
	"github.com/Dhoini/primeconnect-dashboard/internal/middleware"
	"github.com/Dhoini/primeconnect-dashboard/internal/repository"
	"github.com/Dhoini/primeconnect-dashboard/internal/repository/postgres"
	"github.com/Dhoini/primeconnect-dashboard/internal/service"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

// Stores репозитории, выбранные по database.driver
type Stores struct {
	Packages      repository.PackageRepository
	Subscriptions repository.SubscriptionRepository
	Payments      repository.PaymentRepository
	Ping          func(ctx context.Context) error
}

// App представляет собой контейнер для всех компонентов приложения
type App struct {
	Config        *config.Config
	Registry      *prometheus.Registry
	Dashboard     *service.DashboardService
	Catalog       *service.CatalogService
	Subscriptions *service.SubscriptionService
	Router        *gin.Engine

	httpServer *rest.Server
	grpcServer *grpcapi.Server
	checker    *grpcapi.StoreChecker
	closers    []func() error
	log        *logger.Logger
}

// NewApp создает и инициализирует новый экземпляр приложения.
// Redis и Kafka необязательны: при ошибке подключения сервис работает без них.
func NewApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	a := &App{Config: cfg, log: log}

	a.Registry = metrics.NewRegistry()
	dashboardMetrics := metrics.NewDashboardMetrics(a.Registry, log)

	stores, err := a.openStores(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	healthChecks := map[string]handlers.Pinger{"store": handlers.PingFunc(stores.Ping)}

	// Инициализируем Redis кеш каталога
	packages := stores.Packages
	if cfg.Redis.Enabled {
		redisCache, err := repository.NewRedisCacheRepository(
			cfg.Redis.Addr,
			cfg.Redis.Password,
			cfg.Redis.DB,
			cfg.Redis.CatalogTTL,
			log,
		)
		if err != nil {
			// Не фатально, но предупреждаем
			log.Warnw("Failed to initialize Redis cache, continuing without caching", "error", err)
		} else {
			a.closers = append(a.closers, redisCache.Close)
			packages = repository.NewCachedPackageRepository(stores.Packages, redisCache, dashboardMetrics, log)
			healthChecks["redis"] = redisCache
			log.Infow("Using cached package repository", "ttl", cfg.Redis.CatalogTTL)
		}
	}

	publisher := a.openPublisher(ctx)

	a.Dashboard = service.NewDashboardService(packages, stores.Subscriptions, stores.Payments, dashboardMetrics, cfg.App.RecentPayments, log)
	a.Catalog = service.NewCatalogService(packages, stores.Subscriptions, dashboardMetrics, log)
	a.Subscriptions = service.NewSubscriptionService(packages, stores.Subscriptions, publisher, dashboardMetrics, log)

	// Проверка наличия секрета JWT
	if cfg.Auth.JWTSecret == "" {
		log.Warnw("JWT secret is not set, every sign-in will be rejected")
	}
	validator := &middleware.DefaultTokenValidator{Secret: []byte(cfg.Auth.JWTSecret)}
	auth := middleware.NewJWTMiddleware(middleware.SessionConfig{
		CookieName: cfg.Auth.CookieName,
		Secure:     cfg.App.CookieSecure,
	}, log, validator)

	a.Router = rest.SetupRouter(log, rest.Dependencies{
		Dashboard:     a.Dashboard,
		Catalog:       a.Catalog,
		Subscriptions: a.Subscriptions,
		Auth:          auth,
		Registry:      a.Registry,
		HealthChecks:  healthChecks,
		Location:      cfg.Location(),
	})
	a.httpServer = rest.NewServer(a.Router, cfg.App.Port, log)

	if cfg.GRPC.Enabled {
		authInterceptor := interceptors.NewAuthInterceptor(log, validator)
		a.grpcServer = grpcapi.NewServer(cfg.GRPC.Port, log,
			interceptors.UnaryLogging(log),
			authInterceptor.Unary(),
		)
		a.grpcServer.RegisterDashboard(grpcapi.NewDashboardServer(a.Dashboard, a.Catalog, log))
		a.checker = grpcapi.NewStoreChecker(stores.Ping, a.grpcServer.Health(), 0, log)
	}

	return a, nil
}

func (a *App) openStores(ctx context.Context) (Stores, error) {
	cfg := a.Config
	switch cfg.Database.Driver {
	case "memory":
		store := repository.NewInMemoryStore(a.log)
		repository.SeedDemo(store, cfg.App.DemoCustomerID, time.Now())
		a.log.Infow("Using in-memory store with demo catalog", "demoCustomerID", cfg.App.DemoCustomerID)
		return Stores{
			Packages:      store,
			Subscriptions: store,
			Payments:      store,
			Ping:          func(context.Context) error { return nil },
		}, nil

	case "postgres":
		pool, err := postgres.NewConnection(ctx, cfg.Database.DSN, postgres.Options{
			MaxConns:       cfg.Database.MaxConns,
			ConnectTimeout: cfg.Database.ConnectTimeout,
		}, a.log)
		if err != nil {
			return Stores{}, fmt.Errorf("failed to connect to database: %w", err)
		}
		db := postgres.NewSQLX(pool)
		a.closers = append(a.closers, func() error {
			pool.Close()
			return nil
		}, db.Close)
		a.log.Infow("Database connection established")
		return Stores{
			Packages:      repository.NewPostgresPackageRepository(pool, a.log),
			Subscriptions: repository.NewPostgresSubscriptionRepository(pool, a.log),
			Payments:      repository.NewPostgresPaymentRepository(db, a.log),
			Ping:          pool.Ping,
		}, nil

	default:
		return Stores{}, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func (a *App) openPublisher(ctx context.Context) kafka.SubscriptionEventPublisher {
	cfg := a.Config
	if !cfg.Kafka.Enabled {
		return kafka.NoopPublisher{}
	}

	kafkaCfg := kafka.NewConfig(cfg.Kafka.Brokers, cfg.Kafka.Topic)
	if err := kafka.EnsureTopics(ctx, kafkaCfg.Brokers, []string{kafkaCfg.Topic}, a.log); err != nil {
		a.log.Warnw("Failed to ensure Kafka topics", "error", err)
	}

	publisher, err := kafka.NewPublisher(kafkaCfg, a.log)
	if err != nil {
		// отправка событий не критична для основного флоу
		a.log.Errorw("Failed to initialize Kafka producer, continuing without event publishing", "error", err)
		return kafka.NoopPublisher{}
	}
	a.closers = append(a.closers, publisher.Close)
	a.log.Infow("Kafka producer initialized", "topic", kafkaCfg.Topic)
	return publisher
}

// Run запускает HTTP и gRPC серверы и блокируется до отмены ctx или ошибки сервера
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	go func() {
		if err := a.httpServer.Start(); err != nil {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	checkCtx, stopChecker := context.WithCancel(ctx)
	defer stopChecker()
	if a.grpcServer != nil {
		go a.checker.Run(checkCtx)
		go func() {
			if err := a.grpcServer.Start(); err != nil {
				errCh <- fmt.Errorf("grpc: %w", err)
			}
		}()
	}

	var runErr error
	select {
	case <-ctx.Done():
		a.log.Infow("Shutdown signal received")
	case runErr = <-errCh:
		a.log.Errorw("Server failed", "error", runErr)
	}

	stopChecker()
	return errors.Join(runErr, a.Shutdown())
}

// Shutdown останавливает серверы и закрывает соединения
func (a *App) Shutdown() error {
	// Даем 10 секунд на завершение текущих запросов
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	var errs []error
	a.log.Infow("Shutting down HTTP server")
	if err := a.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}

	if a.grpcServer != nil {
		a.grpcServer.Stop()
	}

	a.Close()
	a.log.Infow("Cleanup finished")
	return errors.Join(errs...)
}

// Close закрывает соединения с хранилищем, Redis и Kafka в обратном порядке
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Errorw("Error closing resource", "error", err)
		}
	}
	a.closers = nil
}
