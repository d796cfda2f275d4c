package rest

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/Dhoini/primeconnect-dashboard/internal/api/rest/handlers"
	"github.com/Dhoini/primeconnect-dashboard/internal/api/rest/view"
	"github.com/Dhoini/primeconnect-dashboard/internal/metrics"
	"github.com/Dhoini/primeconnect-dashboard/internal/middleware"
	"github.com/Dhoini/primeconnect-dashboard/internal/service"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// Dependencies зависимости HTTP слоя
type Dependencies struct {
	Dashboard     *service.DashboardService
	Catalog       *service.CatalogService
	Subscriptions *service.SubscriptionService
	Auth          *middleware.JWTMiddleware
	Registry      *prometheus.Registry
	HealthChecks  map[string]handlers.Pinger
	Location      *time.Location
}

// SetupRouter настраивает маршрутизатор Gin с маршрутами и middleware
func SetupRouter(log *logger.Logger, deps Dependencies) *gin.Engine {
	r := gin.New()

	// Подключение middleware
	r.Use(middleware.RequestLogger(log))
	r.Use(gin.Recovery())
	if deps.Registry != nil {
		r.Use(metrics.NewHTTPMetrics(deps.Registry).Middleware())
	}
	r.Use(deps.Auth.Authenticate())

	r.SetHTMLTemplate(view.MustTemplates())

	// Endpoint для проверки работоспособности сервиса
	health := handlers.NewHealthHandler(deps.HealthChecks, log)
	r.GET("/health", health.HealthCheck)

	// Prometheus метрики
	if deps.Registry != nil {
		r.GET("/metrics", metrics.Handler(deps.Registry))
	}

	pages := handlers.NewPageHandler(deps.Dashboard, deps.Catalog, deps.Subscriptions, deps.Location, log)
	auth := handlers.NewAuthHandler(deps.Auth, log)
	api := handlers.NewAPIHandler(deps.Dashboard, deps.Catalog, deps.Subscriptions, log)

	// Публичные страницы
	r.GET("/", pages.Landing)
	r.GET("/packages", pages.Packages)
	// без сессии обработчик сам покажет "Authentication Required"
	r.POST("/packages/:id/subscribe", pages.Subscribe)

	// Вход и выход
	r.GET(middleware.SignInPath, auth.SignInPage)
	r.POST("/auth/session", auth.CreateSession)
	r.POST("/auth/signout", auth.SignOut)

	// Страницы клиента
	account := r.Group("/", deps.Auth.RequireAuth())
	{
		account.GET("/dashboard", pages.Dashboard)
		account.GET("/profile", pages.Profile)
	}

	// JSON API
	v1 := r.Group("/api/v1")
	{
		v1.GET("/packages", api.GetPackages)

		protected := v1.Group("", deps.Auth.RequireAuth())
		{
			protected.GET("/me", api.GetMe)
			protected.GET("/dashboard", api.GetDashboard)
			protected.POST("/subscriptions", api.Subscribe)
		}
	}

	return r
}
