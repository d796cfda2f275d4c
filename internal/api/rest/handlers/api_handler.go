package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/internal/middleware"
	"github.com/Dhoini/primeconnect-dashboard/internal/service"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
	"github.com/Dhoini/primeconnect-dashboard/pkg/req"
	"github.com/Dhoini/primeconnect-dashboard/pkg/res"
)

// SubscribeResponse ответ на оформление подписки
type SubscribeResponse struct {
	Subscription  domain.Subscription   `json:"subscription"`
	Notifications []domain.Notification `json:"notifications"`
	Catalog       service.CatalogState  `json:"catalog"`
}

// APIHandler JSON API дашборда
type APIHandler struct {
	dashboard     *service.DashboardService
	catalog       *service.CatalogService
	subscriptions *service.SubscriptionService
	log           *logger.Logger
}

// NewAPIHandler создает обработчик JSON API
func NewAPIHandler(
	dashboard *service.DashboardService,
	catalog *service.CatalogService,
	subscriptions *service.SubscriptionService,
	log *logger.Logger,
) *APIHandler {
	return &APIHandler{
		dashboard:     dashboard,
		catalog:       catalog,
		subscriptions: subscriptions,
		log:           log,
	}
}

// GetPackages возвращает активные пакеты
func (h *APIHandler) GetPackages(c *gin.Context) {
	state, err := h.catalog.Load(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, state)
}

// GetDashboard возвращает данные дашборда текущего пользователя
func (h *APIHandler) GetDashboard(c *gin.Context) {
	state, err := h.dashboard.Load(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		h.writeError(c, err)
		return
	}
	if state.Packages == nil {
		state.Packages = []domain.Package{}
	}
	if state.Payments == nil {
		state.Payments = []domain.Payment{}
	}
	c.JSON(http.StatusOK, state)
}

// GetMe возвращает текущего пользователя
func (h *APIHandler) GetMe(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	if identity == nil {
		h.writeError(c, domain.ErrUnauthenticated)
		return
	}
	c.JSON(http.StatusOK, identity)
}

// Subscribe оформляет подписку и возвращает обновленный каталог
func (h *APIHandler) Subscribe(c *gin.Context) {
	body, err := req.HandleBody[domain.SubscribeRequest](c.Writer, c.Request, h.log)
	if err != nil {
		c.Abort()
		return
	}

	identity := middleware.IdentityFrom(c)
	sub, err := h.subscriptions.Subscribe(c.Request.Context(), identity, body.PackageID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	// каталог перечитывается, чтобы клиент отметил новый текущий тариф
	catalog, err := h.catalog.Load(c.Request.Context(), identity)
	if err != nil {
		h.log.Warnw("Failed to refresh catalog after subscribe", "error", err)
	}

	c.JSON(http.StatusCreated, SubscribeResponse{
		Subscription:  sub,
		Notifications: service.SubscribeOutcome(sub, nil),
		Catalog:       catalog,
	})
}

func (h *APIHandler) writeError(c *gin.Context, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError {
		h.log.Errorw("API request failed", "path", c.Request.URL.Path, "error", err)
	}
	res.JsonErrorResponse(c.Writer, res.ErrorResponse{Error: err.Error(), ErrorCode: status}, status, h.log)
	c.Abort()
}

// StatusFor сопоставляет доменную ошибку с HTTP статусом
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrPackageInactive), errors.Is(err, domain.ErrAlreadySubscribed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrInvalidInput):
		return http.StatusUnprocessableEntity
	case errors.Is(err, context.Canceled):
		// клиент закрыл соединение
		return 499
	default:
		return http.StatusInternalServerError
	}
}
