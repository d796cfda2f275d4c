package handlers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dhoini/primeconnect-dashboard/internal/api/rest/view"
	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/internal/middleware"
	"github.com/Dhoini/primeconnect-dashboard/internal/service"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// PageHandler рендерит HTML страницы
type PageHandler struct {
	dashboard     *service.DashboardService
	catalog       *service.CatalogService
	subscriptions *service.SubscriptionService
	location      *time.Location
	now           func() time.Time
	log           *logger.Logger
}

// NewPageHandler создает обработчик страниц. location - часовой пояс отображения дат.
func NewPageHandler(
	dashboard *service.DashboardService,
	catalog *service.CatalogService,
	subscriptions *service.SubscriptionService,
	location *time.Location,
	log *logger.Logger,
) *PageHandler {
	if location == nil {
		location = time.UTC
	}
	return &PageHandler{
		dashboard:     dashboard,
		catalog:       catalog,
		subscriptions: subscriptions,
		location:      location,
		now:           time.Now,
		log:           log,
	}
}

// WithClock подменяет часы (для тестов)
func (h *PageHandler) WithClock(now func() time.Time) *PageHandler {
	h.now = now
	return h
}

func (h *PageHandler) page(c *gin.Context, title string, notes []domain.Notification, content any) view.Page {
	return view.Page{
		Title:         title,
		Nav:           view.BuildNav(middleware.IdentityFrom(c), c.Request.URL.Path),
		Notifications: append(view.PopFlash(c), notes...),
		Content:       content,
	}
}

// Landing главная страница с превью тарифов
func (h *PageHandler) Landing(c *gin.Context) {
	state, err := h.catalog.Load(c.Request.Context(), nil)
	if err != nil {
		h.abandoned(c, err)
		return
	}
	// на лендинге ошибка каталога не показывается, блок тарифов просто скрыт
	c.HTML(http.StatusOK, view.PageLanding, h.page(c, "", nil, view.BuildCatalog(state)))
}

// Dashboard страница клиента
func (h *PageHandler) Dashboard(c *gin.Context) {
	state, err := h.dashboard.Load(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		h.abandoned(c, err)
		return
	}
	content := view.BuildDashboard(state, h.now().In(h.location))
	c.HTML(http.StatusOK, view.PageDashboard, h.page(c, "Dashboard", state.Notifications, content))
}

// Packages каталог пакетов
func (h *PageHandler) Packages(c *gin.Context) {
	state, err := h.catalog.Load(c.Request.Context(), middleware.IdentityFrom(c))
	if err != nil {
		h.abandoned(c, err)
		return
	}
	c.HTML(http.StatusOK, view.PagePackages, h.page(c, "Packages", state.Notifications, view.BuildCatalog(state)))
}

// Subscribe обрабатывает форму подписки и перенаправляет обратно (PRG)
func (h *PageHandler) Subscribe(c *gin.Context) {
	sub, err := h.subscriptions.Subscribe(c.Request.Context(), middleware.IdentityFrom(c), c.Param("id"))
	view.SetFlash(c, service.SubscribeOutcome(sub, err))
	c.Redirect(http.StatusSeeOther, safeReturnPath(c.PostForm("return_to"), "/packages"))
}

// Profile страница профиля
func (h *PageHandler) Profile(c *gin.Context) {
	identity := middleware.IdentityFrom(c)
	content := view.ProfileView{ID: identity.ID, Email: identity.Email, Initial: identity.Initial()}
	c.HTML(http.StatusOK, view.PageProfile, h.page(c, "Profile", nil, content))
}

func (h *PageHandler) abandoned(c *gin.Context, err error) {
	if errors.Is(err, domain.ErrUnauthenticated) {
		c.Redirect(http.StatusSeeOther, middleware.SignInPath)
		return
	}
	// клиент ушел, рендерить некому
	h.log.Debugw("Page load abandoned", "path", c.Request.URL.Path, "error", err)
	c.Abort()
}

// safeReturnPath пропускает только локальные пути
func safeReturnPath(p, fallback string) string {
	if p == "" || !strings.HasPrefix(p, "/") || strings.HasPrefix(p, "//") || strings.Contains(p, "\\") {
		return fallback
	}
	return p
}
