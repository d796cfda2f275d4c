package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Dhoini/primeconnect-dashboard/internal/api/rest/view"
	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/internal/middleware"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
	"github.com/Dhoini/primeconnect-dashboard/pkg/res"
)

// SessionRequest тело запроса входа
type SessionRequest struct {
	Token string `json:"token" form:"token" validate:"required"`
}

// AuthHandler управляет сессией пользователя
type AuthHandler struct {
	auth *middleware.JWTMiddleware
	log  *logger.Logger
}

// NewAuthHandler создает обработчик входа и выхода
func NewAuthHandler(auth *middleware.JWTMiddleware, log *logger.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, log: log}
}

// SignInPage форма входа
func (h *AuthHandler) SignInPage(c *gin.Context) {
	if middleware.IdentityFrom(c) != nil {
		c.Redirect(http.StatusSeeOther, "/dashboard")
		return
	}
	c.HTML(http.StatusOK, view.PageAuth, view.Page{
		Title:         "Sign In",
		Nav:           view.BuildNav(nil, c.Request.URL.Path),
		Notifications: view.PopFlash(c),
		Content:       view.AuthView{},
	})
}

// CreateSession проверяет токен внешнего сервиса авторизации и сохраняет его в cookie
func (h *AuthHandler) CreateSession(c *gin.Context) {
	var req SessionRequest
	if err := c.ShouldBind(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		h.signInFailed(c, "a token is required")
		return
	}
	token := strings.TrimSpace(req.Token)

	claims, err := h.auth.Validator().Validate(token)
	if err != nil {
		h.log.Infow("Sign-in rejected", "error", err)
		h.signInFailed(c, err.Error())
		return
	}
	if claims.Subject == "" {
		h.signInFailed(c, "user id (sub) missing in token")
		return
	}

	var expiresAt time.Time
	if claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}
	h.auth.SetSession(c, token, expiresAt)
	h.log.Infow("User signed in", "userID", claims.Subject)

	if middleware.IsAPIRequest(c) {
		c.JSON(http.StatusOK, claims.Identity())
		return
	}
	c.Redirect(http.StatusSeeOther, "/dashboard")
}

// SignOut удаляет cookie сессии
func (h *AuthHandler) SignOut(c *gin.Context) {
	h.auth.ClearSession(c)
	if middleware.IsAPIRequest(c) {
		c.Status(http.StatusNoContent)
		return
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (h *AuthHandler) signInFailed(c *gin.Context, message string) {
	if middleware.IsAPIRequest(c) {
		res.JsonErrorResponse(c.Writer, res.ErrorResponse{Error: message}, http.StatusUnauthorized, h.log)
		c.Abort()
		return
	}
	c.HTML(http.StatusUnauthorized, view.PageAuth, view.Page{
		Title:         "Sign In",
		Nav:           view.BuildNav(nil, c.Request.URL.Path),
		Notifications: []domain.Notification{{Title: "Sign in failed", Description: message, Variant: domain.NotificationDestructive}},
		Content:       view.AuthView{Error: message},
	})
}
