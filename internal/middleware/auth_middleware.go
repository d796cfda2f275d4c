package middleware

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
	"github.com/Dhoini/primeconnect-dashboard/pkg/res"
)

const (
	// ContextIdentityKey ключ gin-контекста для аутентифицированного пользователя
	ContextIdentityKey = "identity"
	authHeaderPrefix   = "Bearer "

	// SignInPath страница входа, куда перенаправляются анонимные HTML запросы
	SignInPath = "/auth"
)

// TokenValidator проверяет токен, выданный внешним сервисом авторизации
type TokenValidator interface {
	Validate(tokenString string) (*TokenClaims, error)
}

// TokenClaims claims токена доступа: sub - ID пользователя
type TokenClaims struct {
	UserEmail string `json:"email"`
	jwt.RegisteredClaims
}

// Identity возвращает пользователя, описанного токеном
func (c *TokenClaims) Identity() *domain.Identity {
	return &domain.Identity{ID: c.Subject, Email: c.UserEmail}
}

// SessionConfig параметры cookie сессии
type SessionConfig struct {
	CookieName string
	Secure     bool
}

// JWTMiddleware аутентифицирует запросы по Bearer токену или cookie сессии
type JWTMiddleware struct {
	session   SessionConfig
	log       *logger.Logger
	validator TokenValidator
}

// NewJWTMiddleware создает новый middleware аутентификации
func NewJWTMiddleware(session SessionConfig, log *logger.Logger, validator TokenValidator) *JWTMiddleware {
	return &JWTMiddleware{
		session:   session,
		log:       log,
		validator: validator,
	}
}

// Authenticate кладет domain.Identity в контекст запроса, если токен валиден.
// Отсутствие токена на этом этапе не ошибка.
func (m *JWTMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := m.extractToken(c)
		if tokenString == "" {
			c.Next()
			return
		}

		claims, err := m.validator.Validate(tokenString)
		if err != nil {
			m.log.Debugw("Ignoring invalid token", "path", c.Request.URL.Path, "error", err)
			c.Next()
			return
		}
		if claims.Subject == "" {
			m.log.Warnw("User ID (sub) missing in token", "path", c.Request.URL.Path)
			c.Next()
			return
		}

		identity := claims.Identity()
		c.Set(ContextIdentityKey, identity)
		c.Request = c.Request.WithContext(domain.WithIdentity(c.Request.Context(), identity))
		m.log.Debugw("User authenticated via HTTP", "userID", identity.ID)
		c.Next()
	}
}

// RequireAuth пропускает только аутентифицированные запросы
func (m *JWTMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if IdentityFrom(c) != nil {
			c.Next()
			return
		}

		m.log.Debugw("Anonymous request to protected route", "path", c.Request.URL.Path)
		if IsAPIRequest(c) {
			res.JsonErrorResponse(c.Writer, res.ErrorResponse{
				Error:     "authentication required",
				ErrorCode: http.StatusUnauthorized,
			}, http.StatusUnauthorized, m.log)
			c.Abort()
			return
		}
		c.Redirect(http.StatusSeeOther, SignInPath)
		c.Abort()
	}
}

// SetSession сохраняет проверенный токен в HttpOnly cookie
func (m *JWTMiddleware) SetSession(c *gin.Context, token string, expiresAt time.Time) {
	maxAge := 0
	if !expiresAt.IsZero() {
		maxAge = int(time.Until(expiresAt).Seconds())
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.session.CookieName, token, maxAge, "/", "", m.session.Secure, true)
}

// ClearSession удаляет cookie сессии
func (m *JWTMiddleware) ClearSession(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(m.session.CookieName, "", -1, "/", "", m.session.Secure, true)
}

// Validator возвращает валидатор токенов
func (m *JWTMiddleware) Validator() TokenValidator {
	return m.validator
}

func (m *JWTMiddleware) extractToken(c *gin.Context) string {
	if authHeader := c.GetHeader("Authorization"); strings.HasPrefix(authHeader, authHeaderPrefix) {
		return strings.TrimSpace(strings.TrimPrefix(authHeader, authHeaderPrefix))
	}
	if cookie, err := c.Cookie(m.session.CookieName); err == nil {
		return cookie
	}
	return ""
}

// IdentityFrom возвращает пользователя запроса или nil
func IdentityFrom(c *gin.Context) *domain.Identity {
	if v, ok := c.Get(ContextIdentityKey); ok {
		if id, ok := v.(*domain.Identity); ok {
			return id
		}
	}
	return domain.IdentityFromContext(c.Request.Context())
}

// IsAPIRequest сообщает, ожидает ли клиент JSON вместо HTML
func IsAPIRequest(c *gin.Context) bool {
	return strings.HasPrefix(c.Request.URL.Path, "/api/") ||
		strings.Contains(c.GetHeader("Accept"), "application/json")
}

// DefaultTokenValidator - реализация валидатора по умолчанию (HS256 с общим секретом).
type DefaultTokenValidator struct {
	Secret []byte
}

func (v *DefaultTokenValidator) Validate(tokenString string) (*TokenClaims, error) {
	if len(v.Secret) == 0 {
		return nil, errors.New("token validation is not configured")
	}

	token, err := jwt.ParseWithClaims(tokenString, &TokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.Secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenMalformed) {
			return nil, errors.New("malformed token")
		} else if errors.Is(err, jwt.ErrTokenSignatureInvalid) {
			return nil, errors.New("invalid token signature")
		} else if errors.Is(err, jwt.ErrTokenExpired) || errors.Is(err, jwt.ErrTokenNotValidYet) {
			return nil, errors.New("token expired")
		} else {
			return nil, fmt.Errorf("invalid token: %w", err)
		}
	}

	if claims, ok := token.Claims.(*TokenClaims); ok && token.Valid {
		return claims, nil
	}

	return nil, errors.New("invalid token claims")
}
