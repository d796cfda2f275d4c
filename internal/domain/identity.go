package domain

import (
	"context"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Identity - аутентифицированный пользователь, выданный внешним сервисом авторизации
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Initial возвращает первую букву email в верхнем регистре для аватара
func (i Identity) Initial() string {
	r, _ := utf8.DecodeRuneInString(strings.TrimSpace(i.Email))
	if r == utf8.RuneError {
		return "U"
	}
	return string(unicode.ToUpper(r))
}

type identityKey struct{}

// WithIdentity кладет пользователя в контекст запроса
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// IdentityFromContext достает пользователя из контекста, nil если запрос анонимный
func IdentityFromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(identityKey{}).(*Identity)
	return id
}
