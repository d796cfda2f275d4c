package repository

import (
	"context"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
)

// PackageRepository определяет методы чтения каталога пакетов.
type PackageRepository interface {
	// ListActive возвращает пакеты со статусом active, по возрастанию цены.
	ListActive(ctx context.Context) ([]domain.Package, error)

	// GetByID возвращает пакет по ID или ErrNotFound.
	GetByID(ctx context.Context, id string) (domain.Package, error)
}

// SubscriptionRepository определяет методы для работы с хранилищем подписок.
type SubscriptionRepository interface {
	// GetActiveByCustomer возвращает активную подписку клиента вместе с пакетом.
	// Если подписки нет - ErrNotFound. Если активных подписок несколько, возвращается
	// самая новая вместе с ошибкой, обернувшей ErrMultipleActive.
	GetActiveByCustomer(ctx context.Context, customerID string) (domain.Subscription, error)

	// CreateActive сохраняет новую активную подписку. Прочие активные подписки
	// клиента переводятся в inactive, повторная подписка на тот же пакет
	// возвращает ErrAlreadySubscribed.
	CreateActive(ctx context.Context, sub domain.Subscription) (domain.Subscription, error)
}

// PaymentRepository определяет методы чтения истории платежей.
type PaymentRepository interface {
	// ListRecentByCustomer возвращает платежи клиента, новые первыми.
	// limit <= 0 означает без ограничения.
	ListRecentByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Payment, error)
}
