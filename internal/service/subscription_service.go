package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Dhoini/primeconnect-dashboard/internal/billing"
	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/internal/kafka"
	"github.com/Dhoini/primeconnect-dashboard/internal/metrics"
	"github.com/Dhoini/primeconnect-dashboard/internal/repository"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// Clock источник текущего времени
type Clock func() time.Time

// SubscriptionService оформляет подписку клиента на пакет
type SubscriptionService struct {
	packages      repository.PackageRepository
	subscriptions repository.SubscriptionRepository
	publisher     kafka.SubscriptionEventPublisher
	metrics       metrics.DashboardMetrics
	now           Clock
	log           *logger.Logger
}

// Option настраивает SubscriptionService
type Option func(*SubscriptionService)

// WithClock подменяет часы (для тестов)
func WithClock(now Clock) Option {
	return func(s *SubscriptionService) { s.now = now }
}

// NewSubscriptionService создает новый сервис для работы с подписками
func NewSubscriptionService(
	packages repository.PackageRepository,
	subscriptions repository.SubscriptionRepository,
	publisher kafka.SubscriptionEventPublisher,
	m metrics.DashboardMetrics,
	log *logger.Logger,
	opts ...Option,
) *SubscriptionService {
	if publisher == nil {
		publisher = kafka.NoopPublisher{}
	}
	if m == nil {
		m = metrics.Nop()
	}
	s := &SubscriptionService{
		packages:      packages,
		subscriptions: subscriptions,
		publisher:     publisher,
		metrics:       m,
		now:           time.Now,
		log:           log,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Subscribe создает активную подписку на пакет. Без identity запись не выполняется.
func (s *SubscriptionService) Subscribe(ctx context.Context, identity *domain.Identity, packageID string) (domain.Subscription, error) {
	if identity == nil {
		s.metrics.IncSubscriptionFailed("unauthenticated")
		return domain.Subscription{}, domain.ErrUnauthenticated
	}

	req := domain.SubscribeRequest{PackageID: packageID}
	if err := ValidateStruct(req); err != nil {
		s.metrics.IncSubscriptionFailed("invalid_input")
		return domain.Subscription{}, err
	}

	s.log.Infow("Subscribing customer to package", "customerID", identity.ID, "packageID", packageID)

	pkg, err := s.packages.GetByID(ctx, packageID)
	if err != nil {
		s.metrics.IncSubscriptionFailed(failureReason(err))
		return domain.Subscription{}, err
	}
	if !pkg.IsActive() {
		s.metrics.IncSubscriptionFailed("package_inactive")
		return domain.Subscription{}, domain.ErrPackageInactive
	}

	start := s.now().UTC()
	sub := domain.Subscription{
		ID:         uuid.New().String(),
		CustomerID: identity.ID,
		PackageID:  pkg.ID,
		StartDate:  start,
		EndDate:    billing.EndDate(start, pkg.DurationDays),
		Status:     domain.SubscriptionStatusActive,
	}

	created, err := s.subscriptions.CreateActive(ctx, sub)
	if err != nil {
		s.log.Errorw("Failed to create subscription", "error", err, "customerID", identity.ID, "packageID", packageID)
		s.metrics.IncSubscriptionFailed(failureReason(err))
		return domain.Subscription{}, err
	}
	created.Package = &pkg

	s.metrics.IncSubscriptionCreated(pkg.Name)

	// Событие публикуется по возможности: подписка уже сохранена
	if err := s.publisher.PublishSubscriptionCreated(ctx, created); err != nil {
		s.log.Warnw("Failed to publish subscription event", "error", err, "subscriptionID", created.ID)
	}

	s.log.Infow("Subscription created", "subscriptionID", created.ID, "customerID", identity.ID, "package", pkg.Name)
	return created, nil
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return "package_not_found"
	case errors.Is(err, domain.ErrAlreadySubscribed):
		return "already_subscribed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	default:
		return "store_error"
	}
}

// SubscribeOutcome переводит результат подписки в уведомления для пользователя
func SubscribeOutcome(sub domain.Subscription, err error) []domain.Notification {
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		return []domain.Notification{{
			Title:       "Authentication Required",
			Description: "Please sign in to subscribe to a package.",
			Variant:     domain.NotificationDestructive,
		}}
	case err != nil:
		return []domain.Notification{domain.Failure("Subscription Failed", err)}
	}

	name := sub.PackageID
	if sub.Package != nil {
		name = sub.Package.Name
	}
	return []domain.Notification{
		domain.Success("Subscription Successful!",
			fmt.Sprintf("You have subscribed to %s. Your service is now active.", name)),
		domain.Success("Subscription Updated", "Your subscription has been updated successfully."),
	}
}
