package service

import (
	"context"
	"errors"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/internal/metrics"
	"github.com/Dhoini/primeconnect-dashboard/internal/repository"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// CatalogState данные страницы каталога пакетов
type CatalogState struct {
	Packages         []domain.Package      `json:"packages"`
	CurrentPackageID string                `json:"current_package_id,omitempty"`
	Notifications    []domain.Notification `json:"notifications,omitempty"`
}

// CatalogService загружает каталог пакетов и текущий тариф клиента
type CatalogService struct {
	packages      repository.PackageRepository
	subscriptions repository.SubscriptionRepository
	metrics       metrics.DashboardMetrics
	log           *logger.Logger
}

// NewCatalogService создает новый сервис каталога
func NewCatalogService(
	packages repository.PackageRepository,
	subscriptions repository.SubscriptionRepository,
	m metrics.DashboardMetrics,
	log *logger.Logger,
) *CatalogService {
	if m == nil {
		m = metrics.Nop()
	}
	return &CatalogService{
		packages:      packages,
		subscriptions: subscriptions,
		metrics:       m,
		log:           log,
	}
}

// Load возвращает активные пакеты по возрастанию цены. identity может быть nil.
func (s *CatalogService) Load(ctx context.Context, identity *domain.Identity) (CatalogState, error) {
	state := CatalogState{Packages: []domain.Package{}}

	packages, err := s.packages.ListActive(ctx)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return CatalogState{}, ctxErr
		}
		s.log.Errorw("Failed to load packages", "error", err)
		s.metrics.IncQueryError("packages")
		state.Notifications = append(state.Notifications, domain.Failure("Error loading packages", err))
	} else {
		state.Packages = packages
	}

	if identity != nil {
		state.CurrentPackageID = s.currentPackageID(ctx, identity.ID)
	}

	if err := ctx.Err(); err != nil {
		return CatalogState{}, err
	}
	return state, nil
}

// currentPackageID ошибки только логируются, каталог показывается без отметки тарифа
func (s *CatalogService) currentPackageID(ctx context.Context, customerID string) string {
	sub, err := s.subscriptions.GetActiveByCustomer(ctx, customerID)
	switch {
	case err == nil:
		return sub.PackageID
	case errors.Is(err, repository.ErrMultipleActive):
		s.log.Warnw("Customer has more than one active subscription", "customerID", customerID)
		s.metrics.IncMultipleActive()
		return sub.PackageID
	case errors.Is(err, repository.ErrNotFound):
		return ""
	default:
		s.log.Errorw("Error fetching current subscription", "customerID", customerID, "error", err)
		s.metrics.IncQueryError("subscription")
		return ""
	}
}
