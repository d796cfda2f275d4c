package service

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/internal/metrics"
	"github.com/Dhoini/primeconnect-dashboard/internal/repository"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// DefaultRecentPayments количество платежей в блоке "Recent Payments"
const DefaultRecentPayments = 5

// DashboardState данные страницы дашборда. Каждое поле заполняется независимо,
// ошибки отдельных запросов попадают в Notifications.
type DashboardState struct {
	Packages      []domain.Package      `json:"packages"`
	Subscription  *domain.Subscription  `json:"subscription"`
	Payments      []domain.Payment      `json:"payments"`
	Notifications []domain.Notification `json:"notifications,omitempty"`
}

// DashboardService загружает данные для дашборда клиента
type DashboardService struct {
	packages       repository.PackageRepository
	subscriptions  repository.SubscriptionRepository
	payments       repository.PaymentRepository
	metrics        metrics.DashboardMetrics
	recentPayments int
	log            *logger.Logger
}

// NewDashboardService создает новый сервис дашборда
func NewDashboardService(
	packages repository.PackageRepository,
	subscriptions repository.SubscriptionRepository,
	payments repository.PaymentRepository,
	m metrics.DashboardMetrics,
	recentPayments int,
	log *logger.Logger,
) *DashboardService {
	if recentPayments <= 0 {
		recentPayments = DefaultRecentPayments
	}
	if m == nil {
		m = metrics.Nop()
	}
	return &DashboardService{
		packages:       packages,
		subscriptions:  subscriptions,
		payments:       payments,
		metrics:        m,
		recentPayments: recentPayments,
		log:            log,
	}
}

// Load выполняет три запроса параллельно. Ошибка возвращается только если
// пользователь не аутентифицирован или контекст запроса отменен.
func (s *DashboardService) Load(ctx context.Context, identity *domain.Identity) (DashboardState, error) {
	var state DashboardState
	if identity == nil {
		return state, domain.ErrUnauthenticated
	}

	// Ошибки отдельных запросов собираются вне группы, чтобы сбой одного
	// запроса не отменял остальные. Группа завершается ошибкой только при отмене ctx.
	var (
		mu              sync.Mutex
		packagesErr     error
		subscriptionErr error
		paymentsErr     error
	)
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		packages, err := s.packages.ListActive(gctx)
		if ctxErr := gctx.Err(); ctxErr != nil {
			return ctxErr
		}
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			packagesErr = err
			return nil
		}
		state.Packages = packages
		return nil
	})

	g.Go(func() error {
		sub, err := s.subscriptions.GetActiveByCustomer(gctx, identity.ID)
		if ctxErr := gctx.Err(); ctxErr != nil {
			return ctxErr
		}
		mu.Lock()
		defer mu.Unlock()
		switch {
		case err == nil:
			state.Subscription = &sub
		case errors.Is(err, repository.ErrMultipleActive):
			s.log.Warnw("Customer has more than one active subscription, showing the newest",
				"customerID", identity.ID, "subscriptionID", sub.ID)
			s.metrics.IncMultipleActive()
			state.Subscription = &sub
		case errors.Is(err, repository.ErrNotFound):
			// нет активной подписки - допустимое пустое состояние
		default:
			subscriptionErr = err
		}
		return nil
	})

	g.Go(func() error {
		payments, err := s.payments.ListRecentByCustomer(gctx, identity.ID, s.recentPayments)
		if ctxErr := gctx.Err(); ctxErr != nil {
			return ctxErr
		}
		mu.Lock()
		defer mu.Unlock()
		if err != nil {
			paymentsErr = err
			return nil
		}
		state.Payments = payments
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.Debugw("Dashboard load abandoned", "customerID", identity.ID, "error", err)
		return DashboardState{}, err
	}

	s.collect(&state, "packages", packagesErr)
	s.collect(&state, "subscription", subscriptionErr)
	s.collect(&state, "payments", paymentsErr)

	if state.Packages == nil {
		state.Packages = []domain.Package{}
	}
	if state.Payments == nil {
		state.Payments = []domain.Payment{}
	}
	return state, nil
}

func (s *DashboardService) collect(state *DashboardState, query string, err error) {
	if err == nil {
		return
	}
	s.log.Errorw("Dashboard query failed", "query", query, "error", err)
	s.metrics.IncQueryError(query)
	state.Notifications = append(state.Notifications, domain.Failure("Error", err))
}
