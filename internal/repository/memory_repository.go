package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// InMemoryStore реализация хранилища пакетов, подписок и платежей в памяти.
// Используется для локальной разработки (database.driver=memory) и в тестах.
type InMemoryStore struct {
	packages      map[string]domain.Package
	subscriptions []domain.Subscription
	payments      []domain.Payment
	mutex         sync.RWMutex
	log           *logger.Logger
}

// NewInMemoryStore создает новое пустое хранилище в памяти
func NewInMemoryStore(log *logger.Logger) *InMemoryStore {
	return &InMemoryStore{
		packages: make(map[string]domain.Package),
		log:      log,
	}
}

// AddPackage добавляет или заменяет пакет каталога
func (s *InMemoryStore) AddPackage(pkg domain.Package) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.packages[pkg.ID] = pkg
}

// AddPayment добавляет запись о платеже
func (s *InMemoryStore) AddPayment(p domain.Payment) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	s.payments = append(s.payments, p)
}

// AddSubscription добавляет подписку как есть, без проверок
func (s *InMemoryStore) AddSubscription(sub domain.Subscription) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	sub.Package = nil
	s.subscriptions = append(s.subscriptions, sub)
}

// Subscriptions возвращает копию всех сохраненных подписок
func (s *InMemoryStore) Subscriptions() []domain.Subscription {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	out := make([]domain.Subscription, len(s.subscriptions))
	copy(out, s.subscriptions)
	return out
}

// Методы для работы с пакетами

// ListActive возвращает активные пакеты по возрастанию цены
func (s *InMemoryStore) ListActive(ctx context.Context) ([]domain.Package, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	packages := make([]domain.Package, 0, len(s.packages))
	for _, pkg := range s.packages {
		if pkg.IsActive() {
			packages = append(packages, pkg)
		}
	}
	sort.SliceStable(packages, func(i, j int) bool {
		if packages[i].Price == packages[j].Price {
			return packages[i].ID < packages[j].ID
		}
		return packages[i].Price < packages[j].Price
	})
	return packages, nil
}

// GetByID возвращает пакет по ID
func (s *InMemoryStore) GetByID(ctx context.Context, id string) (domain.Package, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	pkg, exists := s.packages[id]
	if !exists {
		return domain.Package{}, domain.NewNotFoundError("package", id)
	}
	return pkg, nil
}

// Методы для работы с подписками

// GetActiveByCustomer возвращает активную подписку клиента вместе с пакетом
func (s *InMemoryStore) GetActiveByCustomer(ctx context.Context, customerID string) (domain.Subscription, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	var active []domain.Subscription
	for _, sub := range s.subscriptions {
		if sub.CustomerID == customerID && sub.IsActive() {
			if pkg, ok := s.packages[sub.PackageID]; ok {
				sub.Package = &pkg
			}
			active = append(active, sub)
		}
	}
	if len(active) == 0 {
		return domain.Subscription{}, ErrNotFound
	}

	sort.SliceStable(active, func(i, j int) bool {
		return active[i].StartDate.After(active[j].StartDate)
	})
	if len(active) > 1 {
		return active[0], fmt.Errorf("repository: customer %s: %w", customerID, ErrMultipleActive)
	}
	return active[0], nil
}

// CreateActive сохраняет новую активную подписку, деактивируя предыдущие
func (s *InMemoryStore) CreateActive(ctx context.Context, sub domain.Subscription) (domain.Subscription, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	for _, existing := range s.subscriptions {
		if existing.CustomerID == sub.CustomerID && existing.IsActive() && existing.PackageID == sub.PackageID {
			return domain.Subscription{}, ErrAlreadySubscribed
		}
	}
	for i := range s.subscriptions {
		if s.subscriptions[i].CustomerID == sub.CustomerID && s.subscriptions[i].IsActive() {
			s.subscriptions[i].Status = domain.SubscriptionStatusInactive
		}
	}

	stored := sub
	stored.Package = nil
	s.subscriptions = append(s.subscriptions, stored)

	s.log.Debugw("Stored subscription in memory", "subscriptionID", sub.ID, "customerID", sub.CustomerID)
	return sub, nil
}

// Методы для работы с платежами

// ListRecentByCustomer возвращает платежи клиента, новые первыми
func (s *InMemoryStore) ListRecentByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Payment, error) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	payments := make([]domain.Payment, 0)
	for _, p := range s.payments {
		if p.CustomerID == customerID {
			payments = append(payments, p)
		}
	}
	sort.SliceStable(payments, func(i, j int) bool {
		return payments[i].PaymentDate.After(payments[j].PaymentDate)
	})
	if limit > 0 && len(payments) > limit {
		payments = payments[:limit]
	}
	return payments, nil
}
