package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/internal/repository"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

const (
	customerID = "customer-1"
	p1         = "p1"
	p2         = "p2"
)

var fixedNow = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

type recordingMetrics struct {
	mu             sync.Mutex
	queryErrors    []string
	created        []string
	failures       []string
	multipleActive int
}

func (m *recordingMetrics) IncQueryError(q string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queryErrors = append(m.queryErrors, q)
}

func (m *recordingMetrics) IncSubscriptionCreated(p string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.created = append(m.created, p)
}

func (m *recordingMetrics) IncSubscriptionFailed(r string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = append(m.failures, r)
}

func (m *recordingMetrics) IncMultipleActive() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.multipleActive++
}

func (m *recordingMetrics) ObserveCacheRequest(string) {}

type recordingPublisher struct {
	events []domain.Subscription
	err    error
}

func (p *recordingPublisher) PublishSubscriptionCreated(_ context.Context, sub domain.Subscription) error {
	p.events = append(p.events, sub)
	return p.err
}

func (p *recordingPublisher) Close() error { return nil }

type failingPackages struct{ err error }

func (f failingPackages) ListActive(context.Context) ([]domain.Package, error) { return nil, f.err }
func (f failingPackages) GetByID(context.Context, string) (domain.Package, error) {
	return domain.Package{}, f.err
}

type failingSubscriptions struct{ err error }

func (f failingSubscriptions) GetActiveByCustomer(context.Context, string) (domain.Subscription, error) {
	return domain.Subscription{}, f.err
}
func (f failingSubscriptions) CreateActive(context.Context, domain.Subscription) (domain.Subscription, error) {
	return domain.Subscription{}, f.err
}

type failingPayments struct{ err error }

func (f failingPayments) ListRecentByCustomer(context.Context, string, int) ([]domain.Payment, error) {
	return nil, f.err
}

func newStore(t *testing.T) *repository.InMemoryStore {
	t.Helper()
	store := repository.NewInMemoryStore(logger.NewNop())
	store.AddPackage(domain.Package{ID: p1, Name: "Basic", Price: 1500, DurationDays: 30, SpeedMbps: 5, Status: domain.PackageStatusActive})
	store.AddPackage(domain.Package{ID: p2, Name: "Standard", Price: 2500, DurationDays: 30, SpeedMbps: 10, Status: domain.PackageStatusActive})
	store.AddPackage(domain.Package{ID: "old", Name: "Retired", Price: 500, DurationDays: 7, Status: domain.PackageStatusInactive})
	return store
}

var identity = &domain.Identity{ID: customerID, Email: "jane@example.com"}

func TestDashboardService_Load(t *testing.T) {
	store := newStore(t)
	for i := 0; i < 7; i++ {
		store.AddPayment(domain.Payment{
			ID:          string(rune('a' + i)),
			CustomerID:  customerID,
			Amount:      1000,
			PaymentDate: fixedNow.AddDate(0, 0, -i),
			Status:      domain.PaymentStatusCompleted,
		})
	}
	store.AddSubscription(domain.Subscription{
		ID: "s1", CustomerID: customerID, PackageID: p1,
		StartDate: fixedNow, EndDate: fixedNow.AddDate(0, 0, 30), Status: domain.SubscriptionStatusActive,
	})

	svc := NewDashboardService(store, store, store, nil, 0, logger.NewNop())
	state, err := svc.Load(context.Background(), identity)
	require.NoError(t, err)

	assert.Empty(t, state.Notifications)
	assert.Len(t, state.Packages, 2)
	assert.Len(t, state.Payments, DefaultRecentPayments)
	require.NotNil(t, state.Subscription)
	require.NotNil(t, state.Subscription.Package)
	assert.Equal(t, "Basic", state.Subscription.Package.Name)
}

func TestDashboardService_NoSubscriptionIsNotAnError(t *testing.T) {
	store := newStore(t)
	svc := NewDashboardService(store, store, store, nil, 5, logger.NewNop())

	state, err := svc.Load(context.Background(), identity)
	require.NoError(t, err)
	assert.Nil(t, state.Subscription)
	assert.Empty(t, state.Notifications)
	assert.NotNil(t, state.Payments)
}

func TestDashboardService_PartialFailure(t *testing.T) {
	store := newStore(t)
	m := &recordingMetrics{}
	svc := NewDashboardService(store, store, failingPayments{err: errors.New("JWT expired")}, m, 5, logger.NewNop())

	state, err := svc.Load(context.Background(), identity)
	require.NoError(t, err)

	assert.Len(t, state.Packages, 2)
	assert.Empty(t, state.Payments)
	require.Len(t, state.Notifications, 1)
	assert.Equal(t, "Error", state.Notifications[0].Title)
	assert.Equal(t, "JWT expired", state.Notifications[0].Description)
	assert.True(t, state.Notifications[0].IsDestructive())
	assert.Equal(t, []string{"payments"}, m.queryErrors)
}

func TestDashboardService_EveryQueryFails(t *testing.T) {
	m := &recordingMetrics{}
	svc := NewDashboardService(
		failingPackages{err: errors.New("packages down")},
		failingSubscriptions{err: errors.New("subscriptions down")},
		failingPayments{err: errors.New("payments down")},
		m, 5, logger.NewNop())

	state, err := svc.Load(context.Background(), identity)
	require.NoError(t, err)
	require.Len(t, state.Notifications, 3)
	assert.Equal(t, "packages down", state.Notifications[0].Description)
	assert.Equal(t, "subscriptions down", state.Notifications[1].Description)
	assert.Equal(t, "payments down", state.Notifications[2].Description)
	assert.Nil(t, state.Subscription)
}

func TestDashboardService_MultipleActiveUsesNewest(t *testing.T) {
	store := newStore(t)
	store.AddSubscription(domain.Subscription{ID: "older", CustomerID: customerID, PackageID: p1,
		StartDate: fixedNow.AddDate(0, 0, -3), EndDate: fixedNow.AddDate(0, 0, 27), Status: domain.SubscriptionStatusActive})
	store.AddSubscription(domain.Subscription{ID: "newer", CustomerID: customerID, PackageID: p2,
		StartDate: fixedNow, EndDate: fixedNow.AddDate(0, 0, 30), Status: domain.SubscriptionStatusActive})
	m := &recordingMetrics{}

	svc := NewDashboardService(store, store, store, m, 5, logger.NewNop())
	state, err := svc.Load(context.Background(), identity)
	require.NoError(t, err)

	require.NotNil(t, state.Subscription)
	assert.Equal(t, "newer", state.Subscription.ID)
	assert.Empty(t, state.Notifications)
	assert.Equal(t, 1, m.multipleActive)
}

func TestDashboardService_Unauthenticated(t *testing.T) {
	store := newStore(t)
	svc := NewDashboardService(store, store, store, nil, 5, logger.NewNop())

	_, err := svc.Load(context.Background(), nil)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
}

func TestDashboardService_CancelledRequest(t *testing.T) {
	store := newStore(t)
	svc := NewDashboardService(store, store, store, nil, 5, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := svc.Load(ctx, identity)
	assert.ErrorIs(t, err, context.Canceled)
}

// blockingPayments ждет отмены контекста или release
type blockingPayments struct {
	release  chan struct{}
	payments []domain.Payment
}

func (b blockingPayments) ListRecentByCustomer(ctx context.Context, _ string, _ int) ([]domain.Payment, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-b.release:
		return b.payments, nil
	}
}

func TestDashboardService_CancelledMidFlight(t *testing.T) {
	store := newStore(t)
	payments := blockingPayments{release: make(chan struct{})}
	svc := NewDashboardService(store, store, payments, nil, 5, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := svc.Load(ctx, identity)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDashboardService_QueryFailureDoesNotCancelOthers(t *testing.T) {
	store := newStore(t)
	release := make(chan struct{})
	payments := blockingPayments{release: release, payments: []domain.Payment{{ID: "pay-1", CustomerID: customerID, Amount: 1500}}}
	svc := NewDashboardService(failingPackages{err: errors.New("timeout")}, store, payments, nil, 5, logger.NewNop())

	// платежи возвращаются уже после сбоя запроса пакетов
	time.AfterFunc(20*time.Millisecond, func() { close(release) })

	state, err := svc.Load(context.Background(), identity)
	require.NoError(t, err)
	require.Len(t, state.Payments, 1)
	assert.Empty(t, state.Packages)
	require.Len(t, state.Notifications, 1)
	assert.Equal(t, "timeout", state.Notifications[0].Description)
}

func TestCatalogService_Load(t *testing.T) {
	store := newStore(t)
	store.AddSubscription(domain.Subscription{ID: "s1", CustomerID: customerID, PackageID: p2,
		StartDate: fixedNow, EndDate: fixedNow.AddDate(0, 0, 30), Status: domain.SubscriptionStatusActive})
	svc := NewCatalogService(store, store, nil, logger.NewNop())

	state, err := svc.Load(context.Background(), identity)
	require.NoError(t, err)
	require.Len(t, state.Packages, 2)
	assert.Equal(t, p1, state.Packages[0].ID)
	assert.Equal(t, p2, state.CurrentPackageID)

	anonymous, err := svc.Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, anonymous.CurrentPackageID)
}

func TestCatalogService_PackagesFailure(t *testing.T) {
	store := newStore(t)
	svc := NewCatalogService(failingPackages{err: errors.New("timeout")}, store, nil, logger.NewNop())

	state, err := svc.Load(context.Background(), identity)
	require.NoError(t, err)
	assert.Empty(t, state.Packages)
	require.Len(t, state.Notifications, 1)
	assert.Equal(t, "Error loading packages", state.Notifications[0].Title)
	assert.Equal(t, "timeout", state.Notifications[0].Description)
}

func TestCatalogService_SubscriptionFailureOnlyLogged(t *testing.T) {
	store := newStore(t)
	m := &recordingMetrics{}
	svc := NewCatalogService(store, failingSubscriptions{err: errors.New("boom")}, m, logger.NewNop())

	state, err := svc.Load(context.Background(), identity)
	require.NoError(t, err)
	assert.Len(t, state.Packages, 2)
	assert.Empty(t, state.Notifications)
	assert.Empty(t, state.CurrentPackageID)
	assert.Equal(t, []string{"subscription"}, m.queryErrors)
}

func newSubscriptionService(store *repository.InMemoryStore, pub *recordingPublisher, m *recordingMetrics) *SubscriptionService {
	return NewSubscriptionService(store, store, pub, m, logger.NewNop(), WithClock(func() time.Time { return fixedNow }))
}

func TestSubscriptionService_UnauthenticatedNeverWrites(t *testing.T) {
	store := newStore(t)
	pub := &recordingPublisher{}
	m := &recordingMetrics{}
	svc := newSubscriptionService(store, pub, m)

	_, err := svc.Subscribe(context.Background(), nil, p1)
	assert.ErrorIs(t, err, domain.ErrUnauthenticated)
	assert.Empty(t, store.Subscriptions())
	assert.Empty(t, pub.events)
	assert.Equal(t, []string{"unauthenticated"}, m.failures)

	notes := SubscribeOutcome(domain.Subscription{}, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Authentication Required", notes[0].Title)
	assert.Equal(t, "Please sign in to subscribe to a package.", notes[0].Description)
}

func TestSubscriptionService_EndDateFromDuration(t *testing.T) {
	store := newStore(t)
	svc := newSubscriptionService(store, &recordingPublisher{}, &recordingMetrics{})

	sub, err := svc.Subscribe(context.Background(), identity, p1)
	require.NoError(t, err)
	assert.Equal(t, fixedNow, sub.StartDate)
	assert.Equal(t, fixedNow.Add(30*24*time.Hour), sub.EndDate)
	assert.Equal(t, domain.SubscriptionStatusActive, sub.Status)
	assert.NotEmpty(t, sub.ID)
}

func TestSubscriptionService_Rejections(t *testing.T) {
	store := newStore(t)
	m := &recordingMetrics{}
	svc := newSubscriptionService(store, &recordingPublisher{}, m)
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, identity, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Subscribe(ctx, identity, "missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.Subscribe(ctx, identity, "old")
	assert.ErrorIs(t, err, domain.ErrPackageInactive)

	_, err = svc.Subscribe(ctx, identity, p1)
	require.NoError(t, err)
	_, err = svc.Subscribe(ctx, identity, p1)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)

	assert.Equal(t, []string{"invalid_input", "package_not_found", "package_inactive", "already_subscribed"}, m.failures)
	assert.Len(t, store.Subscriptions(), 1)
}

func TestSubscriptionService_StoreErrorShownVerbatim(t *testing.T) {
	store := newStore(t)
	svc := NewSubscriptionService(store, failingSubscriptions{err: errors.New("new row violates row-level security policy")},
		nil, nil, logger.NewNop())

	sub, err := svc.Subscribe(context.Background(), identity, p1)
	require.Error(t, err)

	notes := SubscribeOutcome(sub, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "Subscription Failed", notes[0].Title)
	assert.Equal(t, "new row violates row-level security policy", notes[0].Description)
}

func TestSubscriptionService_PublishFailureIsBestEffort(t *testing.T) {
	store := newStore(t)
	pub := &recordingPublisher{err: errors.New("kafka unavailable")}
	m := &recordingMetrics{}
	svc := newSubscriptionService(store, pub, m)

	sub, err := svc.Subscribe(context.Background(), identity, p2)
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	assert.Equal(t, sub.ID, pub.events[0].ID)
	assert.Equal(t, []string{"Standard"}, m.created)
}

func TestSubscribeThenCatalogMarksCurrentPlan(t *testing.T) {
	store := newStore(t)
	subs := newSubscriptionService(store, &recordingPublisher{}, &recordingMetrics{})
	catalog := NewCatalogService(store, store, nil, logger.NewNop())
	ctx := context.Background()

	sub, err := subs.Subscribe(ctx, identity, p2)
	require.NoError(t, err)

	stored := store.Subscriptions()
	require.Len(t, stored, 1)
	assert.Equal(t, p2, stored[0].PackageID)
	assert.Equal(t, domain.SubscriptionStatusActive, stored[0].Status)
	assert.Equal(t, fixedNow.AddDate(0, 0, 30), stored[0].EndDate)

	notes := SubscribeOutcome(sub, nil)
	require.NotEmpty(t, notes)
	assert.Equal(t, "Subscription Successful!", notes[0].Title)
	assert.Equal(t, "You have subscribed to Standard. Your service is now active.", notes[0].Description)

	state, err := catalog.Load(ctx, identity)
	require.NoError(t, err)
	assert.Equal(t, p2, state.CurrentPackageID)
}

func TestSubscriptionService_PlanSwitch(t *testing.T) {
	store := newStore(t)
	clock := fixedNow
	svc := NewSubscriptionService(store, store, nil, nil, logger.NewNop(), WithClock(func() time.Time { return clock }))
	ctx := context.Background()

	_, err := svc.Subscribe(ctx, identity, p1)
	require.NoError(t, err)
	clock = clock.Add(time.Hour)
	_, err = svc.Subscribe(ctx, identity, p2)
	require.NoError(t, err)

	active, err := store.GetActiveByCustomer(ctx, customerID)
	require.NoError(t, err)
	assert.Equal(t, p2, active.PackageID)
}
