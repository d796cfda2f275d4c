package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// DashboardMetrics интерфейс для метрик дашборда и оформления подписок
type DashboardMetrics interface {
	IncQueryError(query string)
	IncSubscriptionCreated(packageName string)
	IncSubscriptionFailed(reason string)
	IncMultipleActive()
	ObserveCacheRequest(result string)
}

type dashboardMetrics struct {
	log                  *logger.Logger
	queryErrors          *prometheus.CounterVec
	subscriptionsCreated *prometheus.CounterVec
	subscriptionFailures *prometheus.CounterVec
	cacheRequests        *prometheus.CounterVec
	multipleActive       prometheus.Counter
}

// NewRegistry создает реестр с метриками рантайма Go и процесса
func NewRegistry() *prometheus.Registry {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return registry
}

// NewDashboardMetrics создает новые метрики дашборда
func NewDashboardMetrics(registry *prometheus.Registry, log *logger.Logger) DashboardMetrics {
	queryErrors := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "dashboard_query_errors_total",
			Help: "The total number of failed page data queries",
		},
		[]string{"query"},
	)

	subscriptionsCreated := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscriptions_created_total",
			Help: "The total number of created subscriptions",
		},
		[]string{"package"},
	)

	subscriptionFailures := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "subscription_failures_total",
			Help: "The total number of rejected or failed subscribe attempts",
		},
		[]string{"reason"},
	)

	cacheRequests := promauto.With(registry).NewCounterVec(
		prometheus.CounterOpts{
			Name: "catalog_cache_requests_total",
			Help: "Package catalog cache lookups by result",
		},
		[]string{"result"},
	)

	multipleActive := promauto.With(registry).NewCounter(
		prometheus.CounterOpts{
			Name: "multiple_active_subscriptions_total",
			Help: "How often a customer was found with more than one active subscription",
		},
	)

	return &dashboardMetrics{
		log:                  log,
		queryErrors:          queryErrors,
		subscriptionsCreated: subscriptionsCreated,
		subscriptionFailures: subscriptionFailures,
		cacheRequests:        cacheRequests,
		multipleActive:       multipleActive,
	}
}

// IncQueryError увеличивает счетчик ошибок запросов страницы
func (m *dashboardMetrics) IncQueryError(query string) {
	m.queryErrors.WithLabelValues(query).Inc()
}

// IncSubscriptionCreated увеличивает счетчик созданных подписок
func (m *dashboardMetrics) IncSubscriptionCreated(packageName string) {
	m.subscriptionsCreated.WithLabelValues(packageName).Inc()
}

// IncSubscriptionFailed увеличивает счетчик неудачных подписок
func (m *dashboardMetrics) IncSubscriptionFailed(reason string) {
	m.subscriptionFailures.WithLabelValues(reason).Inc()
}

// IncMultipleActive фиксирует нарушение "одна активная подписка на клиента"
func (m *dashboardMetrics) IncMultipleActive() {
	m.multipleActive.Inc()
	m.log.Debug("Multiple active subscriptions recorded")
}

// ObserveCacheRequest считает обращения к кешу каталога
func (m *dashboardMetrics) ObserveCacheRequest(result string) {
	m.cacheRequests.WithLabelValues(result).Inc()
}

// Nop возвращает реализацию, которая ничего не записывает
func Nop() DashboardMetrics {
	return nopMetrics{}
}

type nopMetrics struct{}

func (nopMetrics) IncQueryError(string)          {}
func (nopMetrics) IncSubscriptionCreated(string) {}
func (nopMetrics) IncSubscriptionFailed(string)  {}
func (nopMetrics) IncMultipleActive()            {}
func (nopMetrics) ObserveCacheRequest(string)    {}
