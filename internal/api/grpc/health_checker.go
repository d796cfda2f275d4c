package grpc

import (
	"context"
	"time"

	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// StatusSetter часть health.Server, которой пользуется StoreChecker
type StatusSetter interface {
	SetServingStatus(service string, servingStatus healthpb.HealthCheckResponse_ServingStatus)
}

// StoreChecker периодически проверяет хранилище и переключает статус сервиса
type StoreChecker struct {
	ping     func(ctx context.Context) error
	status   StatusSetter
	interval time.Duration
	timeout  time.Duration
	log      *logger.Logger
}

// NewStoreChecker создает проверку хранилища. interval по умолчанию 15s.
func NewStoreChecker(ping func(ctx context.Context) error, status StatusSetter, interval time.Duration, log *logger.Logger) *StoreChecker {
	if interval <= 0 {
		interval = 15 * time.Second
	}
	return &StoreChecker{
		ping:     ping,
		status:   status,
		interval: interval,
		timeout:  2 * time.Second,
		log:      log,
	}
}

// Run проверяет хранилище до отмены ctx
func (c *StoreChecker) Run(ctx context.Context) {
	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	c.Check(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			c.Check(ctx)
		}
	}
}

// Check выполняет одну проверку и возвращает выставленный статус
func (c *StoreChecker) Check(ctx context.Context) healthpb.HealthCheckResponse_ServingStatus {
	pingCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	status := healthpb.HealthCheckResponse_SERVING
	if err := c.ping(pingCtx); err != nil {
		c.log.Warnw("Store health check failed", "error", err)
		status = healthpb.HealthCheckResponse_NOT_SERVING
	}
	c.status.SetServingStatus(ServiceName, status)
	c.status.SetServingStatus("", status)
	return status
}
