package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

const (
	// Ключ для списка активных пакетов
	activePackagesKey = "catalog:active_packages"

	// TTL для кэша по умолчанию
	defaultCacheTTL = 5 * time.Minute
)

// RedisCacheRepository реализует кеширование каталога с использованием Redis
type RedisCacheRepository struct {
	client *redis.Client
	ttl    time.Duration
	log    *logger.Logger
}

// NewRedisCacheRepository создает новый экземпляр Redis репозитория и проверяет соединение
func NewRedisCacheRepository(redisAddr, redisPassword string, redisDB int, ttl time.Duration, log *logger.Logger) (*RedisCacheRepository, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     redisAddr,
		Password: redisPassword,
		DB:       redisDB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		log.Errorw("Failed to connect to Redis", "error", err)
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	log.Infow("Connected to Redis successfully", "addr", redisAddr)
	return NewRedisCacheWithClient(client, ttl, log), nil
}

// NewRedisCacheWithClient создает кеш поверх готового клиента
func NewRedisCacheWithClient(client *redis.Client, ttl time.Duration, log *logger.Logger) *RedisCacheRepository {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCacheRepository{client: client, ttl: ttl, log: log}
}

// Close закрывает соединение с Redis
func (r *RedisCacheRepository) Close() error {
	return r.client.Close()
}

// Ping проверяет доступность Redis
func (r *RedisCacheRepository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// CachePackages кеширует список активных пакетов
func (r *RedisCacheRepository) CachePackages(ctx context.Context, packages []domain.Package) error {
	data, err := json.Marshal(packages)
	if err != nil {
		return fmt.Errorf("failed to marshal packages: %w", err)
	}

	if err := r.client.Set(ctx, activePackagesKey, data, r.ttl).Err(); err != nil {
		r.log.Errorw("Failed to cache packages in Redis", "error", err)
		return fmt.Errorf("failed to cache packages: %w", err)
	}

	r.log.Debugw("Packages cached successfully", "count", len(packages))
	return nil
}

// GetCachedPackages получает список пакетов из кеша. (nil, nil) - промах кеша.
func (r *RedisCacheRepository) GetCachedPackages(ctx context.Context) ([]domain.Package, error) {
	data, err := r.client.Get(ctx, activePackagesKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get packages from cache: %w", err)
	}

	var packages []domain.Package
	if err := json.Unmarshal(data, &packages); err != nil {
		return nil, fmt.Errorf("failed to unmarshal cached packages: %w", err)
	}
	if packages == nil {
		packages = []domain.Package{}
	}
	return packages, nil
}

// InvalidatePackages удаляет кеш каталога
func (r *RedisCacheRepository) InvalidatePackages(ctx context.Context) error {
	if err := r.client.Del(ctx, activePackagesKey).Err(); err != nil {
		return fmt.Errorf("failed to invalidate packages cache: %w", err)
	}
	return nil
}
