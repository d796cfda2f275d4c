package repository

import (
	"context"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// Результаты обращения к кешу каталога
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// CacheObserver получает результат каждого обращения к кешу
type CacheObserver interface {
	ObserveCacheRequest(result string)
}

// PackageCache хранилище списка активных пакетов
type PackageCache interface {
	CachePackages(ctx context.Context, packages []domain.Package) error
	GetCachedPackages(ctx context.Context) ([]domain.Package, error)
}

// CachedPackageRepository реализует PackageRepository с кешированием каталога
type CachedPackageRepository struct {
	repo     PackageRepository
	cache    PackageCache
	observer CacheObserver
	log      *logger.Logger
}

// NewCachedPackageRepository создает новый репозиторий с кешированием. observer может быть nil.
func NewCachedPackageRepository(
	repo PackageRepository,
	cache PackageCache,
	observer CacheObserver,
	log *logger.Logger,
) *CachedPackageRepository {
	return &CachedPackageRepository{
		repo:     repo,
		cache:    cache,
		observer: observer,
		log:      log,
	}
}

// ListActive возвращает активные пакеты (сначала из кеша, потом из БД)
func (r *CachedPackageRepository) ListActive(ctx context.Context) ([]domain.Package, error) {
	cached, err := r.cache.GetCachedPackages(ctx)
	if err != nil {
		r.observe(CacheError)
		r.log.Warnw("Error getting packages from cache", "error", err)
		// Продолжаем выполнение при ошибке кеша
	}

	if cached != nil {
		r.observe(CacheHit)
		r.log.Debugw("Packages found in cache", "count", len(cached))
		return cached, nil
	}
	if err == nil {
		r.observe(CacheMiss)
	}

	packages, err := r.repo.ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if err := r.cache.CachePackages(ctx, packages); err != nil {
		r.log.Warnw("Failed to cache packages after fetching", "error", err)
	}
	return packages, nil
}

// GetByID всегда читает пакет из БД: перед подпиской нужен актуальный статус
func (r *CachedPackageRepository) GetByID(ctx context.Context, id string) (domain.Package, error) {
	return r.repo.GetByID(ctx, id)
}

func (r *CachedPackageRepository) observe(result string) {
	if r.observer != nil {
		r.observer.ObserveCacheRequest(result)
	}
}
