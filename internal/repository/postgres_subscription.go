package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// PgxDB - подмножество методов pgxpool.Pool, которое нужно репозиториям
type PgxDB interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

const packageColumns = `p.id::text, p.name, p.description, p.speed_mbps, p.price::float8,
		p.duration_days, p.data_limit_gb::float8, p.status`

// PostgresPackageRepository читает каталог internet_packages
type PostgresPackageRepository struct {
	db  PgxDB
	log *logger.Logger
}

// NewPostgresPackageRepository создает новый репозиторий пакетов через PostgreSQL
func NewPostgresPackageRepository(db PgxDB, log *logger.Logger) *PostgresPackageRepository {
	return &PostgresPackageRepository{db: db, log: log}
}

// ListActive возвращает активные пакеты по возрастанию цены
func (r *PostgresPackageRepository) ListActive(ctx context.Context) ([]domain.Package, error) {
	query := `
		SELECT ` + packageColumns + `
		FROM internet_packages p
		WHERE p.status = $1
		ORDER BY p.price ASC`

	rows, err := r.db.Query(ctx, query, string(domain.PackageStatusActive))
	if err != nil {
		r.log.Errorw("Failed to query active packages", "error", err)
		return nil, fmt.Errorf("repository: failed to query packages: %w", err)
	}
	defer rows.Close()

	packages := make([]domain.Package, 0)
	for rows.Next() {
		pkg, err := scanPackage(rows)
		if err != nil {
			return nil, fmt.Errorf("repository: failed to scan package: %w", err)
		}
		packages = append(packages, pkg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repository: error iterating packages: %w", err)
	}

	r.log.Debugw("Fetched active packages", "count", len(packages))
	return packages, nil
}

// GetByID возвращает пакет по ID
func (r *PostgresPackageRepository) GetByID(ctx context.Context, id string) (domain.Package, error) {
	// id колонки - uuid, невалидная строка не может совпасть ни с одной записью
	if _, err := uuid.Parse(id); err != nil {
		return domain.Package{}, domain.NewNotFoundError("package", id)
	}

	query := `
		SELECT ` + packageColumns + `
		FROM internet_packages p
		WHERE p.id = $1`

	pkg, err := scanPackage(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Package{}, domain.NewNotFoundError("package", id)
		}
		r.log.Errorw("Failed to get package", "error", err, "packageID", id)
		return domain.Package{}, fmt.Errorf("repository: failed to get package: %w", err)
	}
	return pkg, nil
}

func scanPackage(row pgx.Row) (domain.Package, error) {
	var (
		pkg    domain.Package
		status string
	)
	err := row.Scan(
		&pkg.ID,
		&pkg.Name,
		&pkg.Description,
		&pkg.SpeedMbps,
		&pkg.Price,
		&pkg.DurationDays,
		&pkg.DataLimitGB,
		&status,
	)
	pkg.Status = domain.PackageStatus(status)
	return pkg, err
}

// PostgresSubscriptionRepository реализация репозитория подписок через PostgreSQL
type PostgresSubscriptionRepository struct {
	db  PgxDB
	log *logger.Logger
}

// NewPostgresSubscriptionRepository создает новый репозиторий подписок через PostgreSQL
func NewPostgresSubscriptionRepository(db PgxDB, log *logger.Logger) *PostgresSubscriptionRepository {
	return &PostgresSubscriptionRepository{
		db:  db,
		log: log,
	}
}

// GetActiveByCustomer возвращает активную подписку клиента вместе с пакетом
func (r *PostgresSubscriptionRepository) GetActiveByCustomer(ctx context.Context, customerID string) (domain.Subscription, error) {
	// LIMIT 2 достаточно, чтобы заметить нарушение "одна активная подписка на клиента"
	query := `
		SELECT
			s.id::text, s.customer_id::text, s.package_id::text,
			s.start_date, s.end_date, s.status,
			` + packageColumns + `
		FROM subscriptions s
		JOIN internet_packages p ON p.id = s.package_id
		WHERE s.customer_id = $1 AND s.status = $2
		ORDER BY s.start_date DESC
		LIMIT 2`

	rows, err := r.db.Query(ctx, query, customerID, string(domain.SubscriptionStatusActive))
	if err != nil {
		r.log.Errorw("Failed to query active subscription", "error", err, "customerID", customerID)
		return domain.Subscription{}, fmt.Errorf("repository: failed to query subscription: %w", err)
	}
	defer rows.Close()

	var subs []domain.Subscription
	for rows.Next() {
		var (
			sub       domain.Subscription
			pkg       domain.Package
			subStatus string
			pkgStatus string
		)
		err := rows.Scan(
			&sub.ID, &sub.CustomerID, &sub.PackageID,
			&sub.StartDate, &sub.EndDate, &subStatus,
			&pkg.ID, &pkg.Name, &pkg.Description, &pkg.SpeedMbps, &pkg.Price,
			&pkg.DurationDays, &pkg.DataLimitGB, &pkgStatus,
		)
		if err != nil {
			return domain.Subscription{}, fmt.Errorf("repository: failed to scan subscription: %w", err)
		}
		sub.Status = domain.SubscriptionStatus(subStatus)
		pkg.Status = domain.PackageStatus(pkgStatus)
		sub.Package = &pkg
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return domain.Subscription{}, fmt.Errorf("repository: error iterating subscriptions: %w", err)
	}

	switch len(subs) {
	case 0:
		r.log.Debugw("No active subscription", "customerID", customerID)
		return domain.Subscription{}, ErrNotFound
	case 1:
		return subs[0], nil
	default:
		return subs[0], fmt.Errorf("repository: customer %s: %w", customerID, ErrMultipleActive)
	}
}

// CreateActive сохраняет новую активную подписку в одной транзакции
func (r *PostgresSubscriptionRepository) CreateActive(ctx context.Context, sub domain.Subscription) (domain.Subscription, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("repository: failed to begin transaction: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				r.log.Warnw("Failed to rollback subscription transaction", "error", rbErr)
			}
		}
	}()

	// Сериализуем оформление подписок одного клиента
	if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, sub.CustomerID); err != nil {
		return domain.Subscription{}, fmt.Errorf("repository: failed to lock customer: %w", err)
	}

	rows, err := tx.Query(ctx, `
		SELECT id::text, package_id::text
		FROM subscriptions
		WHERE customer_id = $1 AND status = $2
		FOR UPDATE`, sub.CustomerID, string(domain.SubscriptionStatusActive))
	if err != nil {
		return domain.Subscription{}, fmt.Errorf("repository: failed to query active subscriptions: %w", err)
	}
	activeCount := 0
	for rows.Next() {
		var id, packageID string
		if err := rows.Scan(&id, &packageID); err != nil {
			rows.Close()
			return domain.Subscription{}, fmt.Errorf("repository: failed to scan active subscription: %w", err)
		}
		if packageID == sub.PackageID {
			rows.Close()
			r.log.Warnw("Duplicate subscription attempt", "customerID", sub.CustomerID, "packageID", sub.PackageID)
			return domain.Subscription{}, ErrAlreadySubscribed
		}
		activeCount++
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return domain.Subscription{}, fmt.Errorf("repository: error iterating active subscriptions: %w", err)
	}

	if activeCount > 0 {
		_, err := tx.Exec(ctx, `
			UPDATE subscriptions SET status = $1
			WHERE customer_id = $2 AND status = $3`,
			string(domain.SubscriptionStatusInactive), sub.CustomerID, string(domain.SubscriptionStatusActive))
		if err != nil {
			return domain.Subscription{}, fmt.Errorf("repository: failed to deactivate previous subscriptions: %w", err)
		}
		r.log.Infow("Deactivated previous subscriptions", "customerID", sub.CustomerID, "count", activeCount)
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO subscriptions (id, customer_id, package_id, start_date, end_date, status)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		sub.ID, sub.CustomerID, sub.PackageID, sub.StartDate, sub.EndDate, string(sub.Status))
	if err != nil {
		r.log.Errorw("Failed to insert subscription", "error", err, "customerID", sub.CustomerID)
		return domain.Subscription{}, fmt.Errorf("repository: failed to create subscription: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Subscription{}, fmt.Errorf("repository: failed to commit subscription: %w", err)
	}
	committed = true

	r.log.Debugw("Successfully created subscription in DB", "subscriptionID", sub.ID, "customerID", sub.CustomerID)
	return sub, nil
}
