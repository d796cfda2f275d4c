package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

// postgresPaymentRepo реализует PaymentRepository для PostgreSQL через sqlx.
type postgresPaymentRepo struct {
	db  *sqlx.DB
	log *logger.Logger
}

// NewPostgresPaymentRepository создает новый экземпляр репозитория платежей.
func NewPostgresPaymentRepository(db *sqlx.DB, log *logger.Logger) PaymentRepository {
	return &postgresPaymentRepo{
		db:  db,
		log: log,
	}
}

// ListRecentByCustomer возвращает платежи клиента, отсортированные по дате по убыванию.
func (r *postgresPaymentRepo) ListRecentByCustomer(ctx context.Context, customerID string, limit int) ([]domain.Payment, error) {
	query := `
        SELECT id::text AS id, customer_id::text AS customer_id, amount::float8 AS amount,
               payment_method, status, payment_date
        FROM payments
        WHERE customer_id = $1
        ORDER BY payment_date DESC`
	args := []interface{}{customerID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	payments := make([]domain.Payment, 0)
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		r.log.Errorw("Failed to list payments", "error", err, "customerID", customerID)
		return nil, fmt.Errorf("repository: failed to list payments: %w", err)
	}

	r.log.Debugw("Fetched recent payments", "customerID", customerID, "count", len(payments))
	return payments, nil
}
