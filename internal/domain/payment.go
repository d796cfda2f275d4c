package domain

import (
	"time"
)

// PaymentStatus статус платежа
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusFailed    PaymentStatus = "failed"
)

// Payment представляет собой запись о платеже клиента
type Payment struct {
	ID            string        `json:"id" db:"id"`
	CustomerID    string        `json:"customer_id" db:"customer_id"`
	Amount        float64       `json:"amount" db:"amount"`
	PaymentMethod string        `json:"payment_method" db:"payment_method"`
	Status        PaymentStatus `json:"status" db:"status"`
	PaymentDate   time.Time     `json:"payment_date" db:"payment_date"`
}

// IsCompleted сообщает, завершен ли платеж
func (p Payment) IsCompleted() bool {
	return p.Status == PaymentStatusCompleted
}
