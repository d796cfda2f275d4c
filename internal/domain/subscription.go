package domain

import (
	"time"
)

// SubscriptionStatus статус подписки
type SubscriptionStatus string

const (
	SubscriptionStatusActive   SubscriptionStatus = "active"
	SubscriptionStatusInactive SubscriptionStatus = "inactive"
)

// Subscription представляет собой подписку клиента на один пакет
type Subscription struct {
	ID         string             `json:"id"`
	CustomerID string             `json:"customer_id"`
	PackageID  string             `json:"package_id"`
	StartDate  time.Time          `json:"start_date"`
	EndDate    time.Time          `json:"end_date"`
	Status     SubscriptionStatus `json:"status"`
	Package    *Package           `json:"package,omitempty"`
}

// IsActive сообщает, действует ли подписка
func (s Subscription) IsActive() bool {
	return s.Status == SubscriptionStatusActive
}

// SubscribeRequest представляет запрос на оформление подписки
type SubscribeRequest struct {
	PackageID string `json:"package_id" validate:"required"`
}
