package domain

import (
	"strconv"
)

// PackageStatus статус интернет-пакета
type PackageStatus string

const (
	PackageStatusActive   PackageStatus = "active"
	PackageStatusInactive PackageStatus = "inactive"
)

// Package представляет тарифный пакет (internet_packages)
type Package struct {
	ID           string        `json:"id" db:"id"`
	Name         string        `json:"name" db:"name"`
	Description  string        `json:"description" db:"description"`
	SpeedMbps    int           `json:"speed_mbps" db:"speed_mbps"`
	Price        float64       `json:"price" db:"price"`
	DurationDays int           `json:"duration_days" db:"duration_days"`
	DataLimitGB  *float64      `json:"data_limit_gb" db:"data_limit_gb"` // nil - безлимит
	Status       PackageStatus `json:"status" db:"status"`
}

// IsActive сообщает, доступен ли пакет для подписки
func (p Package) IsActive() bool {
	return p.Status == PackageStatusActive
}

// IsUnlimited сообщает, что у пакета нет ограничения по трафику
func (p Package) IsUnlimited() bool {
	return p.DataLimitGB == nil || *p.DataLimitGB <= 0
}

// DataLimitLabel возвращает "Unlimited" или "<n> GB"
func (p Package) DataLimitLabel() string {
	if p.IsUnlimited() {
		return "Unlimited"
	}
	return strconv.FormatFloat(*p.DataLimitGB, 'f', -1, 64) + " GB"
}
