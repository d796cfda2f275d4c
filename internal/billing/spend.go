package billing

import (
	"time"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
)

// TotalSpent суммирует все переданные платежи
func TotalSpent(payments []domain.Payment) float64 {
	var sum float64
	for _, p := range payments {
		sum += p.Amount
	}
	return sum
}

// MonthlySpend суммирует платежи текущего календарного месяца.
// Месяц и год сравниваются в часовом поясе now.
func MonthlySpend(payments []domain.Payment, now time.Time) float64 {
	loc := now.Location()
	year, month, _ := now.Date()

	var sum float64
	for _, p := range payments {
		py, pm, _ := p.PaymentDate.In(loc).Date()
		if py == year && pm == month {
			sum += p.Amount
		}
	}
	return sum
}
