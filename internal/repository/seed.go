package repository

import (
	"time"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
)

// Идентификаторы демо-каталога
const (
	DemoBasicPackageID    = "3f0c2a4e-8b1d-4c7a-9e61-0a1b2c3d4e01"
	DemoStandardPackageID = "3f0c2a4e-8b1d-4c7a-9e61-0a1b2c3d4e02"
	DemoPremiumPackageID  = "3f0c2a4e-8b1d-4c7a-9e61-0a1b2c3d4e03"
	DemoRetiredPackageID  = "3f0c2a4e-8b1d-4c7a-9e61-0a1b2c3d4e04"
)

// DemoPackages возвращает каталог для локального запуска без базы данных
func DemoPackages() []domain.Package {
	fifty := 50.0
	return []domain.Package{
		{
			ID:           DemoBasicPackageID,
			Name:         "Basic",
			Description:  "Browsing, email and social media for one device.",
			SpeedMbps:    5,
			Price:        1500,
			DurationDays: 30,
			DataLimitGB:  &fifty,
			Status:       domain.PackageStatusActive,
		},
		{
			ID:           DemoStandardPackageID,
			Name:         "Standard",
			Description:  "HD streaming and video calls for the whole household.",
			SpeedMbps:    10,
			Price:        2500,
			DurationDays: 30,
			Status:       domain.PackageStatusActive,
		},
		{
			ID:           DemoPremiumPackageID,
			Name:         "Premium",
			Description:  "4K streaming, gaming and remote work without limits.",
			SpeedMbps:    25,
			Price:        4000,
			DurationDays: 30,
			Status:       domain.PackageStatusActive,
		},
		{
			ID:           DemoRetiredPackageID,
			Name:         "Starter (retired)",
			Description:  "No longer sold.",
			SpeedMbps:    2,
			Price:        800,
			DurationDays: 7,
			Status:       domain.PackageStatusInactive,
		},
	}
}

// SeedDemo заполняет хранилище демо-каталогом и платежами для указанного клиента
func SeedDemo(s *InMemoryStore, customerID string, now time.Time) {
	for _, pkg := range DemoPackages() {
		s.AddPackage(pkg)
	}
	if customerID == "" {
		return
	}
	for i, amount := range []float64{1500, 2500, 2500} {
		s.AddPayment(domain.Payment{
			ID:            "demo-payment-" + string(rune('a'+i)),
			CustomerID:    customerID,
			Amount:        amount,
			PaymentMethod: "mpesa",
			Status:        domain.PaymentStatusCompleted,
			PaymentDate:   now.AddDate(0, -i, 0),
		})
	}
}
