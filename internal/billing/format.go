// Package billing содержит расчеты для отображения: форматирование сумм,
// остаток дней подписки и агрегирование платежей.
package billing

import (
	"math"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

const (
	// CurrencyCode код валюты, в которой выставляются все счета
	CurrencyCode = "KES"
	// CurrencySymbol символ валюты для локали en-KE
	CurrencySymbol = "Ksh"
)

var printer = message.NewPrinter(language.English)

// FormatCurrency форматирует сумму как "Ksh 1,500.00".
// NaN и бесконечности выводятся как ноль.
func FormatCurrency(amount float64) string {
	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	sign := ""
	if amount < 0 {
		sign = "-"
		amount = -amount
	}
	return sign + CurrencySymbol + " " + printer.Sprintf("%.2f", amount)
}
