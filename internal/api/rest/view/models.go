// Package view собирает модели страниц и рендерит встроенные html/template шаблоны.
package view

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/Dhoini/primeconnect-dashboard/internal/billing"
	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/internal/service"
)

const dateLayout = "02 Jan 2006"

// Page общие данные любой страницы
type Page struct {
	Title         string
	Nav           Nav
	Notifications []domain.Notification
	Content       any
}

// NavLink пункт меню
type NavLink struct {
	Label  string
	Href   string
	Active bool
}

// Nav данные панели навигации
type Nav struct {
	BrandHref string
	SignedIn  bool
	Email     string
	Initial   string
	Links     []NavLink
}

// BuildNav строит навигацию. Ссылки показываются только вошедшему пользователю.
func BuildNav(identity *domain.Identity, currentPath string) Nav {
	if identity == nil {
		return Nav{BrandHref: "/"}
	}
	links := []NavLink{
		{Label: "Dashboard", Href: "/dashboard"},
		{Label: "Packages", Href: "/packages"},
		{Label: "Profile", Href: "/profile"},
	}
	for i := range links {
		links[i].Active = links[i].Href == currentPath
	}
	return Nav{
		BrandHref: "/dashboard",
		SignedIn:  true,
		Email:     identity.Email,
		Initial:   identity.Initial(),
		Links:     links,
	}
}

// StatTile плитка со статистикой
type StatTile struct {
	Title       string
	Value       string
	Description string
	Trend       string
	Tone        string
}

// SubscriptionView карточка текущего тарифа
type SubscriptionView struct {
	PackageName     string
	Description     string
	SpeedMbps       int
	DataLimitValue  string
	DataLimitUnit   string
	DaysRemaining   int
	ProgressValue   float64
	ProgressPercent int
	StartDate       string
	EndDate         string
	MonthlyCost     string
}

// PackageCardView карточка пакета в каталоге
type PackageCardView struct {
	ID              string
	Name            string
	Description     string
	Price           string
	DurationDays    int
	SpeedMbps       int
	DataLimit       string
	DataLimitDetail string
	IsPopular       bool
	IsCurrent       bool
	ButtonLabel     string
	SubscribeAction string
	ReturnTo        string
}

// PaymentRowView строка истории платежей
type PaymentRowView struct {
	Amount    string
	Method    string
	Date      string
	Status    string
	Completed bool
}

// DashboardView содержимое дашборда
type DashboardView struct {
	Subscription *SubscriptionView
	Stats        []StatTile
	Packages     []PackageCardView
	Payments     []PaymentRowView
}

// CatalogView содержимое страницы пакетов
type CatalogView struct {
	Packages []PackageCardView
}

// Empty сообщает, что показывать нечего
func (v CatalogView) Empty() bool {
	return len(v.Packages) == 0
}

// ProfileView содержимое страницы профиля
type ProfileView struct {
	ID      string
	Email   string
	Initial string
}

// AuthView содержимое страницы входа
type AuthView struct {
	Error string
}

// BuildDashboard собирает модель дашборда. now должен быть в часовом поясе отображения.
func BuildDashboard(state service.DashboardState, now time.Time) DashboardView {
	view := DashboardView{
		Stats:    buildStats(state, now),
		Payments: make([]PaymentRowView, 0, len(state.Payments)),
	}

	currentID := ""
	if sub := state.Subscription; sub != nil && sub.Package != nil {
		currentID = sub.PackageID
		view.Subscription = buildSubscription(*sub, now)
	}

	view.Packages = buildCards(state.Packages, currentID, "Subscribe", "/dashboard", false)
	for _, p := range state.Payments {
		view.Payments = append(view.Payments, PaymentRowView{
			Amount:    billing.FormatCurrency(p.Amount),
			Method:    strings.ToUpper(p.PaymentMethod),
			Date:      p.PaymentDate.In(now.Location()).Format(dateLayout),
			Status:    string(p.Status),
			Completed: p.IsCompleted(),
		})
	}
	return view
}

// BuildCatalog собирает модель каталога. Второй пакет помечается как популярный.
func BuildCatalog(state service.CatalogState) CatalogView {
	return CatalogView{Packages: buildCards(state.Packages, state.CurrentPackageID, "Subscribe Now", "/packages", true)}
}

func buildSubscription(sub domain.Subscription, now time.Time) *SubscriptionView {
	pkg := sub.Package
	progress := billing.ProgressValue(sub.EndDate, pkg.DurationDays, now)

	dataValue, dataUnit := "∞", "Unlimited"
	if !pkg.IsUnlimited() {
		dataValue, dataUnit = strconv.FormatFloat(*pkg.DataLimitGB, 'f', -1, 64), "GB"
	}

	return &SubscriptionView{
		PackageName:     pkg.Name,
		Description:     pkg.Description,
		SpeedMbps:       pkg.SpeedMbps,
		DataLimitValue:  dataValue,
		DataLimitUnit:   dataUnit,
		DaysRemaining:   billing.DaysRemaining(sub.EndDate, now),
		ProgressValue:   progress,
		ProgressPercent: billing.RoundedPercent(progress),
		StartDate:       sub.StartDate.In(now.Location()).Format(dateLayout),
		EndDate:         sub.EndDate.In(now.Location()).Format(dateLayout),
		MonthlyCost:     billing.FormatCurrency(pkg.Price),
	}
}

func buildStats(state service.DashboardState, now time.Time) []StatTile {
	// без пакета подписка не отображается, поэтому и статус не должен быть активным
	sub := state.Subscription
	active := sub != nil && sub.Package != nil && sub.IsActive()
	daysRemaining := 0
	if active {
		daysRemaining = billing.DaysRemaining(sub.EndDate, now)
	}

	connection := StatTile{Title: "Connection Status", Value: "Inactive", Description: "Current service status", Trend: "Offline", Tone: "red"}
	if active {
		connection.Value, connection.Trend, connection.Tone = "Active", "Online", "green"
	}

	allowance := StatTile{Title: "Data Allowance", Value: "No plan", Description: "Current plan", Trend: "-", Tone: "orange"}
	if active {
		allowance.Value = sub.Package.DataLimitLabel()
		allowance.Trend = "Capped"
		if sub.Package.IsUnlimited() {
			allowance.Trend = "No cap"
		}
	}

	next := StatTile{
		Title:       "Next Payment",
		Value:       fmt.Sprintf("%d days", daysRemaining),
		Description: "Until renewal",
		Trend:       billing.RenewalStatus(daysRemaining),
		Tone:        "green",
	}
	if daysRemaining <= billing.DueSoonDays {
		next.Tone = "red"
	}

	return []StatTile{
		{
			Title:       "Total Spent",
			Value:       billing.FormatCurrency(billing.TotalSpent(state.Payments)),
			Description: "Recent payments",
			Trend:       billing.FormatCurrency(billing.MonthlySpend(state.Payments, now)) + " this month",
			Tone:        "blue",
		},
		connection,
		allowance,
		next,
	}
}

func buildCards(packages []domain.Package, currentID, subscribeLabel, returnTo string, markPopular bool) []PackageCardView {
	cards := make([]PackageCardView, 0, len(packages))
	for i, pkg := range packages {
		card := PackageCardView{
			ID:              pkg.ID,
			Name:            pkg.Name,
			Description:     pkg.Description,
			Price:           billing.FormatCurrency(pkg.Price),
			DurationDays:    pkg.DurationDays,
			SpeedMbps:       pkg.SpeedMbps,
			DataLimit:       pkg.DataLimitLabel(),
			DataLimitDetail: "Unlimited usage",
			IsPopular:       markPopular && i == 1,
			IsCurrent:       currentID != "" && pkg.ID == currentID,
			ButtonLabel:     subscribeLabel,
			SubscribeAction: "/packages/" + pkg.ID + "/subscribe",
			ReturnTo:        returnTo,
		}
		if !pkg.IsUnlimited() {
			card.DataLimitDetail = pkg.DataLimitLabel() + " included"
		}
		if card.IsCurrent {
			card.ButtonLabel = "Current Plan"
		}
		cards = append(cards, card)
	}
	return cards
}
