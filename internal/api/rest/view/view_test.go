package view

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/internal/service"
)

var now = time.Date(2024, time.March, 15, 10, 30, 0, 0, time.UTC)

func catalog() []domain.Package {
	fifty := 50.0
	return []domain.Package{
		{ID: "p1", Name: "Basic", Price: 1500, DurationDays: 30, SpeedMbps: 5, DataLimitGB: &fifty, Status: domain.PackageStatusActive},
		{ID: "p2", Name: "Standard", Price: 2500, DurationDays: 30, SpeedMbps: 10, Status: domain.PackageStatusActive},
		{ID: "p3", Name: "Premium", Price: 4000, DurationDays: 30, SpeedMbps: 25, Status: domain.PackageStatusActive},
	}
}

func TestBuildNav(t *testing.T) {
	anon := BuildNav(nil, "/packages")
	assert.False(t, anon.SignedIn)
	assert.Equal(t, "/", anon.BrandHref)
	assert.Empty(t, anon.Links)

	nav := BuildNav(&domain.Identity{ID: "u1", Email: "jane@example.com"}, "/packages")
	assert.True(t, nav.SignedIn)
	assert.Equal(t, "/dashboard", nav.BrandHref)
	assert.Equal(t, "J", nav.Initial)
	require.Len(t, nav.Links, 3)
	assert.False(t, nav.Links[0].Active)
	assert.True(t, nav.Links[1].Active)
}

func TestBuildCatalog(t *testing.T) {
	v := BuildCatalog(service.CatalogState{Packages: catalog(), CurrentPackageID: "p2"})
	require.Len(t, v.Packages, 3)

	assert.False(t, v.Packages[0].IsPopular)
	assert.True(t, v.Packages[1].IsPopular)
	assert.Equal(t, "Subscribe Now", v.Packages[0].ButtonLabel)
	assert.Equal(t, "Current Plan", v.Packages[1].ButtonLabel)
	assert.True(t, v.Packages[1].IsCurrent)
	assert.Equal(t, "Ksh 2,500.00", v.Packages[1].Price)
	assert.Equal(t, "50 GB included", v.Packages[0].DataLimitDetail)
	assert.Equal(t, "Unlimited usage", v.Packages[2].DataLimitDetail)
	assert.Equal(t, "/packages/p3/subscribe", v.Packages[2].SubscribeAction)

	assert.True(t, BuildCatalog(service.CatalogState{}).Empty())
}

func TestBuildDashboard_NoSubscription(t *testing.T) {
	v := BuildDashboard(service.DashboardState{Packages: catalog()}, now)

	assert.Nil(t, v.Subscription)
	require.Len(t, v.Stats, 4)
	assert.Equal(t, "Ksh 0.00", v.Stats[0].Value)
	assert.Equal(t, "Inactive", v.Stats[1].Value)
	assert.Equal(t, "Offline", v.Stats[1].Trend)
	assert.Equal(t, "No plan", v.Stats[2].Value)
	assert.Equal(t, "0 days", v.Stats[3].Value)
	assert.Equal(t, "Due soon", v.Stats[3].Trend)
	for _, card := range v.Packages {
		assert.False(t, card.IsCurrent)
		assert.False(t, card.IsPopular)
	}
}

func TestBuildDashboard_ActiveSubscription(t *testing.T) {
	packages := catalog()
	sub := domain.Subscription{
		ID: "s1", PackageID: "p1", Status: domain.SubscriptionStatusActive,
		StartDate: now.AddDate(0, 0, -20), EndDate: now.AddDate(0, 0, 10), Package: &packages[0],
	}
	payments := []domain.Payment{
		{Amount: 1500, PaymentMethod: "mpesa", Status: domain.PaymentStatusCompleted, PaymentDate: now.AddDate(0, 0, -1)},
		{Amount: 2500, PaymentMethod: "card", Status: domain.PaymentStatusPending, PaymentDate: now.AddDate(0, -1, 0)},
	}

	v := BuildDashboard(service.DashboardState{Packages: packages, Subscription: &sub, Payments: payments}, now)

	require.NotNil(t, v.Subscription)
	assert.Equal(t, "Basic", v.Subscription.PackageName)
	assert.Equal(t, 10, v.Subscription.DaysRemaining)
	assert.Equal(t, 33, v.Subscription.ProgressPercent)
	assert.Equal(t, "50", v.Subscription.DataLimitValue)
	assert.Equal(t, "GB", v.Subscription.DataLimitUnit)
	assert.Equal(t, "Ksh 1,500.00", v.Subscription.MonthlyCost)
	assert.Equal(t, "24 Feb 2024", v.Subscription.StartDate)

	assert.Equal(t, "Ksh 4,000.00", v.Stats[0].Value)
	assert.Equal(t, "Ksh 1,500.00 this month", v.Stats[0].Trend)
	assert.Equal(t, "Active", v.Stats[1].Value)
	assert.Equal(t, "50 GB", v.Stats[2].Value)
	assert.Equal(t, "10 days", v.Stats[3].Value)
	assert.Equal(t, "On track", v.Stats[3].Trend)

	assert.Equal(t, "Current Plan", v.Packages[0].ButtonLabel)
	assert.Equal(t, "Subscribe", v.Packages[1].ButtonLabel)

	require.Len(t, v.Payments, 2)
	assert.Equal(t, "MPESA", v.Payments[0].Method)
	assert.True(t, v.Payments[0].Completed)
	assert.False(t, v.Payments[1].Completed)
}

func TestBuildDashboard_SubscriptionWithoutPackage(t *testing.T) {
	// пакет подписки отсутствует в каталоге
	sub := domain.Subscription{
		ID: "s1", PackageID: "gone", Status: domain.SubscriptionStatusActive,
		StartDate: now.AddDate(0, 0, -5), EndDate: now.AddDate(0, 0, 25),
	}

	v := BuildDashboard(service.DashboardState{Packages: catalog(), Subscription: &sub}, now)

	assert.Nil(t, v.Subscription)
	assert.Equal(t, "Inactive", v.Stats[1].Value)
	assert.Equal(t, "Offline", v.Stats[1].Trend)
	assert.Equal(t, "No plan", v.Stats[2].Value)
	assert.Equal(t, "0 days", v.Stats[3].Value)
}

func TestTemplatesRender(t *testing.T) {
	tmpl, err := Templates()
	require.NoError(t, err)
	identity := &domain.Identity{ID: "u1", Email: "jane@example.com"}

	pages := map[string]Page{
		PageLanding:   {Nav: BuildNav(nil, "/"), Content: BuildCatalog(service.CatalogState{Packages: catalog()})},
		PageDashboard: {Title: "Dashboard", Nav: BuildNav(identity, "/dashboard"), Content: BuildDashboard(service.DashboardState{Packages: catalog()}, now)},
		PagePackages:  {Title: "Packages", Nav: BuildNav(identity, "/packages"), Content: BuildCatalog(service.CatalogState{})},
		PageProfile:   {Title: "Profile", Nav: BuildNav(identity, "/profile"), Content: ProfileView{ID: "u1", Email: identity.Email, Initial: "J"}},
		PageAuth:      {Title: "Sign In", Nav: BuildNav(nil, "/auth"), Content: AuthView{Error: "token expired"}},
	}
	for name, page := range pages {
		var buf bytes.Buffer
		require.NoError(t, tmpl.ExecuteTemplate(&buf, name, page), name)
		assert.Contains(t, buf.String(), "PrimeConnect", name)
	}
}

func TestTemplates_DashboardAndCatalogText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Render(&buf, PageDashboard, Page{Content: BuildDashboard(service.DashboardState{}, now)}))
	assert.Contains(t, buf.String(), "No Active Subscription")

	buf.Reset()
	require.NoError(t, Render(&buf, PagePackages, Page{Content: BuildCatalog(service.CatalogState{})}))
	assert.Contains(t, buf.String(), "No packages available at the moment.")

	buf.Reset()
	state := service.CatalogState{Packages: catalog(), CurrentPackageID: "p2"}
	require.NoError(t, Render(&buf, PagePackages, Page{
		Content:       BuildCatalog(state),
		Notifications: []domain.Notification{domain.Failure("Subscription Failed", assert.AnError)},
	}))
	out := buf.String()
	assert.Contains(t, out, "Most Popular")
	assert.Contains(t, out, "Current Plan</button>")
	assert.Contains(t, out, " disabled>Current Plan")
	assert.Contains(t, out, "Subscription Failed")
}

func TestFlashRoundTrip(t *testing.T) {
	gin.SetMode(gin.TestMode)
	notes := []domain.Notification{domain.Success("Subscription Successful!", "You have subscribed to Standard.")}

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/packages/p2/subscribe", nil)
	SetFlash(c, notes)
	cookies := w.Result().Cookies()
	require.Len(t, cookies, 1)

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/packages", nil)
	c.Request.AddCookie(cookies[0])
	assert.Equal(t, notes, PopFlash(c))

	w = httptest.NewRecorder()
	c, _ = gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, "/packages", nil)
	c.Request.AddCookie(&http.Cookie{Name: FlashCookie, Value: "%%%not-base64"})
	assert.Nil(t, PopFlash(c))
}
