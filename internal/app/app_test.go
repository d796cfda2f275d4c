package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dhoini/primeconnect-dashboard/internal/config"
	"github.com/Dhoini/primeconnect-dashboard/internal/domain"
	"github.com/Dhoini/primeconnect-dashboard/internal/repository"
	"github.com/Dhoini/primeconnect-dashboard/pkg/logger"
)

func memoryConfig() *config.Config {
	cfg := &config.Config{}
	cfg.App.Port = "0"
	cfg.App.Timezone = "UTC"
	cfg.App.RecentPayments = 5
	cfg.App.DemoCustomerID = "demo-customer"
	cfg.Database.Driver = "memory"
	cfg.Auth.CookieName = "pc_session"
	cfg.Auth.JWTSecret = "secret"
	return cfg
}

func TestNewAppMemoryStore(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := NewApp(context.Background(), memoryConfig(), logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	state, err := a.Dashboard.Load(context.Background(), &domain.Identity{ID: "demo-customer"})
	require.NoError(t, err)
	assert.Len(t, state.Packages, 3)
	assert.Len(t, state.Payments, 3)
	assert.Nil(t, state.Subscription)
}

func TestNewAppWithRedisCache(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr := miniredis.RunT(t)

	cfg := memoryConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = mr.Addr()
	cfg.Redis.CatalogTTL = time.Minute

	a, err := NewApp(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	state, err := a.Catalog.Load(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, state.Packages, 3)
	assert.True(t, mr.Exists("catalog:active_packages"))

	rec := httptest.NewRecorder()
	a.Router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Contains(t, rec.Body.String(), `"redis":"OK"`)
}

func TestNewAppRedisUnavailableFallsBack(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mr, err := miniredis.Run()
	require.NoError(t, err)
	addr := mr.Addr()
	mr.Close()

	cfg := memoryConfig()
	cfg.Redis.Enabled = true
	cfg.Redis.Addr = addr

	a, err := NewApp(context.Background(), cfg, logger.NewNop())
	require.NoError(t, err)
	t.Cleanup(a.Close)

	sub, err := a.Subscriptions.Subscribe(context.Background(), &domain.Identity{ID: "demo-customer"}, repository.DemoBasicPackageID)
	require.NoError(t, err)
	assert.Equal(t, "Basic", sub.Package.Name)
}

func TestNewAppRejectsUnknownDriver(t *testing.T) {
	cfg := memoryConfig()
	cfg.Database.Driver = "sqlite"

	_, err := NewApp(context.Background(), cfg, logger.NewNop())
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestRunStopsOnCancel(t *testing.T) {
	gin.SetMode(gin.TestMode)
	a, err := NewApp(context.Background(), memoryConfig(), logger.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
