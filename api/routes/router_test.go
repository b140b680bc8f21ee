package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mercatolabs/storefront-backend/internal/cart"
	"github.com/mercatolabs/storefront-backend/internal/catalog"
	"github.com/mercatolabs/storefront-backend/internal/discounts"
	"github.com/mercatolabs/storefront-backend/internal/pricing"
	pkgAuth "github.com/mercatolabs/storefront-backend/pkg/auth"
	"github.com/mercatolabs/storefront-backend/pkg/config"
	"github.com/mercatolabs/storefront-backend/pkg/db/models"
	"github.com/mercatolabs/storefront-backend/pkg/enums"
	"github.com/mercatolabs/storefront-backend/pkg/logger"
	"github.com/mercatolabs/storefront-backend/pkg/metrics"
)

type stubPinger struct{}

func (stubPinger) Ping(context.Context) error {
	return nil
}

func setupRouterTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE products (
  id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, category_id TEXT,
  sku TEXT NOT NULL, title TEXT NOT NULL, subtitle TEXT,
  price_cents INTEGER NOT NULL, is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME, updated_at DATETIME
);`,
		`CREATE TABLE tags (
  id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, name TEXT NOT NULL,
  slug TEXT NOT NULL, created_at DATETIME
);`,
		`CREATE TABLE product_tags (
  product_id TEXT NOT NULL, tag_id TEXT NOT NULL, created_at DATETIME,
  PRIMARY KEY (product_id, tag_id)
);`,
		`CREATE TABLE discounts (
  id TEXT PRIMARY KEY, tenant_id TEXT NOT NULL, name TEXT NOT NULL,
  description TEXT, type TEXT NOT NULL, percent_value REAL,
  amount_cents INTEGER, buy_qty INTEGER, pay_qty INTEGER,
  is_active INTEGER NOT NULL DEFAULT 1, combinable INTEGER NOT NULL DEFAULT 0,
  priority INTEGER NOT NULL DEFAULT 0, starts_at DATETIME, ends_at DATETIME,
  created_at DATETIME, updated_at DATETIME, UNIQUE (tenant_id, name)
);`,
		`CREATE TABLE discount_targets (
  id TEXT PRIMARY KEY, discount_id TEXT NOT NULL, target_type TEXT NOT NULL,
  target_id TEXT, created_at DATETIME
);`,
		`CREATE TABLE discount_conditions (
  id TEXT PRIMARY KEY, discount_id TEXT NOT NULL, condition_type TEXT NOT NULL,
  value INTEGER NOT NULL, created_at DATETIME
);`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		App: config.AppConfig{Env: "test", Port: "0"},
		JWT: config.JWTConfig{
			Secret:            "router-test-secret",
			Issuer:            "storefront-test",
			ExpirationMinutes: 15,
		},
		Pricing: config.PricingConfig{Currency: "USD", SnapshotCacheTTL: 30 * time.Second},
	}
}

func newTestRouter(t *testing.T) (http.Handler, *gorm.DB, *config.Config) {
	t.Helper()

	gormDB := setupRouterTestDB(t)
	cfg := testConfig()
	log := logger.New(logger.Options{ServiceName: "router-test", Output: io.Discard})
	pricingMetrics := metrics.NewPricingMetrics(nil)

	discountsSvc := discounts.NewService(discounts.NewRepository(gormDB), nil, log, pricingMetrics, cfg.Pricing.SnapshotCacheTTL)
	engine := pricing.NewEngine(log, enums.CurrencyUSD)
	cartSvc := cart.NewService(catalog.NewRepository(gormDB), discountsSvc, engine, pricingMetrics, log, enums.CurrencyUSD)

	router := NewRouter(Deps{
		Config:           cfg,
		Logger:           log,
		DB:               stubPinger{},
		CartService:      cartSvc,
		DiscountsService: discountsSvc,
	})
	return router, gormDB, cfg
}

func mintToken(t *testing.T, cfg *config.Config, tenantID uuid.UUID, role enums.MemberRole) string {
	t.Helper()
	token, err := pkgAuth.MintAccessToken(cfg.JWT, time.Now(), pkgAuth.AccessTokenPayload{
		UserID:   uuid.New(),
		TenantID: tenantID,
		Role:     role,
	})
	require.NoError(t, err)
	return token
}

func TestHealthLive(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/health/live", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "live")
}

func TestAdminDiscountsRequireAuth(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/v1/discounts/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminDiscountsViewerCannotMutate(t *testing.T) {
	router, _, cfg := newTestRouter(t)
	token := mintToken(t, cfg, uuid.New(), enums.MemberRoleViewer)

	body := bytes.NewBufferString(`{"name":"x","type":"percentage","percent_value":10,"is_active":true,"targets":[{"target_type":"all"}]}`)
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/discounts/", body)
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAdminDiscountLifecycle(t *testing.T) {
	router, _, cfg := newTestRouter(t)
	tenantID := uuid.New()
	token := mintToken(t, cfg, tenantID, enums.MemberRoleAdmin)

	payload := `{
		"name": "20% storewide",
		"type": "percentage",
		"percent_value": 20,
		"is_active": true,
		"targets": [{"target_type": "all"}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/v1/discounts/", bytes.NewBufferString(payload))
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var created struct {
		Data struct {
			ID uuid.UUID `json:"id"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&created))

	req = httptest.NewRequest(http.MethodGet, "/api/admin/v1/discounts/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "20% storewide")

	req = httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/admin/v1/discounts/%s", created.Data.ID), nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestQuoteRequiresTenantHeader(t *testing.T) {
	router, _, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/quote", bytes.NewBufferString(`{"items":[]}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQuoteAppliesDiscount(t *testing.T) {
	router, gormDB, _ := newTestRouter(t)
	tenantID := uuid.New()

	product := models.Product{
		ID:         uuid.New(),
		TenantID:   tenantID,
		SKU:        "sku-1",
		Title:      "widget",
		PriceCents: 10000,
		IsActive:   true,
	}
	require.NoError(t, gormDB.Create(&product).Error)

	percent := 20.0
	rule := models.Discount{
		ID:           uuid.New(),
		TenantID:     tenantID,
		Name:         "20% storewide",
		Type:         enums.DiscountTypePercentage,
		PercentValue: &percent,
		IsActive:     true,
		Targets: []models.DiscountTarget{
			{ID: uuid.New(), TargetType: enums.DiscountTargetTypeAll},
		},
	}
	require.NoError(t, gormDB.Create(&rule).Error)

	body := fmt.Sprintf(`{"items":[{"product_id":%q,"quantity":2}]}`, product.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/cart/quote", bytes.NewBufferString(body))
	req.Header.Set("X-Tenant-Id", tenantID.String())
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var quoted struct {
		Data struct {
			SubTotal      string `json:"sub_total"`
			TotalDiscount string `json:"total_discount"`
			Total         string `json:"total"`
		} `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&quoted))
	assert.Equal(t, "200", quoted.Data.SubTotal)
	assert.Equal(t, "40", quoted.Data.TotalDiscount)
	assert.Equal(t, "160", quoted.Data.Total)
}
