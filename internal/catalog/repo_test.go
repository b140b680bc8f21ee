package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/mercatolabs/storefront-backend/pkg/db/models"
	"github.com/mercatolabs/storefront-backend/pkg/pagination"
)

func setupCatalogTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE products (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  category_id TEXT,
  sku TEXT NOT NULL,
  title TEXT NOT NULL,
  subtitle TEXT,
  price_cents INTEGER NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 1,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE tags (
  id TEXT PRIMARY KEY,
  tenant_id TEXT NOT NULL,
  name TEXT NOT NULL,
  slug TEXT NOT NULL,
  created_at DATETIME
);`,
		`CREATE TABLE product_tags (
  product_id TEXT NOT NULL,
  tag_id TEXT NOT NULL,
  created_at DATETIME,
  PRIMARY KEY (product_id, tag_id)
);`,
	}
	for _, stmt := range ddl {
		require.NoError(t, db.Exec(stmt).Error)
	}
	return db
}

func seedProduct(t *testing.T, db *gorm.DB, tenantID uuid.UUID, title string, priceCents int) models.Product {
	t.Helper()
	product := models.Product{
		ID:         uuid.New(),
		TenantID:   tenantID,
		SKU:        title,
		Title:      title,
		PriceCents: priceCents,
		IsActive:   true,
	}
	require.NoError(t, db.Create(&product).Error)
	return product
}

func TestGetProductsByIDs(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	first := seedProduct(t, db, tenantID, "first", 1000)
	second := seedProduct(t, db, tenantID, "second", 2500)
	foreign := seedProduct(t, db, uuid.New(), "foreign", 999)

	tag := models.Tag{ID: uuid.New(), TenantID: tenantID, Name: "sale", Slug: "sale"}
	require.NoError(t, db.Create(&tag).Error)
	require.NoError(t, db.Create(&models.ProductTag{ProductID: first.ID, TagID: tag.ID}).Error)

	byID, err := repo.GetProductsByIDs(ctx, tenantID, []uuid.UUID{first.ID, second.ID, foreign.ID, uuid.New()})
	require.NoError(t, err)
	require.Len(t, byID, 2)

	loaded := byID[first.ID]
	assert.Equal(t, 1000, loaded.PriceCents)
	require.Len(t, loaded.Tags, 1)
	assert.Equal(t, tag.ID, loaded.Tags[0].ID)

	_, ok := byID[foreign.ID]
	assert.False(t, ok, "products of other tenants must not leak")
}

func TestGetProductsByIDsEmptyInput(t *testing.T) {
	repo := NewRepository(setupCatalogTestDB(t))
	byID, err := repo.GetProductsByIDs(context.Background(), uuid.New(), nil)
	require.NoError(t, err)
	assert.Empty(t, byID)
}

func TestListProductsPaginates(t *testing.T) {
	db := setupCatalogTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	for i, title := range []string{"first", "second", "third"} {
		product := models.Product{
			ID:         uuid.New(),
			TenantID:   tenantID,
			SKU:        title,
			Title:      title,
			PriceCents: 100,
			IsActive:   true,
			CreatedAt:  time.Now().Add(time.Duration(i) * time.Second),
		}
		require.NoError(t, db.Create(&product).Error)
	}

	rows, next, err := repo.ListProducts(ctx, tenantID, pagination.Params{Limit: 2})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.NotEmpty(t, next)
	assert.Equal(t, "third", rows[0].Title)

	rest, next, err := repo.ListProducts(ctx, tenantID, pagination.Params{Limit: 2, Cursor: next})
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Empty(t, next)
}
