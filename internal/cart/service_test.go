package cart

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercatolabs/storefront-backend/internal/pricing"
	"github.com/mercatolabs/storefront-backend/pkg/db/models"
	"github.com/mercatolabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/mercatolabs/storefront-backend/pkg/errors"
	"github.com/mercatolabs/storefront-backend/pkg/logger"
	"github.com/mercatolabs/storefront-backend/pkg/metrics"
)

type fakeCatalog struct {
	products map[uuid.UUID]models.Product
}

func (f *fakeCatalog) GetProductsByIDs(_ context.Context, _ uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	out := map[uuid.UUID]models.Product{}
	for _, id := range ids {
		if product, ok := f.products[id]; ok {
			out[id] = product
		}
	}
	return out, nil
}

type fakeSnapshots struct {
	discounts []pricing.Discount
}

func (f *fakeSnapshots) ActiveForTenant(context.Context, uuid.UUID, time.Time) ([]pricing.Discount, error) {
	return f.discounts, nil
}

func newQuoteService(catalog *fakeCatalog, snapshots *fakeSnapshots) *Service {
	log := logger.New(logger.Options{ServiceName: "cart-test", Output: io.Discard})
	engine := pricing.NewEngine(log, enums.CurrencyUSD)
	return NewService(catalog, snapshots, engine, metrics.NewPricingMetrics(nil), log, enums.CurrencyUSD)
}

func activeProduct(priceCents int) models.Product {
	return models.Product{
		ID:         uuid.New(),
		TenantID:   uuid.New(),
		Title:      "widget",
		PriceCents: priceCents,
		IsActive:   true,
	}
}

func TestQuoteAppliesTenantDiscounts(t *testing.T) {
	product := activeProduct(10000)
	percent := decimalPtr("20")
	snapshots := &fakeSnapshots{discounts: []pricing.Discount{{
		ID:      uuid.New(),
		Name:    "20% off",
		Type:    enums.DiscountTypePercentage,
		Percent: percent,
		Targets: []pricing.Target{{Type: enums.DiscountTargetTypeProduct, TargetID: &product.ID}},
	}}}
	svc := newQuoteService(&fakeCatalog{products: map[uuid.UUID]models.Product{product.ID: product}}, snapshots)

	result, err := svc.Quote(context.Background(), uuid.New(), QuoteInput{
		Items: []QuoteItem{{ProductID: product.ID, Quantity: 2}},
	})
	require.NoError(t, err)
	require.Len(t, result.Lines, 1)

	line := result.Lines[0]
	assert.Equal(t, "widget", line.Title)
	assert.True(t, line.OriginalLineTotal.Equal(mustDecimal(t, "200")))
	assert.True(t, line.FinalLineTotal.Equal(mustDecimal(t, "160")))
	require.Len(t, line.AppliedDiscounts, 1)
	assert.True(t, result.Total.Equal(mustDecimal(t, "160")))
	assert.Equal(t, enums.CurrencyUSD, result.Currency)
}

func TestQuoteWithoutDiscounts(t *testing.T) {
	product := activeProduct(1999)
	svc := newQuoteService(&fakeCatalog{products: map[uuid.UUID]models.Product{product.ID: product}}, &fakeSnapshots{})

	result, err := svc.Quote(context.Background(), uuid.New(), QuoteInput{
		Items: []QuoteItem{{ProductID: product.ID, Quantity: 3}},
	})
	require.NoError(t, err)
	assert.True(t, result.Total.Equal(mustDecimal(t, "59.97")))
	assert.True(t, result.TotalDiscount.IsZero())
}

func TestQuoteRejectsEmptyAndInvalidItems(t *testing.T) {
	product := activeProduct(100)
	svc := newQuoteService(&fakeCatalog{products: map[uuid.UUID]models.Product{product.ID: product}}, &fakeSnapshots{})

	_, err := svc.Quote(context.Background(), uuid.New(), QuoteInput{})
	requireCode(t, err, pkgerrors.CodeValidation)

	_, err = svc.Quote(context.Background(), uuid.New(), QuoteInput{
		Items: []QuoteItem{{ProductID: product.ID, Quantity: 0}},
	})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func TestQuoteUnknownProduct(t *testing.T) {
	svc := newQuoteService(&fakeCatalog{products: map[uuid.UUID]models.Product{}}, &fakeSnapshots{})
	_, err := svc.Quote(context.Background(), uuid.New(), QuoteInput{
		Items: []QuoteItem{{ProductID: uuid.New(), Quantity: 1}},
	})
	requireCode(t, err, pkgerrors.CodeNotFound)
}

func TestQuoteInactiveProduct(t *testing.T) {
	product := activeProduct(100)
	product.IsActive = false
	svc := newQuoteService(&fakeCatalog{products: map[uuid.UUID]models.Product{product.ID: product}}, &fakeSnapshots{})
	_, err := svc.Quote(context.Background(), uuid.New(), QuoteInput{
		Items: []QuoteItem{{ProductID: product.ID, Quantity: 1}},
	})
	requireCode(t, err, pkgerrors.CodeValidation)
}

func requireCode(t *testing.T, err error, code pkgerrors.Code) {
	t.Helper()
	typed := pkgerrors.As(err)
	require.NotNil(t, typed, "expected a coded error, got %v", err)
	assert.Equal(t, code, typed.Code())
}

func mustDecimal(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	parsed, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return parsed
}

func decimalPtr(value string) *decimal.Decimal {
	parsed := decimal.RequireFromString(value)
	return &parsed
}
