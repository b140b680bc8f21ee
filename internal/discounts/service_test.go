package discounts

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mercatolabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/mercatolabs/storefront-backend/pkg/errors"
	"github.com/mercatolabs/storefront-backend/pkg/logger"
	"github.com/mercatolabs/storefront-backend/pkg/metrics"
)

type fakeCache struct {
	values map[string]string
	dels   int
}

func newFakeCache() *fakeCache {
	return &fakeCache{values: map[string]string{}}
}

func (f *fakeCache) Get(_ context.Context, key string) (string, error) {
	if value, ok := f.values[key]; ok {
		return value, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeNotFound, "cache miss")
}

func (f *fakeCache) Set(_ context.Context, key string, value any, _ time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	return nil
}

func (f *fakeCache) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	f.dels++
	return nil
}

func (f *fakeCache) DiscountSnapshotKey(tenantID string) string {
	return "test:discount_snapshot:" + tenantID
}

func newTestService(t *testing.T, cache SnapshotCache) *Service {
	t.Helper()
	repo := NewRepository(setupDiscountsTestDB(t))
	log := logger.New(logger.Options{ServiceName: "discounts-test", Output: io.Discard})
	return NewService(repo, cache, log, metrics.NewPricingMetrics(nil), 30*time.Second)
}

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func decimalFromString(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	parsed, err := decimal.NewFromString(value)
	require.NoError(t, err)
	return parsed
}

func validPercentInput() CreateDiscountInput {
	return CreateDiscountInput{
		Name:         "10% storewide",
		Type:         enums.DiscountTypePercentage,
		PercentValue: floatPtr(10),
		IsActive:     true,
		Targets:      []TargetInput{{TargetType: enums.DiscountTargetTypeAll}},
	}
}

func TestServiceCreateValidatesShape(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	tenantID := uuid.New()

	cases := []struct {
		name  string
		mut   func(*CreateDiscountInput)
	}{
		{"missing payload", func(in *CreateDiscountInput) { in.PercentValue = nil }},
		{"percent out of range", func(in *CreateDiscountInput) { in.PercentValue = floatPtr(101) }},
		{"foreign payload", func(in *CreateDiscountInput) { in.AmountCents = intPtr(500) }},
		{"no targets", func(in *CreateDiscountInput) { in.Targets = nil }},
		{"product target without id", func(in *CreateDiscountInput) {
			in.Targets = []TargetInput{{TargetType: enums.DiscountTargetTypeProduct}}
		}},
		{"window inverted", func(in *CreateDiscountInput) {
			start := time.Now()
			end := start.Add(-time.Hour)
			in.StartsAt = &start
			in.EndsAt = &end
		}},
	}
	for _, tc := range cases {
		input := validPercentInput()
		tc.mut(&input)
		_, err := svc.Create(ctx, tenantID, input)
		typed := pkgerrors.As(err)
		require.NotNil(t, typed, tc.name)
		assert.Equal(t, pkgerrors.CodeValidation, typed.Code(), tc.name)
	}
}

func TestServiceCreateDuplicateNameConflicts(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	tenantID := uuid.New()

	_, err := svc.Create(ctx, tenantID, validPercentInput())
	require.NoError(t, err)

	_, err = svc.Create(ctx, tenantID, validPercentInput())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeConflict, typed.Code())

	// Another tenant can reuse the name.
	_, err = svc.Create(ctx, uuid.New(), validPercentInput())
	require.NoError(t, err)
}

func TestServiceCreateRejectsBadBundle(t *testing.T) {
	svc := newTestService(t, nil)
	input := CreateDiscountInput{
		Name:     "broken bundle",
		Type:     enums.DiscountTypeBuyXGetY,
		BuyQty:   intPtr(2),
		PayQty:   intPtr(3),
		IsActive: true,
		Targets:  []TargetInput{{TargetType: enums.DiscountTargetTypeAll}},
	}
	_, err := svc.Create(context.Background(), uuid.New(), input)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeValidation, typed.Code())
}

func TestServiceUpdatePatchesFields(t *testing.T) {
	cache := newFakeCache()
	svc := newTestService(t, cache)
	ctx := context.Background()
	tenantID := uuid.New()

	created, err := svc.Create(ctx, tenantID, validPercentInput())
	require.NoError(t, err)
	delsAfterCreate := cache.dels

	newName := "renamed"
	inactive := false
	updated, err := svc.Update(ctx, tenantID, created.ID, UpdateDiscountInput{
		Name:     &newName,
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.Equal(t, "renamed", updated.Name)
	assert.False(t, updated.IsActive)
	assert.Greater(t, cache.dels, delsAfterCreate, "update must invalidate the snapshot")

	// The value payload stays immutable through updates.
	loaded, err := svc.Get(ctx, tenantID, created.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.PercentValue)
	assert.Equal(t, float64(10), *loaded.PercentValue)
}

func TestServiceDeleteNotFound(t *testing.T) {
	svc := newTestService(t, nil)
	err := svc.Delete(context.Background(), uuid.New(), uuid.New())
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestServiceActiveForTenantExcludesMalformedRows(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	tenantID := uuid.New()

	_, err := svc.Create(ctx, tenantID, validPercentInput())
	require.NoError(t, err)

	// A row corrupted below the service boundary must be excluded, not fatal.
	broken := percentRow(tenantID, "corrupted", 10)
	broken.PercentValue = nil
	require.NoError(t, svc.repo.Create(ctx, broken))

	snapshot, err := svc.ActiveForTenant(ctx, tenantID, time.Now())
	require.NoError(t, err)
	require.Len(t, snapshot, 1)
	assert.Equal(t, "10% storewide", snapshot[0].Name)
}

func TestServiceActiveForTenantUsesCache(t *testing.T) {
	cache := newFakeCache()
	svc := newTestService(t, cache)
	ctx := context.Background()
	tenantID := uuid.New()

	_, err := svc.Create(ctx, tenantID, validPercentInput())
	require.NoError(t, err)

	first, err := svc.ActiveForTenant(ctx, tenantID, time.Now())
	require.NoError(t, err)
	require.Len(t, first, 1)

	// Bypass the service so the cache stays warm; the stale snapshot should
	// still be served until it expires or a write invalidates it.
	fresh := percentRow(tenantID, "added behind the cache", 20)
	require.NoError(t, svc.repo.Create(ctx, fresh))

	second, err := svc.ActiveForTenant(ctx, tenantID, time.Now())
	require.NoError(t, err)
	assert.Len(t, second, 1)

	// A write through the service invalidates and the next read sees both.
	name := "touch"
	_, err = svc.Update(ctx, tenantID, first[0].ID, UpdateDiscountInput{Name: &name})
	require.NoError(t, err)

	third, err := svc.ActiveForTenant(ctx, tenantID, time.Now())
	require.NoError(t, err)
	assert.Len(t, third, 2)
}

func TestServiceSnapshotConversion(t *testing.T) {
	svc := newTestService(t, nil)
	ctx := context.Background()
	tenantID := uuid.New()

	_, err := svc.Create(ctx, tenantID, CreateDiscountInput{
		Name:        "5 off orders over 50",
		Type:        enums.DiscountTypeFixedAmount,
		AmountCents: intPtr(500),
		IsActive:    true,
		Targets:     []TargetInput{{TargetType: enums.DiscountTargetTypeAll}},
		Conditions: []ConditionInput{
			{ConditionType: enums.DiscountConditionTypeMinAmount, Value: 5000},
		},
	})
	require.NoError(t, err)

	snapshot, err := svc.ActiveForTenant(ctx, tenantID, time.Now())
	require.NoError(t, err)
	require.Len(t, snapshot, 1)

	d := snapshot[0]
	require.NotNil(t, d.Amount)
	assert.True(t, d.Amount.Equal(decimalFromString(t, "5.00")))
	require.Len(t, d.Conditions, 1)
	assert.True(t, d.Conditions[0].Value.Equal(decimalFromString(t, "50.00")))
}
