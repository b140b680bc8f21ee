package cart

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercatolabs/storefront-backend/internal/pricing"
	"github.com/mercatolabs/storefront-backend/pkg/db/models"
	"github.com/mercatolabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/mercatolabs/storefront-backend/pkg/errors"
	"github.com/mercatolabs/storefront-backend/pkg/logger"
	"github.com/mercatolabs/storefront-backend/pkg/metrics"
)

type catalogReader interface {
	GetProductsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.Product, error)
}

type snapshotProvider interface {
	ActiveForTenant(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]pricing.Discount, error)
}

// Service prices storefront carts: it hydrates request items from the
// catalog, loads the tenant's active discount snapshot, and runs the engine.
type Service struct {
	catalog   catalogReader
	discounts snapshotProvider
	engine    *pricing.Engine
	metrics   *metrics.PricingMetrics
	log       *logger.Logger
	currency  enums.Currency
	now       func() time.Time
}

func NewService(catalog catalogReader, discounts snapshotProvider, engine *pricing.Engine, pricingMetrics *metrics.PricingMetrics, log *logger.Logger, currency enums.Currency) *Service {
	return &Service{
		catalog:   catalog,
		discounts: discounts,
		engine:    engine,
		metrics:   pricingMetrics,
		log:       log,
		currency:  currency,
		now:       time.Now,
	}
}

// Quote prices the requested items for the tenant. Results are ephemeral and
// recomputed per request; nothing is persisted.
func (s *Service) Quote(ctx context.Context, tenantID uuid.UUID, input QuoteInput) (*QuoteResult, error) {
	if len(input.Items) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "at least one item is required")
	}

	ids := make([]uuid.UUID, 0, len(input.Items))
	for i, item := range input.Items {
		if item.ProductID == uuid.Nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: product_id is required", i))
		}
		if item.Quantity <= 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("item %d: quantity must be positive", i))
		}
		ids = append(ids, item.ProductID)
	}

	products, err := s.catalog.GetProductsByIDs(ctx, tenantID, ids)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load products")
	}

	lines := make([]pricing.CartLine, 0, len(input.Items))
	for _, item := range input.Items {
		product, ok := products[item.ProductID]
		if !ok {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("product %s not found", item.ProductID))
		}
		if !product.IsActive {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("product %s is not available", item.ProductID))
		}

		tagIDs := make([]uuid.UUID, 0, len(product.Tags))
		for _, tag := range product.Tags {
			tagIDs = append(tagIDs, tag.ID)
		}
		lines = append(lines, pricing.CartLine{
			LineID:     uuid.New(),
			ProductID:  product.ID,
			CategoryID: product.CategoryID,
			TagIDs:     tagIDs,
			UnitPrice:  decimal.New(int64(product.PriceCents), -2),
			Quantity:   item.Quantity,
		})
	}

	snapshot, err := s.discounts.ActiveForTenant(ctx, tenantID, s.now())
	if err != nil {
		return nil, err
	}

	started := time.Now()
	priced, err := s.engine.Price(ctx, lines, snapshot)
	if err != nil {
		return nil, err
	}
	s.metrics.ObserveDuration(tenantID.String(), time.Since(started))
	s.metrics.ObserveCartLines(len(priced.Lines))

	typeByID := make(map[uuid.UUID]enums.DiscountType, len(snapshot))
	for _, d := range snapshot {
		typeByID[d.ID] = d.Type
	}

	result := &QuoteResult{
		Currency:      s.currency,
		Lines:         make([]QuoteLine, 0, len(priced.Lines)),
		SubTotal:      priced.SubTotal,
		TotalDiscount: priced.TotalDiscount,
		Total:         priced.Total,
	}
	for i, line := range priced.Lines {
		product := products[lines[i].ProductID]
		for _, applied := range line.AppliedDiscounts {
			s.metrics.IncApplied(typeByID[applied.DiscountID].String())
		}
		result.Lines = append(result.Lines, QuoteLine{
			LineID:            line.LineID,
			ProductID:         product.ID,
			Title:             product.Title,
			Quantity:          lines[i].Quantity,
			UnitPrice:         lines[i].UnitPrice,
			OriginalLineTotal: line.OriginalLineTotal,
			AppliedDiscounts:  line.AppliedDiscounts,
			FinalLineTotal:    line.FinalLineTotal,
		})
	}
	return result, nil
}
