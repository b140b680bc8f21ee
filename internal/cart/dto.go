package cart

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercatolabs/storefront-backend/pkg/enums"
	"github.com/mercatolabs/storefront-backend/pkg/types"
)

// QuoteItem is one requested cart entry.
type QuoteItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
}

// QuoteInput is the storefront quote request.
type QuoteInput struct {
	Items []QuoteItem `json:"items"`
}

// QuoteLine is one priced line enriched with product display data.
type QuoteLine struct {
	LineID            uuid.UUID               `json:"line_id"`
	ProductID         uuid.UUID               `json:"product_id"`
	Title             string                  `json:"title"`
	Quantity          int                     `json:"quantity"`
	UnitPrice         decimal.Decimal         `json:"unit_price"`
	OriginalLineTotal decimal.Decimal         `json:"original_line_total"`
	AppliedDiscounts  []types.AppliedDiscount `json:"applied_discounts,omitempty"`
	FinalLineTotal    decimal.Decimal         `json:"final_line_total"`
}

// QuoteResult is the priced cart returned to the storefront.
type QuoteResult struct {
	Currency      enums.Currency  `json:"currency"`
	Lines         []QuoteLine     `json:"lines"`
	SubTotal      decimal.Decimal `json:"sub_total"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Total         decimal.Decimal `json:"total"`
}
