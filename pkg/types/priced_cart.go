package types

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// AppliedDiscount is one discount's contribution to a single priced line.
type AppliedDiscount struct {
	DiscountID uuid.UUID       `json:"discount_id"`
	Name       string          `json:"name"`
	AmountOff  decimal.Decimal `json:"amount_off"`
}

// PricedLine is the engine output for one cart line.
type PricedLine struct {
	LineID            uuid.UUID         `json:"line_id"`
	OriginalLineTotal decimal.Decimal   `json:"original_line_total"`
	AppliedDiscounts  []AppliedDiscount `json:"applied_discounts,omitempty"`
	FinalLineTotal    decimal.Decimal   `json:"final_line_total"`
}

// PricedCart aggregates the priced lines and cart-level totals.
type PricedCart struct {
	Lines         []PricedLine    `json:"lines"`
	SubTotal      decimal.Decimal `json:"sub_total"`
	TotalDiscount decimal.Decimal `json:"total_discount"`
	Total         decimal.Decimal `json:"total"`
}
