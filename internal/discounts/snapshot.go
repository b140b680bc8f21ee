package discounts

import (
	"github.com/shopspring/decimal"

	"github.com/mercatolabs/storefront-backend/internal/pricing"
	"github.com/mercatolabs/storefront-backend/pkg/db/models"
	"github.com/mercatolabs/storefront-backend/pkg/enums"
)

// centsExponent turns integer minor units into a currency decimal.
const centsExponent = -2

// toEngineDiscount maps a persisted rule to the engine's snapshot shape.
// Missing payloads map to nil and are caught by the engine's defensive
// validation, not here.
func toEngineDiscount(row models.Discount) pricing.Discount {
	d := pricing.Discount{
		ID:         row.ID,
		Name:       row.Name,
		Type:       row.Type,
		Combinable: row.Combinable,
		Priority:   row.Priority,
	}
	if row.Description != nil {
		d.Description = *row.Description
	}

	switch row.Type {
	case enums.DiscountTypePercentage:
		if row.PercentValue != nil {
			percent := decimal.NewFromFloat(*row.PercentValue)
			d.Percent = &percent
		}
	case enums.DiscountTypeFixedAmount:
		if row.AmountCents != nil {
			amount := decimal.New(int64(*row.AmountCents), centsExponent)
			d.Amount = &amount
		}
	case enums.DiscountTypeBuyXGetY:
		if row.BuyQty != nil && row.PayQty != nil {
			d.Bundle = &pricing.Bundle{Buy: *row.BuyQty, Pay: *row.PayQty}
		}
	}

	d.Targets = make([]pricing.Target, 0, len(row.Targets))
	for _, target := range row.Targets {
		d.Targets = append(d.Targets, pricing.Target{
			Type:     target.TargetType,
			TargetID: target.TargetID,
		})
	}

	d.Conditions = make([]pricing.Condition, 0, len(row.Conditions))
	for _, condition := range row.Conditions {
		value := decimal.NewFromInt(condition.Value)
		if condition.ConditionType == enums.DiscountConditionTypeMinAmount {
			value = decimal.New(condition.Value, centsExponent)
		}
		d.Conditions = append(d.Conditions, pricing.Condition{
			Type:  condition.ConditionType,
			Value: value,
		})
	}

	return d
}
