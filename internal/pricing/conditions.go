package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/mercatolabs/storefront-backend/pkg/enums"
)

// PassesConditions reports whether the discount's quantitative gates hold over
// its own eligible-line set. Quantity and amount aggregate cart-wide across
// those lines, so "buy 3 of category X" accumulates across matching lines.
// An empty condition list always passes; all conditions must hold.
func PassesConditions(d Discount, eligible []CartLine) bool {
	if len(d.Conditions) == 0 {
		return true
	}

	totalQuantity := decimal.Zero
	totalAmount := decimal.Zero
	for _, line := range eligible {
		qty := decimal.NewFromInt(int64(line.Quantity))
		totalQuantity = totalQuantity.Add(qty)
		totalAmount = totalAmount.Add(line.UnitPrice.Mul(qty))
	}

	for _, condition := range d.Conditions {
		switch condition.Type {
		case enums.DiscountConditionTypeMinQuantity:
			if totalQuantity.LessThan(condition.Value) {
				return false
			}
		case enums.DiscountConditionTypeMinAmount:
			if totalAmount.LessThan(condition.Value) {
				return false
			}
		default:
			// A condition this engine does not understand cannot be proven
			// satisfied; withhold the discount rather than guess.
			return false
		}
	}
	return true
}
