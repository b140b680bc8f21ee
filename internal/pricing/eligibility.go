package pricing

import (
	"github.com/mercatolabs/storefront-backend/pkg/enums"
)

// Matches reports whether the discount's target scope covers the line.
// Targets combine with OR; an unknown target type never matches, so newer
// data stays safe against older engine code.
func Matches(d Discount, line CartLine) bool {
	for _, target := range d.Targets {
		if targetMatches(target, line) {
			return true
		}
	}
	return false
}

func targetMatches(target Target, line CartLine) bool {
	switch target.Type {
	case enums.DiscountTargetTypeAll:
		return true
	case enums.DiscountTargetTypeProduct:
		return target.TargetID != nil && *target.TargetID == line.ProductID
	case enums.DiscountTargetTypeCategory:
		return target.TargetID != nil && line.CategoryID != nil && *target.TargetID == *line.CategoryID
	case enums.DiscountTargetTypeTag:
		if target.TargetID == nil {
			return false
		}
		for _, tagID := range line.TagIDs {
			if tagID == *target.TargetID {
				return true
			}
		}
		return false
	}
	return false
}

// eligibleLineIndexes returns the indexes of the cart lines the discount's
// targets cover, in cart order.
func eligibleLineIndexes(d Discount, cart []CartLine) []int {
	indexes := make([]int, 0, len(cart))
	for i, line := range cart {
		if Matches(d, line) {
			indexes = append(indexes, i)
		}
	}
	return indexes
}
