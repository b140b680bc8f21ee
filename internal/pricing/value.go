package pricing

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/mercatolabs/storefront-backend/pkg/enums"
)

var hundred = decimal.NewFromInt(100)

// roundMoney rounds to the currency's minor unit. decimal rounds half away
// from zero, which is half-up for the non-negative amounts produced here.
func roundMoney(v decimal.Decimal, places int32) decimal.Decimal {
	return v.Round(places)
}

// percentOff computes the rounded percentage amount against the remaining
// line total, never exceeding it.
func percentOff(remaining, percent decimal.Decimal, places int32) decimal.Decimal {
	amount := roundMoney(remaining.Mul(percent).Div(hundred), places)
	if amount.GreaterThan(remaining) {
		return remaining
	}
	return amount
}

// fixedOff caps the fixed amount at the remaining line total.
func fixedOff(remaining, amount decimal.Decimal, places int32) decimal.Decimal {
	amount = roundMoney(amount, places)
	if amount.GreaterThan(remaining) {
		return remaining
	}
	return amount
}

type bundleShare struct {
	lineIdx int
	units   int
}

// bundleShares distributes the free units a bundle grants across the affected
// lines. Quantity aggregates across lines; free units consume the cheapest
// units first, with line id as a deterministic tie-break.
func bundleShares(b Bundle, cart []CartLine, indexes []int) []bundleShare {
	totalQuantity := 0
	for _, idx := range indexes {
		totalQuantity += cart[idx].Quantity
	}
	freeUnits := totalQuantity / b.Buy * (b.Buy - b.Pay)
	if freeUnits <= 0 {
		return nil
	}

	ordered := append([]int(nil), indexes...)
	sort.SliceStable(ordered, func(i, j int) bool {
		left, right := cart[ordered[i]], cart[ordered[j]]
		if !left.UnitPrice.Equal(right.UnitPrice) {
			return left.UnitPrice.LessThan(right.UnitPrice)
		}
		return left.LineID.String() < right.LineID.String()
	})

	shares := make([]bundleShare, 0, len(ordered))
	for _, idx := range ordered {
		if freeUnits == 0 {
			break
		}
		units := cart[idx].Quantity
		if units > freeUnits {
			units = freeUnits
		}
		shares = append(shares, bundleShare{lineIdx: idx, units: units})
		freeUnits -= units
	}
	return shares
}

// standaloneAmounts computes, per eligible line, the amount the discount
// would take if it were the only one applied. The resolver uses these values
// as the tie-break between non-combinable rules of equal priority.
func standaloneAmounts(d Discount, cart []CartLine, indexes []int, places int32) map[int]decimal.Decimal {
	amounts := make(map[int]decimal.Decimal, len(indexes))

	switch d.Type {
	case enums.DiscountTypePercentage:
		for _, idx := range indexes {
			total := lineTotal(cart[idx], places)
			amounts[idx] = percentOff(total, *d.Percent, places)
		}
	case enums.DiscountTypeFixedAmount:
		for _, idx := range indexes {
			total := lineTotal(cart[idx], places)
			amounts[idx] = fixedOff(total, *d.Amount, places)
		}
	case enums.DiscountTypeBuyXGetY:
		for _, share := range bundleShares(*d.Bundle, cart, indexes) {
			line := cart[share.lineIdx]
			amount := roundMoney(line.UnitPrice.Mul(decimal.NewFromInt(int64(share.units))), places)
			total := lineTotal(line, places)
			if amount.GreaterThan(total) {
				amount = total
			}
			amounts[share.lineIdx] = amount
		}
	}
	return amounts
}

func lineTotal(line CartLine, places int32) decimal.Decimal {
	return roundMoney(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))), places)
}
