package pricing

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercatolabs/storefront-backend/pkg/enums"
	pkgerrors "github.com/mercatolabs/storefront-backend/pkg/errors"
	"github.com/mercatolabs/storefront-backend/pkg/logger"
	"github.com/mercatolabs/storefront-backend/pkg/types"
)

// Engine prices a cart against a snapshot of promotional rules. It holds no
// mutable state, performs no I/O, and is safe for concurrent use; each call
// is a pure function of its inputs.
type Engine struct {
	log    *logger.Logger
	places int32
}

func NewEngine(log *logger.Logger, currency enums.Currency) *Engine {
	return &Engine{
		log:    log,
		places: currency.MinorUnits(),
	}
}

// Price resolves which discounts apply to which lines and returns the priced
// cart. The discounts argument is expected to be pre-filtered by activity and
// validity window; rules that fail defensive validation are excluded with a
// warning rather than failing the cart. Impossible cart states (negative unit
// price, non-positive quantity) fail the whole call.
func (e *Engine) Price(ctx context.Context, cart []CartLine, discounts []Discount) (*types.PricedCart, error) {
	if err := validateCart(cart); err != nil {
		return nil, err
	}

	candidates := e.collectCandidates(ctx, cart, discounts)

	perLine := make([][]*candidate, len(cart))
	for _, c := range candidates {
		for _, idx := range c.eligible {
			perLine[idx] = append(perLine[idx], c)
		}
	}

	remaining := make([]decimal.Decimal, len(cart))
	originals := make([]decimal.Decimal, len(cart))
	applied := make([][]types.AppliedDiscount, len(cart))
	bundleOrder := make([]*candidate, 0)
	bundleLines := make(map[uuid.UUID][]int)

	for i := range cart {
		originals[i] = lineTotal(cart[i], e.places)
		remaining[i] = originals[i]

		resolved := resolveLine(perLine[i], i)
		for _, c := range resolved {
			switch c.discount.Type {
			case enums.DiscountTypePercentage:
				amount := percentOff(remaining[i], *c.discount.Percent, e.places)
				if amount.IsPositive() {
					applied[i] = append(applied[i], appliedEntry(c.discount, amount))
					remaining[i] = remaining[i].Sub(amount)
				}
			case enums.DiscountTypeBuyXGetY:
				if _, seen := bundleLines[c.discount.ID]; !seen {
					bundleOrder = append(bundleOrder, c)
				}
				bundleLines[c.discount.ID] = append(bundleLines[c.discount.ID], i)
			}
		}
		// Fixed amounts subtract after the full percentage pass on the line.
		for _, c := range resolved {
			if c.discount.Type != enums.DiscountTypeFixedAmount {
				continue
			}
			amount := fixedOff(remaining[i], *c.discount.Amount, e.places)
			if amount.IsPositive() {
				applied[i] = append(applied[i], appliedEntry(c.discount, amount))
				remaining[i] = remaining[i].Sub(amount)
			}
		}
	}

	// Bundles evaluate on original quantities, aggregated across the lines
	// they won, and subtract last.
	sort.SliceStable(bundleOrder, func(i, j int) bool {
		left, right := bundleOrder[i].discount, bundleOrder[j].discount
		if left.Priority != right.Priority {
			return left.Priority > right.Priority
		}
		return left.ID.String() < right.ID.String()
	})
	for _, c := range bundleOrder {
		indexes := bundleLines[c.discount.ID]
		for _, share := range bundleShares(*c.discount.Bundle, cart, indexes) {
			line := cart[share.lineIdx]
			amount := roundMoney(line.UnitPrice.Mul(decimal.NewFromInt(int64(share.units))), e.places)
			if amount.GreaterThan(remaining[share.lineIdx]) {
				amount = remaining[share.lineIdx]
			}
			if !amount.IsPositive() {
				continue
			}
			applied[share.lineIdx] = append(applied[share.lineIdx], appliedEntry(c.discount, amount))
			remaining[share.lineIdx] = remaining[share.lineIdx].Sub(amount)
		}
	}

	priced := &types.PricedCart{
		Lines:         make([]types.PricedLine, 0, len(cart)),
		SubTotal:      decimal.Zero,
		TotalDiscount: decimal.Zero,
	}
	for i, line := range cart {
		priced.Lines = append(priced.Lines, types.PricedLine{
			LineID:            line.LineID,
			OriginalLineTotal: originals[i],
			AppliedDiscounts:  applied[i],
			FinalLineTotal:    remaining[i],
		})
		priced.SubTotal = priced.SubTotal.Add(originals[i])
		priced.TotalDiscount = priced.TotalDiscount.Add(originals[i].Sub(remaining[i]))
	}
	priced.Total = priced.SubTotal.Sub(priced.TotalDiscount)

	return priced, nil
}

// collectCandidates filters the snapshot down to rules that are well formed,
// cover at least one line, and satisfy their conditions over their own
// eligible-line set.
func (e *Engine) collectCandidates(ctx context.Context, cart []CartLine, discounts []Discount) []*candidate {
	candidates := make([]*candidate, 0, len(discounts))
	for _, d := range discounts {
		if err := d.Validate(); err != nil {
			e.log.Error(e.log.WithDiscountID(ctx, d.ID.String()), "excluding malformed discount from pricing", err)
			continue
		}

		indexes := eligibleLineIndexes(d, cart)
		if len(indexes) == 0 {
			continue
		}

		eligible := make([]CartLine, 0, len(indexes))
		for _, idx := range indexes {
			eligible = append(eligible, cart[idx])
		}
		if !PassesConditions(d, eligible) {
			continue
		}

		candidates = append(candidates, &candidate{
			discount:   d,
			eligible:   indexes,
			standalone: standaloneAmounts(d, cart, indexes, e.places),
		})
	}
	return candidates
}

func validateCart(cart []CartLine) error {
	for i, line := range cart {
		if line.UnitPrice.IsNegative() {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: unit price must not be negative", i))
		}
		if line.Quantity <= 0 {
			return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("line %d: quantity must be positive", i))
		}
	}
	return nil
}

func appliedEntry(d Discount, amount decimal.Decimal) types.AppliedDiscount {
	return types.AppliedDiscount{
		DiscountID: d.ID,
		Name:       d.Name,
		AmountOff:  amount,
	}
}
