package pricing

import (
	"sort"

	"github.com/shopspring/decimal"
)

// candidate is a validated discount that survived eligibility and condition
// checks, with its eligible lines and standalone per-line amounts attached.
type candidate struct {
	discount   Discount
	eligible   []int
	standalone map[int]decimal.Decimal
}

func (c *candidate) standaloneFor(lineIdx int) decimal.Decimal {
	if amount, ok := c.standalone[lineIdx]; ok {
		return amount
	}
	return decimal.Zero
}

// resolveLine decides which candidates actually apply to one line. Any
// non-combinable candidate forces a single winner: highest priority, then the
// larger standalone amount on this line, then lowest id. The winner excludes
// every other candidate, combinable ones included. With no non-combinable
// candidate present, all combinable ones apply in priority order.
func resolveLine(candidates []*candidate, lineIdx int) []*candidate {
	if len(candidates) == 0 {
		return nil
	}

	var nonCombinable, combinable []*candidate
	for _, c := range candidates {
		if c.discount.Combinable {
			combinable = append(combinable, c)
		} else {
			nonCombinable = append(nonCombinable, c)
		}
	}

	if len(nonCombinable) > 0 {
		sort.SliceStable(nonCombinable, func(i, j int) bool {
			left, right := nonCombinable[i], nonCombinable[j]
			if left.discount.Priority != right.discount.Priority {
				return left.discount.Priority > right.discount.Priority
			}
			leftAmount := left.standaloneFor(lineIdx)
			rightAmount := right.standaloneFor(lineIdx)
			if !leftAmount.Equal(rightAmount) {
				return leftAmount.GreaterThan(rightAmount)
			}
			return left.discount.ID.String() < right.discount.ID.String()
		})
		return nonCombinable[:1]
	}

	sort.SliceStable(combinable, func(i, j int) bool {
		left, right := combinable[i], combinable[j]
		if left.discount.Priority != right.discount.Priority {
			return left.discount.Priority > right.discount.Priority
		}
		return left.discount.ID.String() < right.discount.ID.String()
	})
	return combinable
}
