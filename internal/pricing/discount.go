package pricing

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/multierr"

	"github.com/mercatolabs/storefront-backend/pkg/enums"
)

// CartLine is one cart entry as seen by the engine. Callers hydrate category
// and tag associations before pricing; the engine never touches storage.
type CartLine struct {
	LineID     uuid.UUID
	ProductID  uuid.UUID
	CategoryID *uuid.UUID
	TagIDs     []uuid.UUID
	UnitPrice  decimal.Decimal
	Quantity   int
}

// Target is one scoping rule. TargetID is required unless Type is "all".
type Target struct {
	Type     enums.DiscountTargetType
	TargetID *uuid.UUID
}

// Condition is one quantitative gate. Value is a unit count for min_quantity
// and a monetary threshold for min_amount.
type Condition struct {
	Type  enums.DiscountConditionType
	Value decimal.Decimal
}

// Bundle is the buy_x_get_y payload: buy N units, pay for M of them.
type Bundle struct {
	Buy int
	Pay int
}

// Discount is a promotional rule snapshot. Exactly one of Percent, Amount, or
// Bundle is set, keyed by Type. The engine treats it as immutable for the
// duration of one pricing call.
type Discount struct {
	ID          uuid.UUID
	Name        string
	Description string
	Type        enums.DiscountType
	Percent     *decimal.Decimal
	Amount      *decimal.Decimal
	Bundle      *Bundle
	Combinable  bool
	Priority    int
	Targets     []Target
	Conditions  []Condition
}

// Validate checks that the rule's value payload matches its type and that all
// numeric fields are in range. The same checks run at write time in the admin
// layer; the engine revalidates defensively and excludes offenders.
func (d Discount) Validate() error {
	var err error

	if !d.Type.IsValid() {
		err = multierr.Append(err, fmt.Errorf("unknown discount type %q", d.Type))
	}
	if len(d.Targets) == 0 {
		err = multierr.Append(err, fmt.Errorf("at least one target is required"))
	}
	for i, target := range d.Targets {
		if !target.Type.IsValid() {
			// Forward-compatible: unknown target types are a non-match at
			// eligibility time, not a malformed rule.
			continue
		}
		if target.Type == enums.DiscountTargetTypeAll {
			continue
		}
		if target.TargetID == nil || *target.TargetID == uuid.Nil {
			err = multierr.Append(err, fmt.Errorf("target %d: %s target requires a target id", i, target.Type))
		}
	}
	for i, condition := range d.Conditions {
		if condition.Value.IsNegative() {
			err = multierr.Append(err, fmt.Errorf("condition %d: value must not be negative", i))
		}
	}

	switch d.Type {
	case enums.DiscountTypePercentage:
		if d.Percent == nil {
			err = multierr.Append(err, fmt.Errorf("percentage discount requires a percent value"))
		} else if d.Percent.IsNegative() || d.Percent.GreaterThan(decimal.NewFromInt(100)) {
			err = multierr.Append(err, fmt.Errorf("percent value must be between 0 and 100"))
		}
		if d.Amount != nil || d.Bundle != nil {
			err = multierr.Append(err, fmt.Errorf("percentage discount carries a foreign value payload"))
		}
	case enums.DiscountTypeFixedAmount:
		if d.Amount == nil {
			err = multierr.Append(err, fmt.Errorf("fixed amount discount requires an amount value"))
		} else if d.Amount.IsNegative() {
			err = multierr.Append(err, fmt.Errorf("amount value must not be negative"))
		}
		if d.Percent != nil || d.Bundle != nil {
			err = multierr.Append(err, fmt.Errorf("fixed amount discount carries a foreign value payload"))
		}
	case enums.DiscountTypeBuyXGetY:
		if d.Bundle == nil {
			err = multierr.Append(err, fmt.Errorf("buy x get y discount requires a bundle value"))
		} else {
			if d.Bundle.Buy <= 0 || d.Bundle.Pay <= 0 {
				err = multierr.Append(err, fmt.Errorf("bundle buy and pay must be positive"))
			}
			if d.Bundle.Pay > d.Bundle.Buy {
				err = multierr.Append(err, fmt.Errorf("bundle pay must not exceed buy"))
			}
		}
		if d.Percent != nil || d.Amount != nil {
			err = multierr.Append(err, fmt.Errorf("buy x get y discount carries a foreign value payload"))
		}
	}

	return err
}
