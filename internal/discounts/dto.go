package discounts

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercatolabs/storefront-backend/pkg/db/models"
	"github.com/mercatolabs/storefront-backend/pkg/enums"
)

// TargetInput is one scoping rule supplied by the admin API.
type TargetInput struct {
	TargetType enums.DiscountTargetType
	TargetID   *uuid.UUID
}

// ConditionInput is one quantitative gate. Value carries units for
// min_quantity and minor-unit cents for min_amount.
type ConditionInput struct {
	ConditionType enums.DiscountConditionType
	Value         int64
}

// CreateDiscountInput defines a new promotional rule. Exactly one value
// payload must be populated, matching Type.
type CreateDiscountInput struct {
	Name        string
	Description *string
	Type        enums.DiscountType

	PercentValue *float64
	AmountCents  *int
	BuyQty       *int
	PayQty       *int

	IsActive   bool
	Combinable bool
	Priority   int

	StartsAt *time.Time
	EndsAt   *time.Time

	Targets    []TargetInput
	Conditions []ConditionInput
}

// UpdateDiscountInput patches an existing rule. Nil fields are left
// untouched. The rule's type and value payload are immutable; changing the
// economics of a promotion means retiring it and creating a new one.
type UpdateDiscountInput struct {
	Name        *string
	Description *string
	IsActive    *bool
	Combinable  *bool
	Priority    *int
	StartsAt    *time.Time
	EndsAt      *time.Time
	Targets     []TargetInput
	Conditions  *[]ConditionInput
}

// DiscountPage is one cursor page of rules.
type DiscountPage struct {
	Items      []models.Discount
	NextCursor string
}
