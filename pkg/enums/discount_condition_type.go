package enums

import "fmt"

// DiscountConditionType gates a promotion on a quantitative threshold.
type DiscountConditionType string

const (
	DiscountConditionTypeMinQuantity DiscountConditionType = "min_quantity"
	DiscountConditionTypeMinAmount   DiscountConditionType = "min_amount"
)

var validDiscountConditionTypes = []DiscountConditionType{
	DiscountConditionTypeMinQuantity,
	DiscountConditionTypeMinAmount,
}

// String implements fmt.Stringer.
func (d DiscountConditionType) String() string {
	return string(d)
}

// IsValid reports whether the value is known.
func (d DiscountConditionType) IsValid() bool {
	for _, candidate := range validDiscountConditionTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountConditionType converts raw input into a DiscountConditionType.
func ParseDiscountConditionType(value string) (DiscountConditionType, error) {
	for _, candidate := range validDiscountConditionTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount condition type %q", value)
}
