package enums

import "fmt"

// DiscountTargetType scopes which cart lines a promotion can touch.
type DiscountTargetType string

const (
	DiscountTargetTypeAll      DiscountTargetType = "all"
	DiscountTargetTypeProduct  DiscountTargetType = "product"
	DiscountTargetTypeCategory DiscountTargetType = "category"
	DiscountTargetTypeTag      DiscountTargetType = "tag"
)

var validDiscountTargetTypes = []DiscountTargetType{
	DiscountTargetTypeAll,
	DiscountTargetTypeProduct,
	DiscountTargetTypeCategory,
	DiscountTargetTypeTag,
}

// String implements fmt.Stringer.
func (d DiscountTargetType) String() string {
	return string(d)
}

// IsValid reports whether the value is known.
func (d DiscountTargetType) IsValid() bool {
	for _, candidate := range validDiscountTargetTypes {
		if candidate == d {
			return true
		}
	}
	return false
}

// ParseDiscountTargetType converts raw input into a DiscountTargetType.
func ParseDiscountTargetType(value string) (DiscountTargetType, error) {
	for _, candidate := range validDiscountTargetTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid discount target type %q", value)
}
