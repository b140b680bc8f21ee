package pricing

import (
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mercatolabs/storefront-backend/pkg/enums"
)

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func allTarget() []Target {
	return []Target{{Type: enums.DiscountTargetTypeAll}}
}

func TestValidatePercentage(t *testing.T) {
	d := Discount{
		ID:      uuid.New(),
		Type:    enums.DiscountTypePercentage,
		Percent: decPtr("20"),
		Targets: allTarget(),
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("expected valid discount, got %v", err)
	}

	d.Percent = decPtr("120")
	if err := d.Validate(); err == nil {
		t.Fatal("expected percent above 100 to be rejected")
	}

	d.Percent = nil
	if err := d.Validate(); err == nil {
		t.Fatal("expected missing percent payload to be rejected")
	}
}

func TestValidateRejectsForeignPayload(t *testing.T) {
	d := Discount{
		ID:      uuid.New(),
		Type:    enums.DiscountTypePercentage,
		Percent: decPtr("10"),
		Amount:  decPtr("5"),
		Targets: allTarget(),
	}
	if err := d.Validate(); err == nil {
		t.Fatal("expected foreign payload to be rejected")
	}
}

func TestValidateBundle(t *testing.T) {
	d := Discount{
		ID:      uuid.New(),
		Type:    enums.DiscountTypeBuyXGetY,
		Bundle:  &Bundle{Buy: 3, Pay: 2},
		Targets: allTarget(),
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("expected valid bundle, got %v", err)
	}

	d.Bundle = &Bundle{Buy: 2, Pay: 3}
	if err := d.Validate(); err == nil {
		t.Fatal("expected pay greater than buy to be rejected")
	}

	d.Bundle = &Bundle{Buy: 0, Pay: 0}
	if err := d.Validate(); err == nil {
		t.Fatal("expected non-positive bundle values to be rejected")
	}
}

func TestValidateTargets(t *testing.T) {
	d := Discount{
		ID:      uuid.New(),
		Type:    enums.DiscountTypeFixedAmount,
		Amount:  decPtr("5"),
		Targets: nil,
	}
	if err := d.Validate(); err == nil {
		t.Fatal("expected empty targets to be rejected")
	}

	d.Targets = []Target{{Type: enums.DiscountTargetTypeProduct}}
	if err := d.Validate(); err == nil {
		t.Fatal("expected product target without id to be rejected")
	}

	// Unknown target types are tolerated; they simply never match.
	id := uuid.New()
	d.Targets = []Target{
		{Type: enums.DiscountTargetType("store"), TargetID: &id},
		{Type: enums.DiscountTargetTypeAll},
	}
	if err := d.Validate(); err != nil {
		t.Fatalf("expected unknown target type to be tolerated, got %v", err)
	}
}

func TestValidateNegativeConditionValue(t *testing.T) {
	d := Discount{
		ID:      uuid.New(),
		Type:    enums.DiscountTypeFixedAmount,
		Amount:  decPtr("5"),
		Targets: allTarget(),
		Conditions: []Condition{
			{Type: enums.DiscountConditionTypeMinQuantity, Value: decimal.NewFromInt(-1)},
		},
	}
	if err := d.Validate(); err == nil {
		t.Fatal("expected negative condition value to be rejected")
	}
}
