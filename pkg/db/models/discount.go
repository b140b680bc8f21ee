package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercatolabs/storefront-backend/pkg/enums"
)

// Discount is a persisted promotional rule. The value columns are populated
// per type: percentage uses PercentValue, fixed_amount uses AmountCents,
// buy_x_get_y uses BuyQty/PayQty. Write-time validation keeps the shape
// consistent with the type.
type Discount struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID    uuid.UUID          `gorm:"column:tenant_id;type:uuid;not null"`
	Name        string             `gorm:"column:name;not null"`
	Description *string            `gorm:"column:description"`
	Type        enums.DiscountType `gorm:"column:type;not null"`

	PercentValue *float64 `gorm:"column:percent_value;type:numeric(5,2)"`
	AmountCents  *int     `gorm:"column:amount_cents"`
	BuyQty       *int     `gorm:"column:buy_qty"`
	PayQty       *int     `gorm:"column:pay_qty"`

	IsActive   bool `gorm:"column:is_active;not null;default:true"`
	Combinable bool `gorm:"column:combinable;not null;default:false"`
	Priority   int  `gorm:"column:priority;not null;default:0"`

	StartsAt *time.Time `gorm:"column:starts_at"`
	EndsAt   *time.Time `gorm:"column:ends_at"`

	Targets    []DiscountTarget    `gorm:"foreignKey:DiscountID;constraint:OnDelete:CASCADE"`
	Conditions []DiscountCondition `gorm:"foreignKey:DiscountID;constraint:OnDelete:CASCADE"`

	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time `gorm:"column:updated_at;autoUpdateTime"`
}
