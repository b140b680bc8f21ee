package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercatolabs/storefront-backend/pkg/enums"
)

// DiscountCondition is one quantitative gate. Value carries a unit count for
// min_quantity and minor-unit cents for min_amount.
type DiscountCondition struct {
	ID            uuid.UUID                   `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DiscountID    uuid.UUID                   `gorm:"column:discount_id;type:uuid;not null"`
	ConditionType enums.DiscountConditionType `gorm:"column:condition_type;not null"`
	Value         int64                       `gorm:"column:value;not null"`
	CreatedAt     time.Time                   `gorm:"column:created_at;autoCreateTime"`
}
