package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/mercatolabs/storefront-backend/pkg/enums"
)

// DiscountTarget is one scoping rule; TargetID is set iff TargetType != all.
type DiscountTarget struct {
	ID         uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DiscountID uuid.UUID                `gorm:"column:discount_id;type:uuid;not null"`
	TargetType enums.DiscountTargetType `gorm:"column:target_type;not null"`
	TargetID   *uuid.UUID               `gorm:"column:target_id;type:uuid"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime"`
}
