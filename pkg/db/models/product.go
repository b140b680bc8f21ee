package models

import (
	"time"

	"github.com/google/uuid"
)

// Product represents one sellable catalog entry.
type Product struct {
	ID         uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID   uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null"`
	CategoryID *uuid.UUID `gorm:"column:category_id;type:uuid"`
	SKU        string     `gorm:"column:sku;not null"`
	Title      string     `gorm:"column:title;not null"`
	Subtitle   *string    `gorm:"column:subtitle"`
	PriceCents int        `gorm:"column:price_cents;not null"`
	IsActive   bool       `gorm:"column:is_active;not null;default:true"`
	Tags       []Tag      `gorm:"many2many:product_tags;joinForeignKey:ProductID;joinReferences:TagID"`
	CreatedAt  time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
