package models

import (
	"time"

	"github.com/google/uuid"
)

// Tag is a free-form label attachable to products.
type Tag struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID `gorm:"column:tenant_id;type:uuid;not null"`
	Name      string    `gorm:"column:name;not null"`
	Slug      string    `gorm:"column:slug;not null"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ProductTag links a product to a tag.
type ProductTag struct {
	ProductID uuid.UUID `gorm:"column:product_id;type:uuid;primaryKey"`
	TagID     uuid.UUID `gorm:"column:tag_id;type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
