package models

import (
	"time"

	"github.com/google/uuid"
)

// Category groups products inside a tenant catalog.
type Category struct {
	ID        uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	TenantID  uuid.UUID  `gorm:"column:tenant_id;type:uuid;not null"`
	ParentID  *uuid.UUID `gorm:"column:parent_id;type:uuid"`
	Name      string     `gorm:"column:name;not null"`
	Slug      string     `gorm:"column:slug;not null"`
	CreatedAt time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}
