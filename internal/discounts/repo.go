package discounts

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercatolabs/storefront-backend/pkg/db/models"
	"github.com/mercatolabs/storefront-backend/pkg/pagination"
)

// Repository encapsulates discount persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a discount repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the rule with its targets and conditions.
func (r *Repository) Create(ctx context.Context, discount *models.Discount) error {
	return r.db.WithContext(ctx).Create(discount).Error
}

// GetByID loads a tenant's rule with targets and conditions preloaded.
func (r *Repository) GetByID(ctx context.Context, tenantID, id uuid.UUID) (*models.Discount, error) {
	var discount models.Discount
	err := r.db.WithContext(ctx).
		Preload("Targets").
		Preload("Conditions").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&discount).
		Error
	if err != nil {
		return nil, err
	}
	return &discount, nil
}

// List returns one cursor page of a tenant's rules, newest first.
func (r *Repository) List(ctx context.Context, tenantID uuid.UUID, params pagination.Params) (DiscountPage, error) {
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return DiscountPage{}, err
	}

	query := r.db.WithContext(ctx).
		Preload("Targets").
		Preload("Conditions").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Limit(limitWithBuffer)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Discount
	if err := query.Find(&rows).Error; err != nil {
		return DiscountPage{}, err
	}

	page := DiscountPage{Items: rows}
	if len(rows) == limitWithBuffer {
		last := rows[limitWithBuffer-2]
		page.Items = rows[:limitWithBuffer-1]
		page.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return page, nil
}

// Update saves the rule row and replaces its targets and conditions in one
// transaction.
func (r *Repository) Update(ctx context.Context, discount *models.Discount) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Targets", "Conditions").Save(discount).Error; err != nil {
			return err
		}
		if err := tx.Where("discount_id = ?", discount.ID).Delete(&models.DiscountTarget{}).Error; err != nil {
			return err
		}
		if err := tx.Where("discount_id = ?", discount.ID).Delete(&models.DiscountCondition{}).Error; err != nil {
			return err
		}
		for i := range discount.Targets {
			discount.Targets[i].DiscountID = discount.ID
		}
		if len(discount.Targets) > 0 {
			if err := tx.Create(&discount.Targets).Error; err != nil {
				return err
			}
		}
		for i := range discount.Conditions {
			discount.Conditions[i].DiscountID = discount.ID
		}
		if len(discount.Conditions) > 0 {
			if err := tx.Create(&discount.Conditions).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// Delete removes a tenant's rule; targets and conditions cascade.
func (r *Repository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Where("tenant_id = ? AND id = ?", tenantID, id).
		Delete(&models.Discount{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ListActive returns the tenant's rules that are active and inside their
// validity window at the given instant. A null bound is unbounded.
func (r *Repository) ListActive(ctx context.Context, tenantID uuid.UUID, now time.Time) ([]models.Discount, error) {
	var rows []models.Discount
	err := r.db.WithContext(ctx).
		Preload("Targets").
		Preload("Conditions").
		Where("tenant_id = ? AND is_active = ?", tenantID, true).
		Where("starts_at IS NULL OR starts_at <= ?", now).
		Where("ends_at IS NULL OR ends_at >= ?", now).
		Order("priority DESC, created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
