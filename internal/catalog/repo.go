package catalog

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/mercatolabs/storefront-backend/pkg/db/models"
	"github.com/mercatolabs/storefront-backend/pkg/pagination"
)

// Repository reads the tenant catalog used to hydrate cart lines.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a catalog repository bound to the provided gorm DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetProductsByIDs loads active products with their tags for one tenant,
// keyed by product id. Missing ids are simply absent from the map.
func (r *Repository) GetProductsByIDs(ctx context.Context, tenantID uuid.UUID, ids []uuid.UUID) (map[uuid.UUID]models.Product, error) {
	if len(ids) == 0 {
		return map[uuid.UUID]models.Product{}, nil
	}

	var rows []models.Product
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("tenant_id = ? AND id IN ?", tenantID, ids).
		Find(&rows).
		Error
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Product, len(rows))
	for _, row := range rows {
		byID[row.ID] = row
	}
	return byID, nil
}

// GetProduct loads one active-or-not product for admin reads.
func (r *Repository) GetProduct(ctx context.Context, tenantID, id uuid.UUID) (*models.Product, error) {
	var row models.Product
	err := r.db.WithContext(ctx).
		Preload("Tags").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&row).
		Error
	if err != nil {
		return nil, err
	}
	return &row, nil
}

// ListProducts returns one cursor page of the tenant's products, newest first.
func (r *Repository) ListProducts(ctx context.Context, tenantID uuid.UUID, params pagination.Params) ([]models.Product, string, error) {
	limitWithBuffer := pagination.LimitWithBuffer(params.Limit)
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, "", err
	}

	query := r.db.WithContext(ctx).
		Preload("Tags").
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC, id DESC").
		Limit(limitWithBuffer)
	if cursor != nil {
		query = query.Where(
			"(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID,
		)
	}

	var rows []models.Product
	if err := query.Find(&rows).Error; err != nil {
		return nil, "", err
	}

	nextCursor := ""
	if len(rows) == limitWithBuffer {
		rows = rows[:limitWithBuffer-1]
		last := rows[len(rows)-1]
		nextCursor = pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
	}
	return rows, nextCursor, nil
}
