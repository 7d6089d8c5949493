package library

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	"github.com/tavernkeep/bazaar-backend/pkg/pagination"
)

// Repository exposes library item persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a library repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new library item.
func (r *Repository) Create(ctx context.Context, dto CreateLibraryItemDTO) (*models.LibraryItem, error) {
	item := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// List returns one DM-scoped page using cursor pagination, newest first.
// Pass limit+1 rows to detect whether another page exists.
func (r *Repository) List(ctx context.Context, dmID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.LibraryItem, error) {
	query := r.db.WithContext(ctx).Model(&models.LibraryItem{}).Where("dm_id = ?", dmID)

	if cursor != nil {
		query = query.Where("(created_at < ?) OR (created_at = ? AND id < ?)",
			cursor.CreatedAt, cursor.CreatedAt, cursor.ID)
	}

	query = query.Order("created_at DESC").Order("id DESC").Limit(limit)

	var rows []models.LibraryItem
	if err := query.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountByDM returns the DM's catalog size.
func (r *Repository) CountByDM(ctx context.Context, dmID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.LibraryItem{}).
		Where("dm_id = ?", dmID).
		Count(&count).Error
	return count, err
}

// FindByIDForDM loads a library item scoped to its owner.
func (r *Repository) FindByIDForDM(ctx context.Context, dmID, id uuid.UUID) (*models.LibraryItem, error) {
	var item models.LibraryItem
	err := r.db.WithContext(ctx).First(&item, "id = ? AND dm_id = ?", id, dmID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// Update persists the mutable fields of a library item.
func (r *Repository) Update(ctx context.Context, item *models.LibraryItem) error {
	return r.db.WithContext(ctx).
		Model(item).
		Select("name", "description", "details", "source").
		Updates(map[string]any{
			"name":        item.Name,
			"description": item.Description,
			"details":     item.Details,
			"source":      item.Source,
		}).Error
}

// Delete removes a library item. Rows referenced by shop items are
// protected by ON DELETE RESTRICT; callers map that to a conflict.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.LibraryItem{}, "id = ?", id).Error
}

// ReferenceCount reports how many shop items point at the library item.
func (r *Repository) ReferenceCount(ctx context.Context, id uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ShopItem{}).
		Where("library_item_id = ?", id).
		Count(&count).Error
	return count, err
}
