package shops

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
)

// Repository exposes shop persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a shops repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new shop.
func (r *Repository) Create(ctx context.Context, dto CreateShopDTO) (*models.Shop, error) {
	shop := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(shop).Error; err != nil {
		return nil, err
	}
	return shop, nil
}

// ListByMarket returns the market's shops in display order.
func (r *Repository) ListByMarket(ctx context.Context, marketID uuid.UUID) ([]models.Shop, error) {
	var out []models.Shop
	err := r.db.WithContext(ctx).
		Where("market_id = ?", marketID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// CountByMarket returns how many shops the market holds.
func (r *Repository) CountByMarket(ctx context.Context, marketID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Shop{}).
		Where("market_id = ?", marketID).
		Count(&count).Error
	return count, err
}

// FindByID loads a shop by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	if err := r.db.WithContext(ctx).First(&shop, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &shop, nil
}

// FindByIDForDM loads a shop scoped through its market's owner.
func (r *Repository) FindByIDForDM(ctx context.Context, dmID, id uuid.UUID) (*models.Shop, error) {
	var shop models.Shop
	err := r.db.WithContext(ctx).
		Joins("JOIN markets ON markets.id = shops.market_id").
		Where("shops.id = ? AND markets.dm_id = ?", id, dmID).
		First(&shop).Error
	if err != nil {
		return nil, err
	}
	return &shop, nil
}

// Update persists the mutable shop fields.
func (r *Repository) Update(ctx context.Context, shop *models.Shop) error {
	return r.db.WithContext(ctx).
		Model(shop).
		Select("name", "category", "location", "shopkeeper", "description", "position").
		Updates(map[string]any{
			"name":        shop.Name,
			"category":    shop.Category,
			"location":    shop.Location,
			"shopkeeper":  shop.Shopkeeper,
			"description": shop.Description,
			"position":    shop.Position,
		}).Error
}

// Delete removes the shop; items go with it via ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Shop{}, "id = ?", id).Error
}
