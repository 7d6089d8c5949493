package inventory

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
)

// Repository exposes shop item persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a shop item repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new shop item.
func (r *Repository) Create(ctx context.Context, dto CreateShopItemDTO) (*models.ShopItem, error) {
	item := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(item).Error; err != nil {
		return nil, err
	}
	return item, nil
}

// ListByShop returns the shop's items in display order.
func (r *Repository) ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.ShopItem, error) {
	var out []models.ShopItem
	err := r.db.WithContext(ctx).
		Where("shop_id = ?", shopID).
		Order("position ASC").
		Order("created_at ASC").
		Find(&out).Error
	return out, err
}

// CountByShop returns how many items the shop stocks.
func (r *Repository) CountByShop(ctx context.Context, shopID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.ShopItem{}).
		Where("shop_id = ?", shopID).
		Count(&count).Error
	return count, err
}

// FindByID loads a shop item by its UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.ShopItem, error) {
	var item models.ShopItem
	if err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// FindByIDForDM loads a shop item scoped through shop and market to the
// owning DM.
func (r *Repository) FindByIDForDM(ctx context.Context, dmID, id uuid.UUID) (*models.ShopItem, error) {
	var item models.ShopItem
	err := r.db.WithContext(ctx).
		Joins("JOIN shops ON shops.id = shop_items.shop_id").
		Joins("JOIN markets ON markets.id = shops.market_id").
		Where("shop_items.id = ? AND markets.dm_id = ?", id, dmID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// MarketForShop resolves the market a shop belongs to.
func (r *Repository) MarketForShop(ctx context.Context, shopID uuid.UUID) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).
		Joins("JOIN shops ON shops.market_id = markets.id").
		Where("shops.id = ?", shopID).
		First(&market).Error
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// Update persists the mutable shop item fields.
func (r *Repository) Update(ctx context.Context, item *models.ShopItem) error {
	return r.db.WithContext(ctx).
		Model(item).
		Select("price", "stock", "original_stock", "position").
		Updates(map[string]any{
			"price":          item.Price,
			"stock":          item.Stock,
			"original_stock": item.OriginalStock,
			"position":       item.Position,
		}).Error
}

// Delete removes a shop item.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.ShopItem{}, "id = ?", id).Error
}

// DecrementStock mirrors a session purchase onto the persisted count.
// Finite stock never drops below zero; unlimited items are untouched.
func (r *Repository) DecrementStock(ctx context.Context, id uuid.UUID, qty int) error {
	res := r.db.WithContext(ctx).
		Model(&models.ShopItem{}).
		Where("id = ? AND stock IS NOT NULL AND stock >= ?", id, qty).
		UpdateColumn("stock", gorm.Expr("stock - ?", qty))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Already below qty; clamp rather than go negative.
		return r.db.WithContext(ctx).
			Model(&models.ShopItem{}).
			Where("id = ? AND stock IS NOT NULL", id).
			UpdateColumn("stock", 0).Error
	}
	return nil
}
