package markets

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
)

// Repository exposes market persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a markets repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new market and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateMarketDTO) (*models.Market, error) {
	market := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(market).Error; err != nil {
		return nil, err
	}
	return market, nil
}

// ListByDM returns all markets owned by the DM, newest first.
func (r *Repository) ListByDM(ctx context.Context, dmID uuid.UUID) ([]models.Market, error) {
	var out []models.Market
	err := r.db.WithContext(ctx).
		Where("dm_id = ?", dmID).
		Order("created_at DESC").
		Find(&out).Error
	return out, err
}

// CountByDM returns how many markets the DM owns.
func (r *Repository) CountByDM(ctx context.Context, dmID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("dm_id = ?", dmID).
		Count(&count).Error
	return count, err
}

// FindByIDForDM loads a market scoped to its owner.
func (r *Repository) FindByIDForDM(ctx context.Context, dmID, id uuid.UUID) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).
		First(&market, "id = ? AND dm_id = ?", id, dmID).Error
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// FindActiveByDM returns the DM's active market, if any.
func (r *Repository) FindActiveByDM(ctx context.Context, dmID uuid.UUID) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).
		First(&market, "dm_id = ? AND is_active = ?", dmID, true).Error
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// FindByAccessCode resolves a player-facing code. Codes are not unique
// by construction; the oldest match wins.
func (r *Repository) FindByAccessCode(ctx context.Context, code string) (*models.Market, error) {
	var market models.Market
	err := r.db.WithContext(ctx).
		Where("access_code = ?", code).
		Order("created_at ASC").
		First(&market).Error
	if err != nil {
		return nil, err
	}
	return &market, nil
}

// UpdateDetails persists name/description changes.
func (r *Repository) UpdateDetails(ctx context.Context, market *models.Market) error {
	return r.db.WithContext(ctx).
		Model(market).
		Select("name", "description").
		Updates(map[string]any{
			"name":        market.Name,
			"description": market.Description,
		}).Error
}

// SetActivation flips the market's active flag and window in one write.
func (r *Repository) SetActivation(ctx context.Context, id uuid.UUID, active bool, until *time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Market{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"is_active":    active,
			"active_until": until,
		}).Error
}

// Delete removes the market; shops and shop items go with it via
// ON DELETE CASCADE.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Market{}, "id = ?", id).Error
}

// ListMarketItems returns every shop item across the market's shops.
func (r *Repository) ListMarketItems(ctx context.Context, marketID uuid.UUID) ([]models.ShopItem, error) {
	var items []models.ShopItem
	err := r.db.WithContext(ctx).
		Joins("JOIN shops ON shops.id = shop_items.shop_id").
		Where("shops.market_id = ?", marketID).
		Find(&items).Error
	return items, err
}

// ResetStocks restores every finite-stock item in the market to its
// original count. Session depletion is deliberately discarded.
func (r *Repository) ResetStocks(ctx context.Context, marketID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.ShopItem{}).
		Where("shop_id IN (?)",
			r.db.Model(&models.Shop{}).Select("id").Where("market_id = ?", marketID)).
		Where("original_stock IS NOT NULL").
		UpdateColumn("stock", gorm.Expr("original_stock")).Error
}
