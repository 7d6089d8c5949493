package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	"github.com/tavernkeep/bazaar-backend/pkg/types"
)

// ShopItemDTO is the DM-facing transport shape for a stocked item.
type ShopItemDTO struct {
	ID            uuid.UUID          `json:"id"`
	ShopID        uuid.UUID          `json:"shop_id"`
	LibraryItemID uuid.UUID          `json:"library_item_id"`
	Price         types.Price        `json:"price"`
	PriceGold     string             `json:"price_gold"`
	Stock         *int               `json:"stock"`
	OriginalStock *int               `json:"original_stock"`
	Snapshot      types.ItemSnapshot `json:"snapshot"`
	Position      int                `json:"position"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`
}

// AddItemInput binds a library item into a shop.
type AddItemInput struct {
	LibraryItemID uuid.UUID
	Price         types.Price
	Stock         *int
	Position      *int
}

// UpdateItemInput carries mutable fields; nil means unchanged. Stock
// uses a double pointer so "set to unlimited" is expressible.
type UpdateItemInput struct {
	Price    *types.Price
	Stock    **int
	Position *int
}

// CreateShopItemDTO is what the repo needs to persist a shop item.
type CreateShopItemDTO struct {
	ShopID        uuid.UUID
	LibraryItemID uuid.UUID
	Price         types.Price
	Stock         *int
	OriginalStock *int
	Snapshot      types.ItemSnapshot
	Position      int
}

func FromModel(item *models.ShopItem) *ShopItemDTO {
	if item == nil {
		return nil
	}
	return &ShopItemDTO{
		ID:            item.ID,
		ShopID:        item.ShopID,
		LibraryItemID: item.LibraryItemID,
		Price:         item.Price,
		PriceGold:     item.Price.GoldValue().StringFixed(2),
		Stock:         item.Stock,
		OriginalStock: item.OriginalStock,
		Snapshot:      item.Snapshot,
		Position:      item.Position,
		CreatedAt:     item.CreatedAt,
		UpdatedAt:     item.UpdatedAt,
	}
}

func (c CreateShopItemDTO) ToModel() *models.ShopItem {
	return &models.ShopItem{
		ShopID:        c.ShopID,
		LibraryItemID: c.LibraryItemID,
		Price:         c.Price,
		Stock:         c.Stock,
		OriginalStock: c.OriginalStock,
		Snapshot:      c.Snapshot,
		Position:      c.Position,
	}
}
