package shops

import (
	"time"

	"github.com/google/uuid"

	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	"github.com/tavernkeep/bazaar-backend/pkg/enums"
)

// ShopDTO is the transport shape for a shop.
type ShopDTO struct {
	ID          uuid.UUID          `json:"id"`
	MarketID    uuid.UUID          `json:"market_id"`
	Name        string             `json:"name"`
	Category    enums.ShopCategory `json:"category"`
	Location    *string            `json:"location,omitempty"`
	Shopkeeper  *string            `json:"shopkeeper,omitempty"`
	Description *string            `json:"description,omitempty"`
	Position    int                `json:"position"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// CreateShopInput carries the fields a DM supplies for a new shop.
type CreateShopInput struct {
	Name        string
	Category    enums.ShopCategory
	Location    *string
	Shopkeeper  *string
	Description *string
	Position    *int
}

// UpdateShopInput carries mutable shop fields; nil means unchanged.
type UpdateShopInput struct {
	Name        *string
	Category    *enums.ShopCategory
	Location    *string
	Shopkeeper  *string
	Description *string
	Position    *int
}

// CreateShopDTO is what the repo needs to persist a shop.
type CreateShopDTO struct {
	MarketID    uuid.UUID
	Name        string
	Category    enums.ShopCategory
	Location    *string
	Shopkeeper  *string
	Description *string
	Position    int
}

func FromModel(shop *models.Shop) *ShopDTO {
	if shop == nil {
		return nil
	}
	return &ShopDTO{
		ID:          shop.ID,
		MarketID:    shop.MarketID,
		Name:        shop.Name,
		Category:    shop.Category,
		Location:    shop.Location,
		Shopkeeper:  shop.Shopkeeper,
		Description: shop.Description,
		Position:    shop.Position,
		CreatedAt:   shop.CreatedAt,
		UpdatedAt:   shop.UpdatedAt,
	}
}

func (c CreateShopDTO) ToModel() *models.Shop {
	return &models.Shop{
		MarketID:    c.MarketID,
		Name:        c.Name,
		Category:    c.Category,
		Location:    c.Location,
		Shopkeeper:  c.Shopkeeper,
		Description: c.Description,
		Position:    c.Position,
	}
}
