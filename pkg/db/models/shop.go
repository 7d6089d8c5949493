package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tavernkeep/bazaar-backend/pkg/enums"
)

// Shop is a storefront inside a market.
type Shop struct {
	ID          uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	MarketID    uuid.UUID          `gorm:"column:market_id;type:uuid;not null;index"`
	Name        string             `gorm:"column:name;not null"`
	Category    enums.ShopCategory `gorm:"column:category;type:shop_category;not null"`
	Location    *string            `gorm:"column:location"`
	Shopkeeper  *string            `gorm:"column:shopkeeper"`
	Description *string            `gorm:"column:description"`
	Position    int                `gorm:"column:position;not null;default:0"`
	Items       []ShopItem         `gorm:"foreignKey:ShopID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}
