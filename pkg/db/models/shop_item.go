package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/tavernkeep/bazaar-backend/pkg/types"
)

// ShopItem binds a library item into a shop with a price and stock.
// Stock semantics: nil means unlimited; OriginalStock is the baseline the
// stock is reset to whenever the market deactivates. Snapshot carries the
// display copy so player reads never touch the library table.
type ShopItem struct {
	ID            uuid.UUID          `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	ShopID        uuid.UUID          `gorm:"column:shop_id;type:uuid;not null;index"`
	LibraryItemID uuid.UUID          `gorm:"column:library_item_id;type:uuid;not null"`
	Price         types.Price        `gorm:"column:price;type:jsonb;serializer:json;not null"`
	Stock         *int               `gorm:"column:stock"`
	OriginalStock *int               `gorm:"column:original_stock"`
	Snapshot      types.ItemSnapshot `gorm:"column:snapshot;type:jsonb;serializer:json;not null"`
	Position      int                `gorm:"column:position;not null;default:0"`
	CreatedAt     time.Time          `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time          `gorm:"column:updated_at;autoUpdateTime"`
}

// Unlimited reports whether the item never runs out.
func (s ShopItem) Unlimited() bool {
	return s.Stock == nil
}
