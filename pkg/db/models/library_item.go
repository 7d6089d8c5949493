package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tavernkeep/bazaar-backend/pkg/enums"
)

// LibraryItem lives in a DM's personal catalog, independent of any market.
// Details holds the type-specific payload (weapon damage, armor AC, magic
// effects) as validated JSON.
type LibraryItem struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DMID        uuid.UUID        `gorm:"column:dm_id;type:uuid;not null;index"`
	Name        string           `gorm:"column:name;not null"`
	Type        enums.ItemType   `gorm:"column:type;type:item_type;not null"`
	Source      enums.ItemSource `gorm:"column:source;type:item_source;not null;default:'custom'"`
	Description *string          `gorm:"column:description"`
	Details     json.RawMessage  `gorm:"column:details;type:jsonb"`
	CreatedAt   time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
