package models

import (
	"time"

	"github.com/google/uuid"
)

// Market is a DM-owned virtual marketplace reachable by players through its
// access code while active. At most one market per DM is active at a time.
type Market struct {
	ID          uuid.UUID  `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	DMID        uuid.UUID  `gorm:"column:dm_id;type:uuid;not null;index"`
	Name        string     `gorm:"column:name;not null"`
	Description *string    `gorm:"column:description"`
	AccessCode  string     `gorm:"column:access_code;not null;index"`
	IsActive    bool       `gorm:"column:is_active;not null;default:false"`
	ActiveUntil *time.Time `gorm:"column:active_until"`
	Shops       []Shop     `gorm:"foreignKey:MarketID;constraint:OnDelete:CASCADE"`
	CreatedAt   time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

// Expired reports whether the activation window has elapsed at the given
// instant. Only meaningful while IsActive is set.
func (m Market) Expired(now time.Time) bool {
	return m.IsActive && m.ActiveUntil != nil && now.After(*m.ActiveUntil)
}
