package markets

import (
	"time"

	"github.com/google/uuid"

	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
)

// MarketDTO is the transport shape for a market.
type MarketDTO struct {
	ID          uuid.UUID  `json:"id"`
	Name        string     `json:"name"`
	Description *string    `json:"description,omitempty"`
	AccessCode  string     `json:"access_code"`
	IsActive    bool       `json:"is_active"`
	ActiveUntil *time.Time `json:"active_until,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateMarketInput carries the fields a DM supplies for a new market.
type CreateMarketInput struct {
	Name        string
	Description *string
}

// UpdateMarketInput carries the mutable market fields; nil means unchanged.
type UpdateMarketInput struct {
	Name        *string
	Description *string
}

// CreateMarketDTO is what the repo needs to persist a market.
type CreateMarketDTO struct {
	DMID        uuid.UUID
	Name        string
	Description *string
	AccessCode  string
}

func FromModel(m *models.Market) *MarketDTO {
	if m == nil {
		return nil
	}
	return &MarketDTO{
		ID:          m.ID,
		Name:        m.Name,
		Description: m.Description,
		AccessCode:  m.AccessCode,
		IsActive:    m.IsActive,
		ActiveUntil: m.ActiveUntil,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}

func (c CreateMarketDTO) ToModel() *models.Market {
	return &models.Market{
		DMID:        c.DMID,
		Name:        c.Name,
		Description: c.Description,
		AccessCode:  c.AccessCode,
	}
}
