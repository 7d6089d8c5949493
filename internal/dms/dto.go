package dms

import (
	"time"

	"github.com/google/uuid"

	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
)

// DMDTO is the transport shape that omits the credential hash.
type DMDTO struct {
	ID          uuid.UUID  `json:"id"`
	Email       string     `json:"email"`
	DisplayName string     `json:"display_name"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// CreateDMDTO holds the data required by the repo to persist a new DM.
type CreateDMDTO struct {
	Email        string
	DisplayName  string
	PasswordHash string
}

func FromModel(dm *models.DungeonMaster) *DMDTO {
	if dm == nil {
		return nil
	}

	return &DMDTO{
		ID:          dm.ID,
		Email:       dm.Email,
		DisplayName: dm.DisplayName,
		LastLoginAt: dm.LastLoginAt,
		CreatedAt:   dm.CreatedAt,
		UpdatedAt:   dm.UpdatedAt,
	}
}

func (c CreateDMDTO) ToModel() *models.DungeonMaster {
	return &models.DungeonMaster{
		Email:        c.Email,
		DisplayName:  c.DisplayName,
		PasswordHash: c.PasswordHash,
	}
}
