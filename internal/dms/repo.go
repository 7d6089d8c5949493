package dms

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
)

// Repository exposes dungeon master persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a DM repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a new dungeon master and returns the persisted model.
func (r *Repository) Create(ctx context.Context, dto CreateDMDTO) (*models.DungeonMaster, error) {
	dm := dto.ToModel()
	if err := r.db.WithContext(ctx).Create(dm).Error; err != nil {
		return nil, err
	}
	return dm, nil
}

// FindByEmail retrieves the DM matching the provided email.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*models.DungeonMaster, error) {
	var dm models.DungeonMaster
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&dm).Error; err != nil {
		return nil, err
	}
	return &dm, nil
}

// FindByID loads a DM by their UUID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.DungeonMaster, error) {
	var dm models.DungeonMaster
	if err := r.db.WithContext(ctx).First(&dm, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &dm, nil
}

// UpdateLastLogin refreshes the DM's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.DungeonMaster{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}
