package library

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	"github.com/tavernkeep/bazaar-backend/pkg/enums"
)

// LibraryItemDTO is the transport shape for a catalog item.
type LibraryItemDTO struct {
	ID          uuid.UUID        `json:"id"`
	Name        string           `json:"name"`
	Type        enums.ItemType   `json:"type"`
	Source      enums.ItemSource `json:"source"`
	Description *string          `json:"description,omitempty"`
	Details     json.RawMessage  `json:"details,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// CreateLibraryItemInput carries the fields for a new catalog item.
type CreateLibraryItemInput struct {
	Name        string
	Type        enums.ItemType
	Source      enums.ItemSource
	Description *string
	Details     json.RawMessage
}

// UpdateLibraryItemInput carries mutable fields; nil means unchanged.
// An edit to an official item flips its provenance to modified.
type UpdateLibraryItemInput struct {
	Name        *string
	Description *string
	Details     json.RawMessage
}

// ListResult is one page of catalog items plus the cursor for the next.
type ListResult struct {
	Items      []LibraryItemDTO `json:"items"`
	NextCursor *string          `json:"next_cursor,omitempty"`
}

// CreateLibraryItemDTO is what the repo needs to persist an item.
type CreateLibraryItemDTO struct {
	DMID        uuid.UUID
	Name        string
	Type        enums.ItemType
	Source      enums.ItemSource
	Description *string
	Details     json.RawMessage
}

func FromModel(item *models.LibraryItem) *LibraryItemDTO {
	if item == nil {
		return nil
	}
	return &LibraryItemDTO{
		ID:          item.ID,
		Name:        item.Name,
		Type:        item.Type,
		Source:      item.Source,
		Description: item.Description,
		Details:     item.Details,
		CreatedAt:   item.CreatedAt,
		UpdatedAt:   item.UpdatedAt,
	}
}

func (c CreateLibraryItemDTO) ToModel() *models.LibraryItem {
	return &models.LibraryItem{
		DMID:        c.DMID,
		Name:        c.Name,
		Type:        c.Type,
		Source:      c.Source,
		Description: c.Description,
		Details:     c.Details,
	}
}
