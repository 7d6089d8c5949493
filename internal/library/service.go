package library

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavernkeep/bazaar-backend/pkg/config"
	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
	"github.com/tavernkeep/bazaar-backend/pkg/enums"
	"github.com/tavernkeep/bazaar-backend/pkg/pagination"
)

type libraryRepository interface {
	Create(ctx context.Context, dto CreateLibraryItemDTO) (*models.LibraryItem, error)
	List(ctx context.Context, dmID uuid.UUID, cursor *pagination.Cursor, limit int) ([]models.LibraryItem, error)
	CountByDM(ctx context.Context, dmID uuid.UUID) (int64, error)
	FindByIDForDM(ctx context.Context, dmID, id uuid.UUID) (*models.LibraryItem, error)
	Update(ctx context.Context, item *models.LibraryItem) error
	Delete(ctx context.Context, id uuid.UUID) error
	ReferenceCount(ctx context.Context, id uuid.UUID) (int64, error)
}

// Service exposes the DM's item catalog.
type Service interface {
	Create(ctx context.Context, dmID uuid.UUID, input CreateLibraryItemInput) (*LibraryItemDTO, error)
	List(ctx context.Context, dmID uuid.UUID, params pagination.Params) (*ListResult, error)
	Get(ctx context.Context, dmID, itemID uuid.UUID) (*LibraryItemDTO, error)
	Update(ctx context.Context, dmID, itemID uuid.UUID, input UpdateLibraryItemInput) (*LibraryItemDTO, error)
	Delete(ctx context.Context, dmID, itemID uuid.UUID) error
}

type service struct {
	repo   libraryRepository
	limits config.LimitsConfig
}

// NewService constructs the library service.
func NewService(repo libraryRepository, limits config.LimitsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("library repository required")
	}
	return &service{repo: repo, limits: limits}, nil
}

func (s *service) Create(ctx context.Context, dmID uuid.UUID, input CreateLibraryItemInput) (*LibraryItemDTO, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Type.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item type")
	}
	source := input.Source
	if source == "" {
		source = enums.ItemSourceCustom
	}
	if !source.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid item source")
	}

	details, err := NormalizeDetails(input.Type, input.Details)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.CountByDM(ctx, dmID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count library items")
	}
	if s.limits.LibraryItems > 0 && count >= int64(s.limits.LibraryItems) {
		return nil, pkgerrors.New(pkgerrors.CodeLimitReached, "library item limit reached").
			WithDetails(map[string]any{"limit": s.limits.LibraryItems})
	}

	item, err := s.repo.Create(ctx, CreateLibraryItemDTO{
		DMID:        dmID,
		Name:        name,
		Type:        input.Type,
		Source:      source,
		Description: input.Description,
		Details:     details,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create library item")
	}
	return FromModel(item), nil
}

func (s *service) List(ctx context.Context, dmID uuid.UUID, params pagination.Params) (*ListResult, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid cursor")
	}
	limit := pagination.NormalizeLimit(params.Limit)

	rows, err := s.repo.List(ctx, dmID, cursor, limit+1)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list library items")
	}

	result := &ListResult{Items: make([]LibraryItemDTO, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for i := range rows {
		result.Items = append(result.Items, *FromModel(&rows[i]))
	}
	if hasMore {
		last := rows[len(rows)-1]
		next := pagination.EncodeCursor(pagination.Cursor{CreatedAt: last.CreatedAt, ID: last.ID})
		result.NextCursor = &next
	}
	return result, nil
}

func (s *service) Get(ctx context.Context, dmID, itemID uuid.UUID) (*LibraryItemDTO, error) {
	item, err := s.findOwned(ctx, dmID, itemID)
	if err != nil {
		return nil, err
	}
	return FromModel(item), nil
}

func (s *service) Update(ctx context.Context, dmID, itemID uuid.UUID, input UpdateLibraryItemInput) (*LibraryItemDTO, error) {
	item, err := s.findOwned(ctx, dmID, itemID)
	if err != nil {
		return nil, err
	}

	changed := false
	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		item.Name = name
		changed = true
	}
	if input.Description != nil {
		item.Description = input.Description
		changed = true
	}
	if input.Details != nil {
		details, err := NormalizeDetails(item.Type, input.Details)
		if err != nil {
			return nil, err
		}
		item.Details = details
		changed = true
	}

	if changed && item.Source == enums.ItemSourceOfficial {
		item.Source = enums.ItemSourceModified
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update library item")
	}
	return FromModel(item), nil
}

// Delete removes a catalog item unless a shop still references it.
func (s *service) Delete(ctx context.Context, dmID, itemID uuid.UUID) error {
	if _, err := s.findOwned(ctx, dmID, itemID); err != nil {
		return err
	}

	refs, err := s.repo.ReferenceCount(ctx, itemID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count item references")
	}
	if refs > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "item is stocked in a shop").
			WithDetails(map[string]any{"references": refs})
	}

	if err := s.repo.Delete(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete library item")
	}
	return nil
}

func (s *service) findOwned(ctx context.Context, dmID, itemID uuid.UUID) (*models.LibraryItem, error) {
	item, err := s.repo.FindByIDForDM(ctx, dmID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "library item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load library item")
	}
	return item, nil
}
