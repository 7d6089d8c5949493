package inventory

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavernkeep/bazaar-backend/pkg/config"
	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
	"github.com/tavernkeep/bazaar-backend/pkg/types"
)

type itemRepository interface {
	Create(ctx context.Context, dto CreateShopItemDTO) (*models.ShopItem, error)
	ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.ShopItem, error)
	CountByShop(ctx context.Context, shopID uuid.UUID) (int64, error)
	FindByIDForDM(ctx context.Context, dmID, id uuid.UUID) (*models.ShopItem, error)
	MarketForShop(ctx context.Context, shopID uuid.UUID) (*models.Market, error)
	Update(ctx context.Context, item *models.ShopItem) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type shopOwnership interface {
	FindByIDForDM(ctx context.Context, dmID, id uuid.UUID) (*models.Shop, error)
}

type libraryReader interface {
	FindByIDForDM(ctx context.Context, dmID, id uuid.UUID) (*models.LibraryItem, error)
}

type sessionStock interface {
	SetStock(ctx context.Context, marketID, shopItemID uuid.UUID, stock *int) error
}

// Service exposes shop inventory management for DMs.
type Service interface {
	Add(ctx context.Context, dmID, shopID uuid.UUID, input AddItemInput) (*ShopItemDTO, error)
	ListByShop(ctx context.Context, dmID, shopID uuid.UUID) ([]ShopItemDTO, error)
	Update(ctx context.Context, dmID, itemID uuid.UUID, input UpdateItemInput) (*ShopItemDTO, error)
	Remove(ctx context.Context, dmID, itemID uuid.UUID) error
}

type service struct {
	repo    itemRepository
	shops   shopOwnership
	library libraryReader
	tracker sessionStock
	limits  config.LimitsConfig
}

// NewService constructs the inventory service.
func NewService(repo itemRepository, shops shopOwnership, library libraryReader, tracker sessionStock, limits config.LimitsConfig) (Service, error) {
	if repo == nil || shops == nil || library == nil {
		return nil, fmt.Errorf("inventory repo, shop, and library dependencies required")
	}
	if tracker == nil {
		return nil, fmt.Errorf("session stock tracker required")
	}
	return &service{repo: repo, shops: shops, library: library, tracker: tracker, limits: limits}, nil
}

// Add binds a library item into a shop, snapshotting its display data
// so player reads never touch the DM's library.
func (s *service) Add(ctx context.Context, dmID, shopID uuid.UUID, input AddItemInput) (*ShopItemDTO, error) {
	if _, err := s.shops.FindByIDForDM(ctx, dmID, shopID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shop")
	}

	if !types.ValidPrice(input.Price) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price needs at least one positive denomination")
	}
	if input.Stock != nil && *input.Stock < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
	}

	libItem, err := s.library.FindByIDForDM(ctx, dmID, input.LibraryItemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "library item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load library item")
	}

	count, err := s.repo.CountByShop(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count shop items")
	}
	if s.limits.ItemsPerShop > 0 && count >= int64(s.limits.ItemsPerShop) {
		return nil, pkgerrors.New(pkgerrors.CodeLimitReached, "shop item limit reached").
			WithDetails(map[string]any{"limit": s.limits.ItemsPerShop})
	}

	position := int(count)
	if input.Position != nil {
		position = *input.Position
	}

	var original *int
	if input.Stock != nil {
		v := *input.Stock
		original = &v
	}

	item, err := s.repo.Create(ctx, CreateShopItemDTO{
		ShopID:        shopID,
		LibraryItemID: libItem.ID,
		Price:         input.Price.Normalize(),
		Stock:         input.Stock,
		OriginalStock: original,
		Snapshot: types.ItemSnapshot{
			Name:        libItem.Name,
			Type:        string(libItem.Type),
			Source:      string(libItem.Source),
			Description: libItem.Description,
			Details:     libItem.Details,
		},
		Position: position,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create shop item")
	}

	// Mid-session additions join the live stock pool immediately.
	if err := s.syncSessionStock(ctx, item.ShopID, item.ID, item.Stock); err != nil {
		return nil, err
	}
	return FromModel(item), nil
}

func (s *service) ListByShop(ctx context.Context, dmID, shopID uuid.UUID) ([]ShopItemDTO, error) {
	if _, err := s.shops.FindByIDForDM(ctx, dmID, shopID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shop")
	}

	items, err := s.repo.ListByShop(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shop items")
	}
	out := make([]ShopItemDTO, 0, len(items))
	for i := range items {
		out = append(out, *FromModel(&items[i]))
	}
	return out, nil
}

func (s *service) Update(ctx context.Context, dmID, itemID uuid.UUID, input UpdateItemInput) (*ShopItemDTO, error) {
	item, err := s.findOwned(ctx, dmID, itemID)
	if err != nil {
		return nil, err
	}

	if input.Price != nil {
		if !types.ValidPrice(*input.Price) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price needs at least one positive denomination")
		}
		item.Price = input.Price.Normalize()
	}
	stockChanged := false
	if input.Stock != nil {
		newStock := *input.Stock
		if newStock != nil && *newStock < 0 {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "stock cannot be negative")
		}
		item.Stock = newStock
		// Editing stock rebaselines the session reset point too.
		if newStock != nil {
			v := *newStock
			item.OriginalStock = &v
		} else {
			item.OriginalStock = nil
		}
		stockChanged = true
	}
	if input.Position != nil {
		item.Position = *input.Position
	}

	if err := s.repo.Update(ctx, item); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update shop item")
	}

	if stockChanged {
		if err := s.syncSessionStock(ctx, item.ShopID, item.ID, item.Stock); err != nil {
			return nil, err
		}
	}
	return FromModel(item), nil
}

func (s *service) Remove(ctx context.Context, dmID, itemID uuid.UUID) error {
	item, err := s.findOwned(ctx, dmID, itemID)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, itemID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete shop item")
	}
	// Drop any live session entry so players stop seeing it as finite.
	return s.syncSessionStock(ctx, item.ShopID, item.ID, nil)
}

// syncSessionStock pushes a stock edit into the live session when the
// parent market is active.
func (s *service) syncSessionStock(ctx context.Context, shopID, itemID uuid.UUID, stock *int) error {
	market, err := s.repo.MarketForShop(ctx, shopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "resolve market")
	}
	if !market.IsActive {
		return nil
	}
	return s.tracker.SetStock(ctx, market.ID, itemID, stock)
}

func (s *service) findOwned(ctx context.Context, dmID, itemID uuid.UUID) (*models.ShopItem, error) {
	item, err := s.repo.FindByIDForDM(ctx, dmID, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop item not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shop item")
	}
	return item, nil
}
