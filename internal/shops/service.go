package shops

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
)

type shopRepository interface {
	Create(ctx context.Context, dto CreateShopDTO) (*models.Shop, error)
	ListByMarket(ctx context.Context, marketID uuid.UUID) ([]models.Shop, error)
	CountByMarket(ctx context.Context, marketID uuid.UUID) (int64, error)
	FindByIDForDM(ctx context.Context, dmID, id uuid.UUID) (*models.Shop, error)
	Update(ctx context.Context, shop *models.Shop) error
	Delete(ctx context.Context, id uuid.UUID) error
}

type marketOwnership interface {
	FindByIDForDM(ctx context.Context, dmID, id uuid.UUID) (*models.Market, error)
}

// Service exposes shop CRUD scoped to the owning DM.
type Service interface {
	Create(ctx context.Context, dmID, marketID uuid.UUID, input CreateShopInput) (*ShopDTO, error)
	ListByMarket(ctx context.Context, dmID, marketID uuid.UUID) ([]ShopDTO, error)
	Get(ctx context.Context, dmID, shopID uuid.UUID) (*ShopDTO, error)
	Update(ctx context.Context, dmID, shopID uuid.UUID, input UpdateShopInput) (*ShopDTO, error)
	Delete(ctx context.Context, dmID, shopID uuid.UUID) error
}

type service struct {
	repo    shopRepository
	markets marketOwnership
	limits  config.LimitsConfig
}

// NewService constructs the shop service.
func NewService(repo shopRepository, markets marketOwnership, limits config.LimitsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shop repository required")
	}
	if markets == nil {
		return nil, fmt.Errorf("market repository required")
	}
	return &service{repo: repo, markets: markets, limits: limits}, nil
}

func (s *service) Create(ctx context.Context, dmID, marketID uuid.UUID, input CreateShopInput) (*ShopDTO, error) {
	if err := s.checkMarketOwned(ctx, dmID, marketID); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "name is required")
	}
	if !input.Category.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shop category")
	}

	count, err := s.repo.CountByMarket(ctx, marketID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "count shops")
	}
	if s.limits.ShopsPerMarket > 0 && count >= int64(s.limits.ShopsPerMarket) {
		return nil, pkgerrors.New(pkgerrors.CodeLimitReached, "shop limit reached").
			WithDetails(map[string]any{"limit": s.limits.ShopsPerMarket})
	}

	position := int(count)
	if input.Position != nil {
		position = *input.Position
	}

	shop, err := s.repo.Create(ctx, CreateShopDTO{
		MarketID:    marketID,
		Name:        name,
		Category:    input.Category,
		Location:    input.Location,
		Shopkeeper:  input.Shopkeeper,
		Description: input.Description,
		Position:    position,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "create shop")
	}
	return FromModel(shop), nil
}

func (s *service) ListByMarket(ctx context.Context, dmID, marketID uuid.UUID) ([]ShopDTO, error) {
	if err := s.checkMarketOwned(ctx, dmID, marketID); err != nil {
		return nil, err
	}

	shops, err := s.repo.ListByMarket(ctx, marketID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list shops")
	}
	out := make([]ShopDTO, 0, len(shops))
	for i := range shops {
		out = append(out, *FromModel(&shops[i]))
	}
	return out, nil
}

func (s *service) Get(ctx context.Context, dmID, shopID uuid.UUID) (*ShopDTO, error) {
	shop, err := s.findOwned(ctx, dmID, shopID)
	if err != nil {
		return nil, err
	}
	return FromModel(shop), nil
}

func (s *service) Update(ctx context.Context, dmID, shopID uuid.UUID, input UpdateShopInput) (*ShopDTO, error) {
	shop, err := s.findOwned(ctx, dmID, shopID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "name cannot be blank")
		}
		shop.Name = name
	}
	if input.Category != nil {
		if !input.Category.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shop category")
		}
		shop.Category = *input.Category
	}
	if input.Location != nil {
		shop.Location = input.Location
	}
	if input.Shopkeeper != nil {
		shop.Shopkeeper = input.Shopkeeper
	}
	if input.Description != nil {
		shop.Description = input.Description
	}
	if input.Position != nil {
		shop.Position = *input.Position
	}

	if err := s.repo.Update(ctx, shop); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update shop")
	}
	return FromModel(shop), nil
}

func (s *service) Delete(ctx context.Context, dmID, shopID uuid.UUID) error {
	if _, err := s.findOwned(ctx, dmID, shopID); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, shopID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "delete shop")
	}
	return nil
}

func (s *service) checkMarketOwned(ctx context.Context, dmID, marketID uuid.UUID) error {
	if _, err := s.markets.FindByIDForDM(ctx, dmID, marketID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "market not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load market")
	}
	return nil
}

func (s *service) findOwned(ctx context.Context, dmID, shopID uuid.UUID) (*models.Shop, error) {
	shop, err := s.repo.FindByIDForDM(ctx, dmID, shopID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load shop")
	}
	return shop, nil
}
