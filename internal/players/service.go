package players

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/tavernkeep/bazaar-backend/internal/markets"
	"github.com/tavernkeep/bazaar-backend/pkg/config"
	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
	"github.com/tavernkeep/bazaar-backend/pkg/logger"
	"github.com/tavernkeep/bazaar-backend/pkg/metrics"
	"github.com/tavernkeep/bazaar-backend/pkg/types"
)

type marketDirectory interface {
	FindByAccessCode(ctx context.Context, code string) (*markets.MarketDTO, error)
}

type shopCatalog interface {
	ListByMarket(ctx context.Context, marketID uuid.UUID) ([]models.Shop, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shop, error)
}

type itemCatalog interface {
	ListByShop(ctx context.Context, shopID uuid.UUID) ([]models.ShopItem, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.ShopItem, error)
	DecrementStock(ctx context.Context, id uuid.UUID, qty int) error
}

type stockLedger interface {
	Snapshot(ctx context.Context, marketID uuid.UUID) (map[uuid.UUID]int, error)
	Consume(ctx context.Context, marketID, shopItemID uuid.UUID, qty int) error
	Restock(ctx context.Context, marketID, shopItemID uuid.UUID, qty int) error
}

// Service is the access-code-scoped player surface. No authentication;
// possession of the access code plus a player token is the whole identity
// model.
type Service interface {
	Enter(ctx context.Context, accessCode, displayName string) (*EnterResult, error)
	Status(ctx context.Context, accessCode string) (*StatusView, error)
	Shops(ctx context.Context, accessCode string) ([]ShopView, error)
	ShopItems(ctx context.Context, accessCode string, shopID uuid.UUID) (*ShopDetailView, error)
	SetCurrency(ctx context.Context, accessCode, token string, amount types.Currency) (*CartView, error)
	Purchase(ctx context.Context, accessCode, token string, input PurchaseInput) (*CartView, error)
	Sell(ctx context.Context, accessCode, token string, input SellInput) (*CartView, error)
	Summary(ctx context.Context, accessCode, token string) (*SummaryView, error)
	Finish(ctx context.Context, accessCode, token string) error
}

type ServiceParams struct {
	Markets   marketDirectory
	Shops     shopCatalog
	Items     itemCatalog
	Stock     stockLedger
	Carts     CartStore
	MarketCfg config.MarketConfig
	Metrics   *metrics.MarketplaceMetrics
	Logger    *logger.Logger
	Now       func() time.Time
}

type service struct {
	markets marketDirectory
	shops   shopCatalog
	items   itemCatalog
	stock   stockLedger
	carts   CartStore
	cfg     config.MarketConfig
	metrics *metrics.MarketplaceMetrics
	logg    *logger.Logger
	now     func() time.Time
}

func NewService(params ServiceParams) (Service, error) {
	if params.Markets == nil || params.Shops == nil || params.Items == nil ||
		params.Stock == nil || params.Carts == nil {
		return nil, fmt.Errorf("player service dependencies incomplete")
	}
	if params.Now == nil {
		params.Now = time.Now
	}
	return &service{
		markets: params.Markets,
		shops:   params.Shops,
		items:   params.Items,
		stock:   params.Stock,
		carts:   params.Carts,
		cfg:     params.MarketCfg,
		metrics: params.Metrics,
		logg:    params.Logger,
		now:     params.Now,
	}, nil
}

func (s *service) Enter(ctx context.Context, accessCode, displayName string) (*EnterResult, error) {
	displayName = strings.TrimSpace(displayName)
	if displayName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "display name is required")
	}
	market, err := s.openMarket(ctx, accessCode)
	if err != nil {
		return nil, err
	}

	cart := &Cart{
		Token:       uuid.NewString(),
		AccessCode:  market.AccessCode,
		DisplayName: displayName,
		EnteredAt:   s.now().UTC(),
	}
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithAccessCode(ctx, market.AccessCode), "player entered market")
	}

	return &EnterResult{
		PlayerToken: cart.Token,
		DisplayName: cart.DisplayName,
		Market:      marketView(market),
	}, nil
}

func (s *service) Status(ctx context.Context, accessCode string) (*StatusView, error) {
	market, err := s.markets.FindByAccessCode(ctx, accessCode)
	if err != nil {
		return nil, err
	}
	players, err := s.carts.CountPlayers(ctx, market.AccessCode)
	if err != nil {
		return nil, err
	}

	view := &StatusView{Players: players}
	if !market.IsActive || market.ActiveUntil == nil {
		return view, nil
	}
	remaining := market.ActiveUntil.Sub(s.now())
	if remaining < 0 {
		remaining = 0
	}
	view.Active = true
	view.SecondsRemaining = int64(remaining / time.Second)
	view.ClosingSoon = remaining <= s.cfg.ClosingSoonWarn
	return view, nil
}

func (s *service) Shops(ctx context.Context, accessCode string) ([]ShopView, error) {
	market, err := s.openMarket(ctx, accessCode)
	if err != nil {
		return nil, err
	}
	shops, err := s.shops.ListByMarket(ctx, market.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing shops")
	}
	out := make([]ShopView, 0, len(shops))
	for _, shop := range shops {
		out = append(out, shopView(shop))
	}
	return out, nil
}

func (s *service) ShopItems(ctx context.Context, accessCode string, shopID uuid.UUID) (*ShopDetailView, error) {
	market, err := s.openMarket(ctx, accessCode)
	if err != nil {
		return nil, err
	}
	shop, err := s.shops.FindByID(ctx, shopID)
	if err != nil || shop.MarketID != market.ID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "shop not found")
	}
	items, err := s.items.ListByShop(ctx, shopID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "listing shop items")
	}
	session, err := s.stock.Snapshot(ctx, market.ID)
	if err != nil {
		return nil, err
	}

	view := &ShopDetailView{Shop: shopView(*shop), Items: make([]ShopItemView, 0, len(items))}
	for _, item := range items {
		stock := item.Stock
		if tracked, ok := session[item.ID]; ok {
			stock = &tracked
		}
		view.Items = append(view.Items, ShopItemView{
			ID:        item.ID,
			Snapshot:  item.Snapshot,
			Price:     item.Price,
			PriceGold: item.Price.GoldValue().StringFixed(2),
			Stock:     stock,
			Position:  item.Position,
		})
	}
	return view, nil
}

func (s *service) SetCurrency(ctx context.Context, accessCode, token string, amount types.Currency) (*CartView, error) {
	if amount.Gold < 0 || amount.Silver < 0 || amount.Copper < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "currency components must be non-negative")
	}
	market, err := s.openMarket(ctx, accessCode)
	if err != nil {
		return nil, err
	}
	cart, err := s.loadCart(ctx, market.AccessCode, token)
	if err != nil {
		return nil, err
	}
	if cart.hasPurchased() {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "currency is locked after the first purchase")
	}

	cart.Starting = amount.Normalize()
	cart.Current = cart.Starting
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	view := cartView(cart)
	return &view, nil
}

func (s *service) Purchase(ctx context.Context, accessCode, token string, input PurchaseInput) (*CartView, error) {
	started := s.now()

	qty := input.Quantity
	if qty == 0 {
		qty = 1
	}
	if qty < 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}
	// Int multiplication in the price math is unchecked; a runaway
	// quantity would wrap the copper total negative and turn the
	// purchase into a credit.
	if qty > MaxPurchaseQuantity {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "quantity exceeds the per-purchase maximum").WithDetails(map[string]any{
			"max": MaxPurchaseQuantity,
		})
	}

	market, err := s.openMarket(ctx, accessCode)
	if err != nil {
		s.metrics.IncRejection("market_closed")
		return nil, err
	}
	cart, err := s.loadCart(ctx, market.AccessCode, token)
	if err != nil {
		return nil, err
	}

	item, err := s.marketItem(ctx, market.ID, input.ShopItemID)
	if err != nil {
		return nil, err
	}

	cost := item.Price.Mul(qty)
	if !cart.Current.Covers(cost) {
		s.metrics.IncRejection("cannot_afford")
		return nil, pkgerrors.New(pkgerrors.CodeCannotAfford, "not enough coin").WithDetails(map[string]any{
			"price_copper": cost.TotalCopper(),
			"held_copper":  cart.Current.TotalCopper(),
		})
	}

	if err := s.stock.Consume(ctx, market.ID, item.ID, qty); err != nil {
		if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeOutOfStock {
			s.metrics.IncRejection("out_of_stock")
		}
		return nil, err
	}

	cart.recordPurchase(PurchaseLine{
		ShopItemID: item.ID,
		Name:       item.Snapshot.Name,
		UnitPrice:  item.Price,
	}, qty, cost)
	if err := s.carts.Save(ctx, cart); err != nil {
		if restockErr := s.stock.Restock(ctx, market.ID, item.ID, qty); restockErr != nil && s.logg != nil {
			s.logg.Error(ctx, "restock after failed cart save", restockErr)
		}
		return nil, err
	}

	// Persisted depletion is advisory (the DM dashboard); the session hash
	// already holds the authoritative count, so a failure here only logs.
	if err := s.items.DecrementStock(ctx, item.ID, qty); err != nil && s.logg != nil {
		s.logg.Error(s.logg.WithMarketID(ctx, market.ID.String()), "persist stock decrement", err)
	}

	s.metrics.IncPurchase()
	s.metrics.ObservePurchaseDuration(s.now().Sub(started))

	view := cartView(cart)
	return &view, nil
}

func (s *service) Sell(ctx context.Context, accessCode, token string, input SellInput) (*CartView, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "item name is required")
	}
	if !types.ValidPrice(input.Price) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "sale price must have a positive denomination")
	}
	market, err := s.openMarket(ctx, accessCode)
	if err != nil {
		return nil, err
	}
	cart, err := s.loadCart(ctx, market.AccessCode, token)
	if err != nil {
		return nil, err
	}

	cart.recordSale(name, input.Price.Normalize(), s.now().UTC())
	if err := s.carts.Save(ctx, cart); err != nil {
		return nil, err
	}
	view := cartView(cart)
	return &view, nil
}

func (s *service) Summary(ctx context.Context, accessCode, token string) (*SummaryView, error) {
	// Summaries stay readable after the market closes so players can
	// transcribe their haul; only the access code has to resolve.
	market, err := s.markets.FindByAccessCode(ctx, accessCode)
	if err != nil {
		return nil, err
	}
	cart, err := s.loadCart(ctx, market.AccessCode, token)
	if err != nil {
		return nil, err
	}
	return &SummaryView{
		CartView:      cartView(cart),
		Spent:         cart.spent(),
		LineItemTotal: cart.lineItemTotal(),
	}, nil
}

func (s *service) Finish(ctx context.Context, accessCode, token string) error {
	market, err := s.markets.FindByAccessCode(ctx, accessCode)
	if err != nil {
		return err
	}
	if err := s.carts.Delete(ctx, market.AccessCode, token); err != nil {
		return err
	}
	if s.logg != nil {
		s.logg.Info(s.logg.WithAccessCode(ctx, market.AccessCode), "player finished session")
	}
	return nil
}

// openMarket resolves the access code and requires a live session.
func (s *service) openMarket(ctx context.Context, accessCode string) (*markets.MarketDTO, error) {
	market, err := s.markets.FindByAccessCode(ctx, accessCode)
	if err != nil {
		return nil, err
	}
	if !market.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "market is closed")
	}
	return market, nil
}

func (s *service) loadCart(ctx context.Context, accessCode, token string) (*Cart, error) {
	cart, err := s.carts.Load(ctx, accessCode, token)
	if err != nil {
		return nil, err
	}
	if cart == nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "player session not found")
	}
	return cart, nil
}

func (s *service) marketItem(ctx context.Context, marketID, itemID uuid.UUID) (*models.ShopItem, error) {
	item, err := s.items.FindByID(ctx, itemID)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	shop, err := s.shops.FindByID(ctx, item.ShopID)
	if err != nil || shop.MarketID != marketID {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "item not found")
	}
	return item, nil
}

func marketView(market *markets.MarketDTO) MarketView {
	return MarketView{
		ID:          market.ID,
		Name:        market.Name,
		Description: market.Description,
		ActiveUntil: market.ActiveUntil,
	}
}
