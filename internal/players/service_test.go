package players

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavernkeep/bazaar-backend/internal/markets"
	"github.com/tavernkeep/bazaar-backend/pkg/config"
	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
	"github.com/tavernkeep/bazaar-backend/pkg/types"
)

var fixedNow = time.Date(2026, 3, 14, 19, 0, 0, 0, time.UTC)

type playerFixture struct {
	svc     Service
	markets *stubDirectory
	items   *stubItems
	stock   *stubStockLedger
	carts   *memoryCartStore

	marketID uuid.UUID
	shopID   uuid.UUID
	code     string
}

func newPlayerFixture(t *testing.T) *playerFixture {
	t.Helper()

	marketID := uuid.New()
	shopID := uuid.New()
	until := fixedNow.Add(3 * time.Hour)

	dir := &stubDirectory{markets: map[string]*markets.MarketDTO{
		"grand-bazaar-x7k2mp": {
			ID: marketID, Name: "Grand Bazaar", AccessCode: "grand-bazaar-x7k2mp",
			IsActive: true, ActiveUntil: &until,
		},
	}}
	shops := &stubShops{shops: map[uuid.UUID]*models.Shop{
		shopID: {ID: shopID, MarketID: marketID, Name: "Forge", Category: "blacksmith"},
	}}
	items := &stubItems{items: map[uuid.UUID]*models.ShopItem{}}
	stock := &stubStockLedger{tracked: map[uuid.UUID]map[uuid.UUID]int{}}
	carts := newMemoryCartStore()

	svc, err := NewService(ServiceParams{
		Markets:   dir,
		Shops:     shops,
		Items:     items,
		Stock:     stock,
		Carts:     carts,
		MarketCfg: config.MarketConfig{ActivationWindow: 3 * time.Hour, ClosingSoonWarn: 5 * time.Minute},
		Now:       func() time.Time { return fixedNow },
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &playerFixture{
		svc: svc, markets: dir, items: items, stock: stock, carts: carts,
		marketID: marketID, shopID: shopID, code: "grand-bazaar-x7k2mp",
	}
}

func (f *playerFixture) addItem(t *testing.T, name string, price types.Price, stock *int) uuid.UUID {
	t.Helper()
	id := uuid.New()
	f.items.items[id] = &models.ShopItem{
		ID: id, ShopID: f.shopID, LibraryItemID: uuid.New(),
		Price: price, Stock: stock, OriginalStock: stock,
		Snapshot: types.ItemSnapshot{Name: name, Type: "gear", Source: "official"},
	}
	if stock != nil {
		if f.stock.tracked[f.marketID] == nil {
			f.stock.tracked[f.marketID] = map[uuid.UUID]int{}
		}
		f.stock.tracked[f.marketID][id] = *stock
	}
	return id
}

func (f *playerFixture) enter(t *testing.T, name string) string {
	t.Helper()
	result, err := f.svc.Enter(context.Background(), f.code, name)
	if err != nil {
		t.Fatalf("enter: %v", err)
	}
	return result.PlayerToken
}

func TestEnterRequiresOpenMarket(t *testing.T) {
	f := newPlayerFixture(t)
	f.markets.markets[f.code].IsActive = false

	_, err := f.svc.Enter(context.Background(), f.code, "Rogue")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestEnterUnknownCode(t *testing.T) {
	f := newPlayerFixture(t)

	_, err := f.svc.Enter(context.Background(), "no-such-code", "Rogue")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetCurrencyLockedAfterFirstPurchase(t *testing.T) {
	f := newPlayerFixture(t)
	itemID := f.addItem(t, "Dagger", types.Price{Gold: 2}, nil)
	token := f.enter(t, "Bard")
	ctx := context.Background()

	// Overwriting before the first purchase is allowed.
	if _, err := f.svc.SetCurrency(ctx, f.code, token, types.Currency{Gold: 5}); err != nil {
		t.Fatalf("set currency: %v", err)
	}
	if _, err := f.svc.SetCurrency(ctx, f.code, token, types.Currency{Gold: 10}); err != nil {
		t.Fatalf("overwrite currency: %v", err)
	}

	if _, err := f.svc.Purchase(ctx, f.code, token, PurchaseInput{ShopItemID: itemID}); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	_, err := f.svc.SetCurrency(ctx, f.code, token, types.Currency{Gold: 100})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected locked currency, got %v", err)
	}
}

func TestPurchaseRejectsUnaffordable(t *testing.T) {
	f := newPlayerFixture(t)
	itemID := f.addItem(t, "Plate Armor", types.Price{Gold: 50}, nil)
	token := f.enter(t, "Monk")
	ctx := context.Background()

	if _, err := f.svc.SetCurrency(ctx, f.code, token, types.Currency{Gold: 10}); err != nil {
		t.Fatalf("set currency: %v", err)
	}
	_, err := f.svc.Purchase(ctx, f.code, token, PurchaseInput{ShopItemID: itemID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeCannotAfford {
		t.Fatalf("expected cannot afford, got %v", err)
	}

	// Rejection leaves the session stock untouched.
	if f.stock.consumed != 0 {
		t.Fatalf("no stock should be consumed on rejection")
	}
}

func TestPurchaseRejectsOverflowQuantity(t *testing.T) {
	f := newPlayerFixture(t)
	itemID := f.addItem(t, "Torch", types.Price{Gold: 1}, nil)
	token := f.enter(t, "Bard")
	ctx := context.Background()

	// A quantity past the cap would wrap the copper multiplication
	// negative and credit the buyer instead of charging them.
	_, err := f.svc.Purchase(ctx, f.code, token, PurchaseInput{ShopItemID: itemID, Quantity: 100000000000000000})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	summary, err := f.svc.Summary(ctx, f.code, token)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if summary.Current.TotalCopper() != 0 {
		t.Fatalf("cart balance must be untouched, got %d copper", summary.Current.TotalCopper())
	}
	if len(summary.Purchases) != 0 {
		t.Fatalf("no purchase line should be recorded")
	}

	if _, err := f.svc.Purchase(ctx, f.code, token, PurchaseInput{ShopItemID: itemID, Quantity: MaxPurchaseQuantity + 1}); pkgerrors.As(err) == nil {
		t.Fatalf("expected rejection just past the cap, got %v", err)
	}
}

func TestPurchaseIncrementsExistingLine(t *testing.T) {
	f := newPlayerFixture(t)
	itemID := f.addItem(t, "Ration", types.Price{Silver: 5}, nil)
	token := f.enter(t, "Ranger")
	ctx := context.Background()

	if _, err := f.svc.SetCurrency(ctx, f.code, token, types.Currency{Gold: 2}); err != nil {
		t.Fatalf("set currency: %v", err)
	}
	if _, err := f.svc.Purchase(ctx, f.code, token, PurchaseInput{ShopItemID: itemID, Quantity: 2}); err != nil {
		t.Fatalf("first purchase: %v", err)
	}
	view, err := f.svc.Purchase(ctx, f.code, token, PurchaseInput{ShopItemID: itemID})
	if err != nil {
		t.Fatalf("second purchase: %v", err)
	}

	if len(view.Purchases) != 1 {
		t.Fatalf("expected one accumulated line, got %d", len(view.Purchases))
	}
	line := view.Purchases[0]
	if line.Quantity != 3 {
		t.Fatalf("expected quantity 3, got %d", line.Quantity)
	}
	if got := line.TotalSpent.TotalCopper(); got != 150 {
		t.Fatalf("expected cumulative 150 copper, got %d", got)
	}
	if got := view.Current.TotalCopper(); got != 50 {
		t.Fatalf("expected 50 copper remaining, got %d", got)
	}
}

func TestPurchaseDecrementsPersistedStock(t *testing.T) {
	f := newPlayerFixture(t)
	three := 3
	itemID := f.addItem(t, "Potion", types.Price{Gold: 1}, &three)
	token := f.enter(t, "Cleric")
	ctx := context.Background()

	if _, err := f.svc.SetCurrency(ctx, f.code, token, types.Currency{Gold: 5}); err != nil {
		t.Fatalf("set currency: %v", err)
	}
	if _, err := f.svc.Purchase(ctx, f.code, token, PurchaseInput{ShopItemID: itemID, Quantity: 2}); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if got := f.items.decremented[itemID]; got != 2 {
		t.Fatalf("persisted stock should be decremented by 2, got %d", got)
	}
}

func TestSellAddsCurrencyAndSummaryDiverges(t *testing.T) {
	f := newPlayerFixture(t)
	itemID := f.addItem(t, "Sword", types.Price{Gold: 4}, nil)
	token := f.enter(t, "Fighter")
	ctx := context.Background()

	if _, err := f.svc.SetCurrency(ctx, f.code, token, types.Currency{Gold: 10}); err != nil {
		t.Fatalf("set currency: %v", err)
	}
	if _, err := f.svc.Purchase(ctx, f.code, token, PurchaseInput{ShopItemID: itemID}); err != nil {
		t.Fatalf("purchase: %v", err)
	}
	if _, err := f.svc.Sell(ctx, f.code, token, SellInput{Name: "Old Helm", Price: types.Currency{Gold: 1}}); err != nil {
		t.Fatalf("sell: %v", err)
	}

	summary, err := f.svc.Summary(ctx, f.code, token)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	// 10gp start, 4gp spent, 1gp earned: pool-derived spent is 3gp while
	// the purchase lines still sum to 4gp.
	if got := summary.Spent.TotalCopper(); got != 300 {
		t.Fatalf("expected derived spent 300 copper, got %d", got)
	}
	if got := summary.LineItemTotal.TotalCopper(); got != 400 {
		t.Fatalf("expected line-item total 400 copper, got %d", got)
	}
	if len(summary.Sales) != 1 || summary.Sales[0].Name != "Old Helm" {
		t.Fatalf("expected sold list entry, got %+v", summary.Sales)
	}
}

func TestShopItemsUseSessionStock(t *testing.T) {
	f := newPlayerFixture(t)
	five := 5
	itemID := f.addItem(t, "Arrow Bundle", types.Price{Copper: 50}, &five)
	f.addItem(t, "Waterskin", types.Price{Silver: 2}, nil)
	f.stock.tracked[f.marketID][itemID] = 3 // session depletion

	view, err := f.svc.ShopItems(context.Background(), f.code, f.shopID)
	if err != nil {
		t.Fatalf("shop items: %v", err)
	}
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(view.Items))
	}
	for _, item := range view.Items {
		switch item.Snapshot.Name {
		case "Arrow Bundle":
			if item.Stock == nil || *item.Stock != 3 {
				t.Fatalf("expected session stock 3, got %v", item.Stock)
			}
		case "Waterskin":
			if item.Stock != nil {
				t.Fatalf("unlimited item should report nil stock")
			}
		}
	}
}

func TestStatusReportsRemainingWindow(t *testing.T) {
	f := newPlayerFixture(t)
	f.enter(t, "Wizard")
	f.enter(t, "Druid")

	status, err := f.svc.Status(context.Background(), f.code)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.Active {
		t.Fatalf("expected active status")
	}
	if status.SecondsRemaining != int64(3*time.Hour/time.Second) {
		t.Fatalf("unexpected seconds remaining %d", status.SecondsRemaining)
	}
	if status.ClosingSoon {
		t.Fatalf("three hours out is not closing soon")
	}
	if status.Players != 2 {
		t.Fatalf("expected 2 players, got %d", status.Players)
	}

	// Shrink the window to inside the warning threshold.
	until := fixedNow.Add(4 * time.Minute)
	f.markets.markets[f.code].ActiveUntil = &until
	status, err = f.svc.Status(context.Background(), f.code)
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if !status.ClosingSoon {
		t.Fatalf("expected closing-soon warning")
	}
}

func TestFinishDeletesCart(t *testing.T) {
	f := newPlayerFixture(t)
	token := f.enter(t, "Paladin")
	ctx := context.Background()

	if err := f.svc.Finish(ctx, f.code, token); err != nil {
		t.Fatalf("finish: %v", err)
	}
	_, err := f.svc.Summary(ctx, f.code, token)
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after finish, got %v", err)
	}
}

// The full session walk from the dashboard's point of view: finite stock
// runs out after two purchases and the coin math stays exact in copper.
func TestEndToEndPurchaseSession(t *testing.T) {
	f := newPlayerFixture(t)
	two := 2
	itemID := f.addItem(t, "Flametongue", types.Price{Gold: 5}, &two)
	token := f.enter(t, "Sorcerer")
	ctx := context.Background()

	if _, err := f.svc.SetCurrency(ctx, f.code, token, types.Currency{Gold: 10}); err != nil {
		t.Fatalf("set currency: %v", err)
	}

	for i := 0; i < 2; i++ {
		if _, err := f.svc.Purchase(ctx, f.code, token, PurchaseInput{ShopItemID: itemID}); err != nil {
			t.Fatalf("purchase %d: %v", i+1, err)
		}
	}

	_, err := f.svc.Purchase(ctx, f.code, token, PurchaseInput{ShopItemID: itemID})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeOutOfStock {
		t.Fatalf("third purchase should be out of stock, got %v", err)
	}

	summary, err := f.svc.Summary(ctx, f.code, token)
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if got := summary.Spent.TotalCopper(); got != 1000 {
		t.Fatalf("expected spent 1000 copper, got %d", got)
	}
	if !summary.Current.IsZero() {
		t.Fatalf("expected empty purse, got %+v", summary.Current)
	}
	if len(summary.Purchases) != 1 || summary.Purchases[0].Quantity != 2 {
		t.Fatalf("unexpected purchase lines %+v", summary.Purchases)
	}
}

// --- stubs ---

type stubDirectory struct {
	markets map[string]*markets.MarketDTO
}

func (s *stubDirectory) FindByAccessCode(_ context.Context, code string) (*markets.MarketDTO, error) {
	if market, ok := s.markets[code]; ok {
		return market, nil
	}
	return nil, pkgerrors.New(pkgerrors.CodeNotFound, "unknown access code")
}

type stubShops struct {
	shops map[uuid.UUID]*models.Shop
}

func (s *stubShops) ListByMarket(_ context.Context, marketID uuid.UUID) ([]models.Shop, error) {
	var out []models.Shop
	for _, shop := range s.shops {
		if shop.MarketID == marketID {
			out = append(out, *shop)
		}
	}
	return out, nil
}

func (s *stubShops) FindByID(_ context.Context, id uuid.UUID) (*models.Shop, error) {
	if shop, ok := s.shops[id]; ok {
		return shop, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubItems struct {
	items       map[uuid.UUID]*models.ShopItem
	decremented map[uuid.UUID]int
}

func (s *stubItems) ListByShop(_ context.Context, shopID uuid.UUID) ([]models.ShopItem, error) {
	var out []models.ShopItem
	for _, item := range s.items {
		if item.ShopID == shopID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *stubItems) FindByID(_ context.Context, id uuid.UUID) (*models.ShopItem, error) {
	if item, ok := s.items[id]; ok {
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubItems) DecrementStock(_ context.Context, id uuid.UUID, qty int) error {
	if s.decremented == nil {
		s.decremented = map[uuid.UUID]int{}
	}
	s.decremented[id] += qty
	return nil
}

type stubStockLedger struct {
	tracked  map[uuid.UUID]map[uuid.UUID]int
	consumed int
}

func (s *stubStockLedger) Snapshot(_ context.Context, marketID uuid.UUID) (map[uuid.UUID]int, error) {
	out := map[uuid.UUID]int{}
	for id, stock := range s.tracked[marketID] {
		out[id] = stock
	}
	return out, nil
}

func (s *stubStockLedger) Consume(_ context.Context, marketID, shopItemID uuid.UUID, qty int) error {
	fields, ok := s.tracked[marketID]
	if !ok {
		return nil
	}
	stock, ok := fields[shopItemID]
	if !ok {
		return nil // unlimited
	}
	if stock < qty {
		return pkgerrors.New(pkgerrors.CodeOutOfStock, "item is out of stock")
	}
	fields[shopItemID] = stock - qty
	s.consumed += qty
	return nil
}

func (s *stubStockLedger) Restock(_ context.Context, marketID, shopItemID uuid.UUID, qty int) error {
	if fields, ok := s.tracked[marketID]; ok {
		if _, tracked := fields[shopItemID]; tracked {
			fields[shopItemID] += qty
		}
	}
	return nil
}

type memoryCartStore struct {
	carts map[string]*Cart
}

func newMemoryCartStore() *memoryCartStore {
	return &memoryCartStore{carts: map[string]*Cart{}}
}

func (m *memoryCartStore) key(accessCode, token string) string {
	return accessCode + "/" + token
}

func (m *memoryCartStore) Save(_ context.Context, cart *Cart) error {
	copied := *cart
	m.carts[m.key(cart.AccessCode, cart.Token)] = &copied
	return nil
}

func (m *memoryCartStore) Load(_ context.Context, accessCode, token string) (*Cart, error) {
	cart, ok := m.carts[m.key(accessCode, token)]
	if !ok {
		return nil, nil
	}
	copied := *cart
	return &copied, nil
}

func (m *memoryCartStore) Delete(_ context.Context, accessCode, token string) error {
	delete(m.carts, m.key(accessCode, token))
	return nil
}

func (m *memoryCartStore) CountPlayers(_ context.Context, accessCode string) (int, error) {
	count := 0
	for key := range m.carts {
		if len(key) > len(accessCode) && key[:len(accessCode)+1] == accessCode+"/" {
			count++
		}
	}
	return count, nil
}

var _ CartStore = (*memoryCartStore)(nil)
