package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/tavernkeep/bazaar-backend/pkg/config"
	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
	"github.com/tavernkeep/bazaar-backend/pkg/enums"
	"github.com/tavernkeep/bazaar-backend/pkg/types"
)

type inventoryFixture struct {
	svc      Service
	repo     *stubItemRepo
	tracker  *stubSessionStock
	dmID     uuid.UUID
	shopID   uuid.UUID
	marketID uuid.UUID
	libItem  *models.LibraryItem
}

func newInventoryFixture(t *testing.T, limit int, marketActive bool) *inventoryFixture {
	t.Helper()
	dmID := uuid.New()
	shopID := uuid.New()
	marketID := uuid.New()

	libItem := &models.LibraryItem{
		ID: uuid.New(), DMID: dmID, Name: "Healing Potion",
		Type: enums.ItemTypeConsumable, Source: enums.ItemSourceOfficial,
	}
	repo := newStubItemRepo()
	repo.markets[shopID] = &models.Market{ID: marketID, DMID: dmID, IsActive: marketActive}
	tracker := &stubSessionStock{}

	svc, err := NewService(
		repo,
		&stubShops{owned: map[uuid.UUID]uuid.UUID{shopID: dmID}},
		&stubLibrary{items: map[uuid.UUID]*models.LibraryItem{libItem.ID: libItem}},
		tracker,
		config.LimitsConfig{ItemsPerShop: limit},
	)
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &inventoryFixture{
		svc: svc, repo: repo, tracker: tracker,
		dmID: dmID, shopID: shopID, marketID: marketID, libItem: libItem,
	}
}

func TestAddItemSnapshotsLibraryData(t *testing.T) {
	f := newInventoryFixture(t, 10, false)
	stock := 3

	dto, err := f.svc.Add(context.Background(), f.dmID, f.shopID, AddItemInput{
		LibraryItemID: f.libItem.ID,
		Price:         types.Price{Gold: 5},
		Stock:         &stock,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if dto.Snapshot.Name != "Healing Potion" || dto.Snapshot.Type != "consumable" {
		t.Fatalf("snapshot not taken from library item: %+v", dto.Snapshot)
	}
	if dto.OriginalStock == nil || *dto.OriginalStock != 3 {
		t.Fatalf("original stock should baseline to initial stock")
	}
	if dto.PriceGold != "5.00" {
		t.Fatalf("expected 5.00 gold display value, got %s", dto.PriceGold)
	}
}

func TestAddItemRejectsZeroPrice(t *testing.T) {
	f := newInventoryFixture(t, 10, false)

	_, err := f.svc.Add(context.Background(), f.dmID, f.shopID, AddItemInput{
		LibraryItemID: f.libItem.ID,
		Price:         types.Price{},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestAddItemRejectsForeignLibraryItem(t *testing.T) {
	f := newInventoryFixture(t, 10, false)

	_, err := f.svc.Add(context.Background(), f.dmID, f.shopID, AddItemInput{
		LibraryItemID: uuid.New(),
		Price:         types.Price{Silver: 5},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestAddItemEnforcesLimit(t *testing.T) {
	f := newInventoryFixture(t, 1, false)
	ctx := context.Background()

	if _, err := f.svc.Add(ctx, f.dmID, f.shopID, AddItemInput{
		LibraryItemID: f.libItem.ID, Price: types.Price{Copper: 1},
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	_, err := f.svc.Add(ctx, f.dmID, f.shopID, AddItemInput{
		LibraryItemID: f.libItem.ID, Price: types.Price{Copper: 1},
	})
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeLimitReached {
		t.Fatalf("expected limit error, got %v", err)
	}
}

func TestUpdateStockSyncsActiveSession(t *testing.T) {
	f := newInventoryFixture(t, 10, true)
	one := 1
	dto, err := f.svc.Add(context.Background(), f.dmID, f.shopID, AddItemInput{
		LibraryItemID: f.libItem.ID, Price: types.Price{Gold: 1}, Stock: &one,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	five := 5
	newStock := &five
	updated, err := f.svc.Update(context.Background(), f.dmID, dto.ID, UpdateItemInput{Stock: &newStock})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Stock == nil || *updated.Stock != 5 {
		t.Fatalf("stock not updated: %+v", updated.Stock)
	}
	if updated.OriginalStock == nil || *updated.OriginalStock != 5 {
		t.Fatalf("original stock should rebaseline: %+v", updated.OriginalStock)
	}

	got, ok := f.tracker.set[dto.ID]
	if !ok || got == nil || *got != 5 {
		t.Fatalf("session stock should sync to 5, got %v (ok=%v)", got, ok)
	}

	// Switching to unlimited untracks the session entry.
	var unlimited *int
	if _, err := f.svc.Update(context.Background(), f.dmID, dto.ID, UpdateItemInput{Stock: &unlimited}); err != nil {
		t.Fatalf("update unlimited: %v", err)
	}
	if got, ok := f.tracker.set[dto.ID]; !ok || got != nil {
		t.Fatalf("expected nil session entry, got %v", got)
	}
}

func TestUpdateStockInactiveMarketSkipsSession(t *testing.T) {
	f := newInventoryFixture(t, 10, false)
	one := 1
	dto, err := f.svc.Add(context.Background(), f.dmID, f.shopID, AddItemInput{
		LibraryItemID: f.libItem.ID, Price: types.Price{Gold: 1}, Stock: &one,
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	if len(f.tracker.set) != 0 {
		t.Fatalf("inactive market must not touch session stock")
	}

	two := 2
	newStock := &two
	if _, err := f.svc.Update(context.Background(), f.dmID, dto.ID, UpdateItemInput{Stock: &newStock}); err != nil {
		t.Fatalf("update: %v", err)
	}
	if len(f.tracker.set) != 0 {
		t.Fatalf("inactive market must not sync session stock")
	}
}

// --- stubs ---

type stubShops struct {
	owned map[uuid.UUID]uuid.UUID
}

func (s *stubShops) FindByIDForDM(_ context.Context, dmID, id uuid.UUID) (*models.Shop, error) {
	if owner, ok := s.owned[id]; ok && owner == dmID {
		return &models.Shop{ID: id}, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubLibrary struct {
	items map[uuid.UUID]*models.LibraryItem
}

func (s *stubLibrary) FindByIDForDM(_ context.Context, dmID, id uuid.UUID) (*models.LibraryItem, error) {
	if item, ok := s.items[id]; ok && item.DMID == dmID {
		return item, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubSessionStock struct {
	set map[uuid.UUID]*int
}

func (s *stubSessionStock) SetStock(_ context.Context, _, itemID uuid.UUID, stock *int) error {
	if s.set == nil {
		s.set = map[uuid.UUID]*int{}
	}
	s.set[itemID] = stock
	return nil
}

type stubItemRepo struct {
	items   map[uuid.UUID]*models.ShopItem
	markets map[uuid.UUID]*models.Market // shopID -> market
	owners  map[uuid.UUID]uuid.UUID      // itemID -> dmID (via market)
}

func newStubItemRepo() *stubItemRepo {
	return &stubItemRepo{
		items:   map[uuid.UUID]*models.ShopItem{},
		markets: map[uuid.UUID]*models.Market{},
		owners:  map[uuid.UUID]uuid.UUID{},
	}
}

func (s *stubItemRepo) Create(_ context.Context, dto CreateShopItemDTO) (*models.ShopItem, error) {
	item := dto.ToModel()
	item.ID = uuid.New()
	s.items[item.ID] = item
	if market, ok := s.markets[dto.ShopID]; ok {
		s.owners[item.ID] = market.DMID
	}
	return item, nil
}

func (s *stubItemRepo) ListByShop(_ context.Context, shopID uuid.UUID) ([]models.ShopItem, error) {
	var out []models.ShopItem
	for _, item := range s.items {
		if item.ShopID == shopID {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *stubItemRepo) CountByShop(_ context.Context, shopID uuid.UUID) (int64, error) {
	var n int64
	for _, item := range s.items {
		if item.ShopID == shopID {
			n++
		}
	}
	return n, nil
}

func (s *stubItemRepo) FindByIDForDM(_ context.Context, dmID, id uuid.UUID) (*models.ShopItem, error) {
	if item, ok := s.items[id]; ok && s.owners[id] == dmID {
		copied := *item
		return &copied, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubItemRepo) MarketForShop(_ context.Context, shopID uuid.UUID) (*models.Market, error) {
	if market, ok := s.markets[shopID]; ok {
		return market, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubItemRepo) Update(_ context.Context, item *models.ShopItem) error {
	if stored, ok := s.items[item.ID]; ok {
		*stored = *item
	}
	return nil
}

func (s *stubItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.items, id)
	return nil
}
