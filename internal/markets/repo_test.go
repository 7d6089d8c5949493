package markets

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/tavernkeep/bazaar-backend/pkg/db/models"
	"github.com/tavernkeep/bazaar-backend/pkg/types"
)

func setupMarketsTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:markets_"+uuid.NewString()+"?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	for _, ddl := range []string{
		`CREATE TABLE markets (
  id TEXT PRIMARY KEY,
  dm_id TEXT NOT NULL,
  name TEXT NOT NULL,
  description TEXT,
  access_code TEXT NOT NULL,
  is_active INTEGER NOT NULL DEFAULT 0,
  active_until DATETIME,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE shops (
  id TEXT PRIMARY KEY,
  market_id TEXT NOT NULL,
  name TEXT NOT NULL,
  category TEXT NOT NULL,
  location TEXT,
  shopkeeper TEXT,
  description TEXT,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
		`CREATE TABLE shop_items (
  id TEXT PRIMARY KEY,
  shop_id TEXT NOT NULL,
  library_item_id TEXT NOT NULL,
  price TEXT NOT NULL,
  stock INTEGER,
  original_stock INTEGER,
  snapshot TEXT NOT NULL,
  position INTEGER NOT NULL DEFAULT 0,
  created_at DATETIME,
  updated_at DATETIME
);`,
	} {
		require.NoError(t, db.Exec(ddl).Error)
	}
	return db
}

func seedShopItem(t *testing.T, db *gorm.DB, shopID uuid.UUID, stock, original *int) models.ShopItem {
	t.Helper()
	item := models.ShopItem{
		ID:            uuid.New(),
		ShopID:        shopID,
		LibraryItemID: uuid.New(),
		Price:         types.Price{Gold: 1},
		Stock:         stock,
		OriginalStock: original,
		Snapshot:      types.ItemSnapshot{Name: "Torch", Type: "gear", Source: "official"},
	}
	require.NoError(t, db.Create(&item).Error)
	return item
}

func TestRepoResetStocks(t *testing.T) {
	t.Parallel()

	db := setupMarketsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	marketID := uuid.New()
	require.NoError(t, db.Create(&models.Market{
		ID: marketID, DMID: uuid.New(), Name: "Bazaar", AccessCode: "bazaar-abc123",
	}).Error)
	shop := models.Shop{ID: uuid.New(), MarketID: marketID, Name: "Forge", Category: "blacksmith"}
	require.NoError(t, db.Create(&shop).Error)

	depleted, original := 0, 5
	finite := seedShopItem(t, db, shop.ID, &depleted, &original)
	unlimited := seedShopItem(t, db, shop.ID, nil, nil)

	otherShop := models.Shop{ID: uuid.New(), MarketID: uuid.New(), Name: "Elsewhere", Category: "general_store"}
	require.NoError(t, db.Create(&otherShop).Error)
	zero := 0
	three := 3
	outside := seedShopItem(t, db, otherShop.ID, &zero, &three)

	require.NoError(t, repo.ResetStocks(ctx, marketID))

	var reloadedFinite models.ShopItem
	require.NoError(t, db.First(&reloadedFinite, "id = ?", finite.ID).Error)
	require.NotNil(t, reloadedFinite.Stock)
	require.Equal(t, 5, *reloadedFinite.Stock)

	var reloadedUnlimited models.ShopItem
	require.NoError(t, db.First(&reloadedUnlimited, "id = ?", unlimited.ID).Error)
	require.Nil(t, reloadedUnlimited.Stock)

	// Items in other markets are untouched.
	var reloadedOutside models.ShopItem
	require.NoError(t, db.First(&reloadedOutside, "id = ?", outside.ID).Error)
	require.NotNil(t, reloadedOutside.Stock)
	require.Equal(t, 0, *reloadedOutside.Stock)
}

func TestRepoListMarketItems(t *testing.T) {
	t.Parallel()

	db := setupMarketsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	marketID := uuid.New()
	shopA := models.Shop{ID: uuid.New(), MarketID: marketID, Name: "A", Category: "alchemist"}
	shopB := models.Shop{ID: uuid.New(), MarketID: marketID, Name: "B", Category: "jeweler"}
	require.NoError(t, db.Create(&shopA).Error)
	require.NoError(t, db.Create(&shopB).Error)

	one := 1
	seedShopItem(t, db, shopA.ID, &one, &one)
	seedShopItem(t, db, shopB.ID, nil, nil)
	seedShopItem(t, db, uuid.New(), &one, &one) // different market entirely

	items, err := repo.ListMarketItems(ctx, marketID)
	require.NoError(t, err)
	require.Len(t, items, 2)
}

func TestRepoFindByAccessCodeOldestWins(t *testing.T) {
	t.Parallel()

	db := setupMarketsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	older := models.Market{
		ID: uuid.New(), DMID: uuid.New(), Name: "First", AccessCode: "dup-code",
		CreatedAt: time.Now().Add(-time.Hour),
	}
	newer := models.Market{
		ID: uuid.New(), DMID: uuid.New(), Name: "Second", AccessCode: "dup-code",
		CreatedAt: time.Now(),
	}
	require.NoError(t, db.Create(&newer).Error)
	require.NoError(t, db.Create(&older).Error)

	found, err := repo.FindByAccessCode(ctx, "dup-code")
	require.NoError(t, err)
	require.Equal(t, older.ID, found.ID)
}

func TestRepoSetActivation(t *testing.T) {
	t.Parallel()

	db := setupMarketsTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()

	market := models.Market{ID: uuid.New(), DMID: uuid.New(), Name: "M", AccessCode: "m-x"}
	require.NoError(t, db.Create(&market).Error)

	until := time.Now().Add(3 * time.Hour).UTC()
	require.NoError(t, repo.SetActivation(ctx, market.ID, true, &until))

	var reloaded models.Market
	require.NoError(t, db.First(&reloaded, "id = ?", market.ID).Error)
	require.True(t, reloaded.IsActive)
	require.NotNil(t, reloaded.ActiveUntil)

	require.NoError(t, repo.SetActivation(ctx, market.ID, false, nil))
	var deactivated models.Market
	require.NoError(t, db.First(&deactivated, "id = ?", market.ID).Error)
	require.False(t, deactivated.IsActive)
	require.Nil(t, deactivated.ActiveUntil)
}
