package players

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	redisclient "github.com/tavernkeep/bazaar-backend/pkg/redis"
	"github.com/tavernkeep/bazaar-backend/pkg/types"
)

type fakeKV struct {
	values map[string]string
	ttls   map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.values[key] = string(v)
	case string:
		f.values[key] = v
	}
	f.ttls[key] = ttl
	return nil
}

func (f *fakeKV) Get(_ context.Context, key string) (string, error) {
	value, ok := f.values[key]
	if !ok {
		return "", redisclient.Nil
	}
	return value, nil
}

func (f *fakeKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeKV) ScanKeys(_ context.Context, pattern string) ([]string, error) {
	prefix := strings.TrimSuffix(pattern, "*")
	var out []string
	for key := range f.values {
		if strings.HasPrefix(key, prefix) {
			out = append(out, key)
		}
	}
	return out, nil
}

func TestRedisCartStoreRoundTrip(t *testing.T) {
	kv := newFakeKV()
	store := &RedisCartStore{kv: kv, ttl: 90 * time.Minute}
	ctx := context.Background()

	cart := &Cart{
		Token:       uuid.NewString(),
		AccessCode:  "night-market-abc123",
		DisplayName: "Vex",
		Starting:    types.Currency{Gold: 12},
		Current:     types.Currency{Gold: 7, Silver: 5},
		Purchases: []PurchaseLine{{
			ShopItemID: uuid.New(), Name: "Lantern", UnitPrice: types.Price{Silver: 45},
			Quantity: 1, TotalSpent: types.Currency{Gold: 4, Silver: 5},
		}},
		EnteredAt: time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC),
	}
	if err := store.Save(ctx, cart); err != nil {
		t.Fatalf("save: %v", err)
	}

	key := redisclient.PlayerCartKey(cart.AccessCode, cart.Token)
	if kv.ttls[key] != 90*time.Minute {
		t.Fatalf("expected session ttl on cart key, got %v", kv.ttls[key])
	}

	loaded, err := store.Load(ctx, cart.AccessCode, cart.Token)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded == nil || loaded.DisplayName != "Vex" || len(loaded.Purchases) != 1 {
		t.Fatalf("cart did not round-trip: %+v", loaded)
	}
	if loaded.Current.TotalCopper() != cart.Current.TotalCopper() {
		t.Fatalf("currency mismatch after round trip")
	}

	count, err := store.CountPlayers(ctx, cart.AccessCode)
	if err != nil || count != 1 {
		t.Fatalf("expected one cart, got %d (%v)", count, err)
	}

	if err := store.Delete(ctx, cart.AccessCode, cart.Token); err != nil {
		t.Fatalf("delete: %v", err)
	}
	missing, err := store.Load(ctx, cart.AccessCode, cart.Token)
	if err != nil || missing != nil {
		t.Fatalf("expected missing cart after delete, got %+v (%v)", missing, err)
	}
}
