package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tavernkeep/bazaar-backend/pkg/config"
	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
	redisclient "github.com/tavernkeep/bazaar-backend/pkg/redis"
)

// stockStore is the slice of the redis client the tracker needs.
type stockStore interface {
	HSet(ctx context.Context, key string, pairs ...any) error
	HGet(ctx context.Context, key, field string) (string, error)
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HIncrByExisting(ctx context.Context, key, field string, delta int64) (int64, bool, error)
	HDel(ctx context.Context, key string, fields ...string) error
	Expire(ctx context.Context, key string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// StockItem seeds one finite-stock shop item into a session.
type StockItem struct {
	ShopItemID uuid.UUID
	Stock      int
}

// Tracker keeps per-session item counts in one redis hash per market.
// Items without a field are unlimited; the hash carries a TTL so
// abandoned sessions clean themselves up.
type Tracker struct {
	store stockStore
	ttl   time.Duration
}

// NewTracker constructs a session stock tracker backed by redis.
func NewTracker(client *redisclient.Client, cfg config.MarketConfig) (*Tracker, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	ttl := cfg.SessionTTL()
	if ttl <= 0 {
		return nil, fmt.Errorf("session ttl must be positive")
	}
	return &Tracker{store: client, ttl: ttl}, nil
}

// newTrackerWithStore is the test seam.
func newTrackerWithStore(store stockStore, ttl time.Duration) *Tracker {
	return &Tracker{store: store, ttl: ttl}
}

// Seed resets the market's hash to the provided finite-stock items.
// Unlimited items are simply not seeded.
func (t *Tracker) Seed(ctx context.Context, marketID uuid.UUID, items []StockItem) error {
	key := redisclient.SessionStockKey(marketID.String())
	if err := t.store.Del(ctx, key); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reset session stock")
	}
	if len(items) == 0 {
		return nil
	}

	pairs := make([]any, 0, len(items)*2)
	for _, item := range items {
		pairs = append(pairs, item.ShopItemID.String(), item.Stock)
	}
	if err := t.store.HSet(ctx, key, pairs...); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "seed session stock")
	}
	if err := t.store.Expire(ctx, key, t.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "expire session stock")
	}
	return nil
}

// Snapshot returns the remaining count for every seeded item.
func (t *Tracker) Snapshot(ctx context.Context, marketID uuid.UUID) (map[uuid.UUID]int, error) {
	fields, err := t.store.HGetAll(ctx, redisclient.SessionStockKey(marketID.String()))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read session stock")
	}

	counts := make(map[uuid.UUID]int, len(fields))
	for field, raw := range fields {
		id, err := uuid.Parse(field)
		if err != nil {
			continue
		}
		n, err := strconv.Atoi(raw)
		if err != nil {
			continue
		}
		counts[id] = n
	}
	return counts, nil
}

// Remaining returns the count for one item; the second return is false
// when the item is untracked (unlimited).
func (t *Tracker) Remaining(ctx context.Context, marketID, shopItemID uuid.UUID) (int, bool, error) {
	raw, err := t.store.HGet(ctx, redisclient.SessionStockKey(marketID.String()), shopItemID.String())
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return 0, false, nil
		}
		return 0, false, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read item stock")
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "parse item stock")
	}
	return n, true, nil
}

// Consume takes qty units of an item. Untracked items always succeed.
// The existence check and the decrement run as one server-side step, so
// a concurrent SetStock(nil) cannot slip between them and have the
// field recreated at a negative count. A decrement past zero leaves the
// count unchanged and fails with an out-of-stock error.
func (t *Tracker) Consume(ctx context.Context, marketID, shopItemID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	key := redisclient.SessionStockKey(marketID.String())
	field := shopItemID.String()

	remaining, _, err := t.store.HIncrByExisting(ctx, key, field, -int64(qty))
	if err != nil {
		if errors.Is(err, redisclient.ErrInsufficient) {
			return pkgerrors.New(pkgerrors.CodeOutOfStock, "not enough stock remaining").
				WithDetails(map[string]any{"remaining": remaining})
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decrement item stock")
	}
	return nil
}

// Restock returns qty units to a tracked item. Untracked items are a no-op.
func (t *Tracker) Restock(ctx context.Context, marketID, shopItemID uuid.UUID, qty int) error {
	if qty <= 0 {
		return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be positive")
	}

	key := redisclient.SessionStockKey(marketID.String())
	field := shopItemID.String()
	if _, _, err := t.store.HIncrByExisting(ctx, key, field, int64(qty)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "increment item stock")
	}
	return nil
}

// SetStock overwrites one item's tracked count mid-session. A nil stock
// removes the field, making the item unlimited.
func (t *Tracker) SetStock(ctx context.Context, marketID, shopItemID uuid.UUID, stock *int) error {
	key := redisclient.SessionStockKey(marketID.String())
	field := shopItemID.String()
	if stock == nil {
		if err := t.store.HDel(ctx, key, field); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "untrack item stock")
		}
		return nil
	}
	if err := t.store.HSet(ctx, key, field, *stock); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "set item stock")
	}
	return nil
}

// Clear drops the market's entire session hash.
func (t *Tracker) Clear(ctx context.Context, marketID uuid.UUID) error {
	if err := t.store.Del(ctx, redisclient.SessionStockKey(marketID.String())); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "clear session stock")
	}
	return nil
}
