package players

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	pkgerrors "github.com/tavernkeep/bazaar-backend/pkg/errors"
	redisclient "github.com/tavernkeep/bazaar-backend/pkg/redis"
)

// CartStore abstracts where player carts live. Production binds Redis;
// tests bind an in-memory map. Load returns (nil, nil) when no cart exists.
type CartStore interface {
	Save(ctx context.Context, cart *Cart) error
	Load(ctx context.Context, accessCode, token string) (*Cart, error)
	Delete(ctx context.Context, accessCode, token string) error
	CountPlayers(ctx context.Context, accessCode string) (int, error)
}

type cartKV interface {
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Get(ctx context.Context, key string) (string, error)
	Del(ctx context.Context, keys ...string) error
	ScanKeys(ctx context.Context, pattern string) ([]string, error)
}

// RedisCartStore keeps carts as JSON values with a session-scoped TTL, so
// abandoned carts evaporate without a cleanup job.
type RedisCartStore struct {
	kv  cartKV
	ttl time.Duration
}

func NewRedisCartStore(client *redisclient.Client, ttl time.Duration) *RedisCartStore {
	return &RedisCartStore{kv: client, ttl: ttl}
}

func (s *RedisCartStore) Save(ctx context.Context, cart *Cart) error {
	payload, err := json.Marshal(cart)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode cart")
	}
	key := redisclient.PlayerCartKey(cart.AccessCode, cart.Token)
	if err := s.kv.Set(ctx, key, payload, s.ttl); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store cart")
	}
	return nil
}

func (s *RedisCartStore) Load(ctx context.Context, accessCode, token string) (*Cart, error) {
	raw, err := s.kv.Get(ctx, redisclient.PlayerCartKey(accessCode, token))
	if err != nil {
		if errors.Is(err, redisclient.Nil) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load cart")
	}
	var cart Cart
	if err := json.Unmarshal([]byte(raw), &cart); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "decode cart")
	}
	return &cart, nil
}

func (s *RedisCartStore) Delete(ctx context.Context, accessCode, token string) error {
	if err := s.kv.Del(ctx, redisclient.PlayerCartKey(accessCode, token)); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete cart")
	}
	return nil
}

// CountPlayers sizes the market's roster by scanning for its cart keys.
func (s *RedisCartStore) CountPlayers(ctx context.Context, accessCode string) (int, error) {
	keys, err := s.kv.ScanKeys(ctx, redisclient.PlayerCartPattern(accessCode))
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count carts")
	}
	return len(keys), nil
}
