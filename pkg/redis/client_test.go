package redis

import (
	"testing"

	"github.com/tavernkeep/bazaar-backend/pkg/config"
)

func TestKeyNamespacing(t *testing.T) {
	if got := SessionStockKey("m1"); got != "bz:session_stock:m1" {
		t.Fatalf("unexpected session stock key %q", got)
	}
	if got := PlayerCartKey("dusty-fair-ab12cd", "tok"); got != "bz:player_cart:dusty-fair-ab12cd:tok" {
		t.Fatalf("unexpected player cart key %q", got)
	}
	if got := PlayerCartPattern("dusty-fair-ab12cd"); got != "bz:player_cart:dusty-fair-ab12cd:*" {
		t.Fatalf("unexpected cart pattern %q", got)
	}
	if got := RateLimitKey("enter", "1.2.3.4"); got != "bz:rate_limit:enter:1.2.3.4" {
		t.Fatalf("unexpected rate limit key %q", got)
	}
}

func TestOptionsFromConfigRequiresTarget(t *testing.T) {
	if _, err := optionsFromConfig(config.RedisConfig{}); err == nil {
		t.Fatal("expected error when url and address are empty")
	}

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/2"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opts.DB != 2 {
		t.Fatalf("expected db 2 from url, got %d", opts.DB)
	}
}
