package controllers

import (
	"net/http"

	"github.com/tavernkeep/bazaar-backend/api/responses"
	"github.com/tavernkeep/bazaar-backend/pkg/config"
)

// Limits exposes the per-account caps so clients can disable
// creation UI before the server rejects the request.
func Limits(cfg config.LimitsConfig) http.HandlerFunc {
	payload := map[string]int{
		"markets_per_dm":   cfg.MarketsPerDM,
		"shops_per_market": cfg.ShopsPerMarket,
		"library_items":    cfg.LibraryItems,
		"items_per_shop":   cfg.ItemsPerShop,
	}
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, payload)
	}
}
