package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/tavernkeep/bazaar-backend/api/controllers"
	"github.com/tavernkeep/bazaar-backend/api/middleware"
	"github.com/tavernkeep/bazaar-backend/internal/auth"
	"github.com/tavernkeep/bazaar-backend/internal/inventory"
	"github.com/tavernkeep/bazaar-backend/internal/library"
	"github.com/tavernkeep/bazaar-backend/internal/markets"
	"github.com/tavernkeep/bazaar-backend/internal/players"
	"github.com/tavernkeep/bazaar-backend/internal/shops"
	"github.com/tavernkeep/bazaar-backend/pkg/config"
	"github.com/tavernkeep/bazaar-backend/pkg/db"
	"github.com/tavernkeep/bazaar-backend/pkg/logger"
	redisclient "github.com/tavernkeep/bazaar-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redisclient.Client,
	promRegistry *prometheus.Registry,
	authService auth.Service,
	registerService auth.RegisterService,
	marketService markets.Service,
	shopService shops.Service,
	libraryService library.Service,
	inventoryService inventory.Service,
	playerService players.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.CORS),
	)

	loginPolicy := middleware.NewRateLimitPolicy(
		"login",
		cfg.RateLimit.LoginWindow,
		cfg.RateLimit.LoginIPLimit,
		cfg.RateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewRateLimitPolicy(
		"register",
		cfg.RateLimit.RegisterWindow,
		cfg.RateLimit.RegisterIPLimit,
		cfg.RateLimit.RegisterEmailLimit,
	)
	enterPolicy := middleware.NewRateLimitPolicy(
		"enter",
		cfg.RateLimit.EnterWindow,
		cfg.RateLimit.EnterIPLimit,
		0,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisClient))
	})

	if promRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(promRegistry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1/auth", func(r chi.Router) {
		r.With(middleware.RateLimit(loginPolicy, redisClient, logg)).Post("/login", controllers.AuthLogin(authService, logg))
		r.With(middleware.RateLimit(registerPolicy, redisClient, logg)).Post("/register", controllers.AuthRegister(registerService, logg))
	})

	r.Route("/api/public/v1/markets/{accessCode}", func(r chi.Router) {
		r.With(middleware.RateLimit(enterPolicy, redisClient, logg)).Post("/enter", controllers.PlayerEnter(playerService, logg))
		r.Get("/status", controllers.PlayerStatus(playerService, logg))
		r.Get("/shops", controllers.PlayerShops(playerService, logg))
		r.Get("/shops/{shopId}", controllers.PlayerShopDetail(playerService, logg))
		r.Route("/players/{token}", func(r chi.Router) {
			r.Put("/currency", controllers.PlayerSetCurrency(playerService, logg))
			r.Post("/purchase", controllers.PlayerPurchase(playerService, logg))
			r.Post("/sell", controllers.PlayerSell(playerService, logg))
			r.Get("/summary", controllers.PlayerSummary(playerService, logg))
			r.Delete("/summary", controllers.PlayerFinish(playerService, logg))
		})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))

		r.Get("/limits", controllers.Limits(cfg.Limits))

		r.Route("/markets", func(r chi.Router) {
			r.Get("/", controllers.MarketList(marketService, logg))
			r.Post("/", controllers.MarketCreate(marketService, logg))
			r.Get("/active", controllers.MarketActive(marketService, logg))
			r.Route("/{marketId}", func(r chi.Router) {
				r.Get("/", controllers.MarketGet(marketService, logg))
				r.Patch("/", controllers.MarketUpdate(marketService, logg))
				r.Delete("/", controllers.MarketDelete(marketService, logg))
				r.Post("/activate", controllers.MarketActivate(marketService, logg))
				r.Post("/deactivate", controllers.MarketDeactivate(marketService, logg))
				r.Get("/shops", controllers.ShopList(shopService, logg))
				r.Post("/shops", controllers.ShopCreate(shopService, logg))
			})
		})

		r.Route("/shops/{shopId}", func(r chi.Router) {
			r.Patch("/", controllers.ShopUpdate(shopService, logg))
			r.Delete("/", controllers.ShopDelete(shopService, logg))
			r.Get("/items", controllers.ItemList(inventoryService, logg))
			r.Post("/items", controllers.ItemAdd(inventoryService, logg))
		})

		r.Route("/shop-items/{itemId}", func(r chi.Router) {
			r.Patch("/", controllers.ItemUpdate(inventoryService, logg))
			r.Delete("/", controllers.ItemRemove(inventoryService, logg))
		})

		r.Route("/library", func(r chi.Router) {
			r.Get("/", controllers.LibraryList(libraryService, logg))
			r.Post("/", controllers.LibraryCreate(libraryService, logg))
			r.Route("/{itemId}", func(r chi.Router) {
				r.Get("/", controllers.LibraryGet(libraryService, logg))
				r.Patch("/", controllers.LibraryUpdate(libraryService, logg))
				r.Delete("/", controllers.LibraryDelete(libraryService, logg))
			})
		})
	})

	return r
}
