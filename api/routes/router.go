package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mercatolabs/storefront-backend/api/controllers"
	"github.com/mercatolabs/storefront-backend/api/middleware"
	"github.com/mercatolabs/storefront-backend/internal/cart"
	"github.com/mercatolabs/storefront-backend/internal/discounts"
	"github.com/mercatolabs/storefront-backend/pkg/config"
	"github.com/mercatolabs/storefront-backend/pkg/db"
	"github.com/mercatolabs/storefront-backend/pkg/logger"
	"github.com/mercatolabs/storefront-backend/pkg/redis"
)

// Deps bundles everything the router wires into handlers.
type Deps struct {
	Config           *config.Config
	Logger           *logger.Logger
	DB               db.Pinger
	Redis            *redis.Client
	CartService      *cart.Service
	DiscountsService *discounts.Service
	MetricsGatherer  prometheus.Gatherer
}

// NewRouter assembles the HTTP surface: health probes, metrics, the
// storefront quote endpoint, and the JWT-authed admin discount CRUD.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, redisPinger(deps.Redis)))
	})

	if deps.MetricsGatherer != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.MetricsGatherer, promhttp.HandlerOpts{}))
	}

	quotePolicy := middleware.NewRateLimitPolicy(
		"quote",
		cfg.RateLimit.QuoteWindow,
		cfg.RateLimit.QuoteIPLimit,
	)

	r.Route("/api/v1/cart", func(r chi.Router) {
		r.Use(middleware.StorefrontTenant(logg))
		r.With(middleware.RateLimit(quotePolicy, rateLimitStore(deps.Redis), logg)).
			Post("/quote", controllers.CartQuote(deps.CartService, logg))
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.TenantContext(logg))

		r.Route("/discounts", func(r chi.Router) {
			r.Get("/", controllers.AdminListDiscounts(deps.DiscountsService, logg))
			r.Get("/{discountId}", controllers.AdminGetDiscount(deps.DiscountsService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireDiscountManager(logg))
				r.Post("/", controllers.AdminCreateDiscount(deps.DiscountsService, logg))
				r.Patch("/{discountId}", controllers.AdminUpdateDiscount(deps.DiscountsService, logg))
				r.Delete("/{discountId}", controllers.AdminDeleteDiscount(deps.DiscountsService, logg))
			})
		})
	})

	return r
}

func redisPinger(client *redis.Client) redis.Pinger {
	if client == nil {
		return nil
	}
	return client
}

func rateLimitStore(client *redis.Client) middleware.RateLimitStore {
	if client == nil {
		return nil
	}
	return client
}
