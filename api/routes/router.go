package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/oaklinehq/checkout-backend/api/controllers"
	"github.com/oaklinehq/checkout-backend/api/middleware"
	checkoutsvc "github.com/oaklinehq/checkout-backend/internal/checkout"
	"github.com/oaklinehq/checkout-backend/internal/orders"
	"github.com/oaklinehq/checkout-backend/pkg/config"
	"github.com/oaklinehq/checkout-backend/pkg/db"
	"github.com/oaklinehq/checkout-backend/pkg/logger"
	"github.com/oaklinehq/checkout-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbClient *db.Client,
	redisClient *redis.Client,
	checkoutService checkoutsvc.Service,
	ordersRepo orders.Repository,
	registry *prometheus.Registry,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbClient, redisClient))
	})

	if registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Actor(logg))
		r.Use(middleware.Idempotency(redisClient, logg))

		r.Post("/pricing/quote", controllers.PricingQuote(checkoutService, logg))
		r.Post("/checkout", controllers.Checkout(checkoutService, logg))
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrderList(ordersRepo, logg))
			r.Get("/{orderId}", controllers.OrderDetail(checkoutService, logg))
		})
	})

	return r
}
