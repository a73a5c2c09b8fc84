package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vitrinelabs/vitrine-backend/api/controllers"
	"github.com/vitrinelabs/vitrine-backend/api/middleware"
	"github.com/vitrinelabs/vitrine-backend/pkg/logger"
)

// Controllers bundles everything the router mounts.
type Controllers struct {
	Orders   *controllers.OrdersController
	Products *controllers.ProductsController
	Bling    *controllers.BlingController
	Webhooks *controllers.WebhooksController
	Settings *controllers.SettingsController
	Health   *controllers.HealthController
}

// New assembles the HTTP surface with the shared middleware stack.
func New(c Controllers, logg *logger.Logger, extraOrigins ...string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer(logg))
	r.Use(middleware.RequestID(logg))
	r.Use(middleware.Logging(logg))
	r.Use(middleware.CORS(extraOrigins...))

	r.Get("/health/live", c.Health.Live)
	r.Get("/health/ready", c.Health.Ready)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Route("/orders", func(r chi.Router) {
			r.Get("/", c.Orders.List)
			r.Get("/{id}", c.Orders.Get)
			r.Patch("/{id}/status", c.Orders.UpdateStatus)
			r.Patch("/{id}/shipping", c.Orders.UpdateShipping)
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/", c.Products.List)
			r.Get("/{id}", c.Products.Get)
			r.Get("/{id}/movements", c.Products.Movements)
		})

		r.Route("/bling", func(r chi.Router) {
			r.Post("/products/pull", c.Bling.PullProducts)
			r.Get("/products/pull/stream", c.Bling.PullProductsStream)
			r.Get("/status", c.Bling.Status)
			r.Get("/sync-logs", c.Bling.SyncLogs)
			r.Get("/oauth/start", c.Bling.OAuthStart)
			r.Get("/oauth/callback", c.Bling.OAuthCallback)
		})

		r.Route("/content", func(r chi.Router) {
			r.Get("/{key}", c.Settings.Get)
			r.Put("/{key}", c.Settings.Put)
		})

		r.Post("/mp/webhook", c.Webhooks.MercadoPago)
	})

	return r
}
