package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/naledi-labs/storefront-backend/api/controllers"
	"github.com/naledi-labs/storefront-backend/api/middleware"
	checkoutsvc "github.com/naledi-labs/storefront-backend/internal/checkout"
	creditsvc "github.com/naledi-labs/storefront-backend/internal/credits"
	ordersvc "github.com/naledi-labs/storefront-backend/internal/orders"
	suppliersvc "github.com/naledi-labs/storefront-backend/internal/suppliers"
	"github.com/naledi-labs/storefront-backend/pkg/config"
	"github.com/naledi-labs/storefront-backend/pkg/db"
	"github.com/naledi-labs/storefront-backend/pkg/logger"
	"github.com/naledi-labs/storefront-backend/pkg/redis"
)

// Deps carries everything the router wires into handlers.
type Deps struct {
	Config    *config.Config
	Logger    *logger.Logger
	DB        db.Pinger
	Redis     *redis.Client
	Registry  *prometheus.Registry
	Checkout  checkoutsvc.Service
	Credits   creditsvc.Service
	Orders    ordersvc.Service
	Suppliers suppliersvc.Service
}

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
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.DB, deps.Redis))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.UserContext(logg))
		r.Use(middleware.Idempotency(deps.Redis, logg))

		r.Route("/checkout", func(r chi.Router) {
			r.Post("/", controllers.Checkout(deps.Checkout, logg))
			r.Post("/quote", controllers.CheckoutQuote(deps.Checkout, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", controllers.OrdersList(deps.Orders, logg))
			r.Get("/{orderId}", controllers.OrderDetail(deps.Orders, logg))
			r.Post("/{orderId}/cancel", controllers.OrderCancel(deps.Orders, logg))
		})

		r.Route("/credits", func(r chi.Router) {
			r.Get("/", controllers.CreditBalance(deps.Credits, logg))
			r.Get("/transactions", controllers.CreditTransactions(deps.Credits, logg))
			r.Post("/earn", controllers.CreditEarn(deps.Credits, logg))
		})

		r.Route("/shipping/methods", func(r chi.Router) {
			r.Get("/", controllers.ShippingMethodsList(deps.Suppliers, logg))
			r.Post("/", controllers.ShippingMethodCreate(deps.Suppliers, logg))
		})

		r.Route("/suppliers/{supplierId}/shipping-methods", func(r chi.Router) {
			r.Get("/", controllers.SupplierShippingMethods(deps.Suppliers, logg))
			r.Post("/", controllers.SupplierLinkMethod(deps.Suppliers, logg))
			r.Patch("/{methodId}", controllers.SupplierUpdateLink(deps.Suppliers, logg))
			r.Post("/{methodId}/default", controllers.SupplierSetDefaultMethod(deps.Suppliers, logg))
		})
	})

	return r
}
