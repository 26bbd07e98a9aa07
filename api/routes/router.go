package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/tristore-backend/api/controllers"
	cartcontrollers "github.com/angelmondragon/tristore-backend/api/controllers/cart"
	catalogcontrollers "github.com/angelmondragon/tristore-backend/api/controllers/catalog"
	eventcontrollers "github.com/angelmondragon/tristore-backend/api/controllers/events"
	ordercontrollers "github.com/angelmondragon/tristore-backend/api/controllers/orders"
	"github.com/angelmondragon/tristore-backend/api/middleware"
	"github.com/angelmondragon/tristore-backend/internal/cart"
	"github.com/angelmondragon/tristore-backend/internal/catalog"
	"github.com/angelmondragon/tristore-backend/internal/orders"
	"github.com/angelmondragon/tristore-backend/pkg/config"
	"github.com/angelmondragon/tristore-backend/pkg/db"
	"github.com/angelmondragon/tristore-backend/pkg/enums"
	"github.com/angelmondragon/tristore-backend/pkg/logger"
	"github.com/angelmondragon/tristore-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *redis.Client,
	gatherer prometheus.Gatherer,
	catalogService catalog.Service,
	cartService cart.Service,
	ordersService orders.Service,
	subscriber eventcontrollers.Subscriber,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(cfg.App.CORSAllowedOrigins),
	)

	// typed nils would defeat the nil checks downstream
	var idempotencyStore redis.IdempotencyStore
	var redisPinger controllers.Pinger
	if redisClient != nil {
		idempotencyStore = redisClient
		redisPinger = redisClient
	}
	keepAlive := cfg.Realtime.KeepAlive

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, dbP, redisPinger))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Get("/api/v1/catalog/{entityType}/{entityId}", catalogcontrollers.EntityDetail(catalogService, logg))

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/cart", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleUser))
			r.Get("/", cartcontrollers.CartFetch(cartService, logg))
			r.Delete("/", cartcontrollers.CartClear(cartService, logg))
			r.Post("/items", cartcontrollers.CartAddItem(cartService, logg))
			r.Patch("/items/{lineId}", cartcontrollers.CartUpdateItem(cartService, logg))
			r.Delete("/items/{lineId}", cartcontrollers.CartRemoveItem(cartService, logg))
			r.Post("/validate", cartcontrollers.CartValidate(cartService, logg))
			r.Post("/merge", cartcontrollers.CartMerge(cartService, logg))
		})

		r.Route("/orders", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleUser))
				r.Post("/", ordercontrollers.PlaceOrder(ordersService, logg))
				r.Get("/", ordercontrollers.List(ordersService, logg))
				r.Post("/{orderId}/cancel", ordercontrollers.CancelOrder(ordersService, logg))
			})
			// owner, admin or assigned agent; enforced by the service
			r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
			r.Get("/{orderId}/events", eventcontrollers.OrderStream(ordersService, subscriber, keepAlive, logg))
		})

		r.Route("/vendor", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleVendor))
			r.Get("/catalog", catalogcontrollers.VendorCatalog(catalogService, logg))

			r.Post("/groceries", catalogcontrollers.CreateGrocery(catalogService, logg))
			r.Put("/groceries/{id}", catalogcontrollers.UpdateGrocery(catalogService, logg))
			r.Delete("/groceries/{id}", catalogcontrollers.DeleteGrocery(catalogService, logg))

			r.Post("/clothes", catalogcontrollers.CreateClothing(catalogService, logg))
			r.Put("/clothes/{id}", catalogcontrollers.UpdateClothing(catalogService, logg))
			r.Delete("/clothes/{id}", catalogcontrollers.DeleteClothing(catalogService, logg))

			r.Post("/restaurants", catalogcontrollers.CreateRestaurant(catalogService, logg))
			r.Patch("/restaurants/{id}/open", catalogcontrollers.SetRestaurantOpen(catalogService, logg))

			r.Post("/menu-items", catalogcontrollers.CreateMenuItem(catalogService, logg))
			r.Put("/menu-items/{id}", catalogcontrollers.UpdateMenuItem(catalogService, logg))
			r.Delete("/menu-items/{id}", catalogcontrollers.DeleteMenuItem(catalogService, logg))

			r.Get("/orders", ordercontrollers.VendorList(ordersService, logg))
			r.Get("/orders/{orderId}", ordercontrollers.VendorDetail(ordersService, logg))
		})

		r.Route("/delivery/orders", func(r chi.Router) {
			r.Use(middleware.RequireRole(logg, enums.RoleDelivery))
			r.Get("/", ordercontrollers.AssignedList(ordersService, logg))
			r.Patch("/{orderId}/status", ordercontrollers.UpdateStatus(ordersService, logg))
			r.Patch("/{orderId}/try-at-home", ordercontrollers.UpdateTryAtHome(ordersService, logg))
		})
	})

	r.Route("/api/admin/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
		r.Use(middleware.Idempotency(idempotencyStore, logg))

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", ordercontrollers.AdminList(ordersService, logg))
			r.Get("/events", eventcontrollers.NewOrderStream(subscriber, keepAlive, logg))
			r.Get("/{orderId}", ordercontrollers.Detail(ordersService, logg))
			r.Patch("/{orderId}/status", ordercontrollers.UpdateStatus(ordersService, logg))
			r.Patch("/{orderId}/try-at-home", ordercontrollers.UpdateTryAtHome(ordersService, logg))
			r.Post("/{orderId}/cancel", ordercontrollers.CancelOrder(ordersService, logg))
		})
		r.Get("/vendors/{vendorId}/orders", ordercontrollers.AdminVendorOrders(ordersService, logg))
	})

	return r
}
