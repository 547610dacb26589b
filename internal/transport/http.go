package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jmwangi/zawadi-shop/internal/analytics"
	"github.com/jmwangi/zawadi-shop/internal/cart"
	"github.com/jmwangi/zawadi-shop/internal/catalog"
	"github.com/jmwangi/zawadi-shop/internal/checkout"
	"github.com/jmwangi/zawadi-shop/internal/config"
	"github.com/jmwangi/zawadi-shop/internal/handler"
	"github.com/jmwangi/zawadi-shop/internal/mpesa"
	"github.com/jmwangi/zawadi-shop/internal/order"
	"github.com/jmwangi/zawadi-shop/internal/settings"
	"github.com/jmwangi/zawadi-shop/internal/user"
	"github.com/jmwangi/zawadi-shop/internal/wishlist"
	"github.com/jmwangi/zawadi-shop/pkg/metrics"
)

// NewRouter builds the full HTTP surface: public shop and payment callback
// routes, the authenticated user area, and the admin area.
func NewRouter(pool *pgxpool.Pool, cfg *config.Config, m *metrics.ShopMetrics) *chi.Mux {
	catalogRepo := catalog.NewRepository(pool)
	catalogSvc := catalog.NewService(catalogRepo)

	cartRepo := cart.NewRepository(pool)
	cartSvc := cart.NewService(cartRepo, catalogSvc, cfg.App.TaxRate)

	orderRepo := order.NewRepository(pool)
	orderSvc := order.NewService(orderRepo)

	gateway := mpesa.NewClient(cfg.Mpesa)
	checkoutRepo := checkout.NewRepository(pool)
	checkoutSvc := checkout.NewService(checkoutRepo, orderSvc, cartSvc, gateway)

	wishlistRepo := wishlist.NewRepository(pool)
	wishlistSvc := wishlist.NewService(wishlistRepo, catalogSvc)

	userRepo := user.NewRepository(pool)
	settingsRepo := settings.NewRepository(pool)
	analyticsSvc := analytics.NewService(pool)

	shopHandler := handler.NewShopHandler(catalogSvc)
	cartHandler := handler.NewCartHandler(cartSvc)
	orderHandler := handler.NewOrderHandler(orderSvc, checkoutSvc, m)
	checkoutHandler := handler.NewCheckoutHandler(checkoutSvc, m)
	accountHandler := handler.NewAccountHandler(wishlistSvc)
	adminHandler := handler.NewAdminHandler(catalogSvc, orderSvc, userRepo, settingsRepo, analyticsSvc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	// The payment provider calls back without credentials; the callback
	// handler validates the correlation id against the stored checkout.
	checkoutHandler.RegisterCallbackRoute(r)

	r.Route("/shop", func(r chi.Router) {
		shopHandler.RegisterRoutes(r)
	})

	r.Route("/user", func(r chi.Router) {
		r.Use(handler.Identity(userRepo))
		cartHandler.RegisterRoutes(r)
		orderHandler.RegisterRoutes(r)
		checkoutHandler.RegisterRoutes(r)
		accountHandler.RegisterRoutes(r)
	})

	r.Route("/admin", func(r chi.Router) {
		r.Use(handler.Identity(userRepo))
		r.Use(handler.RequireAdmin)
		adminHandler.RegisterRoutes(r)
	})

	return r
}
