package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/safar/storefront/internal/auth"
	"github.com/safar/storefront/internal/cart"
	"github.com/safar/storefront/internal/catalog"
	"github.com/safar/storefront/internal/checkout"
	"github.com/safar/storefront/internal/feed"
	"github.com/safar/storefront/internal/models"
	"github.com/safar/storefront/internal/simulator"
	"github.com/safar/storefront/internal/store"
)

// AdminStore is the persistence the admin endpoints need beyond the feed.
type AdminStore interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	ListOrdersCursor(ctx context.Context, cursor string, limit int) (*store.CursorPage, error)
	UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) (*models.Order, error)
	CreateProduct(ctx context.Context, p models.Product) (*models.Product, error)
	UpdateProduct(ctx context.Context, id int64, u store.ProductUpdate) (*models.Product, error)
	DeleteProduct(ctx context.Context, id int64) error
	ListProducts(ctx context.Context, page, pageSize int) (*store.OffsetPage, error)
	ListCustomers(ctx context.Context, page, pageSize int) (*store.OffsetPage, error)
	GetCustomer(ctx context.Context, id int64) (*models.Customer, error)
	GetDashboardSummary(ctx context.Context) (*store.DashboardSummary, error)
	TopProducts(ctx context.Context, limit int) ([]store.ProductSales, error)
}

type Deps struct {
	Catalog   *catalog.Catalog
	Carts     *cart.Manager
	Checkout  *checkout.Service
	Feed      *feed.Feed
	Simulator *simulator.Simulator
	Gate      *auth.Gate
	Admin     AdminStore

	// Health reports backend reachability; nil means always healthy.
	Health         func(ctx context.Context) error
	RequestTimeout time.Duration
	// Heartbeat is the idle interval between keep-alive comments on event streams.
	Heartbeat time.Duration
}

type handler struct {
	Deps
}

func NewRouter(d Deps) http.Handler {
	if d.RequestTimeout <= 0 {
		d.RequestTimeout = 30 * time.Second
	}
	if d.Heartbeat <= 0 {
		d.Heartbeat = 25 * time.Second
	}
	h := &handler{Deps: d}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(auth.Identify(d.Gate))

	r.Get("/health", h.health)

	r.Route("/api", func(r chi.Router) {
		// Event streams outlive any request timeout.
		r.With(auth.RequireAdmin).Get("/admin/orders/stream", h.streamOrders)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(d.RequestTimeout))

			r.Get("/products", h.listProducts)
			r.Get("/products/featured", h.featuredProducts)
			r.Get("/products/{id}", h.getProduct)
			r.Get("/categories", h.listCategories)
			r.Get("/merchants", h.listMerchants)

			r.Route("/cart", func(r chi.Router) {
				r.Get("/", h.getCart)
				r.Delete("/", h.clearCart)
				r.Post("/items", h.addCartItem)
				r.Put("/items/{productID}", h.setCartItem)
				r.Delete("/items/{productID}", h.removeCartItem)
			})

			r.Route("/checkout", func(r chi.Router) {
				r.Get("/", h.getCheckout)
				r.Post("/shipping", h.submitShipping)
				r.Post("/payment", h.placeOrder)
			})

			// The simulator applies its own admin check so a refusal carries its message.
			r.Get("/admin/simulator", h.simulatorStatus)
			r.Post("/admin/simulator", h.startSimulator)
			r.Delete("/admin/simulator", h.stopSimulator)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAdmin)

				r.Get("/admin/orders", h.listOrders)
				r.Get("/admin/orders/{id}", h.getOrder)
				r.Patch("/admin/orders/{id}/status", h.updateOrderStatus)
				r.Get("/admin/dashboard", h.dashboard)
				r.Get("/admin/customers", h.listCustomers)
				r.Get("/admin/customers/{id}", h.getCustomer)
				r.Get("/admin/products", h.adminProducts)
				r.Post("/admin/products", h.createProduct)
				r.Put("/admin/products/{id}", h.updateProduct)
				r.Delete("/admin/products/{id}", h.deleteProduct)
			})
		})
	})

	return r
}

func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	if h.Health != nil {
		if err := h.Health(r.Context()); err != nil {
			respondJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
