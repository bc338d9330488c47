package httpx

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/checkout-engine/internal/checkout/core/ports"
	"github.com/jcmexdev/checkout-engine/internal/checkout/infra/httpx/middlewares"
	"github.com/jcmexdev/checkout-engine/internal/pkg/metrics"
)

// NewRouter mounts the full HTTP surface. Registration, health and the
// scrape endpoint are public; everything else requires a principal, and the
// admin routes additionally require a capability.
func NewRouter(
	handler *Handler,
	identity ports.Identity,
	resolver ports.CapabilityResolver,
	m *metrics.ServerMetrics,
) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middlewares.AttachRequestMetadata)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	if m != nil {
		r.Use(middlewares.CollectMetrics(m))
	}

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Post("/user", handler.RegisterUser)

	r.Group(func(r chi.Router) {
		r.Use(middlewares.RequireUser(identity))

		r.Route("/cart", func(r chi.Router) {
			r.Get("/", handler.GetCart)
			r.Delete("/item", handler.ClearCart)
			r.Post("/item", handler.AddCartItem)
			r.Put("/item/{id}", handler.UpdateCartItem)
			r.Delete("/item/{id}", handler.RemoveCartItem)
		})

		r.Route("/order", func(r chi.Router) {
			r.Post("/", handler.Checkout)
			r.Get("/", handler.ListOrders)
			r.Get("/{id}", handler.GetOrderByID)
			r.Post("/{id}/cancel", handler.CancelOrder)
			r.With(middlewares.RequireCapability(resolver, entity.CapOrderManage)).
				Put("/{id}", handler.UpdateOrderStatus)
		})

		r.Route("/voucher", func(r chi.Router) {
			r.With(middlewares.RequireCapability(resolver, entity.CapVoucherCreate)).
				Post("/", handler.CreateVoucher)
			r.With(middlewares.RequireCapability(resolver, entity.CapVoucherCreate)).
				Get("/", handler.ListVouchers)
			r.With(middlewares.RequireCapability(resolver, entity.CapVoucherUpdate)).
				Put("/{id}", handler.UpdateVoucher)
			r.With(middlewares.RequireCapability(resolver, entity.CapVoucherDelete)).
				Delete("/{id}", handler.DeleteVoucher)
		})
	})

	return r
}
