package httpx

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jcmexdev/checkout-engine/internal/checkout/app"
	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
	"github.com/jcmexdev/checkout-engine/internal/pkg/constants"
	"github.com/jcmexdev/checkout-engine/internal/pkg/metrics"
)

// Handler handles incoming HTTP requests for the checkout domain.
type Handler struct {
	carts    *app.CartService
	checkout *app.CheckoutService
	orders   *app.OrderService
	vouchers *app.VoucherService
	users    *app.UserService
	metrics  *metrics.ServerMetrics
}

func NewHandler(
	carts *app.CartService,
	checkout *app.CheckoutService,
	orders *app.OrderService,
	vouchers *app.VoucherService,
	users *app.UserService,
	m *metrics.ServerMetrics,
) *Handler {
	return &Handler{
		carts:    carts,
		checkout: checkout,
		orders:   orders,
		vouchers: vouchers,
		users:    users,
		metrics:  m,
	}
}

// RegisterUser creates a user account and runs the registration hooks.
func (h *Handler) RegisterUser(w http.ResponseWriter, r *http.Request) {
	var req RegisterUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	user, err := h.users.Register(r.Context(), req.Email, req.Phone)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapUserToResponse(user))
}

// GetCart returns the caller's cart, creating an empty one on first access.
func (h *Handler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	view, err := h.carts.GetCart(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCartToResponse(view))
}

// AddCartItem adds a product (optionally a specific variant) to the cart.
// Re-adding an existing line replaces its quantity.
func (h *Handler) AddCartItem(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	var req AddCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	productID, err := uuid.Parse(req.ProductID)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_product_id", "product_id must be a UUID")
		return
	}
	var variantID uuid.NullUUID
	if req.VariantID != "" {
		id, err := uuid.Parse(req.VariantID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_variant_id", "variant_id must be a UUID")
			return
		}
		variantID = uuid.NullUUID{UUID: id, Valid: true}
	}

	view, err := h.carts.AddItem(r.Context(), userID, productID, variantID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCartToResponse(view))
}

// UpdateCartItem sets the quantity of an existing cart line.
func (h *Handler) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	itemID, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var req UpdateCartItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	view, err := h.carts.UpdateItemQuantity(r.Context(), userID, itemID, req.Quantity)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapCartToResponse(view))
}

// RemoveCartItem deletes one cart line.
func (h *Handler) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	itemID, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	if err := h.carts.RemoveItem(r.Context(), userID, itemID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ClearCart removes every line from the cart.
func (h *Handler) ClearCart(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	if err := h.carts.Clear(r.Context(), userID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Checkout converts the caller's cart into an order.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	var req CheckoutRequest
	if r.ContentLength != 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
			return
		}
	}
	in := app.CheckoutInput{
		VoucherCode: req.VoucherCode,
		Notes:       req.Notes,
	}
	if req.AddressID != "" {
		id, err := uuid.Parse(req.AddressID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_address_id", "address_id must be a UUID")
			return
		}
		in.AddressID = uuid.NullUUID{UUID: id, Valid: true}
	}
	in.IdempotencyKey, _ = r.Context().Value(constants.ContextKeyIdempotencyKey).(string)

	order, err := h.checkout.Checkout(r.Context(), userID, in)
	if err != nil {
		h.countCheckout(err)
		writeDomainError(w, r, err)
		return
	}
	h.countCheckout(nil)
	writeJSON(w, http.StatusCreated, mapOrderToResponse(order))
}

func (h *Handler) countCheckout(err error) {
	if h.metrics == nil {
		return
	}
	outcome := "created"
	switch entity.KindOf(err) {
	case 0:
	case entity.KindInternal:
		outcome = "failed"
	default:
		outcome = "rejected"
	}
	h.metrics.Checkouts.WithLabelValues(outcome).Inc()
}

// GetOrderByID returns one of the caller's orders.
func (h *Handler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	order, err := h.orders.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// ListOrders returns the caller's orders, newest first.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	orders, err := h.orders.ListOrders(r.Context(), userID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]OrderResponse, len(orders))
	for i := range orders {
		out[i] = mapOrderToResponse(&orders[i])
	}
	writeJSON(w, http.StatusOK, out)
}

// CancelOrder cancels a PENDING order and restores its stock.
func (h *Handler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID := principal(r)

	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	order, err := h.orders.Cancel(r.Context(), userID, orderID)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// UpdateOrderStatus moves an order through the fulfilment state machine.
// Reserved to principals holding the order management capability.
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	var req UpdateOrderStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}
	next := entity.OrderStatus(req.Status)
	if !next.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_status", "unknown order status")
		return
	}

	order, err := h.orders.UpdateStatus(r.Context(), orderID, next, req.TrackingNumber)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapOrderToResponse(order))
}

// CreateVoucher creates a discount voucher.
func (h *Handler) CreateVoucher(w http.ResponseWriter, r *http.Request) {
	in, ok := decodeVoucherRequest(w, r)
	if !ok {
		return
	}
	voucher, err := h.vouchers.Create(r.Context(), in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapVoucherToResponse(voucher))
}

// UpdateVoucher rewrites a voucher's terms. Usage counters are untouched.
func (h *Handler) UpdateVoucher(w http.ResponseWriter, r *http.Request) {
	voucherID, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	in, ok := decodeVoucherRequest(w, r)
	if !ok {
		return
	}
	voucher, err := h.vouchers.Update(r.Context(), voucherID, in)
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapVoucherToResponse(voucher))
}

// DeleteVoucher removes a voucher from circulation.
func (h *Handler) DeleteVoucher(w http.ResponseWriter, r *http.Request) {
	voucherID, ok := parseIDParam(w, r)
	if !ok {
		return
	}
	if err := h.vouchers.Delete(r.Context(), voucherID); err != nil {
		writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListVouchers returns all vouchers, usage counters included.
func (h *Handler) ListVouchers(w http.ResponseWriter, r *http.Request) {
	vouchers, err := h.vouchers.List(r.Context())
	if err != nil {
		writeDomainError(w, r, err)
		return
	}
	out := make([]VoucherResponse, len(vouchers))
	for i := range vouchers {
		out[i] = mapVoucherToResponse(&vouchers[i])
	}
	writeJSON(w, http.StatusOK, out)
}

func decodeVoucherRequest(w http.ResponseWriter, r *http.Request) (app.VoucherInput, bool) {
	var req VoucherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return app.VoucherInput{}, false
	}

	fields := map[string]string{}
	value, err := decimal.NewFromString(req.DiscountValue)
	if err != nil {
		fields["discount_value"] = "must be a decimal number"
	}
	maxAmount := decimal.Zero
	if req.MaxDiscountAmount != "" {
		if maxAmount, err = decimal.NewFromString(req.MaxDiscountAmount); err != nil {
			fields["max_discount_amount"] = "must be a decimal number"
		}
	}
	validFrom, err := time.Parse(time.RFC3339, req.ValidFrom)
	if err != nil {
		fields["valid_from"] = "must be an RFC 3339 timestamp"
	}
	validTo, err := time.Parse(time.RFC3339, req.ValidTo)
	if err != nil {
		fields["valid_to"] = "must be an RFC 3339 timestamp"
	}
	if len(fields) > 0 {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_voucher",
			Message: "validation failed",
			Fields:  fields,
		})
		return app.VoucherInput{}, false
	}

	return app.VoucherInput{
		Code:              req.Code,
		DiscountType:      entity.DiscountType(req.DiscountType),
		DiscountValue:     value,
		MaxDiscountAmount: maxAmount,
		ValidFrom:         validFrom,
		ValidTo:           validTo,
		UsageLimit:        req.UsageLimit,
	}, true
}

// principal returns the authenticated user set by the auth middleware. Routes
// calling it are only mounted behind that middleware.
func principal(r *http.Request) uuid.UUID {
	userID, _ := r.Context().Value(constants.ContextKeyUserID).(uuid.UUID)
	return userID
}

func parseIDParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func statusForKind(kind entity.ErrorKind) int {
	switch kind {
	case entity.KindValidation, entity.KindBusinessRule:
		return http.StatusBadRequest
	case entity.KindNotFound:
		return http.StatusNotFound
	case entity.KindUnauthorized:
		return http.StatusUnauthorized
	case entity.KindForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}

// writeDomainError maps a domain error onto the wire. Internal failures are
// logged with their cause and answered with an opaque body.
func writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	var de *entity.Error
	if errors.As(err, &de) && de.Kind != entity.KindInternal {
		writeJSON(w, statusForKind(de.Kind), ErrorResponse{
			Error:   de.Code,
			Message: de.Message,
			Fields:  de.Fields,
		})
		return
	}
	slog.ErrorContext(r.Context(), "request failed",
		"path", r.URL.Path, "method", r.Method, "error", err)
	writeError(w, http.StatusInternalServerError, "internal", "internal server error")
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{
		Error:   code,
		Message: msg,
	})
}
