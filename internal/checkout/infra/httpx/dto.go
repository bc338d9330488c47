package httpx

import (
	"time"

	"github.com/jcmexdev/checkout-engine/internal/checkout/core/domain/entity"
)

// Monetary amounts are rendered as decimal strings so clients never see
// float artifacts.

type AddCartItemRequest struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Quantity  int64  `json:"quantity"`
}

type UpdateCartItemRequest struct {
	Quantity int64 `json:"quantity"`
}

type CartItemResponse struct {
	ID          string            `json:"id"`
	ProductID   string            `json:"product_id"`
	VariantID   string            `json:"variant_id,omitempty"`
	ProductName string            `json:"product_name"`
	SKUCode     string            `json:"sku_code,omitempty"`
	Attributes  map[string]string `json:"attributes,omitempty"`
	Quantity    int64             `json:"quantity"`
	UnitPrice   string            `json:"unit_price"`
	Subtotal    string            `json:"subtotal"`
}

type CartResponse struct {
	ID          string             `json:"id"`
	Items       []CartItemResponse `json:"items"`
	TotalItems  int64              `json:"total_items"`
	TotalAmount string             `json:"total_amount"`
}

type CheckoutRequest struct {
	AddressID   string `json:"address_id,omitempty"`
	VoucherCode string `json:"voucher_code,omitempty"`
	Notes       string `json:"notes,omitempty"`
}

type OrderItemResponse struct {
	ProductID   string            `json:"product_id"`
	VariantID   string            `json:"variant_id,omitempty"`
	ProductName string            `json:"product_name"`
	SKUCode     string            `json:"sku_code,omitempty"`
	VariantInfo map[string]string `json:"variant_info,omitempty"`
	Quantity    int64             `json:"quantity"`
	UnitPrice   string            `json:"unit_price"`
	Subtotal    string            `json:"subtotal"`
}

type OrderResponse struct {
	ID             string              `json:"id"`
	OrderNumber    string              `json:"order_number"`
	Status         string              `json:"status"`
	PaymentStatus  string              `json:"payment_status"`
	ShippingCity   string              `json:"shipping_city"`
	ShippingArea   string              `json:"shipping_area,omitempty"`
	AddressLine1   string              `json:"address_line_1"`
	AddressLine2   string              `json:"address_line_2,omitempty"`
	ContactPhone   string              `json:"contact_phone,omitempty"`
	Subtotal       string              `json:"subtotal"`
	ShippingCost   string              `json:"shipping_cost"`
	Tax            string              `json:"tax"`
	DiscountAmount string              `json:"discount_amount"`
	Total          string              `json:"total"`
	Notes          string              `json:"notes,omitempty"`
	TrackingNumber string              `json:"tracking_number,omitempty"`
	Items          []OrderItemResponse `json:"items"`
	CreatedAt      string              `json:"created_at"`
}

type UpdateOrderStatusRequest struct {
	Status         string `json:"status"`
	TrackingNumber string `json:"tracking_number,omitempty"`
}

type VoucherRequest struct {
	Code              string `json:"code"`
	DiscountType      string `json:"discount_type"`
	DiscountValue     string `json:"discount_value"`
	MaxDiscountAmount string `json:"max_discount_amount,omitempty"`
	ValidFrom         string `json:"valid_from"`
	ValidTo           string `json:"valid_to"`
	UsageLimit        int64  `json:"usage_limit,omitempty"`
}

type VoucherResponse struct {
	ID                string `json:"id"`
	Code              string `json:"code"`
	DiscountType      string `json:"discount_type"`
	DiscountValue     string `json:"discount_value"`
	MaxDiscountAmount string `json:"max_discount_amount,omitempty"`
	ValidFrom         string `json:"valid_from"`
	ValidTo           string `json:"valid_to"`
	UsageLimit        int64  `json:"usage_limit"`
	TimesUsed         int64  `json:"times_used"`
}

type RegisterUserRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone,omitempty"`
}

type UserResponse struct {
	ID        string   `json:"id"`
	Email     string   `json:"email"`
	Phone     string   `json:"phone,omitempty"`
	Roles     []string `json:"roles"`
	CreatedAt string   `json:"created_at"`
}

type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func mapCartToResponse(view *entity.CartView) CartResponse {
	items := make([]CartItemResponse, len(view.Items))
	for i, it := range view.Items {
		resp := CartItemResponse{
			ID:          it.Item.ID.String(),
			ProductID:   it.Item.ProductID.String(),
			ProductName: it.Product.Name,
			Quantity:    it.Item.Quantity,
			UnitPrice:   it.UnitPrice.String(),
			Subtotal:    it.Subtotal.String(),
		}
		if it.Variant != nil {
			resp.VariantID = it.Variant.ID.String()
			resp.SKUCode = it.Variant.SKUCode
			resp.Attributes = it.Variant.Attributes
		}
		items[i] = resp
	}
	return CartResponse{
		ID:          view.Cart.ID.String(),
		Items:       items,
		TotalItems:  view.TotalItems,
		TotalAmount: view.TotalAmount.String(),
	}
}

func mapOrderToResponse(order *entity.Order) OrderResponse {
	items := make([]OrderItemResponse, len(order.Items))
	for i, it := range order.Items {
		items[i] = OrderItemResponse{
			ProductID:   it.ProductID.String(),
			ProductName: it.ProductName,
			SKUCode:     it.SKUCode,
			VariantInfo: it.VariantInfo,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice.String(),
			Subtotal:    it.Subtotal.String(),
		}
		if it.VariantID.Valid {
			items[i].VariantID = it.VariantID.UUID.String()
		}
	}
	return OrderResponse{
		ID:             order.ID.String(),
		OrderNumber:    order.OrderNumber,
		Status:         string(order.Status),
		PaymentStatus:  string(order.PaymentStatus),
		ShippingCity:   order.ShippingCity,
		ShippingArea:   order.ShippingArea,
		AddressLine1:   order.AddressLine1,
		AddressLine2:   order.AddressLine2,
		ContactPhone:   order.ContactPhone,
		Subtotal:       order.Subtotal.String(),
		ShippingCost:   order.ShippingCost.String(),
		Tax:            order.Tax.String(),
		DiscountAmount: order.DiscountAmount.String(),
		Total:          order.Total.String(),
		Notes:          order.Notes,
		TrackingNumber: order.TrackingNumber,
		Items:          items,
		CreatedAt:      order.CreatedAt.Format(time.RFC3339),
	}
}

func mapVoucherToResponse(v *entity.Voucher) VoucherResponse {
	resp := VoucherResponse{
		ID:            v.ID.String(),
		Code:          v.Code,
		DiscountType:  string(v.DiscountType),
		DiscountValue: v.DiscountValue.String(),
		ValidFrom:     v.ValidFrom.Format(time.RFC3339),
		ValidTo:       v.ValidTo.Format(time.RFC3339),
		UsageLimit:    v.UsageLimit,
		TimesUsed:     v.TimesUsed,
	}
	if v.MaxDiscountAmount.IsPositive() {
		resp.MaxDiscountAmount = v.MaxDiscountAmount.String()
	}
	return resp
}

func mapUserToResponse(u *entity.User) UserResponse {
	return UserResponse{
		ID:        u.ID.String(),
		Email:     u.Email,
		Phone:     u.Phone,
		Roles:     u.Roles,
		CreatedAt: u.CreatedAt.Format(time.RFC3339),
	}
}
