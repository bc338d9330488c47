package entity

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a domain failure so the transport layer can map it to
// an HTTP status without inspecting individual error values.
type ErrorKind uint8

const (
	KindValidation   ErrorKind = iota + 1 // bad input shape → 400
	KindNotFound                          // missing entity → 404
	KindBusinessRule                      // rule violated before any write → 400
	KindUnauthorized                      // no authenticated principal → 401
	KindForbidden                         // principal lacks a capability → 403
	KindInternal                          // unexpected failure → 500
)

// Error is the single error type crossing the domain boundary.
// Code is stable and machine-readable; Message is for humans. Fields carries
// field-keyed validation details so clients can render per-field feedback.
type Error struct {
	Kind    ErrorKind
	Code    string
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// KindOf returns the kind of err, or KindInternal when err is not a domain
// error. A nil err has no kind and returns zero.
func KindOf(err error) ErrorKind {
	if err == nil {
		return 0
	}
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindInternal
}

func NewValidation(code, message string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: message}
}

// NewFieldValidation builds a validation error keyed by field names.
func NewFieldValidation(code string, fields map[string]string) *Error {
	return &Error{Kind: KindValidation, Code: code, Message: "validation failed", Fields: fields}
}

func NewNotFound(code, message string) *Error {
	return &Error{Kind: KindNotFound, Code: code, Message: message}
}

func NewBusinessRule(code, message string) *Error {
	return &Error{Kind: KindBusinessRule, Code: code, Message: message}
}

func NewInternal(message string) *Error {
	return &Error{Kind: KindInternal, Code: "internal", Message: message}
}

// Fixed-shape failures referenced across services.
var (
	ErrUnauthenticated  = &Error{Kind: KindUnauthorized, Code: "unauthenticated", Message: "authentication required"}
	ErrEmptyCart        = NewBusinessRule("empty_cart", "cannot create an order from an empty cart")
	ErrNoAddress        = NewBusinessRule("no_address", "no shipping address selected and no default address found")
	ErrNegativeTotal    = NewBusinessRule("negative_total", "order total would be negative")
	ErrVoucherInvalid   = NewBusinessRule("voucher_invalid", "voucher is expired, not yet active, or exhausted")
	ErrVoucherNotFound  = NewNotFound("voucher_not_found", "invalid voucher code")
	ErrProductNotFound  = NewNotFound("product_not_found", "product does not exist")
	ErrVariantNotFound  = NewNotFound("variant_not_found", "variant does not exist")
	ErrAddressNotFound  = NewNotFound("address_not_found", "address does not exist")
	ErrOrderNotFound    = NewNotFound("order_not_found", "order does not exist")
	ErrCartItemNotFound = NewNotFound("cart_item_not_found", "cart item does not exist")
)

// NewInsufficientStock reports a stock check failure carrying the quantity
// that is actually available.
func NewInsufficientStock(available int64) *Error {
	return NewBusinessRule("insufficient_stock",
		fmt.Sprintf("not enough stock, available: %d", available))
}

// NewVariantRequired reports an attempt to buy a variant product without
// selecting a variant.
func NewVariantRequired() *Error {
	return &Error{
		Kind:    KindValidation,
		Code:    "variant_required",
		Message: "validation failed",
		Fields:  map[string]string{"variant_id": "variant is required for products with variants"},
	}
}

// NewInvalidTransition reports a forbidden order status change.
func NewInvalidTransition(from, to OrderStatus) *Error {
	return NewBusinessRule("invalid_transition",
		fmt.Sprintf("cannot transition order from %s to %s", from, to))
}
