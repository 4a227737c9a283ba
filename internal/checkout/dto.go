package checkout

import (
	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/pkg/types"
)

// ShippingDetails is the delivery address captured at checkout.
type ShippingDetails struct {
	Name       string `json:"name" yaml:"name" validate:"required"`
	Address    string `json:"address" yaml:"address" validate:"required"`
	City       string `json:"city" yaml:"city" validate:"required"`
	PostalCode string `json:"postalCode" yaml:"postalCode" validate:"required"`
	Phone      string `json:"phone" yaml:"phone" validate:"required"`
}

// StkPushRequest is the POST /api/mpesa/stk-push body.
type StkPushRequest struct {
	Phone           string          `json:"phone" validate:"required,mpesa_phone"`
	Cart            []cart.Line     `json:"cart" validate:"required,min=1"`
	ShippingDetails ShippingDetails `json:"shippingDetails"`
	Amount          types.Money     `json:"amount"`
}

// StkPushResponse carries the M-Pesa prompt outcome.
type StkPushResponse struct {
	CustomerMessage   string `json:"CustomerMessage,omitempty"`
	MerchantRequestID string `json:"MerchantRequestID,omitempty"`
	CheckoutRequestID string `json:"CheckoutRequestID,omitempty"`
}
