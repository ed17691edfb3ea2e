package service

import (
	"strings"

	"github.com/tienda-escolar/shop-service/internal/errs"
	"github.com/tienda-escolar/shop-service/internal/models"
)

// CreateOrderInput is the checkout payload. Line items are never part of
// it; they always come from the buyer's server-side cart.
type CreateOrderInput struct {
	ShippingAddress models.Address `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
	ShippingTotal   float64        `json:"shippingTotal"`
	TaxTotal        float64        `json:"taxTotal"`
}

func (in *CreateOrderInput) Validate() error {
	if strings.TrimSpace(in.PaymentMethod) == "" {
		return errs.NewValidation("paymentMethod", "payment method is required")
	}
	addr := in.ShippingAddress
	if strings.TrimSpace(addr.Street) == "" {
		return errs.NewValidation("shippingAddress.street", "street is required")
	}
	if strings.TrimSpace(addr.City) == "" {
		return errs.NewValidation("shippingAddress.city", "city is required")
	}
	if strings.TrimSpace(addr.PostalCode) == "" {
		return errs.NewValidation("shippingAddress.postalCode", "postal code is required")
	}
	if in.ShippingTotal < 0 {
		return errs.NewValidation("shippingTotal", "shipping total cannot be negative")
	}
	if in.TaxTotal < 0 {
		return errs.NewValidation("taxTotal", "tax total cannot be negative")
	}
	return nil
}
