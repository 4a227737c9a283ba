package sandbox

import (
	"context"
	"fmt"

	"github.com/angelmondragon/storefront/internal/checkout"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/validation"
	"github.com/google/uuid"
)

const stkAccepted = "Success. Request accepted for processing"

// StkPush checks the request against the user's cart and simulates the
// M-Pesa prompt.
func (s *Store) StkPush(ctx context.Context, userID uuid.UUID, req checkout.StkPushRequest) (checkout.StkPushResponse, error) {
	if err := validation.Struct(req.ShippingDetails); err != nil {
		return checkout.StkPushResponse{}, err
	}

	summary := checkout.Totals(s.Cart(userID), s.shipping)
	if summary.Empty() {
		return checkout.StkPushResponse{}, pkgerrors.New(pkgerrors.CodeValidation, "Cart is empty.")
	}
	if !summary.Total.Equal(req.Amount) {
		return checkout.StkPushResponse{}, pkgerrors.New(pkgerrors.CodeServerRejected, "Amount mismatch").
			WithDetails(fmt.Sprintf("Expected %s but received %s.", summary.Total.Display(), req.Amount.Display()))
	}

	resp := checkout.StkPushResponse{
		CustomerMessage:   stkAccepted,
		MerchantRequestID: uuid.NewString(),
		CheckoutRequestID: "ws_CO_" + uuid.NewString(),
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"user_id":             userID.String(),
		"amount":              summary.Total.Display(),
		"checkout_request_id": resp.CheckoutRequestID,
	}), "sandbox stk push accepted")
	return resp, nil
}
