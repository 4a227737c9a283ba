package checkout

import (
	"context"
	"strings"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/notifications"
	pkgerrors "github.com/angelmondragon/storefront/pkg/errors"
	"github.com/angelmondragon/storefront/pkg/logger"
	"github.com/angelmondragon/storefront/pkg/types"
	"github.com/angelmondragon/storefront/pkg/validation"
)

const (
	MsgStkPushSent = "STK Push sent! Check your phone to complete the payment."

	msgSummaryFailed   = "Could not load your cart summary."
	msgInvalidPhone    = "Please enter a valid M-Pesa phone number, e.g., 0712345678 or 254712345678."
	msgMissingShipping = "Please fill in all shipping details."
	msgEmptyCart       = "Your cart is empty. Please add items before placing an order."
	msgPaymentFailed   = "Failed to initiate M-Pesa payment."
)

// API is the backend surface used at checkout.
type API interface {
	GetCart(ctx context.Context) ([]cart.Line, error)
	StkPush(ctx context.Context, req StkPushRequest) (StkPushResponse, error)
}

// ServiceParams groups dependencies for the checkout service.
type ServiceParams struct {
	API         API
	ShippingFee types.Money
	Notifier    notifications.Notifier
	Logger      *logger.Logger
}

// Service computes the order summary and starts M-Pesa payment.
type Service struct {
	api      API
	shipping types.Money
	notifier notifications.Notifier
	logg     *logger.Logger
}

func NewService(params ServiceParams) (*Service, error) {
	if params.API == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "checkout api is required")
	}
	if params.ShippingFee.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipping fee must not be negative")
	}
	s := &Service{
		api:      params.API,
		shipping: params.ShippingFee,
		notifier: params.Notifier,
		logg:     params.Logger,
	}
	if s.notifier == nil {
		s.notifier = notifications.Discard{}
	}
	if s.logg == nil {
		s.logg = logger.Nop()
	}
	return s, nil
}

// Summary totals the server cart. On failure it returns an empty summary
// alongside the error.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	lines, err := s.api.GetCart(ctx)
	if err != nil {
		s.logg.Error(ctx, "loading checkout cart failed", err)
		s.notifier.Notify(ctx, notifications.Error(msgSummaryFailed))
		return Totals(nil, s.shipping), pkgerrors.Wrap(pkgerrors.CodeConnectivity, err, msgSummaryFailed)
	}
	return Totals(lines, s.shipping), nil
}

// PlaceOrder validates the form, re-reads the cart and sends the STK push.
// It returns the message to show the customer.
func (s *Service) PlaceOrder(ctx context.Context, phone string, shipping ShippingDetails) (string, error) {
	shipping = trimShipping(shipping)
	if err := validation.Struct(shipping); err != nil {
		typed := pkgerrors.As(err)
		out := pkgerrors.New(pkgerrors.CodeValidation, msgMissingShipping).WithDetails(typed.Details())
		return "", s.reject(ctx, out)
	}
	phone = validation.NormalizePhone(phone)
	if !validation.IsMpesaPhone(phone) {
		return "", s.reject(ctx, pkgerrors.New(pkgerrors.CodeValidation, msgInvalidPhone))
	}

	lines, err := s.api.GetCart(ctx)
	if err != nil {
		s.logg.Error(ctx, "loading cart before payment failed", err)
		return "", s.reject(ctx, pkgerrors.Wrap(pkgerrors.CodeConnectivity, err, msgSummaryFailed))
	}
	summary := Totals(lines, s.shipping)
	if summary.Empty() {
		return "", s.reject(ctx, pkgerrors.New(pkgerrors.CodeValidation, msgEmptyCart))
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"items":  summary.ItemCount,
		"amount": summary.Total.Display(),
	})
	resp, err := s.api.StkPush(ctx, StkPushRequest{
		Phone:           phone,
		Cart:            summary.Lines,
		ShippingDetails: shipping,
		Amount:          summary.Total,
	})
	if err != nil {
		s.logg.Error(ctx, "stk push failed", err)
		return "", s.reject(ctx, pkgerrors.Wrap(pkgerrors.CodeServerRejected, err, paymentFailureMessage(err)))
	}

	msg := resp.CustomerMessage
	if msg == "" {
		msg = MsgStkPushSent
	}
	s.logg.Info(ctx, "stk push sent")
	s.notifier.Notify(ctx, notifications.Success(msg))
	return msg, nil
}

func (s *Service) reject(ctx context.Context, err *pkgerrors.Error) error {
	s.notifier.Notify(ctx, notifications.Error(err.Message()))
	return err
}

// paymentFailureMessage prefers the backend's details, then its error.
func paymentFailureMessage(err error) string {
	typed := pkgerrors.As(err)
	if typed == nil {
		return msgPaymentFailed
	}
	if details, ok := typed.Details().(string); ok && details != "" {
		return details
	}
	switch typed.Code() {
	case pkgerrors.CodeConnectivity, pkgerrors.CodeDependency, pkgerrors.CodeInternal:
		return msgPaymentFailed
	}
	if typed.Message() != "" {
		return typed.Message()
	}
	return msgPaymentFailed
}

func trimShipping(d ShippingDetails) ShippingDetails {
	d.Name = strings.TrimSpace(d.Name)
	d.Address = strings.TrimSpace(d.Address)
	d.City = strings.TrimSpace(d.City)
	d.PostalCode = strings.TrimSpace(d.PostalCode)
	d.Phone = strings.TrimSpace(d.Phone)
	return d
}
