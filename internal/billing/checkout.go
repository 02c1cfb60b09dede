package billing

import (
	"context"
	"errors"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/checkout/session"
)

// Premium access is a single one-off charge.
const (
	PremiumProductName = "Premium Access"
	PremiumUnitAmount  = 500
	PremiumCurrency    = stripe.CurrencyUSD
)

var ErrStripeNotConfigured = errors.New("stripe secret key not configured")

// CheckoutRequest carries what a checkout session needs from the caller.
type CheckoutRequest struct {
	Identity string
	// BaseURL is the externally visible root of the service, used for the
	// success and cancel redirects.
	BaseURL string
}

type CheckoutCreator interface {
	CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error)
}

// StripeCheckout opens checkout sessions through the Stripe API.
type StripeCheckout struct {
	client session.Client
}

func NewStripeCheckout(secretKey string) *StripeCheckout {
	return &StripeCheckout{
		client: session.Client{B: stripe.GetBackend(stripe.APIBackend), Key: secretKey},
	}
}

// CreateCheckoutSession returns the new session's ID.
func (c *StripeCheckout) CreateCheckoutSession(ctx context.Context, req CheckoutRequest) (string, error) {
	if c.client.Key == "" {
		return "", ErrStripeNotConfigured
	}
	params := checkoutParams(req)
	params.Context = ctx

	s, err := c.client.New(params)
	if err != nil {
		return "", err
	}
	return s.ID, nil
}

func checkoutParams(req CheckoutRequest) *stripe.CheckoutSessionParams {
	root := strings.TrimSuffix(req.BaseURL, "/") + "/"
	return &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModePayment)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(string(PremiumCurrency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name: stripe.String(PremiumProductName),
					},
					UnitAmount: stripe.Int64(PremiumUnitAmount),
				},
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL:        stripe.String(root + "success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:         stripe.String(root + "cancel"),
		ClientReferenceID: stripe.String(req.Identity),
	}
}
