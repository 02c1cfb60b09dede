// Package billing wraps the Stripe calls hookrelay makes: verifying billing
// webhooks and opening checkout sessions for premium access.
package billing

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/webhook"
)

var (
	ErrInvalidPayload   = errors.New("invalid payload")
	ErrInvalidSignature = errors.New("invalid signature")
)

// DefaultTolerance bounds how old a signed timestamp may be.
const DefaultTolerance = webhook.DefaultTolerance

// EventCheckoutCompleted grants premium access to the session's client reference.
const EventCheckoutCompleted = stripe.EventType("checkout.session.completed")

// Verifier checks the Stripe-Signature header of billing webhooks.
type Verifier struct {
	secret    string
	tolerance time.Duration
}

func NewVerifier(secret string, tolerance time.Duration) *Verifier {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return &Verifier{secret: secret, tolerance: tolerance}
}

// ConstructEvent decodes payload and verifies sigHeader against it.
// Malformed JSON yields ErrInvalidPayload; any signature problem yields
// ErrInvalidSignature.
func (v *Verifier) ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error) {
	var event stripe.Event
	if err := json.Unmarshal(payload, &event); err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	if v.secret == "" {
		return stripe.Event{}, fmt.Errorf("%w: webhook secret not configured", ErrInvalidSignature)
	}
	if err := webhook.ValidatePayloadWithTolerance(payload, sigHeader, v.secret, v.tolerance); err != nil {
		return stripe.Event{}, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	return event, nil
}

// CheckoutIdentity returns the client_reference_id of a completed checkout
// session event.
func CheckoutIdentity(event stripe.Event) (string, bool) {
	if event.Type != EventCheckoutCompleted || event.Data == nil {
		return "", false
	}
	id, ok := event.Data.Object["client_reference_id"].(string)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}
