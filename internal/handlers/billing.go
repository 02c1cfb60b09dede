package handlers

import (
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/stripe/stripe-go/v82"
	"github.com/telhawk-systems/hookrelay/internal/billing"
	"github.com/telhawk-systems/hookrelay/internal/entitlement"
	"github.com/telhawk-systems/hookrelay/internal/httputil"
	"github.com/telhawk-systems/hookrelay/internal/logging"
	"github.com/telhawk-systems/hookrelay/internal/metrics"
	"github.com/telhawk-systems/hookrelay/internal/middleware"
)

// EventVerifier decodes and authenticates Stripe webhooks.
type EventVerifier interface {
	ConstructEvent(payload []byte, sigHeader string) (stripe.Event, error)
}

type BillingHandler struct {
	verifier    EventVerifier
	checkout    billing.CheckoutCreator
	store       entitlement.Store
	maxBodySize int64
	logger      *logging.Logger
}

func NewBillingHandler(verifier EventVerifier, checkout billing.CheckoutCreator, store entitlement.Store, maxBodySize int64, logger *logging.Logger) *BillingHandler {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &BillingHandler{
		verifier:    verifier,
		checkout:    checkout,
		store:       store,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// StripeWebhook grants premium access when a checkout session completes.
func (h *BillingHandler) StripeWebhook(w http.ResponseWriter, r *http.Request) {
	defer r.Body.Close()
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		metrics.StripeEventsTotal.WithLabelValues("invalid_payload").Inc()
		httputil.WriteText(w, http.StatusBadRequest, "Invalid payload")
		return
	}

	event, err := h.verifier.ConstructEvent(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.WarnContext(r.Context(), "rejected stripe webhook",
			logging.IP(httputil.ClientIP(r)),
			logging.Error(err),
		)
		if errors.Is(err, billing.ErrInvalidPayload) {
			metrics.StripeEventsTotal.WithLabelValues("invalid_payload").Inc()
			httputil.WriteText(w, http.StatusBadRequest, "Invalid payload")
			return
		}
		metrics.StripeEventsTotal.WithLabelValues("invalid_signature").Inc()
		httputil.WriteText(w, http.StatusBadRequest, "Invalid signature")
		return
	}

	if event.Type != billing.EventCheckoutCompleted {
		metrics.StripeEventsTotal.WithLabelValues("ignored").Inc()
		httputil.WriteText(w, http.StatusOK, "OK")
		return
	}

	identity, ok := billing.CheckoutIdentity(event)
	if !ok {
		h.logger.WarnContext(r.Context(), "no user ID found in checkout session", logging.EventType(string(event.Type)))
		metrics.StripeEventsTotal.WithLabelValues("no_reference").Inc()
		httputil.WriteText(w, http.StatusOK, "OK")
		return
	}

	// A 5xx makes Stripe redeliver, so a failed grant is retried.
	if err := h.store.Grant(r.Context(), identity); err != nil {
		h.logger.ErrorContext(r.Context(), "failed to grant premium access", logging.UserID(identity), logging.Error(err))
		metrics.StripeEventsTotal.WithLabelValues("grant_failed").Inc()
		httputil.WriteText(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	metrics.StripeEventsTotal.WithLabelValues("granted").Inc()
	metrics.EntitlementsGranted.Inc()
	h.logger.InfoContext(r.Context(), "premium access granted", logging.UserID(identity))
	httputil.WriteText(w, http.StatusOK, "OK")
}

// CreateCheckoutSession opens a Stripe Checkout session for the caller.
func (h *BillingHandler) CreateCheckoutSession(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	id, err := h.checkout.CreateCheckoutSession(r.Context(), billing.CheckoutRequest{
		Identity: identity,
		BaseURL:  baseURL(r),
	})
	if err != nil {
		h.logger.WarnContext(r.Context(), "checkout session failed", logging.UserID(identity), logging.Error(err))
		httputil.WriteError(w, http.StatusForbidden, err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"id": id})
}

func (h *BillingHandler) Success(w http.ResponseWriter, r *http.Request) {
	httputil.WriteMessage(w, http.StatusOK, "Payment successful!")
}

func (h *BillingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	httputil.WriteMessage(w, http.StatusOK, "Payment cancelled.")
}

// baseURL reconstructs the externally visible root, honouring proxy headers.
func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.TrimSpace(strings.Split(proto, ",")[0])
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	return scheme + "://" + host + "/"
}
