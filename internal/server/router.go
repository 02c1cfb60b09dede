package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/telhawk-systems/hookrelay/internal/handlers"
	"github.com/telhawk-systems/hookrelay/internal/middleware"
	"github.com/telhawk-systems/hookrelay/internal/ratelimit"
	"github.com/telhawk-systems/hookrelay/internal/tokens"
)

// Limits are the per-client-IP rate limiters. Nil limiters are skipped.
type Limits struct {
	Webhook ratelimit.RateLimiter
	Hourly  ratelimit.RateLimiter
	Daily   ratelimit.RateLimiter
}

// Routes bundles everything NewRouter mounts.
type Routes struct {
	Webhook *handlers.WebhookHandler
	Billing *handlers.BillingHandler
	Auth    *handlers.AuthHandler
	Health  *handlers.HealthHandler
	Tokens  middleware.TokenValidator
	Limits  Limits
}

// NewRouter constructs a ServeMux with the relay API routes registered.
// Health and metrics endpoints are exempt from rate limiting.
func NewRouter(rt Routes) http.Handler {
	mux := http.NewServeMux()

	global := []func(http.Handler) http.Handler{
		middleware.RateLimit("hourly", rt.Limits.Hourly),
		middleware.RateLimit("daily", rt.Limits.Daily),
	}
	limited := func(h http.HandlerFunc, extra ...func(http.Handler) http.Handler) http.Handler {
		return middleware.Chain(h, append(append([]func(http.Handler) http.Handler{}, global...), extra...)...)
	}
	access := middleware.RequireToken(rt.Tokens, tokens.KindAccess)
	refresh := middleware.RequireToken(rt.Tokens, tokens.KindRefresh)

	// Webhook ingestion
	mux.Handle("/webhook", limited(rt.Webhook.HandleWebhook, middleware.RateLimit("webhook", rt.Limits.Webhook)))

	// Billing
	mux.Handle("POST /webhook/stripe", limited(rt.Billing.StripeWebhook))
	mux.Handle("POST /create-checkout-session", limited(rt.Billing.CreateCheckoutSession, access))
	mux.Handle("GET /success", limited(rt.Billing.Success))
	mux.Handle("GET /cancel", limited(rt.Billing.Cancel))

	// Tokens and premium content
	mux.Handle("POST /refresh", limited(rt.Auth.Refresh, refresh))
	mux.Handle("GET /protected", limited(rt.Auth.Protected, access))

	// Health endpoints
	mux.HandleFunc("GET /healthz", rt.Health.Health)
	mux.HandleFunc("GET /readyz", rt.Health.Ready)

	// Prometheus metrics
	mux.Handle("GET /metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
