package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v82/webhook"
	"github.com/telhawk-systems/hookrelay/internal/billing"
	"github.com/telhawk-systems/hookrelay/internal/entitlement"
	"github.com/telhawk-systems/hookrelay/internal/logging"
	"github.com/telhawk-systems/hookrelay/internal/middleware"
	"github.com/telhawk-systems/hookrelay/internal/models"
	"github.com/telhawk-systems/hookrelay/internal/pipeline"
	"github.com/telhawk-systems/hookrelay/internal/tokens"
)

func testLogger() *logging.Logger {
	return logging.NewWithWriter(io.Discard, slog.LevelError, "json")
}

type captured struct {
	format  models.FormatName
	payload models.FormattedPayload
}

type mockDispatcher struct {
	calls []captured
}

func (m *mockDispatcher) Dispatch(ctx context.Context, format models.FormatName, payload models.FormattedPayload, requestID string) error {
	m.calls = append(m.calls, captured{format: format, payload: payload})
	return nil
}

func newWebhookHandler(maxBody int64) (*WebhookHandler, *mockDispatcher) {
	d := &mockDispatcher{}
	p := pipeline.NewDefault(d, slog.New(slog.NewTextHandler(io.Discard, nil)))
	return NewWebhookHandler(p, maxBody, testLogger()), d
}

func TestHandleWebhook(t *testing.T) {
	tests := []struct {
		name       string
		method     string
		target     string
		body       string
		wantStatus int
		wantBody   string
		dispatched int
	}{
		{
			name:       "defaults",
			method:     http.MethodPost,
			target:     "/webhook",
			body:       `{"message":"Hello, world!"}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"success"}`,
			dispatched: 1,
		},
		{
			name:       "github to discord",
			method:     http.MethodPost,
			target:     "/webhook?source=github&format=discord",
			body:       `{"repository":{"full_name":"test/repo"},"pusher":{"name":"testuser"},"commits":[{},{}]}`,
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"success"}`,
			dispatched: 1,
		},
		{
			name:       "invalid source",
			method:     http.MethodPost,
			target:     "/webhook?source=invalid&format=default",
			body:       `{"message":"Hello, world!"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid source or format"}`,
		},
		{
			name:       "invalid format",
			method:     http.MethodPost,
			target:     "/webhook?source=default&format=invalid",
			body:       `{"message":"Hello, world!"}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid source or format"}`,
		},
		{
			name:       "empty source is not defaulted",
			method:     http.MethodPost,
			target:     "/webhook?source=",
			body:       `{}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid source or format"}`,
		},
		{
			name:       "malformed json",
			method:     http.MethodPost,
			target:     "/webhook",
			body:       `{"message":`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid JSON payload"}`,
		},
		{
			name:       "json array",
			method:     http.MethodPost,
			target:     "/webhook",
			body:       `[1,2,3]`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid JSON payload"}`,
		},
		{
			name:       "trailing data",
			method:     http.MethodPost,
			target:     "/webhook",
			body:       `{"a":1}{"b":2}`,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid JSON payload"}`,
		},
		{
			name:       "empty body",
			method:     http.MethodPost,
			target:     "/webhook",
			body:       ``,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid JSON payload"}`,
		},
		{
			name:       "wrong method",
			method:     http.MethodGet,
			target:     "/webhook",
			wantStatus: http.StatusMethodNotAllowed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, d := newWebhookHandler(0)

			req := httptest.NewRequest(tt.method, tt.target, strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			h.HandleWebhook(w, req)

			assert.Equal(t, tt.wantStatus, w.Code)
			if tt.wantBody != "" {
				assert.JSONEq(t, tt.wantBody, w.Body.String())
			}
			assert.Len(t, d.calls, tt.dispatched)
		})
	}
}

func TestHandleWebhook_StripeToTeams(t *testing.T) {
	h, d := newWebhookHandler(0)

	body := `{"data":{"object":{"amount":1000,"currency":"usd","billing_details":{"email":"test@example.com"}}}}`
	req := httptest.NewRequest(http.MethodPost, "/webhook?source=stripe&format=msteams", strings.NewReader(body))
	w := httptest.NewRecorder()
	h.HandleWebhook(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, d.calls, 1)

	out, err := json.Marshal(d.calls[0].payload)
	require.NoError(t, err)
	assert.Contains(t, string(out), "10.0 USD")
	assert.Contains(t, string(out), "test@example.com")
}

func TestHandleWebhook_TooLarge(t *testing.T) {
	h, d := newWebhookHandler(16)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{"message":"this body is longer than sixteen bytes"}`))
	w := httptest.NewRecorder()
	h.HandleWebhook(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Empty(t, d.calls)
}

func TestHandleWebhook_InvalidPairBeforeBody(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		body       string
		maxBody    int64
		wantStatus int
		wantBody   string
	}{
		{
			name:       "invalid source with non-json body",
			target:     "/webhook?source=invalid",
			body:       "not json",
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid source or format"}`,
		},
		{
			name:       "invalid format with oversized body",
			target:     "/webhook?format=invalid",
			body:       `{"message":"this body is longer than sixteen bytes"}`,
			maxBody:    16,
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid source or format"}`,
		},
		{
			name:       "valid pair with non-json body",
			target:     "/webhook?source=github",
			body:       "not json",
			wantStatus: http.StatusBadRequest,
			wantBody:   `{"error":"Invalid JSON payload"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, d := newWebhookHandler(tt.maxBody)
			w := httptest.NewRecorder()
			h.HandleWebhook(w, httptest.NewRequest(http.MethodPost, tt.target, strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantStatus, w.Code)
			assert.JSONEq(t, tt.wantBody, w.Body.String())
			assert.Empty(t, d.calls)
		})
	}
}

type failingProcessor struct{}

func (failingProcessor) Validate(ctx context.Context, source models.SourceName, format models.FormatName) error {
	return nil
}

func (failingProcessor) Process(ctx context.Context, source models.SourceName, format models.FormatName, raw models.RawPayload) error {
	return errors.New("pipeline not configured")
}

func TestHandleWebhook_InternalError(t *testing.T) {
	h := NewWebhookHandler(failingProcessor{}, 0, testLogger())
	w := httptest.NewRecorder()
	h.HandleWebhook(w, httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(`{}`)))
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestHealthHandler(t *testing.T) {
	p := pipeline.NewDefault(nil, nil)
	h := NewHealthHandler(p)

	w := httptest.NewRecorder()
	h.Health(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.Ready(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusOK, w.Code)

	var ready struct {
		Status  string                `json:"status"`
		Sources []string              `json:"sources"`
		Formats []string              `json:"formats"`
		Stats   models.IngestionStats `json:"stats"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ready))
	assert.Equal(t, "ready", ready.Status)
	assert.Contains(t, ready.Sources, "github")
	assert.Contains(t, ready.Formats, "msteams")

	w = httptest.NewRecorder()
	NewHealthHandler(nil).Ready(w, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

// withIdentity runs the request through RequireToken so handlers see claims.
func withIdentity(t *testing.T, manager *tokens.Manager, kind tokens.Kind, identity string, h http.HandlerFunc) (*httptest.ResponseRecorder, *http.Request) {
	t.Helper()
	var tok string
	var err error
	if kind == tokens.KindRefresh {
		tok, err = manager.IssueRefresh(identity)
	} else {
		tok, err = manager.IssueAccess(identity, true)
	}
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	middleware.RequireToken(manager, kind)(h).ServeHTTP(w, req)
	return w, req
}

type failingStore struct{}

func (failingStore) HasAccess(ctx context.Context, identity string) (bool, error) {
	return false, errors.New("connection refused")
}

func (failingStore) Grant(ctx context.Context, identity string) error {
	return errors.New("connection refused")
}

func (failingStore) Close() error { return nil }

func TestAuthHandler(t *testing.T) {
	manager := tokens.NewManager("handler-secret", time.Minute, time.Hour)
	store := entitlement.NewMemoryStore()
	h := NewAuthHandler(manager, store, testLogger())

	t.Run("refresh issues a non-fresh access token", func(t *testing.T) {
		w, _ := withIdentity(t, manager, tokens.KindRefresh, "user-1", h.Refresh)
		require.Equal(t, http.StatusOK, w.Code)

		var body map[string]string
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
		claims, err := manager.Validate(body["access_token"], tokens.KindAccess)
		require.NoError(t, err)
		assert.Equal(t, "user-1", claims.Identity)
		assert.False(t, claims.Fresh)
	})

	t.Run("protected denies unpaid users", func(t *testing.T) {
		w, _ := withIdentity(t, manager, tokens.KindAccess, "user-2", h.Protected)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"message":"Access denied. Please subscribe."}`, w.Body.String())
	})

	t.Run("protected welcomes paid users", func(t *testing.T) {
		require.NoError(t, store.Grant(context.Background(), "user-3"))
		w, _ := withIdentity(t, manager, tokens.KindAccess, "user-3", h.Protected)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"logged_in_as":"user-3","message":"Welcome, premium user!"}`, w.Body.String())
	})

	t.Run("store failure", func(t *testing.T) {
		broken := NewAuthHandler(manager, failingStore{}, testLogger())
		w, _ := withIdentity(t, manager, tokens.KindAccess, "user-4", broken.Protected)
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

const webhookSecret = "whsec_handler_test"

func signedRequest(t *testing.T, payload string) *http.Request {
	t.Helper()
	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    webhookSecret,
		Timestamp: time.Now(),
	})
	req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", strings.NewReader(payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	return req
}

type fakeCheckout struct {
	id  string
	err error
	req billing.CheckoutRequest
}

func (f *fakeCheckout) CreateCheckoutSession(ctx context.Context, req billing.CheckoutRequest) (string, error) {
	f.req = req
	return f.id, f.err
}

func TestBillingHandler_StripeWebhook(t *testing.T) {
	completed := `{"id":"evt_1","object":"event","type":"checkout.session.completed","data":{"object":{"object":"checkout.session","client_reference_id":"user-42"}}}`
	noReference := `{"id":"evt_2","object":"event","type":"checkout.session.completed","data":{"object":{"object":"checkout.session"}}}`
	other := `{"id":"evt_3","object":"event","type":"charge.succeeded","data":{"object":{"object":"charge"}}}`

	verifier := billing.NewVerifier(webhookSecret, 0)

	t.Run("grants access on completed checkout", func(t *testing.T) {
		store := entitlement.NewMemoryStore()
		h := NewBillingHandler(verifier, &fakeCheckout{}, store, 0, testLogger())

		w := httptest.NewRecorder()
		h.StripeWebhook(w, signedRequest(t, completed))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "OK", w.Body.String())

		ok, err := store.HasAccess(context.Background(), "user-42")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("missing reference and other events are acknowledged", func(t *testing.T) {
		store := entitlement.NewMemoryStore()
		h := NewBillingHandler(verifier, &fakeCheckout{}, store, 0, testLogger())

		for _, payload := range []string{noReference, other} {
			w := httptest.NewRecorder()
			h.StripeWebhook(w, signedRequest(t, payload))
			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, "OK", w.Body.String())
		}
	})

	t.Run("invalid payload", func(t *testing.T) {
		h := NewBillingHandler(verifier, &fakeCheckout{}, entitlement.NewMemoryStore(), 0, testLogger())
		w := httptest.NewRecorder()
		h.StripeWebhook(w, signedRequest(t, "not json"))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid payload", w.Body.String())
	})

	t.Run("invalid signature", func(t *testing.T) {
		h := NewBillingHandler(verifier, &fakeCheckout{}, entitlement.NewMemoryStore(), 0, testLogger())
		req := httptest.NewRequest(http.MethodPost, "/webhook/stripe", strings.NewReader(completed))
		req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
		w := httptest.NewRecorder()
		h.StripeWebhook(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid signature", w.Body.String())
	})

	t.Run("grant failure asks stripe to retry", func(t *testing.T) {
		h := NewBillingHandler(verifier, &fakeCheckout{}, failingStore{}, 0, testLogger())
		w := httptest.NewRecorder()
		h.StripeWebhook(w, signedRequest(t, completed))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestBillingHandler_CreateCheckoutSession(t *testing.T) {
	manager := tokens.NewManager("handler-secret", time.Minute, time.Hour)

	t.Run("returns session id", func(t *testing.T) {
		checkout := &fakeCheckout{id: "cs_test_123"}
		h := NewBillingHandler(nil, checkout, entitlement.NewMemoryStore(), 0, testLogger())

		w, _ := withIdentity(t, manager, tokens.KindAccess, "user-9", h.CreateCheckoutSession)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"id":"cs_test_123"}`, w.Body.String())
		assert.Equal(t, "user-9", checkout.req.Identity)
		assert.Equal(t, "http://example.com/", checkout.req.BaseURL)
	})

	t.Run("stripe error is forbidden", func(t *testing.T) {
		checkout := &fakeCheckout{err: errors.New("No API key provided")}
		h := NewBillingHandler(nil, checkout, entitlement.NewMemoryStore(), 0, testLogger())

		w, _ := withIdentity(t, manager, tokens.KindAccess, "user-9", h.CreateCheckoutSession)
		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.JSONEq(t, `{"error":"No API key provided"}`, w.Body.String())
	})
}

func TestBillingHandler_StaticPages(t *testing.T) {
	h := NewBillingHandler(nil, nil, nil, 0, testLogger())

	w := httptest.NewRecorder()
	h.Success(w, httptest.NewRequest(http.MethodGet, "/success?session_id=cs_1", nil))
	assert.JSONEq(t, `{"message":"Payment successful!"}`, w.Body.String())

	w = httptest.NewRecorder()
	h.Cancel(w, httptest.NewRequest(http.MethodGet, "/cancel", nil))
	assert.JSONEq(t, `{"message":"Payment cancelled."}`, w.Body.String())
}

func TestBaseURL(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "http://internal:8080/create-checkout-session", nil)
	assert.Equal(t, "http://internal:8080/", baseURL(req))

	req.Header.Set("X-Forwarded-Proto", "https")
	req.Header.Set("X-Forwarded-Host", "relay.example.com")
	assert.Equal(t, "https://relay.example.com/", baseURL(req))
}
