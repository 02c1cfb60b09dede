package handlers

import (
	"net/http"

	"github.com/telhawk-systems/hookrelay/internal/entitlement"
	"github.com/telhawk-systems/hookrelay/internal/httputil"
	"github.com/telhawk-systems/hookrelay/internal/logging"
	"github.com/telhawk-systems/hookrelay/internal/middleware"
)

// AccessIssuer mints access tokens; tokens.Manager satisfies it.
type AccessIssuer interface {
	IssueAccess(identity string, fresh bool) (string, error)
}

type AuthHandler struct {
	issuer AccessIssuer
	store  entitlement.Store
	logger *logging.Logger
}

func NewAuthHandler(issuer AccessIssuer, store entitlement.Store, logger *logging.Logger) *AuthHandler {
	if logger == nil {
		logger = logging.Default()
	}
	return &AuthHandler{issuer: issuer, store: store, logger: logger}
}

// Refresh trades a refresh token (checked by middleware) for a new,
// non-fresh access token.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())
	access, err := h.issuer.IssueAccess(identity, false)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "failed to issue access token", logging.UserID(identity), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"access_token": access})
}

// Protected is only served to identities that completed a checkout.
func (h *AuthHandler) Protected(w http.ResponseWriter, r *http.Request) {
	identity := middleware.GetIdentity(r.Context())

	paid, err := h.store.HasAccess(r.Context(), identity)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "entitlement lookup failed", logging.UserID(identity), logging.Error(err))
		httputil.WriteError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	if !paid {
		httputil.WriteMessage(w, http.StatusForbidden, "Access denied. Please subscribe.")
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{
		"logged_in_as": identity,
		"message":      "Welcome, premium user!",
	})
}
