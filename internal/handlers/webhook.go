package handlers

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"

	"github.com/telhawk-systems/hookrelay/internal/httputil"
	"github.com/telhawk-systems/hookrelay/internal/logging"
	"github.com/telhawk-systems/hookrelay/internal/metrics"
	"github.com/telhawk-systems/hookrelay/internal/models"
	"github.com/telhawk-systems/hookrelay/internal/validator"
)

const DefaultMaxBodySize = 1 << 20

// Processor runs one webhook through the transformation pipeline.
type Processor interface {
	Validate(ctx context.Context, source models.SourceName, format models.FormatName) error
	Process(ctx context.Context, source models.SourceName, format models.FormatName, raw models.RawPayload) error
}

type WebhookHandler struct {
	pipeline    Processor
	maxBodySize int64
	logger      *logging.Logger
}

func NewWebhookHandler(pipeline Processor, maxBodySize int64, logger *logging.Logger) *WebhookHandler {
	if maxBodySize <= 0 {
		maxBodySize = DefaultMaxBodySize
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &WebhookHandler{
		pipeline:    pipeline,
		maxBodySize: maxBodySize,
		logger:      logger,
	}
}

// HandleWebhook accepts POST /webhook?source=<s>&format=<f>.
func (h *WebhookHandler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		httputil.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	query := r.URL.Query()
	source := models.SourceName(queryOr(query, "source", string(models.SourceDefault)))
	format := models.FormatName(queryOr(query, "format", string(models.FormatDefault)))

	if err := h.pipeline.Validate(r.Context(), source, format); err != nil {
		h.rejectPair(w, r, source, format, err)
		return
	}

	raw, status, msg := h.readPayload(w, r)
	if status != 0 {
		h.logger.WarnContext(r.Context(), "rejected webhook body",
			logging.Source(string(source)),
			logging.Format(string(format)),
			logging.Status(status),
			logging.IP(httputil.ClientIP(r)),
		)
		httputil.WriteError(w, status, msg)
		return
	}

	if err := h.pipeline.Process(r.Context(), source, format, raw); err != nil {
		h.rejectPair(w, r, source, format, err)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "success"})
}

func (h *WebhookHandler) rejectPair(w http.ResponseWriter, r *http.Request, source models.SourceName, format models.FormatName, err error) {
	if errors.Is(err, validator.ErrInvalidRequest) {
		h.logger.WarnContext(r.Context(), "invalid source or format",
			logging.Source(string(source)),
			logging.Format(string(format)),
			logging.Error(err),
		)
		httputil.WriteError(w, http.StatusBadRequest, "Invalid source or format")
		return
	}
	h.logger.ErrorContext(r.Context(), "webhook processing failed", logging.Error(err))
	httputil.WriteError(w, http.StatusInternalServerError, "Internal server error")
}

// readPayload decodes the body as a single JSON object. A non-zero status
// reports why the body was refused.
func (h *WebhookHandler) readPayload(w http.ResponseWriter, r *http.Request) (models.RawPayload, int, string) {
	defer r.Body.Close()

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, http.StatusRequestEntityTooLarge, "Payload too large"
		}
		return nil, http.StatusBadRequest, "Invalid JSON payload"
	}
	metrics.WebhookBytesTotal.Add(float64(len(body)))

	raw, err := models.DecodeRawPayload(bytes.NewReader(body))
	if err != nil {
		return nil, http.StatusBadRequest, "Invalid JSON payload"
	}
	return raw, 0, ""
}

// queryOr returns def only when key is absent; an empty value is kept so
// that ?source= is rejected rather than silently defaulted.
func queryOr(q url.Values, key, def string) string {
	if !q.Has(key) {
		return def
	}
	return q.Get(key)
}
