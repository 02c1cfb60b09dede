// Package pipeline glues validation, parsing, formatting and dispatch
// into the single path every inbound webhook takes.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/telhawk-systems/hookrelay/internal/formatter"
	"github.com/telhawk-systems/hookrelay/internal/metrics"
	"github.com/telhawk-systems/hookrelay/internal/middleware"
	"github.com/telhawk-systems/hookrelay/internal/models"
	"github.com/telhawk-systems/hookrelay/internal/normalizer"
	"github.com/telhawk-systems/hookrelay/internal/validator"
)

// Dispatcher hands a formatted payload to its sink.
type Dispatcher interface {
	Dispatch(ctx context.Context, format models.FormatName, payload models.FormattedPayload, requestID string) error
}

// Pipeline turns a raw payload into a formatted payload and dispatches it.
type Pipeline struct {
	parsers    *normalizer.Registry
	formatters *formatter.Registry
	validators *validator.Chain
	dispatcher Dispatcher
	logger     *slog.Logger

	accepted atomic.Int64
	rejected atomic.Int64
}

// New creates a pipeline. A nil dispatcher makes Process transform only.
func New(parsers *normalizer.Registry, formatters *formatter.Registry, validators *validator.Chain, dispatcher Dispatcher, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		parsers:    parsers,
		formatters: formatters,
		validators: validators,
		dispatcher: dispatcher,
		logger:     logger,
	}
}

// NewDefault wires the built-in registries and allow-list validators.
func NewDefault(dispatcher Dispatcher, logger *slog.Logger) *Pipeline {
	return New(normalizer.Default(), formatter.Default(), validator.NewDefaultChain(), dispatcher, logger)
}

// Validate checks the routing pair alone and counts a rejection when it
// fails, so callers can refuse a request before reading its body.
func (p *Pipeline) Validate(ctx context.Context, source models.SourceName, format models.FormatName) error {
	if p == nil {
		return fmt.Errorf("pipeline not configured")
	}
	if err := p.validators.Validate(ctx, validator.Request{Source: source, Format: format}); err != nil {
		p.reject()
		return err
	}
	return nil
}

func (p *Pipeline) reject() {
	p.rejected.Add(1)
	metrics.WebhooksTotal.WithLabelValues("invalid", "invalid", "rejected").Inc()
}

// Transform validates the routing pair and renders raw for format. It has
// no side effects beyond metrics.
func (p *Pipeline) Transform(ctx context.Context, source models.SourceName, format models.FormatName, raw models.RawPayload) (models.FormattedPayload, error) {
	if p == nil {
		return nil, fmt.Errorf("pipeline not configured")
	}

	if err := p.validators.Validate(ctx, validator.Request{Source: source, Format: format}); err != nil {
		return nil, err
	}

	parser, ok := p.parsers.Resolve(source)
	if !ok {
		return nil, fmt.Errorf("%w %q: no parser registered", validator.ErrInvalidSource, source)
	}
	render, ok := p.formatters.Resolve(format)
	if !ok {
		return nil, fmt.Errorf("%w %q: no formatter registered", validator.ErrInvalidFormat, format)
	}

	start := time.Now()
	record := parser.Parse(raw)
	payload := render.Format(record)
	metrics.TransformDuration.WithLabelValues(string(source), string(format)).Observe(time.Since(start).Seconds())

	return payload, nil
}

// Process transforms raw and queues it for delivery. Only validation
// failures are returned; delivery problems are logged.
func (p *Pipeline) Process(ctx context.Context, source models.SourceName, format models.FormatName, raw models.RawPayload) error {
	payload, err := p.Transform(ctx, source, format, raw)
	if err != nil {
		p.reject()
		return err
	}
	p.accepted.Add(1)
	metrics.WebhooksTotal.WithLabelValues(string(source), string(format), "accepted").Inc()

	if p.dispatcher == nil {
		return nil
	}

	requestID := middleware.GetRequestID(ctx)
	if err := p.dispatcher.Dispatch(ctx, format, payload, requestID); err != nil {
		p.logger.WarnContext(ctx, "payload not dispatched",
			slog.String("source", string(source)),
			slog.String("format", string(format)),
			slog.String("request_id", requestID),
			slog.String("error", err.Error()),
		)
	}
	return nil
}

// Stats reports how many payloads were accepted and rejected.
func (p *Pipeline) Stats() models.IngestionStats {
	return models.IngestionStats{
		Accepted: p.accepted.Load(),
		Rejected: p.rejected.Load(),
	}
}

func (p *Pipeline) Sources() []models.SourceName { return p.parsers.Sources() }

func (p *Pipeline) Formats() []models.FormatName { return p.formatters.Formats() }
