// Package dispatch delivers formatted payloads to their destination sinks.
package dispatch

import (
	"context"
	"errors"
	"log/slog"

	"github.com/telhawk-systems/hookrelay/internal/models"
)

// ErrSinkMisconfigured is returned by sinks missing required settings.
var ErrSinkMisconfigured = errors.New("sink misconfigured")

// Sink delivers one formatted payload.
type Sink interface {
	Name() string
	Send(ctx context.Context, format models.FormatName, payload models.FormattedPayload) error
}

// LogSink writes payloads to the structured log.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Send(ctx context.Context, format models.FormatName, payload models.FormattedPayload) error {
	s.logger.InfoContext(ctx, "sending payload",
		slog.String("format", string(format)),
		slog.String("payload", models.Record(payload).String()),
	)
	return nil
}
