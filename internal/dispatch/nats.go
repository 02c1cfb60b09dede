package dispatch

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/telhawk-systems/hookrelay/internal/models"
)

// DefaultSubjectPrefix is prepended to the format name to build the subject.
const DefaultSubjectPrefix = "hookrelay.notifications"

// NATSConfig holds NATS connection settings.
type NATSConfig struct {
	URL           string
	Name          string
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
	Token         string
}

// Connect opens a NATS connection that logs disconnects and reconnects.
func Connect(cfg NATSConfig, logger *slog.Logger) (*nats.Conn, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.Name == "" {
		cfg.Name = "hookrelay"
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", slog.String("error", err.Error()))
			}
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			logger.Info("NATS reconnected", slog.String("url", c.ConnectedUrl()))
		}),
	}
	if cfg.Timeout > 0 {
		opts = append(opts, nats.Timeout(cfg.Timeout))
	}
	if cfg.Token != "" {
		opts = append(opts, nats.Token(cfg.Token))
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return conn, nil
}

// Publisher is the part of *nats.Conn the sink uses.
type Publisher interface {
	Publish(subject string, data []byte) error
}

// NATSSink publishes each payload as JSON on <prefix>.<format>.
type NATSSink struct {
	pub    Publisher
	prefix string
}

func NewNATSSink(pub Publisher, prefix string) *NATSSink {
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	return &NATSSink{pub: pub, prefix: prefix}
}

func (s *NATSSink) Name() string { return "nats" }

// Subject returns the subject payloads of format are published on.
func (s *NATSSink) Subject(format models.FormatName) string {
	return s.prefix + "." + string(format)
}

func (s *NATSSink) Send(ctx context.Context, format models.FormatName, payload models.FormattedPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.pub == nil {
		return fmt.Errorf("%w: no NATS connection", ErrSinkMisconfigured)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	if err := s.pub.Publish(s.Subject(format), data); err != nil {
		return fmt.Errorf("publish to NATS: %w", err)
	}
	return nil
}
