// Package app wires configuration into a running hookrelay service.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/telhawk-systems/hookrelay/internal/billing"
	"github.com/telhawk-systems/hookrelay/internal/config"
	"github.com/telhawk-systems/hookrelay/internal/dispatch"
	"github.com/telhawk-systems/hookrelay/internal/entitlement"
	"github.com/telhawk-systems/hookrelay/internal/handlers"
	"github.com/telhawk-systems/hookrelay/internal/logging"
	"github.com/telhawk-systems/hookrelay/internal/pipeline"
	"github.com/telhawk-systems/hookrelay/internal/ratelimit"
	"github.com/telhawk-systems/hookrelay/internal/server"
	"github.com/telhawk-systems/hookrelay/internal/tokens"
)

// App owns every long-lived resource of the service.
type App struct {
	cfg    *config.Config
	logger *logging.Logger

	Handler    http.Handler
	Pipeline   *pipeline.Pipeline
	Tokens     *tokens.Manager
	Store      entitlement.Store
	dispatcher *dispatch.Dispatcher
	limits     server.Limits
	redis      *redis.Client
	nats       *nats.Conn
}

// New builds the service from cfg. Optional backends that cannot be
// reached degrade with a warning; required ones fail.
func New(ctx context.Context, cfg *config.Config, logger *logging.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if logger == nil {
		logger = logging.Default()
	}

	a := &App{cfg: cfg, logger: logger}

	a.limits = a.buildLimits(ctx)

	store, err := entitlement.New(ctx, entitlement.Options{
		Backend:     cfg.Entitlements.Backend,
		RedisURL:    firstNonEmpty(cfg.Entitlements.RedisURL, cfg.Redis.URL),
		RedisKey:    cfg.Entitlements.RedisKey,
		PostgresDSN: cfg.Entitlements.PostgresDSN,
		Migrate:     cfg.Entitlements.Migrate,
	})
	if err != nil {
		a.closeLimits()
		return nil, fmt.Errorf("entitlement store: %w", err)
	}
	a.Store = store
	logger.Info("Entitlement store ready", slog.String("backend", cfg.Entitlements.Backend))

	generic, err := a.buildGenericSink()
	if err != nil {
		a.closeLimits()
		_ = store.Close()
		return nil, err
	}
	email := dispatch.NewEmailSink(dispatch.EmailConfig{
		Sender:   cfg.Email.Sender,
		Password: cfg.Email.Password,
		Receiver: cfg.Email.Receiver,
		Host:     cfg.Email.SMTPHost,
		Port:     cfg.Email.SMTPPort,
		Timeout:  cfg.Email.Timeout,
	})
	a.dispatcher = dispatch.NewDispatcher(email, generic, dispatch.Options{
		Workers:   cfg.Dispatch.Workers,
		QueueSize: cfg.Dispatch.QueueSize,
		Timeout:   cfg.Dispatch.Timeout,
		Logger:    logger.Logger,
	})

	a.Pipeline = pipeline.NewDefault(a.dispatcher, logger.Logger)
	a.Tokens = tokens.NewManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)

	a.Handler = server.NewRouter(server.Routes{
		Webhook: handlers.NewWebhookHandler(a.Pipeline, cfg.Ingestion.MaxBodySize, logger),
		Billing: handlers.NewBillingHandler(
			billing.NewVerifier(cfg.Stripe.WebhookSecret, cfg.Stripe.Tolerance),
			billing.NewStripeCheckout(cfg.Stripe.SecretKey),
			store,
			cfg.Ingestion.MaxBodySize,
			logger,
		),
		Auth:   handlers.NewAuthHandler(a.Tokens, store, logger),
		Health: handlers.NewHealthHandler(a.Pipeline),
		Tokens: a.Tokens,
		Limits: a.limits,
	})

	return a, nil
}

// buildLimits prefers redis so limits hold across instances, and falls
// back to in-process limiters when redis is not configured or reachable.
func (a *App) buildLimits(ctx context.Context) server.Limits {
	ing := a.cfg.Ingestion
	if !ing.RateLimitEnabled {
		a.logger.Info("Rate limiting disabled in configuration")
		noop := &ratelimit.NoOpRateLimiter{}
		return server.Limits{Webhook: noop, Hourly: noop, Daily: noop}
	}

	if a.cfg.Redis.URL != "" {
		client, err := connectRedis(ctx, a.cfg.Redis.URL)
		if err == nil {
			a.redis = client
			a.logger.Info("Rate limiting backed by redis")
			return server.Limits{
				Webhook: ratelimit.NewRedisRateLimiterWithClient(client, ing.WebhookRateLimit, ing.WebhookRateWindow),
				Hourly:  ratelimit.NewRedisRateLimiterWithClient(client, ing.HourlyRateLimit, time.Hour),
				Daily:   ratelimit.NewRedisRateLimiterWithClient(client, ing.DailyRateLimit, 24*time.Hour),
			}
		}
		a.logger.Warn("Redis unavailable, using in-memory rate limits", logging.Error(err))
	}

	return server.Limits{
		Webhook: ratelimit.NewMemoryRateLimiter(ing.WebhookRateLimit, ing.WebhookRateWindow),
		Hourly:  ratelimit.NewMemoryRateLimiter(ing.HourlyRateLimit, time.Hour),
		Daily:   ratelimit.NewMemoryRateLimiter(ing.DailyRateLimit, 24*time.Hour),
	}
}

func connectRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	client := redis.NewClient(opts)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

func (a *App) buildGenericSink() (dispatch.Sink, error) {
	if a.cfg.Dispatch.Sink != "nats" {
		return dispatch.NewLogSink(a.logger.Logger), nil
	}

	n := a.cfg.NATS
	conn, err := dispatch.Connect(dispatch.NATSConfig{
		URL:           n.URL,
		Name:          n.Name,
		MaxReconnects: n.MaxReconnects,
		ReconnectWait: n.ReconnectWait,
		Timeout:       n.Timeout,
		Token:         n.Token,
	}, a.logger.Logger)
	if err != nil {
		return nil, err
	}
	a.nats = conn
	a.logger.Info("Publishing notifications to NATS",
		slog.String("url", n.URL),
		slog.String("subject_prefix", n.SubjectPrefix),
	)
	return dispatch.NewNATSSink(conn, n.SubjectPrefix), nil
}

// Run serves HTTP until ctx is cancelled, then releases every resource.
func (a *App) Run(ctx context.Context) error {
	srv := server.New(a.Handler, server.Options{
		Port:            a.cfg.Server.Port,
		ReadTimeout:     a.cfg.Server.ReadTimeout,
		WriteTimeout:    a.cfg.Server.WriteTimeout,
		IdleTimeout:     a.cfg.Server.IdleTimeout,
		ShutdownTimeout: a.cfg.Server.ShutdownTimeout,
	}, a.logger.Logger)

	runErr := srv.Run(ctx)

	closeCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
	defer cancel()
	return errors.Join(runErr, a.Close(closeCtx))
}

// Close drains pending deliveries and closes backends.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.dispatcher != nil {
		if err := a.dispatcher.Close(ctx); err != nil {
			errs = append(errs, fmt.Errorf("drain dispatcher: %w", err))
		}
	}
	if a.nats != nil {
		if err := a.nats.Drain(); err != nil {
			errs = append(errs, fmt.Errorf("drain nats: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close entitlement store: %w", err))
		}
	}
	a.closeLimits()
	return errors.Join(errs...)
}

func (a *App) closeLimits() {
	for _, l := range []ratelimit.RateLimiter{a.limits.Webhook, a.limits.Hourly, a.limits.Daily} {
		if l != nil {
			_ = l.Close()
		}
	}
	if a.redis != nil {
		_ = a.redis.Close()
		a.redis = nil
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
