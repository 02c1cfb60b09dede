package seeder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/telhawk-systems/hookrelay/internal/logging"
	"github.com/telhawk-systems/hookrelay/internal/models"
)

// DefaultURL is the webhook endpoint of a locally running service.
const DefaultURL = "http://localhost:8080/webhook"

// Config controls a seeding run. An empty Source cycles through every
// supported source.
type Config struct {
	URL      string
	Source   models.SourceName
	Format   models.FormatName
	Count    int
	Interval time.Duration
	Seed     int64
}

// Result counts delivered and failed webhooks.
type Result struct {
	Sent   int `json:"sent"`
	Failed int `json:"failed"`
}

// Runner posts generated webhooks to the ingestion endpoint.
type Runner struct {
	Config     Config
	HTTPClient *http.Client
	generator  *Generator
	logger     *logging.Logger
}

func NewRunner(cfg Config, logger *logging.Logger) *Runner {
	if cfg.URL == "" {
		cfg.URL = DefaultURL
	}
	if cfg.Format == "" {
		cfg.Format = models.FormatDefault
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Runner{
		Config: cfg,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		generator: NewGenerator(cfg.Seed),
		logger:    logger,
	}
}

// Run sends Config.Count webhooks. Individual delivery failures are
// counted, not returned; an error means the run could not proceed.
func (r *Runner) Run(ctx context.Context) (Result, error) {
	var res Result
	if r.Config.Count <= 0 {
		return res, errors.New("count must be positive")
	}
	if _, err := url.Parse(r.Config.URL); err != nil {
		return res, fmt.Errorf("invalid url: %w", err)
	}

	r.logger.Info("Starting webhook seeder",
		slog.String("url", r.Config.URL),
		slog.Int("count", r.Config.Count),
		slog.Duration("interval", r.Config.Interval),
		logging.Format(string(r.Config.Format)),
	)

	for i := 0; i < r.Config.Count; i++ {
		if err := ctx.Err(); err != nil {
			return res, err
		}

		source := r.sourceFor(i)
		if err := r.send(ctx, source, r.generator.Payload(source)); err != nil {
			r.logger.Warn("Failed to send webhook", logging.Source(string(source)), logging.Error(err))
			res.Failed++
		} else {
			res.Sent++
		}

		if r.Config.Interval > 0 && i < r.Config.Count-1 {
			select {
			case <-ctx.Done():
				return res, ctx.Err()
			case <-time.After(r.Config.Interval):
			}
		}
	}

	r.logger.Info("Seeding complete", slog.Int("sent", res.Sent), slog.Int("failed", res.Failed))
	return res, nil
}

func (r *Runner) sourceFor(i int) models.SourceName {
	if r.Config.Source != "" {
		return r.Config.Source
	}
	return models.AllSources[i%len(models.AllSources)]
}

func (r *Runner) send(ctx context.Context, source models.SourceName, payload models.RawPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}

	target, err := url.Parse(r.Config.URL)
	if err != nil {
		return err
	}
	q := target.Query()
	q.Set("source", string(source))
	q.Set("format", string(r.Config.Format))
	target.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target.String(), bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
