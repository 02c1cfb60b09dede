package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/telhawk-systems/hookrelay/internal/metrics"
	"github.com/telhawk-systems/hookrelay/internal/models"
)

const (
	DefaultWorkers   = 4
	DefaultQueueSize = 256
	DefaultTimeout   = 10 * time.Second
)

var ErrDispatcherClosed = errors.New("dispatcher closed")

// Options configures the worker pool.
type Options struct {
	Workers   int
	QueueSize int
	Timeout   time.Duration
	Logger    *slog.Logger
}

type delivery struct {
	sink      Sink
	format    models.FormatName
	payload   models.FormattedPayload
	requestID string
}

// Dispatcher routes payloads to sinks by format and delivers them on a
// bounded pool of workers. Delivery failures are logged and counted, never
// returned to the caller.
type Dispatcher struct {
	email   Sink
	generic Sink
	timeout time.Duration
	logger  *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan delivery
	wg     sync.WaitGroup
}

// NewDispatcher starts the workers. email receives the email format;
// generic receives every other format.
func NewDispatcher(email, generic Sink, opts Options) *Dispatcher {
	if opts.Workers <= 0 {
		opts.Workers = DefaultWorkers
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = DefaultQueueSize
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if generic == nil {
		generic = NewLogSink(opts.Logger)
	}
	if email == nil {
		email = generic
	}

	d := &Dispatcher{
		email:   email,
		generic: generic,
		timeout: opts.Timeout,
		logger:  opts.Logger,
		queue:   make(chan delivery, opts.QueueSize),
	}

	d.wg.Add(opts.Workers)
	for i := 0; i < opts.Workers; i++ {
		go d.worker()
	}

	return d
}

// SinkFor returns the sink that receives payloads of format.
func (d *Dispatcher) SinkFor(format models.FormatName) Sink {
	if format == models.FormatEmail {
		return d.email
	}
	return d.generic
}

// Dispatch enqueues payload for delivery without blocking. It reports
// ErrDispatcherClosed after Close, and drops the delivery when the queue
// is full.
func (d *Dispatcher) Dispatch(ctx context.Context, format models.FormatName, payload models.FormattedPayload, requestID string) error {
	sink := d.SinkFor(format)

	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		metrics.DeliveriesDropped.Inc()
		return ErrDispatcherClosed
	}

	select {
	case d.queue <- delivery{sink: sink, format: format, payload: payload, requestID: requestID}:
		metrics.DispatchQueueDepth.Set(float64(len(d.queue)))
	default:
		metrics.DeliveriesDropped.Inc()
		d.logger.WarnContext(ctx, "dispatch queue full, dropping delivery",
			slog.String("sink", sink.Name()),
			slog.String("format", string(format)),
			slog.String("request_id", requestID),
		)
	}
	return nil
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for job := range d.queue {
		metrics.DispatchQueueDepth.Set(float64(len(d.queue)))
		d.deliver(job)
	}
}

func (d *Dispatcher) deliver(job delivery) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()

	name := job.sink.Name()
	start := time.Now()
	err := job.sink.Send(ctx, job.format, job.payload)
	metrics.DeliveryDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		metrics.DeliveriesTotal.WithLabelValues(name, "success").Inc()
	case errors.Is(err, ErrSinkMisconfigured):
		metrics.DeliveriesTotal.WithLabelValues(name, "skipped").Inc()
		d.logger.Warn("sink not configured, skipping delivery",
			slog.String("sink", name),
			slog.String("format", string(job.format)),
			slog.String("request_id", job.requestID),
			slog.String("error", err.Error()),
		)
	default:
		metrics.DeliveriesTotal.WithLabelValues(name, "failure").Inc()
		d.logger.Error("delivery failed",
			slog.String("sink", name),
			slog.String("format", string(job.format)),
			slog.String("request_id", job.requestID),
			slog.String("error", err.Error()),
		)
	}
}

// Close stops accepting deliveries and waits for queued ones to finish or
// for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
