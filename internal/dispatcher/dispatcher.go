package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/OCAP2/compass/internal/queue"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Event represents an incoming command from the host.
type Event struct {
	Command   string
	Args      []string
	Timestamp time.Time
}

// HandlerFunc processes an event and returns a result.
type HandlerFunc func(Event) (any, error)

// Logger interface for pluggable logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Option configures handler registration.
type Option func(*config)

type config struct {
	deferred bool
	limit    int
	logged   bool
}

// Deferred queues events for the handler until the next Drain instead of
// running them on the dispatching goroutine. limit <= 0 means unbounded;
// events past the limit are dropped.
func Deferred(limit int) Option {
	return func(c *config) {
		c.deferred = true
		c.limit = limit
	}
}

// Logged adds debug logging to the handler.
func Logged() Option {
	return func(c *config) {
		c.logged = true
	}
}

type deferredHandler struct {
	command string
	handler HandlerFunc
	pending *queue.Queue[Event]
}

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	logger Logger

	// OTEL metrics
	queueSize    metric.Int64ObservableGauge
	processed    metric.Int64Counter
	dropped      metric.Int64Counter
	registration metric.Registration

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	deferred []*deferredHandler
}

// New creates a new Dispatcher with the given logger.
// Uses the global OTel meter for metrics (no-op if not configured).
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
	}

	// Get meter from global OTel provider (returns no-op if not configured)
	m := meter()

	var err error

	d.queueSize, err = m.Int64ObservableGauge(
		"dispatcher.queue.size",
		metric.WithDescription("Events waiting for the next drain"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating queue size gauge: %w", err)
	}

	d.registration, err = m.RegisterCallback(
		func(ctx context.Context, o metric.Observer) error {
			d.mu.RLock()
			defer d.mu.RUnlock()
			for _, dh := range d.deferred {
				o.ObserveInt64(d.queueSize, int64(dh.pending.Len()),
					metric.WithAttributes(attribute.String("command", dh.command)))
			}
			return nil
		},
		d.queueSize,
	)
	if err != nil {
		return nil, fmt.Errorf("registering queue callback: %w", err)
	}

	d.processed, err = m.Int64Counter(
		"dispatcher.events.processed",
		metric.WithDescription("Total deferred events processed"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating processed counter: %w", err)
	}

	d.dropped, err = m.Int64Counter(
		"dispatcher.events.dropped",
		metric.WithDescription("Total events dropped due to full queue"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating dropped counter: %w", err)
	}

	return d, nil
}

// Register adds a handler for the given command with optional configuration.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	cfg := &config{}
	for _, opt := range opts {
		opt(cfg)
	}

	handler := h

	if cfg.logged {
		// Drain reports failures of deferred handlers itself
		handler = d.withLogging(command, handler, !cfg.deferred)
	}

	if cfg.deferred {
		handler = d.withDefer(command, cfg.limit, handler)
	}

	d.mu.Lock()
	d.handlers[command] = handler
	d.mu.Unlock()
}

// Dispatch routes an event to its registered handler.
func (d *Dispatcher) Dispatch(e Event) (any, error) {
	d.mu.RLock()
	h, ok := d.handlers[e.Command]
	d.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", e.Command)
	}
	return h(e)
}

// Close stops reporting queue metrics. Pending events are dropped.
func (d *Dispatcher) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, dh := range d.deferred {
		dh.pending.GetAndEmpty()
	}
	if d.registration == nil {
		return nil
	}
	err := d.registration.Unregister()
	d.registration = nil
	return err
}

// Drain runs every deferred event on the calling goroutine, in arrival order
// per command. It returns the number of events handled.
func (d *Dispatcher) Drain() int {
	d.mu.RLock()
	deferred := make([]*deferredHandler, len(d.deferred))
	copy(deferred, d.deferred)
	d.mu.RUnlock()

	n := 0
	for _, dh := range deferred {
		attrs := metric.WithAttributes(attribute.String("command", dh.command))
		for _, e := range dh.pending.GetAndEmpty() {
			if _, err := dh.handler(e); err != nil {
				d.logger.Error("deferred event failed", "command", dh.command, "error", err)
			}
			d.processed.Add(context.Background(), 1, attrs)
			n++
		}
	}
	return n
}

func (d *Dispatcher) withDefer(command string, limit int, h HandlerFunc) HandlerFunc {
	dh := &deferredHandler{
		command: command,
		handler: h,
		pending: queue.New[Event](limit),
	}

	d.mu.Lock()
	d.deferred = append(d.deferred, dh)
	d.mu.Unlock()

	cmdAttr := attribute.String("command", command)

	return func(e Event) (any, error) {
		if !dh.pending.Offer(e) {
			d.dropped.Add(context.Background(), 1, metric.WithAttributes(cmdAttr))
			return nil, fmt.Errorf("queue full: %s", command)
		}
		return "queued", nil
	}
}

func (d *Dispatcher) withLogging(command string, h HandlerFunc, logErrors bool) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "args", len(e.Args))

		result, err := h(e)

		if err != nil && logErrors {
			d.logger.Error("event failed", "command", command, "duration", time.Since(start), "error", err)
		} else if err == nil {
			d.logger.Debug("event complete", "command", command, "duration", time.Since(start))
		}

		return result, err
	}
}
