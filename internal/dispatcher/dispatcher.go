// Package dispatcher routes host bridge commands to handlers. Handlers run
// synchronously in the caller unless registered with Buffered, in which case
// a single worker per command drains a bounded queue in order.
package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Event is one command call coming in from the host bridge.
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
type Option func(*options)

type options struct {
	queueSize int
	blocking  bool
	logged    bool
}

// Buffered queues events for the handler and returns "queued" immediately.
func Buffered(size int) Option {
	return func(o *options) { o.queueSize = size }
}

// Blocking makes a full Buffered queue wait for room instead of rejecting.
func Blocking() Option {
	return func(o *options) { o.blocking = true }
}

// Logged logs every call at debug level and failures at error level.
func Logged() Option {
	return func(o *options) { o.logged = true }
}

// ErrClosed is returned by buffered handlers after Close.
var ErrClosed = errors.New("dispatcher closed")

// Queued is the result of a dispatch accepted by a buffered handler.
const Queued = "queued"

// Dispatcher routes events to registered handlers.
type Dispatcher struct {
	logger  Logger
	metrics *metrics

	mu       sync.RWMutex
	handlers map[string]HandlerFunc
	queues   map[string]*queue
	closed   bool
	workers  sync.WaitGroup
}

type queue struct {
	command  string
	events   chan Event
	blocking bool
}

// New creates a Dispatcher. Metrics go to the global OTel meter.
func New(logger Logger) (*Dispatcher, error) {
	d := &Dispatcher{
		logger:   logger,
		handlers: make(map[string]HandlerFunc),
		queues:   make(map[string]*queue),
	}
	m, err := newMetrics(d.observeQueues)
	if err != nil {
		return nil, err
	}
	d.metrics = m
	return d, nil
}

// Register adds a handler for command, replacing any previous one.
func (d *Dispatcher) Register(command string, h HandlerFunc, opts ...Option) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.queueSize > 0 {
		h = d.enqueue(d.startQueue(command, o.queueSize, o.blocking, h))
	}
	if o.logged {
		h = d.logCalls(command, h)
	}

	d.mu.Lock()
	d.handlers[command] = h
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

// HasHandler reports whether command is registered.
func (d *Dispatcher) HasHandler(command string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.handlers[command]
	return ok
}

// Commands returns the registered command names, sorted.
func (d *Dispatcher) Commands() []string {
	d.mu.RLock()
	out := make([]string, 0, len(d.handlers))
	for cmd := range d.handlers {
		out = append(out, cmd)
	}
	d.mu.RUnlock()
	sort.Strings(out)
	return out
}

// Close stops accepting buffered events and waits until the queued ones are
// handled. Synchronous handlers keep working.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	for _, q := range d.queues {
		close(q.events)
	}
	d.mu.Unlock()
	d.workers.Wait()
}

func (d *Dispatcher) startQueue(command string, size int, blocking bool, h HandlerFunc) *queue {
	q := &queue{command: command, events: make(chan Event, size), blocking: blocking}

	d.mu.Lock()
	d.queues[command] = q
	d.mu.Unlock()

	d.workers.Add(1)
	go func() {
		defer d.workers.Done()
		for e := range q.events {
			if _, err := h(e); err != nil {
				d.logger.Error("buffered event failed", "command", command, "error", err)
			}
			d.metrics.processed.Add(context.Background(), 1, commandAttr(command))
		}
	}()
	return q
}

// enqueue holds the read lock while sending so Close cannot close the
// channel underneath a blocked sender.
func (d *Dispatcher) enqueue(q *queue) HandlerFunc {
	return func(e Event) (any, error) {
		d.mu.RLock()
		defer d.mu.RUnlock()
		if d.closed {
			return nil, ErrClosed
		}
		if q.blocking {
			q.events <- e
			return Queued, nil
		}
		select {
		case q.events <- e:
			return Queued, nil
		default:
			d.metrics.dropped.Add(context.Background(), 1, commandAttr(q.command))
			return nil, fmt.Errorf("queue full: %s", q.command)
		}
	}
}

func (d *Dispatcher) logCalls(command string, h HandlerFunc) HandlerFunc {
	return func(e Event) (any, error) {
		start := time.Now()
		d.logger.Debug("handling event", "command", command, "args", len(e.Args))

		result, err := h(e)
		if err != nil {
			d.logger.Error("event failed", "command", command, "duration", time.Since(start), "error", err)
			return result, err
		}
		d.logger.Debug("event complete", "command", command, "duration", time.Since(start))
		return result, nil
	}
}

func (d *Dispatcher) observeQueues(report func(command string, depth int)) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	for cmd, q := range d.queues {
		report(cmd, len(q.events))
	}
}
