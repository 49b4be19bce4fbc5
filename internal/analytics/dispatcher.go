package analytics

import (
	"context"
	"sync"
	"time"

	"gallery-be/internal/logger"
	"gallery-be/internal/metrics"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"
)

const (
	defaultQueueSize = 256
	maxInsertRetries = 3
	insertTimeout    = 5 * time.Second
)

type DispatcherOption func(*Dispatcher)

func WithMetrics(reg *metrics.Registry) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = reg }
}

// WithBackOff overrides the retry policy used for each insert.
func WithBackOff(newBackOff func() backoff.BackOff) DispatcherOption {
	return func(d *Dispatcher) { d.newBackOff = newBackOff }
}

func WithClientKey(key []byte) DispatcherOption {
	return func(d *Dispatcher) { d.clientKey = key }
}

// Dispatcher queues hits in memory and persists them from a single worker.
// Enqueueing never blocks: when the queue is full the hit is dropped.
type Dispatcher struct {
	repo       Repository
	queue      chan Hit
	clientKey  []byte
	metrics    *metrics.Registry
	newBackOff func() backoff.BackOff
	now        func() time.Time

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(repo Repository, queueSize int, opts ...DispatcherOption) *Dispatcher {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	d := &Dispatcher{
		repo:  repo,
		queue: make(chan Hit, queueSize),
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 100 * time.Millisecond
			b.MaxElapsedTime = 10 * time.Second
			return b
		},
		now:  time.Now,
		done: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(d)
	}
	go d.run()
	return d
}

func (d *Dispatcher) RecordScreen(ctx context.Context, name string) {
	if name == "" {
		return
	}
	d.enqueue(ctx, Hit{Type: HitScreenView, Screen: name})
}

func (d *Dispatcher) RecordEvent(ctx context.Context, category, action, label string) {
	d.enqueue(ctx, Hit{Type: HitEvent, Category: category, Action: action, Label: label})
}

func (d *Dispatcher) enqueue(ctx context.Context, hit Hit) {
	hit.At = d.now().UTC()
	hit.ClientID = ClientID(d.clientKey, logger.SessionIDFrom(ctx))

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.count("hits_dropped")
		return
	}

	select {
	case d.queue <- hit:
		d.count("hits_queued")
	default:
		d.count("hits_dropped")
		logger.FromCtx(ctx).Warn("analytics queue full, dropping hit",
			zap.String("hit_type", string(hit.Type)),
		)
	}
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for hit := range d.queue {
		d.deliver(hit)
	}
}

func (d *Dispatcher) deliver(hit Hit) {
	ctx, cancel := context.WithTimeout(context.Background(), insertTimeout)
	defer cancel()

	op := func() error {
		return d.repo.InsertHit(ctx, hit)
	}
	b := backoff.WithContext(backoff.WithMaxRetries(d.newBackOff(), maxInsertRetries), ctx)

	if err := backoff.Retry(op, b); err != nil {
		d.count("hits_failed")
		logger.L().Warn("analytics hit not delivered",
			zap.String("hit_type", string(hit.Type)),
			zap.Error(err),
		)
		return
	}
	d.count("hits_delivered")
}

// Close stops accepting hits and waits for queued ones to be delivered or
// for ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (d *Dispatcher) count(name string) {
	if d.metrics != nil {
		d.metrics.Counter(name).Inc()
	}
}
