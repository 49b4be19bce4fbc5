package container

import (
	"context"
	"errors"
	"sync"
	"time"

	"gallery-be/internal/logger"
	"gallery-be/internal/metrics"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	// DefaultTimeout bounds a fetch when the caller passes a non-positive timeout.
	DefaultTimeout = 2 * time.Second

	// loadBudget bounds the shared provider load, which outlives waiters that time out.
	loadBudget = 30 * time.Second
)

// Fetcher is the narrow view of Client used by screen controllers.
type Fetcher interface {
	Fetch(ctx context.Context, timeout time.Duration) Outcome
	Current() *Container
}

type Option func(*Client)

func WithMetrics(reg *metrics.Registry) Option {
	return func(c *Client) { c.metrics = reg }
}

// WithOnAvailable registers fn to run each time a load delivers a container,
// including loads that finish after their waiters timed out.
func WithOnAvailable(fn func(ctx context.Context, cont *Container)) Option {
	return func(c *Client) { c.onAvailable = append(c.onAvailable, fn) }
}

// Client loads the container preferring a fresh network copy, then the saved
// copy from the previous run, then the bundled default.
type Client struct {
	id       string
	remote   Provider
	fallback Provider
	store    Store
	metrics  *metrics.Registry

	onAvailable []func(ctx context.Context, cont *Container)

	group singleflight.Group

	mu      sync.RWMutex
	current *Container
}

func NewClient(id string, remote, fallback Provider, store Store, opts ...Option) *Client {
	if store == nil {
		store = NewMemStore()
	}
	c := &Client{
		id:       id,
		remote:   remote,
		fallback: fallback,
		store:    store,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) ID() string {
	return c.id
}

// Fetch returns exactly one outcome no later than timeout. Concurrent calls
// share a single provider load. When the timeout fires first, the saved copy
// is served if there is one.
func (c *Client) Fetch(ctx context.Context, timeout time.Duration) Outcome {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	log := logger.FromCtx(ctx).With(
		zap.String("container_id", c.id),
		zap.Duration("timeout", timeout),
	)
	log.Info("Fetch started")
	timer := metrics.StartTimer()

	loadCtx := context.WithoutCancel(ctx)
	results := c.group.DoChan(c.id, func() (interface{}, error) {
		lctx, cancel := context.WithTimeout(loadCtx, loadBudget)
		defer cancel()
		cont, err := c.load(lctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.current = cont
		c.mu.Unlock()
		c.notify(lctx, cont)
		return cont, nil
	})

	wait := time.NewTimer(timeout)
	defer wait.Stop()

	var out Outcome
	select {
	case res := <-results:
		if res.Err != nil {
			out = failed(res.Err)
			break
		}
		out = succeeded(res.Val.(*Container))
	case <-wait.C:
		// The shared load keeps running and refreshes the saved copy.
		if saved, err := c.saved(); err == nil {
			log.Warn("network slow, serving saved container", zap.String("version", saved.Version))
			out = succeeded(saved)
			break
		}
		out = timedOut()
	case <-ctx.Done():
		out = failed(ctx.Err())
	}

	c.count(out.Status)
	switch out.Status {
	case StatusSuccess:
		log.Info("Fetch success",
			zap.String("version", out.Container.Version),
			zap.String("source", string(out.Container.Source)),
			zap.Duration("elapsed", timer.Duration()),
		)
	case StatusTimeout:
		log.Warn("Fetch timed out", zap.Duration("elapsed", timer.Duration()))
	default:
		log.Error("Fetch failed", zap.Error(out.Err))
	}
	return out
}

func (c *Client) load(ctx context.Context) (*Container, error) {
	log := logger.FromCtx(ctx).With(zap.String("container_id", c.id))

	var remoteErr error
	if c.remote != nil {
		cont, err := c.remote.Load(ctx)
		if err == nil {
			c.save(ctx, cont)
			return cont, nil
		}
		remoteErr = err
		log.Warn("network container unavailable, trying saved copy", zap.Error(err))
	}

	if cont, err := c.saved(); err == nil {
		return cont, nil
	} else if !errors.Is(err, ErrNotFound) {
		log.Warn("saved container unreadable", zap.Error(err))
	}

	if c.fallback != nil {
		cont, err := c.fallback.Load(ctx)
		if err == nil {
			return cont, nil
		}
		log.Error("default container unavailable", zap.Error(err))
		return nil, errors.Join(remoteErr, err)
	}

	if remoteErr != nil {
		return nil, remoteErr
	}
	return nil, ErrNotFound
}

func (c *Client) save(ctx context.Context, cont *Container) {
	data, err := encodeContainer(cont)
	if err == nil {
		err = c.store.Save(c.id, data)
	}
	if err != nil {
		logger.FromCtx(ctx).Warn("saving container failed",
			zap.String("container_id", c.id),
			zap.Error(err),
		)
	}
}

func (c *Client) saved() (*Container, error) {
	data, err := c.store.Load(c.id)
	if err != nil {
		return nil, err
	}
	return decodeContainer(c.id, data, SourceSaved)
}

// Current returns the last container delivered by Fetch, falling back to the
// saved copy, then the bundled default, then an empty container.
func (c *Client) Current() *Container {
	c.mu.RLock()
	cur := c.current
	c.mu.RUnlock()
	if cur != nil {
		return cur
	}

	if cont, err := c.saved(); err == nil {
		return cont
	}
	if c.fallback != nil {
		if cont, err := c.fallback.Load(context.Background()); err == nil {
			return cont
		}
	}
	return &Container{ID: c.id, Values: map[string]string{}, Source: SourceDefault}
}

func (c *Client) notify(ctx context.Context, cont *Container) {
	for _, fn := range c.onAvailable {
		fn(ctx, cont)
	}
}

func (c *Client) count(s Status) {
	if c.metrics == nil {
		return
	}
	c.metrics.Counter("fetch_" + s.String()).Inc()
}
