package screen

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"gallery-be/internal/analytics"
	"gallery-be/internal/assets"
	"gallery-be/internal/catalog"
	"gallery-be/internal/container"
	"gallery-be/internal/datalayer"
	"gallery-be/internal/logger"

	"go.uber.org/zap"
)

const (
	// container keys
	KeyAdjective  = "adjective"
	KeyCategories = "category"

	EventRefresh   = "refresh"
	EventCustomTag = "custom_tag"
)

type Deps struct {
	Fetcher   container.Fetcher
	Resolver  assets.Resolver
	Sink      analytics.Sink
	DataLayer *datalayer.DataLayer
	Timeout   time.Duration
}

// Controller drives one user's navigation: Loading, then Ready, with Detail
// reachable from Ready. Transitions are serialized; View never blocks and
// always returns a fully rendered screen.
type Controller struct {
	deps Deps

	mu        sync.Mutex
	state     State
	catalog   *catalog.Catalog
	adjective string
	degraded  bool
	selected  catalog.Category

	view atomic.Pointer[View]
}

func NewController(deps Deps) *Controller {
	if deps.Resolver == nil {
		deps.Resolver = assets.StaticResolver{}
	}
	if deps.Sink == nil {
		deps.Sink = analytics.NewLogSink()
	}
	if deps.DataLayer == nil {
		deps.DataLayer = datalayer.New(nil, deps.Sink)
	}
	c := &Controller{
		deps:    deps,
		state:   StateLoading,
		catalog: catalog.Empty(),
	}
	c.view.Store(&View{State: StateLoading, Title: msgLoading, Items: []Item{}})
	return c
}

// Start loads the container and enters Ready, degraded when nothing usable arrived.
func (c *Controller) Start(ctx context.Context) View {
	c.mu.Lock()
	defer c.mu.Unlock()

	logger.FromCtx(ctx).Info("Start started")
	c.load(ctx)
	return *c.view.Load()
}

// Select opens the detail screen of a category.
func (c *Controller) Select(ctx context.Context, name string) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := logger.FromCtx(ctx).With(
		zap.String("method", "Select"),
		zap.String("category", name),
	)

	if c.state != StateReady {
		log.Warn("Select rejected", zap.String("state", string(c.state)))
		return *c.view.Load(), ErrInvalidTransition
	}
	cat, ok := c.catalog.Get(name)
	if !ok {
		log.Warn("Select unknown category")
		return *c.view.Load(), ErrUnknownCategory
	}

	c.state = StateDetail
	c.selected = cat
	c.deps.DataLayer.Push(ctx, datalayer.KeyCategoryName, cat.Name)
	c.publish()
	c.deps.Sink.RecordScreen(ctx, CategoryScreenName)

	log.Info("Select success", zap.Int("images", len(cat.Images)))
	return *c.view.Load(), nil
}

// Back returns from a detail screen to the category list without refetching.
func (c *Controller) Back(ctx context.Context) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateDetail {
		logger.FromCtx(ctx).Warn("Back rejected", zap.String("state", string(c.state)))
		return *c.view.Load(), ErrInvalidTransition
	}

	c.state = StateReady
	c.selected = catalog.Category{}
	c.publish()
	c.deps.Sink.RecordScreen(ctx, MainScreenName)
	return *c.view.Load(), nil
}

// Refresh reports the refresh and custom tag events, then refetches and
// replaces the catalog in one step.
func (c *Controller) Refresh(ctx context.Context) (View, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	log := logger.FromCtx(ctx).With(zap.String("method", "Refresh"))
	if c.state != StateReady {
		log.Warn("Refresh rejected", zap.String("state", string(c.state)))
		return *c.view.Load(), ErrInvalidTransition
	}

	log.Info("Refresh started")
	c.deps.DataLayer.Push(ctx, datalayer.KeyEvent, EventRefresh)
	c.deps.DataLayer.Push(ctx, datalayer.KeyEvent, EventCustomTag)

	c.load(ctx)
	return *c.view.Load(), nil
}

// View returns the current screen without waiting for in-flight transitions.
func (c *Controller) View() View {
	return *c.view.Load()
}

// load must be called with mu held.
func (c *Controller) load(ctx context.Context) {
	log := logger.FromCtx(ctx)

	out := c.deps.Fetcher.Fetch(ctx, c.deps.Timeout)

	next := catalog.Empty()
	degraded := false
	adjective := c.deps.Fetcher.Current().GetString(KeyAdjective)

	switch out.Status {
	case container.StatusSuccess:
		adjective = out.Container.GetString(KeyAdjective)
		payload := out.Container.GetString(KeyCategories)
		parsed, err := catalog.Parse(payload)
		if err != nil {
			var perr *catalog.ParseError
			if errors.As(err, &perr) {
				log.Error("parsing category payload failed",
					zap.String("payload", perr.Payload),
					zap.Int("index", perr.Index),
					zap.Error(err),
				)
			}
			degraded = true
		} else {
			next = parsed
		}
	default:
		log.Warn("container unavailable, showing degraded screen",
			zap.String("status", out.Status.String()),
			zap.Error(out.Err),
		)
		degraded = true
	}

	c.catalog = next
	c.adjective = adjective
	c.degraded = degraded
	c.state = StateReady
	c.selected = catalog.Category{}
	c.publish()
	c.deps.Sink.RecordScreen(ctx, MainScreenName)

	log.Info("catalog loaded",
		zap.Int("categories", next.Len()),
		zap.Bool("degraded", degraded),
	)
}

// publish renders the current state and swaps it in as the visible view.
func (c *Controller) publish() {
	var v View
	switch c.state {
	case StateDetail:
		v = c.renderDetail()
	case StateReady:
		v = c.renderReady()
	default:
		v = View{State: StateLoading, Title: msgLoading, Items: []Item{}}
	}
	c.view.Store(&v)
}

func (c *Controller) renderReady() View {
	v := View{
		State:    StateReady,
		Title:    displayName(c.adjective, "Animals"),
		Degraded: c.degraded,
		Items:    make([]Item, 0, c.catalog.Len()),
	}
	for _, cat := range c.catalog.Categories() {
		v.Items = append(v.Items, Item{
			ID:     cat.Name,
			Label:  categoryLabel(c.adjective, cat.Name),
			Detail: imageCount(len(cat.Images)),
		})
	}
	switch {
	case c.degraded:
		v.Message = msgNoData
	case len(v.Items) == 0:
		v.Message = msgNoCategories
	}
	return v
}

func (c *Controller) renderDetail() View {
	v := View{
		State:     StateDetail,
		Title:     displayName(c.adjective, c.selected.Name) + " Images",
		BackLabel: "<< " + displayName(c.adjective, "Animals"),
		Items:     make([]Item, 0, len(c.selected.Images)),
	}
	for _, id := range c.selected.Images {
		item := Item{ID: id, Label: id}
		if dims, ok := c.deps.Resolver.Resolve(id); ok {
			item.Detail = dims.String()
		}
		v.Items = append(v.Items, item)
	}
	return v
}
