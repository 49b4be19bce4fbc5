package datalayer

import (
	"context"
	"sync"

	"gallery-be/internal/analytics"
	"gallery-be/internal/logger"

	"go.uber.org/zap"
)

const (
	KeyEvent        = "event"
	KeyCategoryName = "category_name"

	eventCategory = "data_layer"
)

// DataLayer is a per-session key-value scratchpad. Pushing an "event" reports
// it to analytics and fires the tags registered for it.
type DataLayer struct {
	registry *Registry
	sink     analytics.Sink

	mu     sync.RWMutex
	values map[string]string
}

func New(registry *Registry, sink analytics.Sink) *DataLayer {
	return &DataLayer{
		registry: registry,
		sink:     sink,
		values:   make(map[string]string),
	}
}

func (d *DataLayer) Push(ctx context.Context, key, value string) {
	d.mu.Lock()
	d.values[key] = value
	label := d.values[KeyCategoryName]
	d.mu.Unlock()

	if key != KeyEvent {
		return
	}

	logger.FromCtx(ctx).Debug("data layer event", zap.String("event", value))
	if d.sink != nil {
		d.sink.RecordEvent(ctx, eventCategory, value, label)
	}
	if d.registry != nil {
		d.registry.Fire(ctx, value, map[string]interface{}{KeyCategoryName: label})
	}
}

func (d *DataLayer) Get(key string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.values[key]
}
