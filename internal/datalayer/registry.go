package datalayer

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"gallery-be/internal/logger"

	"go.uber.org/zap"
)

// MacroFunc computes a value for a function-call macro.
type MacroFunc func(ctx context.Context, params map[string]interface{}) (interface{}, error)

// TagFunc runs when a function-call tag fires.
type TagFunc func(ctx context.Context, tag string, params map[string]interface{})

type namedTag struct {
	name string
	fn   TagFunc
}

// Registry holds the function-call macros and tags known to a container.
type Registry struct {
	mu     sync.RWMutex
	macros map[string]MacroFunc
	tags   map[string][]namedTag

	increments atomic.Int64
}

func NewRegistry() *Registry {
	return &Registry{
		macros: make(map[string]MacroFunc),
		tags:   make(map[string][]namedTag),
	}
}

func (r *Registry) RegisterMacro(name string, fn MacroFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.macros[name] = fn
}

// RegisterTag adds the tag called name to the callbacks fired for the event
// named trigger. Registering a name again replaces the earlier callback.
func (r *Registry) RegisterTag(name, trigger string, fn TagFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()

	tags := r.tags[trigger]
	for i := range tags {
		if tags[i].name == name {
			tags[i].fn = fn
			return
		}
	}
	r.tags[trigger] = append(tags, namedTag{name: name, fn: fn})
}

func (r *Registry) Macros() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.macros))
	for name := range r.macros {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) Evaluate(ctx context.Context, name string, params map[string]interface{}) (interface{}, error) {
	r.mu.RLock()
	fn, ok := r.macros[name]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMacro, name)
	}
	return fn(ctx, params)
}

// Fire runs every tag registered for trigger and returns how many ran.
func (r *Registry) Fire(ctx context.Context, trigger string, params map[string]interface{}) int {
	r.mu.RLock()
	tags := append([]namedTag(nil), r.tags[trigger]...)
	r.mu.RUnlock()

	for _, t := range tags {
		t.fn(ctx, t.name, params)
	}
	return len(tags)
}

// RegisterDefaults installs the increment and mod macros and the custom_tag
// tag. It runs each time a container becomes available; repeating it replaces
// the callbacks and keeps the increment count.
func RegisterDefaults(r *Registry) {
	r.RegisterMacro("increment", func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		return r.increments.Add(1), nil
	})

	r.RegisterMacro("mod", func(ctx context.Context, params map[string]interface{}) (interface{}, error) {
		a, err := intParam(params, "key1")
		if err != nil {
			return nil, err
		}
		b, err := intParam(params, "key2")
		if err != nil {
			return nil, err
		}
		if b == 0 {
			return nil, fmt.Errorf("%w: key2 must not be zero", ErrInvalidParams)
		}
		return a % b, nil
	})

	r.RegisterTag("custom_tag", "custom_tag", func(ctx context.Context, tag string, params map[string]interface{}) {
		logger.FromCtx(ctx).Info("custom function call tag fired", zap.String("tag", tag))
	})
}

// intParam accepts JSON numbers and numeric strings.
func intParam(params map[string]interface{}, key string) (int64, error) {
	v, ok := params[key]
	if !ok {
		return 0, fmt.Errorf("%w: missing %s", ErrInvalidParams, key)
	}
	switch n := v.(type) {
	case int:
		return int64(n), nil
	case int64:
		return n, nil
	case float64:
		if n != float64(int64(n)) {
			return 0, fmt.Errorf("%w: %s is not an integer", ErrInvalidParams, key)
		}
		return int64(n), nil
	case string:
		i, err := strconv.ParseInt(n, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %s is not an integer", ErrInvalidParams, key)
		}
		return i, nil
	default:
		return 0, fmt.Errorf("%w: %s has type %T", ErrInvalidParams, key, v)
	}
}
