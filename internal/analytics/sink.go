package analytics

import (
	"context"

	"gallery-be/internal/logger"

	"go.uber.org/zap"
)

// Sink receives fire-and-forget screen views and events. Implementations must
// not block the caller for long and never surface delivery errors.
type Sink interface {
	RecordScreen(ctx context.Context, name string)
	RecordEvent(ctx context.Context, category, action, label string)
}

// LogSink only logs hits. It is the whole sink in dry-run mode.
type LogSink struct{}

func NewLogSink() LogSink {
	return LogSink{}
}

func (LogSink) RecordScreen(ctx context.Context, name string) {
	if name == "" {
		return
	}
	logger.FromCtx(ctx).Info("screen view", zap.String("screen", name))
}

func (LogSink) RecordEvent(ctx context.Context, category, action, label string) {
	logger.FromCtx(ctx).Info("sending event",
		zap.String("category", category),
		zap.String("action", action),
		zap.String("label", label),
	)
}

// Fanout forwards every hit to each sink in order.
type Fanout []Sink

func (f Fanout) RecordScreen(ctx context.Context, name string) {
	for _, s := range f {
		s.RecordScreen(ctx, name)
	}
}

func (f Fanout) RecordEvent(ctx context.Context, category, action, label string) {
	for _, s := range f {
		s.RecordEvent(ctx, category, action, label)
	}
}
