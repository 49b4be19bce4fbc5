package screen

import (
	"context"
	"testing"
	"time"

	"gallery-be/internal/container"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager(t *testing.T) {
	f := &fakeFetcher{outcomes: []container.Outcome{successWith(`[{"name":"Cat","image_files":[]}]`)}}
	m := NewManager(func() *Controller {
		return newTestController(f, &recordingSink{}, nil)
	}, time.Minute)

	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	id, ctrl := m.Create(context.Background())
	require.NotEmpty(t, id)
	assert.Equal(t, StateReady, ctrl.View().State)
	assert.Equal(t, 1, m.Len())

	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Same(t, ctrl, got)

	_, err = m.Get("missing")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	t.Run("EvictsIdle", func(t *testing.T) {
		other, _ := m.Create(context.Background())

		now = now.Add(45 * time.Second)
		_, err := m.Get(id)
		require.NoError(t, err)

		now = now.Add(30 * time.Second)
		assert.Equal(t, 1, m.Evict())

		_, err = m.Get(other)
		assert.ErrorIs(t, err, ErrSessionNotFound)
		_, err = m.Get(id)
		assert.NoError(t, err)
	})

	t.Run("Delete", func(t *testing.T) {
		m.Delete(id)
		assert.Equal(t, 0, m.Len())
	})

	t.Run("RunStopsOnCancel", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		done := make(chan struct{})
		go func() {
			m.Run(ctx)
			close(done)
		}()
		cancel()
		select {
		case <-done:
		case <-time.After(time.Second):
			t.Fatal("Run did not stop")
		}
	})
}
