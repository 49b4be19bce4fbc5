package screen

import (
	"context"
	"sync"
	"time"

	"gallery-be/internal/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const evictionInterval = time.Minute

type session struct {
	ctrl     *Controller
	lastSeen time.Time
}

// Manager owns one Controller per session and evicts idle sessions.
type Manager struct {
	newController func() *Controller
	ttl           time.Duration
	now           func() time.Time

	mu       sync.Mutex
	sessions map[string]*session
}

func NewManager(newController func() *Controller, ttl time.Duration) *Manager {
	return &Manager{
		newController: newController,
		ttl:           ttl,
		now:           time.Now,
		sessions:      make(map[string]*session),
	}
}

// Create starts a new session: its controller loads the catalog before
// Create returns.
func (m *Manager) Create(ctx context.Context) (string, *Controller) {
	id := uuid.New().String()
	ctx = logger.WithSessionID(ctx, id)

	ctrl := m.newController()
	ctrl.Start(ctx)

	m.mu.Lock()
	m.sessions[id] = &session{ctrl: ctrl, lastSeen: m.now()}
	m.mu.Unlock()

	logger.FromCtx(ctx).Info("session created")
	return id, ctrl
}

func (m *Manager) Get(id string) (*Controller, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	s.lastSeen = m.now()
	return s.ctrl, nil
}

func (m *Manager) Delete(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Evict removes sessions idle for longer than the ttl and returns how many went.
func (m *Manager) Evict() int {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := 0
	for id, s := range m.sessions {
		if m.now().Sub(s.lastSeen) > m.ttl {
			delete(m.sessions, id)
			evicted++
		}
	}
	return evicted
}

// Run evicts idle sessions until ctx is done.
func (m *Manager) Run(ctx context.Context) {
	ticker := time.NewTicker(evictionInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.Evict(); n > 0 {
				logger.L().Info("idle sessions evicted", zap.Int("count", n))
			}
		}
	}
}
