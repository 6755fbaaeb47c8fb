package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yanqian/uv-australia/internal/domain/locquery"
	apperrors "github.com/yanqian/uv-australia/pkg/errors"
	"github.com/yanqian/uv-australia/pkg/metrics"
	"github.com/yanqian/uv-australia/pkg/util"
)

const defaultIdleTTL = 30 * time.Minute

type dependencies struct {
	locator   Locator
	snapshots SnapshotSource
	advisor   Advisor
	trends    locquery.TrendStore
}

// Manager owns every live session and evicts idle ones.
type Manager struct {
	cfg    Config
	deps   dependencies
	logger *slog.Logger
	now    func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewManager wires the session factory. trends may be nil.
func NewManager(cfg Config, locator Locator, snapshots SnapshotSource, advisor Advisor, trends locquery.TrendStore, logger *slog.Logger) *Manager {
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = defaultIdleTTL
	}
	return &Manager{
		cfg: cfg,
		deps: dependencies{
			locator:   locator,
			snapshots: snapshots,
			advisor:   advisor,
			trends:    trends,
		},
		logger:   logger.With("component", "session.manager"),
		now:      util.NowUTC,
		sessions: make(map[string]*Session),
	}
}

// Create starts a new Idle session.
func (m *Manager) Create() *Session {
	s := newSession(uuid.NewString(), m.cfg, m.deps, m.logger)
	s.now = m.now
	s.lastSeen = m.now()

	m.mu.Lock()
	m.sessions[s.id] = s
	count := len(m.sessions)
	m.mu.Unlock()

	metrics.ActiveSessions.Set(float64(count))
	m.logger.Debug("session created", "session", s.id)
	return s
}

// Get returns a live session.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, apperrors.Wrap(apperrors.CodeNotFound, "session not found", nil)
	}
	return s, nil
}

// Len reports the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// TopSearches lists the most frequent successful searches.
func (m *Manager) TopSearches(ctx context.Context) ([]locquery.TrendingQuery, error) {
	if m.deps.trends == nil {
		return []locquery.TrendingQuery{}, nil
	}
	limit := m.cfg.TrendingLimit
	if limit <= 0 {
		limit = 10
	}
	return m.deps.trends.TopQueries(ctx, limit)
}

// RunJanitor evicts idle sessions until ctx is cancelled.
func (m *Manager) RunJanitor(ctx context.Context) {
	interval := m.cfg.IdleTTL / 2
	if interval > time.Minute {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			m.CloseAll()
			return
		case <-ticker.C:
			m.EvictIdle()
		}
	}
}

// EvictIdle closes sessions not touched within IdleTTL and returns how many went.
func (m *Manager) EvictIdle() int {
	cutoff := m.now().Add(-m.cfg.IdleTTL)
	var idle []*Session

	m.mu.Lock()
	for id, s := range m.sessions {
		if s.idleSince().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	count := len(m.sessions)
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	metrics.ActiveSessions.Set(float64(count))
	if len(idle) > 0 {
		m.logger.Info("evicted idle sessions", "count", len(idle), "remaining", count)
	}
	return len(idle)
}

// CloseAll ends every session.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()
	for _, s := range sessions {
		s.Close()
	}
	metrics.ActiveSessions.Set(0)
}
