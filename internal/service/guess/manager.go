package guess

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/park285/numguess/internal/storage"
)

// Manager hands out one Session per player, loading profiles lazily.
type Manager struct {
	repo storage.Repository
	cfg  Config
	opts []Option
	now  func() time.Time

	// loads collapses concurrent first lookups of one player so a slow
	// repository only blocks callers for that player.
	loads singleflight.Group

	mu       sync.Mutex
	sessions map[string]*managed
}

type managed struct {
	s        *Session
	lastUsed time.Time
}

func NewManager(repo storage.Repository, cfg Config, opts ...Option) (*Manager, error) {
	if repo == nil {
		return nil, fmt.Errorf("profile repository is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Manager{
		repo:     repo,
		cfg:      cfg,
		opts:     opts,
		now:      time.Now,
		sessions: make(map[string]*managed),
	}, nil
}

// PlayerKey derives a stable profile id for a sender in a chat room.
func PlayerKey(room, sender string) string {
	sum := sha256.Sum256([]byte(strings.TrimSpace(room) + "|" + strings.TrimSpace(sender)))
	return hex.EncodeToString(sum[:16])
}

// Session returns the player's session, creating it on first use. The
// profile load runs without holding the manager lock.
func (m *Manager) Session(ctx context.Context, playerID string) (*Session, error) {
	playerID = strings.TrimSpace(playerID)
	if playerID == "" {
		return nil, storage.ErrEmptyID
	}
	if s := m.lookup(playerID); s != nil {
		return s, nil
	}
	v, err, _ := m.loads.Do(playerID, func() (any, error) {
		if s := m.lookup(playerID); s != nil {
			return s, nil
		}
		s, err := NewSession(ctx, m.repo, playerID, m.cfg, m.opts...)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		m.sessions[playerID] = &managed{s: s, lastUsed: m.now()}
		m.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (m *Manager) lookup(playerID string) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.sessions[playerID]
	if !ok {
		return nil
	}
	e.lastUsed = m.now()
	return e.s
}

// Forget drops a player's in-memory session. An active round is lost
// without being recorded.
func (m *Manager) Forget(playerID string) {
	m.mu.Lock()
	delete(m.sessions, strings.TrimSpace(playerID))
	m.mu.Unlock()
}

func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// EvictIdle drops sessions unused for at least maxIdle. A round that ran
// out of time is recorded first; a session with a round still in progress
// is kept. It returns the number of sessions dropped.
func (m *Manager) EvictIdle(ctx context.Context, maxIdle time.Duration) int {
	cutoff := m.now().Add(-maxIdle)

	type candidate struct {
		id       string
		e        *managed
		lastUsed time.Time
	}
	var stale []candidate
	m.mu.Lock()
	for id, e := range m.sessions {
		if !e.lastUsed.After(cutoff) {
			stale = append(stale, candidate{id: id, e: e, lastUsed: e.lastUsed})
		}
	}
	m.mu.Unlock()

	evicted := 0
	for _, c := range stale {
		if !c.e.s.settle(ctx) {
			continue
		}
		m.mu.Lock()
		// Skip entries touched or replaced since the scan.
		if cur, ok := m.sessions[c.id]; ok && cur == c.e && cur.lastUsed.Equal(c.lastUsed) {
			delete(m.sessions, c.id)
			evicted++
		}
		m.mu.Unlock()
	}
	return evicted
}

// RunEviction calls EvictIdle every interval until ctx is done.
func (m *Manager) RunEviction(ctx context.Context, interval, maxIdle time.Duration, logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.EvictIdle(ctx, maxIdle); n > 0 {
				logger.Debug("sessions_evicted", zap.Int("count", n), zap.Int("remaining", m.Len()))
			}
		}
	}
}
