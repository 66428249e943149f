package storage

import (
	"context"
	"sync"
	"time"

	"github.com/park285/numguess/internal/domain"
)

// memrepo keeps profiles in process memory. Used when no durable backend is
// configured and in tests.
type memrepo struct {
	mu       sync.RWMutex
	profiles map[string]*domain.Profile
	now      func() time.Time
}

func NewMemoryRepository() Repository {
	return &memrepo{
		profiles: make(map[string]*domain.Profile),
		now:      time.Now,
	}
}

func (m *memrepo) Load(ctx context.Context, id string) (*domain.Profile, error) {
	id, err := validateID(id)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.profiles[id]; ok && p != nil {
		return p.Clone(), nil
	}
	return domain.NewProfile(id, m.now()), nil
}

func (m *memrepo) Save(ctx context.Context, profile *domain.Profile) error {
	if profile == nil {
		return ErrNilProfile
	}
	id, err := validateID(profile.ID)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.profiles[id] = profile.Clone()
	m.mu.Unlock()
	return nil
}
