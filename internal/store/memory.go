package store

import (
	"context"
	"sync"
	"time"

	"github.com/microsoft/portal-ux-agent/pkg/models"
	"github.com/rs/zerolog/log"
)

// MemoryStore implements CompositionStore with an in-memory map.
type MemoryStore struct {
	mu           sync.RWMutex
	compositions map[string]*models.Composition // key: userId

	ttl    time.Duration
	doneCh chan struct{}
	once   sync.Once
}

// NewMemoryStore creates the store. When ttl > 0 a background sweeper
// evicts compositions older than ttl every sweepInterval.
func NewMemoryStore(ttl, sweepInterval time.Duration) *MemoryStore {
	m := &MemoryStore{
		compositions: make(map[string]*models.Composition),
		ttl:          ttl,
		doneCh:       make(chan struct{}),
	}
	if ttl > 0 {
		if sweepInterval <= 0 {
			sweepInterval = 10 * time.Minute
		}
		go m.sweepLoop(sweepInterval)
	}
	log.Info().Dur("ttl", ttl).Msg("composition store configured")
	return m
}

func (m *MemoryStore) sweepLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.doneCh:
			return
		case <-ticker.C:
			if n, _ := m.EvictOlderThan(context.Background(), m.ttl); n > 0 {
				log.Info().Int("evicted", n).Dur("ttl", m.ttl).Msg("evicted expired compositions")
			}
		}
	}
}

func (m *MemoryStore) Set(_ context.Context, comp *models.Composition) error {
	clone := *comp
	m.mu.Lock()
	m.compositions[comp.UserID] = &clone
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Get(_ context.Context, userID string) (*models.Composition, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.compositions[userID]
	if !ok {
		return nil, &ErrNotFound{UserID: userID}
	}
	clone := *c
	return &clone, nil
}

func (m *MemoryStore) Delete(_ context.Context, userID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.compositions[userID]; !ok {
		return false, nil
	}
	delete(m.compositions, userID)
	return true, nil
}

func (m *MemoryStore) ListUserIDs(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.compositions))
	for id := range m.compositions {
		out = append(out, id)
	}
	return out, nil
}

func (m *MemoryStore) EvictOlderThan(_ context.Context, ttl time.Duration) (int, error) {
	if ttl <= 0 {
		return 0, nil
	}
	cutoff := time.Now().Add(-ttl)

	m.mu.Lock()
	defer m.mu.Unlock()
	evicted := 0
	for id, c := range m.compositions {
		if c.CreatedAt.Before(cutoff) {
			delete(m.compositions, id)
			evicted++
		}
	}
	return evicted, nil
}

// Close stops the sweeper. Safe to call multiple times.
func (m *MemoryStore) Close() error {
	m.once.Do(func() { close(m.doneCh) })
	return nil
}

// Compile-time check that MemoryStore implements CompositionStore.
var _ CompositionStore = (*MemoryStore)(nil)
