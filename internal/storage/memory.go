package storage

import (
	"sync"

	"github.com/modem-scraper/modem-scraper-pro/internal/models"
)

// Store holds the most recent scrape snapshot for the operational API.
// Scrape history is deliberately not persisted anywhere; only the latest
// cycle is retained, in memory.
type Store interface {
	SaveSnapshot(snap *models.Snapshot)
	LatestSnapshot() (*models.Snapshot, bool)
}

// MemoryStore is the in-memory Store implementation.
type MemoryStore struct {
	mu   sync.RWMutex
	last *models.Snapshot
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

// SaveSnapshot replaces the retained snapshot.
func (s *MemoryStore) SaveSnapshot(snap *models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.last = snap
}

// LatestSnapshot returns the retained snapshot, if any cycle has completed.
func (s *MemoryStore) LatestSnapshot() (*models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.last == nil {
		return nil, false
	}
	return s.last, true
}
