package store

import (
	"sync"
	"time"

	"github.com/ashwinsharma89/adlens/internal/models"
	"github.com/ashwinsharma89/adlens/internal/schema"
)

// Snapshot is one immutable, versioned view of the dataset: the rows plus
// the schema catalog built from them. Queries capture a snapshot reference
// once at start and keep using it even if a reload swaps the store
// underneath them.
type Snapshot struct {
	Version  int64
	LoadedAt time.Time
	Rows     []models.CampaignRecord
	Catalog  *schema.Catalog
}

// MemoryStore holds the current snapshot reference. Reload is the only
// mutating operation and replaces the pointer atomically under the lock;
// readers never block each other.
type MemoryStore struct {
	mu      sync.RWMutex
	cur     *Snapshot
	version int64
}

func NewMemoryStore() *MemoryStore { return &MemoryStore{} }

// Swap installs a new snapshot built from the given rows and returns it.
// Dates are truncated to UTC midnight so window containment is exact.
func (s *MemoryStore) Swap(rows []models.CampaignRecord) *Snapshot {
	normalized := make([]models.CampaignRecord, len(rows))
	for i, r := range rows {
		r.Date = day(r.Date)
		normalized[i] = r
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.version++
	s.cur = &Snapshot{
		Version:  s.version,
		LoadedAt: time.Now().UTC(),
		Rows:     normalized,
		Catalog:  schema.Build(normalized),
	}
	return s.cur
}

// Current returns the live snapshot, or nil when nothing is loaded yet.
func (s *MemoryStore) Current() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cur
}

func day(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
