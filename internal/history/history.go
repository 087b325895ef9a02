package history

import (
	"context"
	"sync"
	"time"

	"github.com/ashwinsharma89/adlens/internal/models"
)

// Entry is one recorded (question -> compiled intent -> result digest)
// tuple. History is not authoritative: losing it never affects the
// correctness of future queries.
type Entry struct {
	ID       string             `json:"id"`
	Question string             `json:"question"`
	Intent   models.QueryIntent `json:"intent"`
	Digest   string             `json:"digest"`
	At       time.Time          `json:"at"`
}

// Store records answered questions for reuse and audit.
type Store interface {
	Record(ctx context.Context, e Entry) error
	Recent(ctx context.Context, n int) ([]Entry, error)
}

// Memory is a bounded in-process FIFO, the default backend.
type Memory struct {
	mu      sync.Mutex
	entries []Entry
	max     int
	evicted func() // eviction hook, used for telemetry
}

func NewMemory(max int, onEvict func()) *Memory {
	if max <= 0 {
		max = 50
	}
	return &Memory{max: max, evicted: onEvict}
}

func (m *Memory) Record(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, e)
	if len(m.entries) > m.max {
		m.entries = m.entries[1:]
		if m.evicted != nil {
			m.evicted()
		}
	}
	return nil
}

// Recent returns up to n entries, newest first.
func (m *Memory) Recent(_ context.Context, n int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if n <= 0 || n > len(m.entries) {
		n = len(m.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(m.entries) - 1; i >= len(m.entries)-n; i-- {
		out = append(out, m.entries[i])
	}
	return out, nil
}
