package memory

import (
	"context"
	"sync"
	"time"

	"github.com/hamed0406/online/internal/domain"
	"github.com/hamed0406/online/internal/repo"
)

// DefaultCapacity is the number of results kept when New is given <= 0.
const DefaultCapacity = 1024

// Store keeps the most recent results in a ring buffer plus alert state.
type Store struct {
	mu      sync.RWMutex
	results []domain.CheckResult
	next    int // ring write position
	full    bool
	seq     int64
	alerts  map[string]repo.AlertRecord
}

func New(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Store{
		results: make([]domain.CheckResult, capacity),
		alerts:  make(map[string]repo.AlertRecord),
	}
}

func (m *Store) Append(ctx context.Context, r *domain.CheckResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.CheckedAt.IsZero() {
		r.CheckedAt = time.Now().UTC()
	}
	m.seq++
	r.ID = m.seq
	m.results[m.next] = *r
	m.next = (m.next + 1) % len(m.results)
	if m.next == 0 {
		m.full = true
	}
	return nil
}

func (m *Store) Latest(ctx context.Context) (*domain.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.seq == 0 {
		return nil, nil
	}
	i := (m.next - 1 + len(m.results)) % len(m.results)
	r := m.results[i]
	return &r, nil
}

func (m *Store) History(ctx context.Context, limit int) ([]domain.CheckResult, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	n := m.next
	if m.full {
		n = len(m.results)
	}
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]domain.CheckResult, 0, limit)
	for i := 1; i <= limit; i++ {
		out = append(out, m.results[(m.next-i+len(m.results))%len(m.results)])
	}
	return out, nil
}

func (m *Store) Get(ctx context.Context, key string) (*repo.AlertRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	r, ok := m.alerts[key]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *Store) Set(ctx context.Context, key string, lastState bool, sentAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	rec := repo.AlertRecord{Key: key, LastState: lastState}
	if !sentAt.IsZero() {
		rec.LastSentAt = &sentAt
	} else if prev, ok := m.alerts[key]; ok {
		rec.LastSentAt = prev.LastSentAt
	}
	m.alerts[key] = rec
	return nil
}

var (
	_ repo.ResultStore = (*Store)(nil)
	_ repo.AlertStore  = (*Store)(nil)
)
