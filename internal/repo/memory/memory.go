package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Aashish019/Client-Link-Monitor/internal/domain"
	"github.com/Aashish019/Client-Link-Monitor/internal/repo"
)

// Store keeps targets and check history in process memory. It backs
// tests and short-lived runs; nothing survives a restart.
type Store struct {
	mu      sync.RWMutex
	targets map[string]domain.Target
	checks  []domain.CheckRecord
}

func New() *Store {
	return &Store{
		targets: make(map[string]domain.Target),
		checks:  make([]domain.CheckRecord, 0, 128),
	}
}

func (m *Store) Upsert(ctx context.Context, t *domain.Target) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	// Re-adding an existing name keeps its original creation time.
	if prev, ok := m.targets[t.Name]; ok {
		t.CreatedAt = prev.CreatedAt
	}
	m.targets[t.Name] = *t
	return nil
}

func (m *Store) Get(ctx context.Context, name string) (*domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.targets[name]
	if !ok {
		return nil, repo.ErrNotFound
	}
	out := t
	return &out, nil
}

func (m *Store) Remove(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.targets, name)
	return nil
}

func (m *Store) List(ctx context.Context) ([]domain.Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.Target, 0, len(m.targets))
	for _, t := range m.targets {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (m *Store) Append(ctx context.Context, rec *domain.CheckRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r := *rec
	if r.CheckedAt.IsZero() {
		r.CheckedAt = time.Now().UTC()
	}
	m.checks = append(m.checks, r)
	return nil
}

func (m *Store) UptimeStats(ctx context.Context, name string) (domain.UptimeStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := time.Now().UTC()
	return domain.UptimeStats{
		Window24h: m.uptimeSince(name, now.Add(-24*time.Hour)),
		Window7d:  m.uptimeSince(name, now.Add(-7*24*time.Hour)),
	}, nil
}

// uptimeSince assumes m.mu is held.
func (m *Store) uptimeSince(name string, cutoff time.Time) float64 {
	var total, up int
	for _, r := range m.checks {
		if r.Name != name || r.CheckedAt.Before(cutoff) {
			continue
		}
		total++
		if r.Status == domain.StatusUp {
			up++
		}
	}
	if total == 0 {
		return 100.0
	}
	return float64(up) / float64(total) * 100.0
}

func (m *Store) RecentByTarget(ctx context.Context, name string, limit int) ([]domain.CheckRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.CheckRecord, 0, limit)
	for i := len(m.checks) - 1; i >= 0 && len(out) < limit; i-- {
		if m.checks[i].Name == name {
			out = append(out, m.checks[i])
		}
	}
	return out, nil
}

func (m *Store) Purge(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.checks[:0]
	for _, r := range m.checks {
		if r.Name != name {
			kept = append(kept, r)
		}
	}
	m.checks = kept
	return nil
}
