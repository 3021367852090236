package repo

import (
	"context"
	"errors"

	"github.com/Aashish019/Client-Link-Monitor/internal/domain"
)

// ErrNotFound is returned when a target does not exist.
var ErrNotFound = errors.New("target not found")

// Ports (interfaces) — swap in any DB adapter later.
type TargetStore interface {
	// Upsert inserts the target or, when the name already exists,
	// replaces its URL.
	Upsert(ctx context.Context, t *domain.Target) error
	Get(ctx context.Context, name string) (*domain.Target, error)
	// Remove deletes the target. Removing an absent name is not an error.
	Remove(ctx context.Context, name string) error
	// List returns all targets ordered by name.
	List(ctx context.Context) ([]domain.Target, error)
}

// HistoryStore persists probe outcomes and answers windowed uptime
// queries. Implementations must tolerate concurrent appends.
type HistoryStore interface {
	Append(ctx context.Context, rec *domain.CheckRecord) error
	// UptimeStats reports the up-ratio over the trailing 24h and 7d
	// windows, 100 for a window with no records.
	UptimeStats(ctx context.Context, name string) (domain.UptimeStats, error)
	RecentByTarget(ctx context.Context, name string, limit int) ([]domain.CheckRecord, error)
	// Purge drops all records for a removed target.
	Purge(ctx context.Context, name string) error
}

// Store is the full persistence surface; every backend implements both
// ports.
type Store interface {
	TargetStore
	HistoryStore
}
