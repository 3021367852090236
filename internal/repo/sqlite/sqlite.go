package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Aashish019/Client-Link-Monitor/internal/domain"
	"github.com/Aashish019/Client-Link-Monitor/internal/repo"
)

var _ repo.Store = (*Store)(nil)

// Store persists targets and check history in a single SQLite file.
// database/sql is capped at one open connection so concurrent appends
// queue instead of tripping SQLITE_BUSY.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS targets (
	name       TEXT PRIMARY KEY,
	url        TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS checks (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL,
	checked_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checks_name_time ON checks (name, checked_at DESC);
`

// Open opens (or creates) the database file at path and applies the
// schema.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if _, err := db.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign_keys: %w", err)
	}
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// ---- TargetStore ----

func (s *Store) Upsert(ctx context.Context, t *domain.Target) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO targets (name, url, created_at)
		VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET url = excluded.url
	`, t.Name, t.URL, t.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("upsert target %q: %w", t.Name, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, name string) (*domain.Target, error) {
	var (
		t       domain.Target
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT name, url, created_at FROM targets WHERE name = ?`, name,
	).Scan(&t.Name, &t.URL, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get target %q: %w", name, err)
	}
	t.CreatedAt = time.Unix(created, 0).UTC()
	return &t, nil
}

func (s *Store) Remove(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM targets WHERE name = ?`, name); err != nil {
		return fmt.Errorf("remove target %q: %w", name, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.Target, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, url, created_at FROM targets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var out []domain.Target
	for rows.Next() {
		var (
			t       domain.Target
			created int64
		)
		if err := rows.Scan(&t.Name, &t.URL, &created); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		t.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// ---- HistoryStore ----

func (s *Store) Append(ctx context.Context, rec *domain.CheckRecord) error {
	if rec.CheckedAt.IsZero() {
		rec.CheckedAt = time.Now().UTC()
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO checks (name, status, checked_at) VALUES (?, ?, ?)`,
		rec.Name, string(rec.Status), rec.CheckedAt.Unix())
	if err != nil {
		return fmt.Errorf("append check for %q: %w", rec.Name, err)
	}
	return nil
}

func (s *Store) UptimeStats(ctx context.Context, name string) (domain.UptimeStats, error) {
	now := time.Now().UTC()
	day, err := s.uptimeSince(ctx, name, now.Add(-24*time.Hour))
	if err != nil {
		return domain.UptimeStats{}, err
	}
	week, err := s.uptimeSince(ctx, name, now.Add(-7*24*time.Hour))
	if err != nil {
		return domain.UptimeStats{}, err
	}
	return domain.UptimeStats{Window24h: day, Window7d: week}, nil
}

func (s *Store) uptimeSince(ctx context.Context, name string, cutoff time.Time) (float64, error) {
	var total, up int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'up' THEN 1 ELSE 0 END), 0)
		  FROM checks
		 WHERE name = ? AND checked_at >= ?
	`, name, cutoff.Unix()).Scan(&total, &up)
	if err != nil {
		return 0, fmt.Errorf("uptime for %q: %w", name, err)
	}
	if total == 0 {
		return 100.0, nil
	}
	return float64(up) / float64(total) * 100.0, nil
}

func (s *Store) RecentByTarget(ctx context.Context, name string, limit int) ([]domain.CheckRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT name, status, checked_at
		  FROM checks
		 WHERE name = ?
		 ORDER BY checked_at DESC, id DESC
		 LIMIT ?
	`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("history for %q: %w", name, err)
	}
	defer rows.Close()

	var out []domain.CheckRecord
	for rows.Next() {
		var (
			rec     domain.CheckRecord
			status  string
			checked int64
		)
		if err := rows.Scan(&rec.Name, &status, &checked); err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		rec.Status = domain.Status(status)
		rec.CheckedAt = time.Unix(checked, 0).UTC()
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Purge(ctx context.Context, name string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM checks WHERE name = ?`, name); err != nil {
		return fmt.Errorf("purge checks for %q: %w", name, err)
	}
	return nil
}
