package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Aashish019/Client-Link-Monitor/internal/domain"
	"github.com/Aashish019/Client-Link-Monitor/internal/repo"
)

var _ repo.Store = (*Store)(nil)

// Store persists targets and check history in Postgres. Used instead
// of the embedded store when DATABASE_URL is set.
type Store struct {
	pool *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS targets (
  name       TEXT PRIMARY KEY,
  url        TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS checks (
  id         BIGSERIAL PRIMARY KEY,
  name       TEXT NOT NULL,
  status     TEXT NOT NULL,
  checked_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_checks_name_time ON checks (name, checked_at DESC);
`

func New(ctx context.Context, dsn string) (*Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("pgxpool.New: %w", err)
	}
	ctxPing, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(ctxPing); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if _, err := pool.Exec(ctx, schema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{pool: pool}, nil
}

func (s *Store) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// ---- TargetStore ----

func (s *Store) Upsert(ctx context.Context, t *domain.Target) error {
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO targets (name, url, created_at)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (name) DO UPDATE SET url = EXCLUDED.url`,
		t.Name, t.URL, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert target %q: %w", t.Name, err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, name string) (*domain.Target, error) {
	var t domain.Target
	err := s.pool.QueryRow(ctx,
		`SELECT name, url, created_at FROM targets WHERE name = $1`, name,
	).Scan(&t.Name, &t.URL, &t.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, repo.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get target %q: %w", name, err)
	}
	return &t, nil
}

func (s *Store) Remove(ctx context.Context, name string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM targets WHERE name = $1`, name); err != nil {
		return fmt.Errorf("remove target %q: %w", name, err)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]domain.Target, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT name, url, created_at FROM targets ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	defer rows.Close()

	var out []domain.Target
	for rows.Next() {
		var t domain.Target
		if err := rows.Scan(&t.Name, &t.URL, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan target: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// ---- HistoryStore ----

func (s *Store) Append(ctx context.Context, rec *domain.CheckRecord) error {
	if rec.CheckedAt.IsZero() {
		rec.CheckedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO checks (name, status, checked_at) VALUES ($1, $2, $3)`,
		rec.Name, string(rec.Status), rec.CheckedAt,
	)
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
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(CASE WHEN status = 'up' THEN 1 ELSE 0 END), 0)
		  FROM checks
		 WHERE name = $1 AND checked_at >= $2
	`, name, cutoff).Scan(&total, &up)
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
	rows, err := s.pool.Query(ctx, `
		SELECT name, status, checked_at
		  FROM checks
		 WHERE name = $1
		 ORDER BY checked_at DESC, id DESC
		 LIMIT $2
	`, name, limit)
	if err != nil {
		return nil, fmt.Errorf("history for %q: %w", name, err)
	}
	defer rows.Close()

	var out []domain.CheckRecord
	for rows.Next() {
		var (
			rec    domain.CheckRecord
			status string
		)
		if err := rows.Scan(&rec.Name, &status, &rec.CheckedAt); err != nil {
			return nil, fmt.Errorf("scan check: %w", err)
		}
		rec.Status = domain.Status(status)
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *Store) Purge(ctx context.Context, name string) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM checks WHERE name = $1`, name); err != nil {
		return fmt.Errorf("purge checks for %q: %w", name, err)
	}
	return nil
}
