// Package registry is the write side of the monitored-client set:
// every add, remove, and bulk import goes through it, persists before
// returning, and nudges the monitor so observers see the change
// without waiting for the next scheduled round.
package registry

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Aashish019/Client-Link-Monitor/internal/domain"
	"github.com/Aashish019/Client-Link-Monitor/internal/repo"
)

// Rounds is the monitor surface the registry needs: schedule an
// out-of-band probe round, and drop a deleted target from the live
// view.
type Rounds interface {
	KickRound()
	ForgetTarget(name string)
}

type Registry struct {
	log     *zap.Logger
	targets repo.TargetStore
	history repo.HistoryStore
	rounds  Rounds
}

func New(log *zap.Logger, targets repo.TargetStore, history repo.HistoryStore, rounds Rounds) *Registry {
	return &Registry{log: log, targets: targets, history: history, rounds: rounds}
}

// ValidateTarget rejects empty names and anything that is not an
// absolute http(s) URL with a host.
func ValidateTarget(name, rawURL string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("name cannot be empty")
	}
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("url must be absolute http or https")
	}
	return nil
}

// Add upserts the target: a new name is created, an existing name gets
// its URL replaced. The write is durable before Add returns; the probe
// round it schedules is not waited on.
func (r *Registry) Add(ctx context.Context, name, rawURL string) error {
	if err := ValidateTarget(name, rawURL); err != nil {
		return err
	}
	t := &domain.Target{Name: name, URL: rawURL, CreatedAt: time.Now().UTC()}
	if err := r.targets.Upsert(ctx, t); err != nil {
		return fmt.Errorf("upsert target %q: %w", name, err)
	}
	r.log.Info("client_added", zap.String("name", name), zap.String("url", rawURL))
	r.rounds.KickRound()
	return nil
}

// Remove deletes the target and purges its check history, so a
// re-added name starts with a clean uptime record. Removing an absent
// name is a no-op.
func (r *Registry) Remove(ctx context.Context, name string) error {
	if err := r.targets.Remove(ctx, name); err != nil {
		return fmt.Errorf("remove target %q: %w", name, err)
	}
	if err := r.history.Purge(ctx, name); err != nil {
		return fmt.Errorf("purge history for %q: %w", name, err)
	}
	r.rounds.ForgetTarget(name)
	r.log.Info("client_removed", zap.String("name", name))
	r.rounds.KickRound()
	return nil
}

// Import bulk-upserts a name-to-url map and reports how many entries
// were applied. Invalid or failed entries are skipped; their errors
// come back accumulated alongside the count. One round is kicked when
// anything changed.
func (r *Registry) Import(ctx context.Context, clients map[string]string) (int, error) {
	var errs error
	count := 0
	for name, rawURL := range clients {
		if err := ValidateTarget(name, rawURL); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("skip %q: %w", name, err))
			continue
		}
		t := &domain.Target{Name: name, URL: rawURL, CreatedAt: time.Now().UTC()}
		if err := r.targets.Upsert(ctx, t); err != nil {
			errs = multierr.Append(errs, fmt.Errorf("upsert %q: %w", name, err))
			continue
		}
		count++
	}
	r.log.Info("clients_imported",
		zap.Int("count", count),
		zap.Int("skipped", len(clients)-count),
	)
	if count > 0 {
		r.rounds.KickRound()
	}
	return count, errs
}

// List returns the current name-to-url mapping.
func (r *Registry) List(ctx context.Context) (map[string]string, error) {
	targets, err := r.targets.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list targets: %w", err)
	}
	out := make(map[string]string, len(targets))
	for _, t := range targets {
		out[t.Name] = t.URL
	}
	return out, nil
}
