package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// LoadSeed reads a JSON object of name-to-url pairs, the same shape
// the import endpoint accepts.
func LoadSeed(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var clients map[string]string
	if err := json.Unmarshal(data, &clients); err != nil {
		return nil, fmt.Errorf("parse seed file: %w", err)
	}
	return clients, nil
}

// seedDebounce swallows the burst of events editors emit for one save.
var seedDebounce = 500 * time.Millisecond

// SeedWatcher re-imports the seed file whenever it changes on disk, so
// hand edits show up without a restart.
type SeedWatcher struct {
	watcher *fsnotify.Watcher
	path    string
	reg     *Registry
	log     *zap.Logger
}

// WatchSeed watches the seed file's directory; watching the file
// itself breaks on editors that replace it with a rename.
func WatchSeed(path string, reg *Registry, log *zap.Logger) (*SeedWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}
	if err := w.Add(filepath.Dir(path)); err != nil {
		w.Close()
		return nil, fmt.Errorf("watch %s: %w", filepath.Dir(path), err)
	}
	return &SeedWatcher{watcher: w, path: path, reg: reg, log: log}, nil
}

// Start runs the watch loop until ctx is cancelled.
func (s *SeedWatcher) Start(ctx context.Context) {
	go s.loop(ctx)
}

func (s *SeedWatcher) loop(ctx context.Context) {
	defer s.watcher.Close()

	// Trailing debounce: every event restarts the timer and the import
	// runs once the file has been quiet, so a truncate-then-write save
	// is read after its final write rather than mid-save.
	debounce := time.NewTimer(seedDebounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-s.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != filepath.Clean(s.path) {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if !debounce.Stop() {
				select {
				case <-debounce.C:
				default:
				}
			}
			debounce.Reset(seedDebounce)
		case <-debounce.C:
			s.reimport(ctx)
		case err, ok := <-s.watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("seed_watch_error", zap.Error(err))
		}
	}
}

func (s *SeedWatcher) reimport(ctx context.Context) {
	clients, err := LoadSeed(s.path)
	if err != nil {
		s.log.Warn("seed_reload_error", zap.Error(err))
		return
	}
	count, err := s.reg.Import(ctx, clients)
	if err != nil {
		s.log.Warn("seed_import_partial", zap.Int("count", count), zap.Error(err))
		return
	}
	s.log.Info("seed_reloaded", zap.String("path", s.path), zap.Int("count", count))
}
