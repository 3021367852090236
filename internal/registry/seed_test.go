package registry

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestLoadSeed_Valid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.json")
	body := `{"svc1": "https://one.example", "svc2": "https://two.example"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	clients, err := LoadSeed(path)
	if err != nil {
		t.Fatalf("LoadSeed: %v", err)
	}
	if len(clients) != 2 || clients["svc1"] != "https://one.example" {
		t.Fatalf("clients = %v", clients)
	}
}

func TestLoadSeed_Missing(t *testing.T) {
	if _, err := LoadSeed(filepath.Join(t.TempDir(), "nope.json")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadSeed_Corrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clients.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadSeed(path); err == nil {
		t.Fatal("expected error for corrupt file")
	}
}

func TestWatchSeed_ReimportsOnWrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clients.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	reg, store, _ := newTestRegistry()
	w, err := WatchSeed(path, reg, zap.NewNop())
	if err != nil {
		t.Fatalf("WatchSeed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	body := `{"svc1": "https://one.example"}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := store.Get(ctx, "svc1"); err == nil {
			return
		}
		time.Sleep(50 * time.Millisecond)
	}
	t.Fatal("seed change never imported")
}

func TestWatchSeed_BurstImportsFinalContent(t *testing.T) {
	old := seedDebounce
	seedDebounce = 100 * time.Millisecond
	t.Cleanup(func() { seedDebounce = old })

	dir := t.TempDir()
	path := filepath.Join(dir, "clients.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	reg, store, _ := newTestRegistry()
	w, err := WatchSeed(path, reg, zap.NewNop())
	if err != nil {
		t.Fatalf("WatchSeed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	// a truncate-then-write save lands as a burst: first a partial
	// file, immediately followed by the completed content
	if err := os.WriteFile(path, []byte(`{"svc1": "https://one.exam`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(`{"svc1": "https://one.example", "svc2": "https://two.example"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := store.Get(ctx, "svc2"); err == nil {
			return
		}
		time.Sleep(25 * time.Millisecond)
	}
	t.Fatal("final write of the burst never imported")
}

func TestWatchSeed_IgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "clients.json")
	if err := os.WriteFile(path, []byte(`{}`), 0o644); err != nil {
		t.Fatal(err)
	}

	reg, store, _ := newTestRegistry()
	w, err := WatchSeed(path, reg, zap.NewNop())
	if err != nil {
		t.Fatalf("WatchSeed: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	w.Start(ctx)

	other := filepath.Join(dir, "other.json")
	if err := os.WriteFile(other, []byte(`{"ghost": "https://x.example"}`), 0o644); err != nil {
		t.Fatal(err)
	}

	time.Sleep(300 * time.Millisecond)
	if _, err := store.Get(ctx, "ghost"); err == nil {
		t.Fatal("sibling file must not trigger an import")
	}
}
