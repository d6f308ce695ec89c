package dashboard

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/MrSnakeDoc/linkus/internal/domain"
	"github.com/MrSnakeDoc/linkus/internal/logger"
)

const validDoc = `
app:
  title: first
services:
  - name: A
    type: link
    url: http://a
`

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestReloaderStartAndManualTrigger(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, validDoc)

	store := NewStore()
	trigger := make(chan struct{}, 1)
	r := NewReloader(NewLoader(path, ""), store, logger.Nop(), false, trigger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop()

	if !store.Ready() || store.Load().App.Title != "first" {
		t.Fatalf("initial snapshot = %+v", store.Load())
	}
	first := store.Load()

	writeFile(t, path, `
app:
  title: second
services: []
`)
	trigger <- struct{}{}
	waitFor(t, func() bool { return store.Load().App.Title == "second" })

	if first.App.Title != "first" || len(first.Services) != 1 {
		t.Error("previous snapshot must not be mutated by a reload")
	}
}

func TestReloaderKeepsSnapshotOnInvalidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, validDoc)

	store := NewStore()
	r := NewReloader(NewLoader(path, ""), store, logger.Nop(), false, nil)
	if err := r.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}

	writeFile(t, path, `
services:
  - name: broken
    type: teleport
`)
	if err := r.Reload(); err == nil {
		t.Fatal("Reload() with invalid document should fail")
	}
	if store.Load().App.Title != "first" {
		t.Error("failed reload must keep the previous snapshot")
	}
}

func TestReloaderWatchesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, validDoc)

	store := NewStore()
	r := NewReloader(NewLoader(path, ""), store, logger.Nop(), true, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := r.Start(ctx); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer r.Stop()

	writeFile(t, path, `
app:
  title: watched
`)
	waitFor(t, func() bool { return store.Load().App.Title == "watched" })
}

func TestReloaderStartFailsWithoutFile(t *testing.T) {
	dir := t.TempDir()
	r := NewReloader(NewLoader(filepath.Join(dir, "config.yaml"), filepath.Join(dir, "nope.yaml")),
		NewStore(), logger.Nop(), false, nil)
	if err := r.Start(context.Background()); err == nil {
		t.Error("Start() should fail when no config and no example exist")
	}
	r.Stop()
	r.Stop()
}

func TestReloaderOnSwapSkipsInitialLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	writeFile(t, path, validDoc)

	r := NewReloader(NewLoader(path, ""), NewStore(), logger.Nop(), false, nil)
	var swaps []string
	r.OnSwap(func(prev, next *domain.Dashboard) {
		swaps = append(swaps, prev.App.Title+"->"+next.App.Title)
	})

	if err := r.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if len(swaps) != 0 {
		t.Fatalf("initial load fired OnSwap: %v", swaps)
	}

	writeFile(t, path, "app:\n  title: second\nservices: []\n")
	if err := r.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if len(swaps) != 1 || swaps[0] != "first->second" {
		t.Errorf("swaps = %v", swaps)
	}
}
