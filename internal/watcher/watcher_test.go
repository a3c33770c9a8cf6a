package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"
)

func TestWatcher_ImportsOnSettledWrite(t *testing.T) {
	dir := t.TempDir()

	var mu sync.Mutex
	var got []string
	w := NewWatcher(dir, func(path string) {
		mu.Lock()
		got = append(got, path)
		mu.Unlock()
	}, zap.NewNop())
	w.debounce = 50 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatal(err)
	}
	defer w.Stop()

	target := filepath.Join(dir, "recalls.xlsx")
	if err := os.WriteFile(target, []byte("one"), 0o644); err != nil {
		t.Fatal(err)
	}
	// A quick rewrite must collapse into a single import.
	if err := os.WriteFile(target, []byte("two"), 0o644); err != nil {
		t.Fatal(err)
	}
	// Non-spreadsheet and hidden files are ignored.
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, ".partial.xlsx"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(3 * time.Second)
	for {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("no import callback before deadline")
		case <-time.After(20 * time.Millisecond):
		}
	}

	// Give the debounce window time to emit any spurious extras.
	time.Sleep(200 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if len(got) != 1 {
		t.Errorf("got %d imports, want 1: %v", len(got), got)
	}
	if got[0] != target {
		t.Errorf("imported %s, want %s", got[0], target)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	w := NewWatcher(t.TempDir(), func(string) {}, zap.NewNop())
	if err := w.Start(context.Background()); err != nil {
		t.Fatal(err)
	}
	w.Stop()
	w.Stop()
}
