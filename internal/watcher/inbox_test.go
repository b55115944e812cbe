package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestInboxWatcherReportsEachFileOnce(t *testing.T) {
	dir := t.TempDir()
	w := NewInboxWatcher(dir, nil)

	if err := os.WriteFile(filepath.Join(dir, "report.csv"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	events, err := w.CheckForUpdates(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Name != "report.csv" {
		t.Fatalf("unexpected events: %+v", events)
	}
	if events[0].Channel != "inbox" {
		t.Errorf("channel: got %s", events[0].Channel)
	}

	events, err = w.CheckForUpdates(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("second scan should report nothing, got %d", len(events))
	}
}

func TestInboxWatcherIgnores(t *testing.T) {
	dir := t.TempDir()
	w := NewInboxWatcher(dir, []string{"*.tmp", "~*", ".DS_Store"})

	for _, name := range []string{"keep.pdf", "skip.tmp", "~lockfile", ".hidden", ".DS_Store"} {
		if err := os.WriteFile(filepath.Join(dir, name), []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	events, err := w.CheckForUpdates(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 1 || events[0].Name != "keep.pdf" {
		t.Errorf("unexpected events: %+v", events)
	}
}

func TestSimulatedWatcherIsQuiet(t *testing.T) {
	w := NewSimulatedWatcher("email", nil)
	events, err := w.CheckForUpdates(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 0 {
		t.Errorf("simulated channel reported %d events", len(events))
	}
	if w.Name() != "email" {
		t.Errorf("name: got %s", w.Name())
	}
}
