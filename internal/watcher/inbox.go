package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// InboxWatcher polls the vault Inbox directory for new files. It remembers
// what it has already reported, so each file is surfaced exactly once per
// process lifetime; the consumer relocates reported files out of the inbox
// anyway.
type InboxWatcher struct {
	dir    string
	ignore []string
	seen   map[string]bool
}

// NewInboxWatcher creates an inbox watcher. ignore takes doublestar globs
// matched against the bare filename.
func NewInboxWatcher(dir string, ignore []string) *InboxWatcher {
	return &InboxWatcher{dir: dir, ignore: ignore, seen: make(map[string]bool)}
}

func (w *InboxWatcher) Name() string { return "inbox" }

// CheckForUpdates scans the inbox and returns files not reported before.
func (w *InboxWatcher) CheckForUpdates(ctx context.Context) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return nil, fmt.Errorf("scanning inbox: %w", err)
	}

	var events []Event
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || w.seen[name] || w.ignored(name) {
			continue
		}
		w.seen[name] = true
		events = append(events, Event{
			Channel:    "inbox",
			Path:       filepath.Join(w.dir, name),
			Name:       name,
			DetectedAt: time.Now(),
		})
	}
	return events, nil
}

func (w *InboxWatcher) ignored(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	for _, pattern := range w.ignore {
		if ok, err := doublestar.Match(pattern, name); err == nil && ok {
			return true
		}
	}
	return false
}
