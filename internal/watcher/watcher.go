package watcher

import (
	"context"
	"time"
)

// Event is one detected inbound item: a file that appeared, or a simulated
// message on an external channel.
type Event struct {
	Channel    string
	Path       string
	Name       string
	DetectedAt time.Time
}

// Watcher polls one channel for new items. Watchers are add-only: they detect
// and report, and the single orchestrator consumer is the only thing that
// creates, moves, or mutates action records.
type Watcher interface {
	Name() string
	CheckForUpdates(ctx context.Context) ([]Event, error)
}
