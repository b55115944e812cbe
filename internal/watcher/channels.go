package watcher

import (
	"context"
	"log/slog"
)

// SimulatedWatcher stands in for an external channel (email, whatsapp,
// linkedin) that has no live integration yet. It reports no updates; the
// file-drop convention means another process can still create EMAIL_ or
// WHATSAPP_ action files directly in Needs_Action.
type SimulatedWatcher struct {
	name   string
	logger *slog.Logger
}

// NewSimulatedWatcher creates a no-op watcher for the named channel.
func NewSimulatedWatcher(name string, logger *slog.Logger) *SimulatedWatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulatedWatcher{name: name, logger: logger}
}

func (w *SimulatedWatcher) Name() string { return w.name }

func (w *SimulatedWatcher) CheckForUpdates(ctx context.Context) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	w.logger.Debug("checked channel, no live integration", "channel", w.name)
	return nil, nil
}
