package watcher

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Manager runs a set of watchers on a shared poll interval and funnels their
// events into one channel. Watchers never touch vault state themselves;
// whatever consumes the event channel does.
type Manager struct {
	watchers []Watcher
	interval time.Duration
	logger   *slog.Logger
}

// NewManager creates a Manager polling each watcher every interval.
func NewManager(watchers []Watcher, interval time.Duration, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	if interval <= 0 {
		interval = 2 * time.Minute
	}
	return &Manager{watchers: watchers, interval: interval, logger: logger}
}

// Run polls until ctx is cancelled, sending events to out. Each watcher gets
// its own goroutine and ticker; a failing watcher logs and keeps polling.
// Run closes out on return.
func (m *Manager) Run(ctx context.Context, out chan<- Event) {
	var wg sync.WaitGroup
	for _, w := range m.watchers {
		wg.Add(1)
		go func(w Watcher) {
			defer wg.Done()
			m.poll(ctx, w, out)
		}(w)
	}
	wg.Wait()
	close(out)
}

func (m *Manager) poll(ctx context.Context, w Watcher, out chan<- Event) {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	// One immediate pass so startup does not wait a full interval.
	m.check(ctx, w, out)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.check(ctx, w, out)
		}
	}
}

func (m *Manager) check(ctx context.Context, w Watcher, out chan<- Event) {
	events, err := w.CheckForUpdates(ctx)
	if err != nil {
		if ctx.Err() == nil {
			m.logger.Warn("watcher check failed", "watcher", w.Name(), "error", err)
		}
		return
	}
	for _, event := range events {
		select {
		case out <- event:
		case <-ctx.Done():
			return
		}
	}
}
