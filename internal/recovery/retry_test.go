package recovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func newTestLog(t *testing.T) (*ErrorLog, string) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewErrorLog(dir, "test_session", logger), dir
}

func readErrorEntries(t *testing.T, dir string) []ErrorEntry {
	t.Helper()
	path := filepath.Join(dir, fmt.Sprintf("error_log_%s.jsonl", time.Now().Format("20060102")))
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		t.Fatal(err)
	}

	var entries []ErrorEntry
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		if line == "" {
			continue
		}
		var e ErrorEntry
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("bad error entry %q: %v", line, err)
		}
		entries = append(entries, e)
	}
	return entries
}

func TestRetrySucceedsWithinBudget(t *testing.T) {
	log, _ := newTestLog(t)

	calls := 0
	got, err := RetryWithBackoff(context.Background(), log, func() (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	}, 3, time.Millisecond, "test op")

	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if got != "ok" {
		t.Errorf("result: got %q, want ok", got)
	}
	if calls != 3 {
		t.Errorf("op called %d times, want 3", calls)
	}
}

func TestRetryExhaustionReturnsLastError(t *testing.T) {
	log, dir := newTestLog(t)

	calls := 0
	_, err := RetryWithBackoff(context.Background(), log, func() (int, error) {
		calls++
		return 0, fmt.Errorf("failure %d", calls)
	}, 3, time.Millisecond, "test op")

	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if calls != 3 {
		t.Errorf("op called %d times, want exactly 3", calls)
	}
	if !strings.Contains(err.Error(), "failure 3") {
		t.Errorf("expected last error wrapped, got %v", err)
	}

	entries := readErrorEntries(t, dir)
	var medium, high int
	for _, e := range entries {
		switch e.Severity {
		case SeverityMedium:
			medium++
		case SeverityHigh:
			high++
		}
	}
	if medium != 2 || high != 1 {
		t.Errorf("logged %d medium + %d high, want 2 medium + 1 high", medium, high)
	}
}

func TestRetryBackoffDoubles(t *testing.T) {
	log, _ := newTestLog(t)

	base := 20 * time.Millisecond
	start := time.Now()
	_, err := RetryWithBackoff(context.Background(), log, func() (int, error) {
		return 0, errors.New("always")
	}, 3, base, "timing op")
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected failure")
	}
	// Sleeps are base + 2*base = 60ms; allow generous slack upward only.
	if elapsed < 3*base {
		t.Errorf("elapsed %v, want at least %v", elapsed, 3*base)
	}
}

func TestRetryContextCancelDuringBackoff(t *testing.T) {
	log, _ := newTestLog(t)

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := RetryWithBackoff(ctx, log, func() (int, error) {
		calls++
		return 0, errors.New("always")
	}, 5, time.Minute, "cancel op")

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Errorf("op called %d times, want 1 (cancel interrupts the sleep)", calls)
	}
}

func TestGracefulDegradeFallbackSuccess(t *testing.T) {
	log, dir := newTestLog(t)

	got, err := GracefulDegrade(context.Background(), log,
		func() (string, error) { return "", errors.New("primary down") },
		func() (string, error) { return "fallback value", nil },
		"degrade op")

	if err != nil {
		t.Fatalf("expected fallback success, got %v", err)
	}
	if got != "fallback value" {
		t.Errorf("result: got %q", got)
	}

	entries := readErrorEntries(t, dir)
	if len(entries) != 1 {
		t.Fatalf("expected exactly 1 log entry, got %d", len(entries))
	}
	if entries[0].Severity != SeverityMedium {
		t.Errorf("severity: got %s, want medium", entries[0].Severity)
	}
}

func TestGracefulDegradeBothFail(t *testing.T) {
	log, dir := newTestLog(t)

	_, err := GracefulDegrade(context.Background(), log,
		func() (string, error) { return "", errors.New("primary down") },
		func() (string, error) { return "", errors.New("fallback down") },
		"degrade op")

	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "fallback down") {
		t.Errorf("fallback error should be returned, got %v", err)
	}

	entries := readErrorEntries(t, dir)
	if len(entries) != 2 {
		t.Fatalf("expected 2 log entries, got %d", len(entries))
	}
	if entries[1].Severity != SeverityHigh {
		t.Errorf("fallback failure severity: got %s, want high", entries[1].Severity)
	}
}

func TestGracefulDegradePrimarySuccessLogsNothing(t *testing.T) {
	log, dir := newTestLog(t)

	got, err := GracefulDegrade(context.Background(), log,
		func() (int, error) { return 42, nil },
		func() (int, error) { t.Fatal("fallback must not run"); return 0, nil },
		"degrade op")

	if err != nil || got != 42 {
		t.Fatalf("got (%d, %v)", got, err)
	}
	if entries := readErrorEntries(t, dir); len(entries) != 0 {
		t.Errorf("expected no log entries, got %d", len(entries))
	}
}
