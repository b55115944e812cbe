package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"
	"time"
)

func readTodayEvents(t *testing.T, logsDir string) []Event {
	t.Helper()
	path := filepath.Join(logsDir, fmt.Sprintf("audit_log_%s.jsonl", time.Now().Format("20060102")))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading audit log: %v", err)
	}

	var events []Event
	for _, line := range strings.Split(strings.TrimSpace(string(data)), "\n") {
		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			t.Fatalf("bad audit line %q: %v", line, err)
		}
		events = append(events, e)
	}
	return events
}

func TestAppendWritesJSONL(t *testing.T) {
	dir := t.TempDir()
	trail := NewTrail(dir, "session_x", nil, nil)

	id, err := trail.Append(Event{
		EventType:   EventActionCreated,
		Description: "created an action",
		Actor:       ActorSystem,
		Target:      "ACTION_x.md",
		Result:      ResultSuccess,
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if !strings.HasPrefix(id, "event_") {
		t.Errorf("event id: got %q", id)
	}

	events := readTodayEvents(t, dir)
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	e := events[0]
	if e.EventID != id || e.EventType != EventActionCreated || e.Actor != ActorSystem {
		t.Errorf("unexpected event: %+v", e)
	}
	if e.SessionID != "session_x" {
		t.Errorf("session: got %q", e.SessionID)
	}
	if e.Parameters == nil || e.Metadata == nil {
		t.Error("parameters and metadata must never be null")
	}
}

func TestAppendAlwaysWritesTargetField(t *testing.T) {
	dir := t.TempDir()
	trail := NewTrail(dir, "s", nil, nil)

	if _, err := trail.Append(Event{
		EventType: EventSystemStart,
		Actor:     ActorSystem,
		Result:    ResultSuccess,
	}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, fmt.Sprintf("audit_log_%s.jsonl", time.Now().Format("20060102")))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"target"`) {
		t.Error("target field must appear even when empty")
	}
}

func TestAppendIDsStrictlyIncrease(t *testing.T) {
	trail := NewTrail(t.TempDir(), "s", nil, nil)

	var last int64
	for i := 0; i < 50; i++ {
		id, err := trail.Append(Event{EventType: "tick", Actor: ActorSystem, Result: ResultSuccess})
		if err != nil {
			t.Fatal(err)
		}
		n, err := strconv.ParseInt(strings.TrimPrefix(id, "event_"), 10, 64)
		if err != nil {
			t.Fatalf("unparseable id %q", id)
		}
		if n <= last {
			t.Fatalf("id %d not greater than previous %d", n, last)
		}
		last = n
	}
}

func TestSummarize(t *testing.T) {
	dir := t.TempDir()
	trail := NewTrail(dir, "s", nil, nil)

	appendEvent := func(eventType, actor string, result Result) {
		t.Helper()
		if _, err := trail.Append(Event{EventType: eventType, Actor: actor, Result: result}); err != nil {
			t.Fatal(err)
		}
	}
	appendEvent(EventActionCreated, ActorSystem, ResultSuccess)
	appendEvent(EventActionCreated, ActorSystem, ResultSuccess)
	appendEvent(EventActionArchived, ActorOrchestrator, ResultSuccess)
	appendEvent(EventExternalAction, ActorOrchestrator, ResultFailed)

	summary := trail.Summarize(1)
	if summary.TotalEvents != 4 {
		t.Errorf("total: got %d, want 4", summary.TotalEvents)
	}
	if summary.EventsByType[EventActionCreated] != 2 {
		t.Errorf("by type: %+v", summary.EventsByType)
	}
	if summary.EventsByActor[ActorOrchestrator] != 2 {
		t.Errorf("by actor: %+v", summary.EventsByActor)
	}
	if summary.SuccessfulActions != 3 || summary.FailedActions != 1 {
		t.Errorf("success/failed: %d/%d", summary.SuccessfulActions, summary.FailedActions)
	}
}

func TestDailySummaryRegenerated(t *testing.T) {
	dir := t.TempDir()
	trail := NewTrail(dir, "s", nil, nil)

	if _, err := trail.Append(Event{
		EventType:   EventFileDetected,
		Description: "saw a file",
		Actor:       ActorWatcher,
		Result:      ResultDetected,
	}); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(dir, fmt.Sprintf("daily_summary_%s.md", time.Now().Format("20060102")))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("daily summary missing: %v", err)
	}
	if !strings.Contains(string(data), "saw a file") {
		t.Error("summary timeline should mention the event")
	}
	if !strings.Contains(string(data), "Total events: 1") {
		t.Error("summary stats should count the event")
	}
}

func TestSubscribeReceivesEvents(t *testing.T) {
	trail := NewTrail(t.TempDir(), "s", nil, nil)

	var got []Event
	trail.Subscribe(func(e Event) { got = append(got, e) })

	if _, err := trail.Append(Event{EventType: "tick", Actor: ActorSystem, Result: ResultSuccess}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].EventType != "tick" {
		t.Errorf("subscriber saw %+v", got)
	}
}

func TestExportReport(t *testing.T) {
	dir := t.TempDir()
	trail := NewTrail(dir, "s", nil, nil)

	if _, err := trail.Append(Event{EventType: EventActionCreated, Actor: ActorSystem, Result: ResultSuccess}); err != nil {
		t.Fatal(err)
	}

	now := time.Now()
	path, err := trail.ExportReport(now.AddDate(0, 0, -6), now)
	if err != nil {
		t.Fatalf("ExportReport failed: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	content := string(data)
	if !strings.Contains(content, "Total events: 1") {
		t.Error("report should count the event")
	}
	if !strings.Contains(content, EventActionCreated) {
		t.Error("report should list events by type")
	}
}
