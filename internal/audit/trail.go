package audit

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// ErrorSink receives failures from the trail itself. Audit write failures go
// through this secondary channel instead of back into the trail, which would
// recurse.
type ErrorSink interface {
	LogError(err error, context, severity string) string
}

// Trail is the append-only audit event log. Events land in daily JSONL files
// under Logs/ and are mirrored into the SQLite store for filtered queries.
type Trail struct {
	logsDir   string
	sessionID string
	store     *Store
	errors    ErrorSink

	mu          sync.Mutex
	lastEventID int64
	subscribers []func(Event)
}

// NewTrail creates a Trail writing to the given Logs directory. store and
// errors may be nil; the JSONL file is the source of truth either way.
func NewTrail(logsDir, sessionID string, store *Store, errors ErrorSink) *Trail {
	return &Trail{
		logsDir:   logsDir,
		sessionID: sessionID,
		store:     store,
		errors:    errors,
	}
}

// Subscribe registers a callback invoked for every appended event. Callbacks
// run synchronously on the appending goroutine and must be fast.
func (t *Trail) Subscribe(fn func(Event)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.subscribers = append(t.subscribers, fn)
}

// Append records an event and returns its event ID. The ID is derived from a
// monotonic high-resolution clock reading; within one process it is strictly
// increasing even when two appends land in the same microsecond.
func (t *Trail) Append(event Event) (string, error) {
	t.mu.Lock()
	now := time.Now()
	id := now.UnixMicro()
	if id <= t.lastEventID {
		id = t.lastEventID + 1
	}
	t.lastEventID = id
	subs := make([]func(Event), len(t.subscribers))
	copy(subs, t.subscribers)
	t.mu.Unlock()

	event.Timestamp = now
	event.EventID = fmt.Sprintf("event_%d", id)
	event.SessionID = t.sessionID
	if event.Parameters == nil {
		event.Parameters = map[string]any{}
	}
	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := t.writeLine(event); err != nil {
		if t.errors != nil {
			t.errors.LogError(err, "appending audit event "+event.EventType, "high")
		}
		return "", err
	}

	if t.store != nil {
		if err := t.store.Insert(event); err != nil && t.errors != nil {
			t.errors.LogError(err, "mirroring audit event to index", "low")
		}
	}

	t.updateDailySummary(event.Timestamp)

	for _, fn := range subs {
		fn(event)
	}

	return event.EventID, nil
}

// logFileFor returns the JSONL path for the given day.
func (t *Trail) logFileFor(day time.Time) string {
	return filepath.Join(t.logsDir, fmt.Sprintf("audit_log_%s.jsonl", day.Format("20060102")))
}

func (t *Trail) writeLine(event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshalling audit event: %w", err)
	}

	f, err := os.OpenFile(t.logFileFor(event.Timestamp), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening audit log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing audit event: %w", err)
	}
	return nil
}

// readDay replays one day's JSONL file. Unparseable lines are skipped.
func (t *Trail) readDay(day time.Time) []Event {
	data, err := os.ReadFile(t.logFileFor(day))
	if err != nil {
		return nil
	}

	var events []Event
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e Event
		if err := json.Unmarshal([]byte(line), &e); err != nil {
			continue
		}
		events = append(events, e)
	}
	return events
}

// Summarize rebuilds an aggregate over the last sinceDays days by replaying
// the JSONL files. The result is a cache; the log files stay authoritative.
func (t *Trail) Summarize(sinceDays int) Summary {
	summary := Summary{
		GeneratedAt:   time.Now(),
		DaysCovered:   sinceDays,
		EventsByType:  make(map[string]int),
		EventsByActor: make(map[string]int),
	}

	for i := 0; i < sinceDays; i++ {
		day := time.Now().AddDate(0, 0, -i)
		for _, e := range t.readDay(day) {
			summary.TotalEvents++
			summary.EventsByType[e.EventType]++
			summary.EventsByActor[e.Actor]++
			switch e.Result {
			case ResultSuccess:
				summary.SuccessfulActions++
			case ResultFailed:
				summary.FailedActions++
			}
		}
	}
	return summary
}

// ExportReport writes a markdown audit report covering [start, end] and
// returns its path.
func (t *Trail) ExportReport(start, end time.Time) (string, error) {
	days := int(end.Sub(start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}

	summary := Summary{
		GeneratedAt:   time.Now(),
		DaysCovered:   days,
		EventsByType:  make(map[string]int),
		EventsByActor: make(map[string]int),
	}
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		for _, e := range t.readDay(day) {
			summary.TotalEvents++
			summary.EventsByType[e.EventType]++
			summary.EventsByActor[e.Actor]++
			switch e.Result {
			case ResultSuccess:
				summary.SuccessfulActions++
			case ResultFailed:
				summary.FailedActions++
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "---\ntype: audit_report\nperiod: %s to %s\ngenerated: %s\n---\n\n",
		start.Format("2006-01-02"), end.Format("2006-01-02"), time.Now().Format(time.RFC3339))
	b.WriteString("# Audit Report\n\n")
	fmt.Fprintf(&b, "## Period\n%s to %s\n\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	b.WriteString("## Summary Statistics\n")
	fmt.Fprintf(&b, "- Total events: %d\n", summary.TotalEvents)
	fmt.Fprintf(&b, "- Successful actions: %d\n", summary.SuccessfulActions)
	fmt.Fprintf(&b, "- Failed actions: %d\n", summary.FailedActions)
	fmt.Fprintf(&b, "- Days covered: %d\n\n", summary.DaysCovered)

	b.WriteString("## Events by Type\n")
	for _, k := range sortedKeys(summary.EventsByType) {
		fmt.Fprintf(&b, "- %s: %d\n", k, summary.EventsByType[k])
	}
	b.WriteString("\n## Events by Actor\n")
	for _, k := range sortedKeys(summary.EventsByActor) {
		fmt.Fprintf(&b, "- %s: %d\n", k, summary.EventsByActor[k])
	}

	path := filepath.Join(t.logsDir, fmt.Sprintf("audit_report_%s_to_%s.md",
		start.Format("2006-01-02"), end.Format("2006-01-02")))
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", fmt.Errorf("writing audit report: %w", err)
	}
	return path, nil
}

// updateDailySummary regenerates the human-readable rollup for the event's
// day. It is re-derived from the JSONL file on every append; losing it costs
// nothing.
func (t *Trail) updateDailySummary(day time.Time) {
	events := t.readDay(day)

	var total, success, failed, userEvents, systemEvents int
	var timeline strings.Builder
	for _, e := range events {
		total++
		switch e.Result {
		case ResultSuccess:
			success++
		case ResultFailed:
			failed++
		}
		if strings.Contains(strings.ToLower(e.Actor), "user") {
			userEvents++
		}
		if strings.Contains(strings.ToLower(e.Actor), "system") {
			systemEvents++
		}
		fmt.Fprintf(&timeline, "- %s - **%s**: %s\n",
			e.Timestamp.Format("15:04:05"), e.EventType, e.Description)
	}

	content := fmt.Sprintf(`---
type: daily_audit_summary
date: %s
---

# Daily Audit Summary

## Summary Statistics
- Total events: %d
- Successful actions: %d
- Failed actions: %d
- User interactions: %d
- System events: %d

## Timeline
%s`,
		day.Format("2006-01-02"), total, success, failed, userEvents, systemEvents, timeline.String())

	path := filepath.Join(t.logsDir, fmt.Sprintf("daily_summary_%s.md", day.Format("20060102")))
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil && t.errors != nil {
		t.errors.LogError(err, "writing daily summary", "low")
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
