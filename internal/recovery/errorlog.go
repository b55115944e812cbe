package recovery

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Severity levels used across the error log.
const (
	SeverityLow      = "low"
	SeverityMedium   = "medium"
	SeverityHigh     = "high"
	SeverityCritical = "critical"
)

// ErrorEntry is one line in the daily error JSONL file.
type ErrorEntry struct {
	ErrorID   string `json:"error_id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Message   string `json:"message"`
	Context   string `json:"context"`
	Severity  string `json:"severity"`
	SessionID string `json:"session_id"`
}

// ErrorLog appends error records to Logs/error_log_<YYYYMMDD>.jsonl. It is
// the secondary observability channel: the audit trail reports its own write
// failures here rather than recursing into itself.
type ErrorLog struct {
	logsDir   string
	sessionID string
	logger    *slog.Logger

	mu     sync.Mutex
	lastID int64
}

// NewErrorLog creates an ErrorLog writing to the given Logs directory.
func NewErrorLog(logsDir, sessionID string, logger *slog.Logger) *ErrorLog {
	if logger == nil {
		logger = slog.Default()
	}
	return &ErrorLog{logsDir: logsDir, sessionID: sessionID, logger: logger}
}

// LogError records an error with context and severity and returns an error ID
// for tracking. Failures to write the log itself are reported on stderr only;
// there is no further fallback.
func (l *ErrorLog) LogError(err error, context, severity string) string {
	l.mu.Lock()
	id := time.Now().UnixMicro()
	if id <= l.lastID {
		id = l.lastID + 1
	}
	l.lastID = id
	l.mu.Unlock()

	entry := ErrorEntry{
		ErrorID:   fmt.Sprintf("error_%d", id),
		Timestamp: time.Now().Format(time.RFC3339Nano),
		Type:      fmt.Sprintf("%T", err),
		Message:   err.Error(),
		Context:   context,
		Severity:  severity,
		SessionID: l.sessionID,
	}

	if writeErr := l.append(entry); writeErr != nil {
		l.logger.Error("error log unwritable", "error", writeErr)
	}

	l.logger.Error("recorded error",
		"error_id", entry.ErrorID, "severity", severity, "context", context, "error", err)

	return entry.ErrorID
}

func (l *ErrorLog) append(entry ErrorEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("marshalling error entry: %w", err)
	}

	path := filepath.Join(l.logsDir, fmt.Sprintf("error_log_%s.jsonl", time.Now().Format("20060102")))
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening error log: %w", err)
	}
	defer f.Close()

	if _, err := f.Write(append(data, '\n')); err != nil {
		return fmt.Errorf("writing error entry: %w", err)
	}
	return nil
}

// CountRecent counts error entries newer than the cutoff. It scans the daily
// files that could contain qualifying entries and skips unparseable lines.
func (l *ErrorLog) CountRecent(window time.Duration) int {
	cutoff := time.Now().Add(-window)
	count := 0

	days := int(window.Hours()/24) + 1
	for i := 0; i <= days; i++ {
		day := time.Now().AddDate(0, 0, -i)
		path := filepath.Join(l.logsDir, fmt.Sprintf("error_log_%s.jsonl", day.Format("20060102")))
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" {
				continue
			}
			var entry ErrorEntry
			if err := json.Unmarshal([]byte(line), &entry); err != nil {
				continue
			}
			ts, err := time.Parse(time.RFC3339Nano, entry.Timestamp)
			if err != nil {
				continue
			}
			if !ts.Before(cutoff) {
				count++
			}
		}
	}
	return count
}
