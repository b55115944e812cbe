package recovery

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Failed-action lifecycle states.
const (
	FailedStatusPending     = "pending_recovery"
	FailedStatusRetryFailed = "retry_failed"
	FailedStatusPermanent   = "permanently_failed"
)

// ErrorInfo captures what went wrong when an action failed.
type ErrorInfo struct {
	Kind      string `json:"type"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// FailedAction is the durable record written to Failed_Actions/ when an
// action exhausts its retries. It survives process restarts and is picked up
// by recovery sweeps.
type FailedAction struct {
	ID             string          `json:"id"`
	OriginalAction json.RawMessage `json:"original_action"`
	Error          ErrorInfo       `json:"error"`
	FailedAt       string          `json:"failed_at"`
	RetryCount     int             `json:"retry_count"`
	LastRetry      string          `json:"last_retry,omitempty"`
	Status         string          `json:"status"`
}

// SweepResult summarizes one recovery sweep over the failed-action queue.
type SweepResult struct {
	Attempted         int `json:"attempted"`
	Recovered         int `json:"recovered"`
	PermanentlyFailed int `json:"permanently_failed"`
}

// FailedStore manages the Failed_Actions/ directory: saving failed actions
// for later recovery and sweeping them with bounded retries.
type FailedStore struct {
	dir                 string
	log                 *ErrorLog
	maxRecoveryAttempts int
}

// NewFailedStore creates a FailedStore over the given directory. A failed
// action is retried at most maxRecoveryAttempts times across sweeps before it
// is marked permanently failed.
func NewFailedStore(dir string, log *ErrorLog, maxRecoveryAttempts int) *FailedStore {
	if maxRecoveryAttempts < 1 {
		maxRecoveryAttempts = 3
	}
	return &FailedStore{dir: dir, log: log, maxRecoveryAttempts: maxRecoveryAttempts}
}

// Save persists a failed action to the queue and returns the file path. The
// action payload is stored verbatim so a sweep can re-execute it later.
func (s *FailedStore) Save(actionID string, action any, errInfo ErrorInfo) (string, error) {
	payload, err := json.Marshal(action)
	if err != nil {
		return "", fmt.Errorf("marshalling original action: %w", err)
	}
	if errInfo.Timestamp == "" {
		errInfo.Timestamp = time.Now().Format(time.RFC3339Nano)
	}
	if actionID == "" {
		actionID = uuid.NewString()
	}

	record := FailedAction{
		ID:             actionID,
		OriginalAction: payload,
		Error:          errInfo,
		FailedAt:       time.Now().Format(time.RFC3339Nano),
		RetryCount:     0,
		Status:         FailedStatusPending,
	}

	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling failed action: %w", err)
	}

	path := filepath.Join(s.dir, fmt.Sprintf("FAILED_%s_%s.json", actionID, time.Now().Format("20060102_150405")))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("saving failed action: %w", err)
	}
	return path, nil
}

// List returns all failed actions currently in the queue, oldest file first.
func (s *FailedStore) List() ([]FailedAction, error) {
	paths, err := s.queueFiles()
	if err != nil {
		return nil, err
	}

	var actions []FailedAction
	for _, path := range paths {
		record, err := s.load(path)
		if err != nil {
			continue
		}
		actions = append(actions, record)
	}
	return actions, nil
}

// ProcessFailedActions sweeps the queue, re-executing each action through
// reexec. Recovered actions are removed from the queue; actions that have
// already been retried maxRecoveryAttempts times are marked permanently
// failed and left in place for a human.
func (s *FailedStore) ProcessFailedActions(ctx context.Context, reexec func(FailedAction) error) (SweepResult, error) {
	return s.sweep(ctx, time.Time{}, reexec)
}

// ProcessFailedActionsBefore sweeps only entries that failed before cutoff.
// A cycle passes its own start time here, so an action it just deferred
// waits for the next sweep instead of burning a recovery attempt instantly.
func (s *FailedStore) ProcessFailedActionsBefore(ctx context.Context, cutoff time.Time, reexec func(FailedAction) error) (SweepResult, error) {
	return s.sweep(ctx, cutoff, reexec)
}

func (s *FailedStore) sweep(ctx context.Context, cutoff time.Time, reexec func(FailedAction) error) (SweepResult, error) {
	var result SweepResult

	paths, err := s.queueFiles()
	if err != nil {
		return result, err
	}

	for _, path := range paths {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return result, ctxErr
		}

		record, err := s.load(path)
		if err != nil {
			if s.log != nil {
				s.log.LogError(err, "reading failed action "+filepath.Base(path), SeverityMedium)
			}
			continue
		}

		if !cutoff.IsZero() {
			if failedAt, parseErr := time.Parse(time.RFC3339Nano, record.FailedAt); parseErr == nil && !failedAt.Before(cutoff) {
				continue
			}
		}

		if record.Status == FailedStatusPermanent {
			result.PermanentlyFailed++
			continue
		}
		if record.RetryCount >= s.maxRecoveryAttempts {
			record.Status = FailedStatusPermanent
			s.rewrite(path, record)
			result.PermanentlyFailed++
			if s.log != nil {
				s.log.LogError(
					fmt.Errorf("action %s exhausted %d recovery attempts", record.ID, record.RetryCount),
					"recovery sweep", SeverityHigh)
			}
			continue
		}

		result.Attempted++
		if err := reexec(record); err != nil {
			record.RetryCount++
			record.LastRetry = time.Now().Format(time.RFC3339Nano)
			record.Status = FailedStatusRetryFailed
			s.rewrite(path, record)
			if s.log != nil {
				s.log.LogError(err,
					fmt.Sprintf("recovering action %s (retry %d/%d)", record.ID, record.RetryCount, s.maxRecoveryAttempts),
					SeverityMedium)
			}
			continue
		}

		if err := os.Remove(path); err != nil && s.log != nil {
			s.log.LogError(err, "removing recovered action "+filepath.Base(path), SeverityLow)
		}
		result.Recovered++
	}

	return result, nil
}

// Pending counts queue entries that are still eligible for recovery.
func (s *FailedStore) Pending() int {
	actions, err := s.List()
	if err != nil {
		return 0
	}
	count := 0
	for _, a := range actions {
		if a.Status != FailedStatusPermanent {
			count++
		}
	}
	return count
}

func (s *FailedStore) queueFiles() ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, "FAILED_*.json"))
	if err != nil {
		return nil, fmt.Errorf("listing failed actions: %w", err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *FailedStore) load(path string) (FailedAction, error) {
	var record FailedAction
	data, err := os.ReadFile(path)
	if err != nil {
		return record, fmt.Errorf("reading %s: %w", filepath.Base(path), err)
	}
	if err := json.Unmarshal(data, &record); err != nil {
		return record, fmt.Errorf("parsing %s: %w", filepath.Base(path), err)
	}
	return record, nil
}

func (s *FailedStore) rewrite(path string, record FailedAction) {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return
	}
	if err := os.WriteFile(path, data, 0o644); err != nil && s.log != nil {
		s.log.LogError(err, "updating failed action "+filepath.Base(path), SeverityMedium)
	}
}
