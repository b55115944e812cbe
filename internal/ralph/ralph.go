// Package ralph drives a processing step repeatedly until the task is done
// or the iteration cap is hit. Named for the strategy: keep cheerfully trying
// the same thing until it works.
package ralph

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ziadkadry99/vaultpilot/internal/audit"
	"github.com/ziadkadry99/vaultpilot/internal/process"
	"github.com/ziadkadry99/vaultpilot/internal/vault"
)

// CompletionPromise is the sentinel a step emits when the task is finished.
const CompletionPromise = "<promise>TASK_COMPLETE</promise>"

// Completion reasons reported in Result.Reason.
const (
	ReasonFileMovement  = "file_movement_complete"
	ReasonPromise       = "promise_complete"
	ReasonMaxIterations = "max_iterations_reached"
)

// Result is the outcome of one loop run. Hitting the iteration cap is
// reported here, not returned as an error: the caller decides whether an
// unfinished task is a problem.
type Result struct {
	TaskID     string `json:"task_id"`
	Completed  bool   `json:"completed"`
	Iterations int    `json:"iterations"`
	Reason     string `json:"reason"`
	LastOutput string `json:"last_output,omitempty"`
}

// Loop re-invokes a step until completion or the iteration cap.
type Loop struct {
	vault         *vault.Vault
	step          process.Step
	trail         *audit.Trail
	maxIterations int
}

// NewLoop creates a Loop. maxIterations below 1 falls back to 10.
func NewLoop(v *vault.Vault, step process.Step, trail *audit.Trail, maxIterations int) *Loop {
	if maxIterations < 1 {
		maxIterations = 10
	}
	return &Loop{vault: v, step: step, trail: trail, maxIterations: maxIterations}
}

// Run iterates the step from initialPrompt until the work is observably done.
// Completion is detected two ways: by archival (a task-identified file landed
// in Done, or Needs_Action drained empty) or by the step emitting the
// completion promise. Step errors propagate to the caller; the loop itself
// never retries a failed invocation.
func (l *Loop) Run(ctx context.Context, initialPrompt, taskID string) (Result, error) {
	result := Result{TaskID: taskID}

	l.append(audit.Event{
		EventType:   audit.EventLoopStart,
		Description: "persistence loop started",
		Actor:       audit.ActorOrchestrator,
		Target:      taskID,
		Result:      audit.ResultInProgress,
		Parameters:  map[string]any{"max_iterations": l.maxIterations},
	})

	prompt := initialPrompt
	for i := 1; i <= l.maxIterations; i++ {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Iterations = i

		// Archival is checked before the step runs: a task that is already
		// done must not cost another invocation.
		if l.archivalComplete(taskID) {
			result.Completed = true
			result.Reason = ReasonFileMovement
			break
		}

		out, err := l.step.Invoke(ctx, prompt)
		if err != nil {
			return result, fmt.Errorf("loop iteration %d: %w", i, err)
		}
		result.LastOutput = out.Output

		if strings.Contains(out.Output, CompletionPromise) {
			result.Completed = true
			result.Reason = ReasonPromise
			break
		}

		prompt = l.nextPrompt(initialPrompt, out.Output, i)
	}

	if !result.Completed {
		result.Reason = ReasonMaxIterations
	}

	l.append(audit.Event{
		EventType:   audit.EventLoopComplete,
		Description: "persistence loop finished: " + result.Reason,
		Actor:       audit.ActorOrchestrator,
		Target:      taskID,
		Result:      loopAuditResult(result),
		Parameters:  map[string]any{"iterations": result.Iterations, "reason": result.Reason},
	})

	return result, nil
}

// archivalComplete checks the filesystem evidence of completion: either a
// file carrying the task ID reached Done, or the pending queue is empty.
func (l *Loop) archivalComplete(taskID string) bool {
	if taskID != "" {
		matches, err := filepath.Glob(filepath.Join(l.vault.Done(), "*"+taskID+"*"))
		if err == nil && len(matches) > 0 {
			return true
		}
	}

	entries, err := os.ReadDir(l.vault.NeedsAction())
	if err != nil {
		return false
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") {
			continue
		}
		if filepath.Ext(name) == ".md" && !strings.Contains(name, ".original.") {
			return false
		}
	}
	return true
}

// nextPrompt folds the last output back into the task statement so the step
// sees what already happened.
func (l *Loop) nextPrompt(initial, lastOutput string, iteration int) string {
	return fmt.Sprintf("%s\n\nPrevious attempt (%d) reported: %s\nContinue from where that left off. When everything is done, reply with %s.",
		initial, iteration, strings.TrimSpace(lastOutput), CompletionPromise)
}

// CreateStateFile writes a progress record for the task under Logs/ so a
// human can see what the loop is chewing on.
func (l *Loop) CreateStateFile(description, taskID string) (string, error) {
	state := map[string]any{
		"task_id":        taskID,
		"description":    description,
		"max_iterations": l.maxIterations,
		"started":        time.Now().Format(time.RFC3339),
		"status":         "running",
	}
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshalling loop state: %w", err)
	}

	path := filepath.Join(l.vault.Logs(), fmt.Sprintf("ralph_loop_state_%s.json", taskID))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing loop state: %w", err)
	}
	return path, nil
}

func (l *Loop) append(event audit.Event) {
	if l.trail != nil {
		l.trail.Append(event)
	}
}

func loopAuditResult(r Result) audit.Result {
	if r.Completed {
		return audit.ResultSuccess
	}
	return audit.ResultFailed
}
