package ralph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/ziadkadry99/vaultpilot/internal/action"
	"github.com/ziadkadry99/vaultpilot/internal/process"
	"github.com/ziadkadry99/vaultpilot/internal/vault"
)

func newTestVault(t *testing.T) *vault.Vault {
	t.Helper()
	v, err := vault.New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := v.EnsureLayout(); err != nil {
		t.Fatal(err)
	}
	return v
}

func writePendingAction(t *testing.T, v *vault.Vault, name string) {
	t.Helper()
	rec := action.Record{
		Path:  filepath.Join(v.NeedsAction(), name),
		Meta:  action.FrontMatter{Type: "general_file", Priority: "medium", Status: action.StatusPending},
		Body:  "work to do\n",
		Valid: true,
	}
	data, err := action.Render(rec)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(rec.Path, data, 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoopDrainsQueue(t *testing.T) {
	v := newTestVault(t)
	store := action.NewStore(v, nil, nil)

	for i := 1; i <= 3; i++ {
		writePendingAction(t, v, fmt.Sprintf("ACTION_task%d.md", i))
	}

	loop := NewLoop(v, process.NewDrainStep(store), nil, 10)
	result, err := loop.Run(context.Background(), "drain the queue", "drain-test")
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if !result.Completed {
		t.Fatalf("expected completion, got %+v", result)
	}
	if result.Reason != ReasonFileMovement {
		t.Errorf("reason: got %s, want %s", result.Reason, ReasonFileMovement)
	}
	if result.Iterations > 10 {
		t.Errorf("took %d iterations, cap is 10", result.Iterations)
	}

	records, err := store.ListPending()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 0 {
		t.Errorf("queue should be empty, %d left", len(records))
	}
	archived, _ := filepath.Glob(filepath.Join(v.Done(), "ACTION_task*.md"))
	if len(archived) != 3 {
		t.Errorf("expected 3 archived files, got %d", len(archived))
	}
}

func TestLoopAlreadyCompleteSkipsStep(t *testing.T) {
	v := newTestVault(t)

	calls := 0
	step := process.StepFunc(func(ctx context.Context, prompt string) (process.Result, error) {
		calls++
		return process.Result{Output: "should not run"}, nil
	})

	// Needs_Action is empty, so the task is complete before the first step.
	result, err := NewLoop(v, step, nil, 10).Run(context.Background(), "nothing to do", "")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Completed || result.Reason != ReasonFileMovement {
		t.Fatalf("expected archival completion, got %+v", result)
	}
	if calls != 0 {
		t.Errorf("step invoked %d times on a complete task, want 0", calls)
	}
	if result.Iterations != 1 {
		t.Errorf("iterations: got %d, want 1", result.Iterations)
	}
}

func TestLoopCompletionPromise(t *testing.T) {
	v := newTestVault(t)
	// Keep the queue non-empty so archival completion cannot trigger.
	writePendingAction(t, v, "ACTION_keep.md")

	calls := 0
	step := process.StepFunc(func(ctx context.Context, prompt string) (process.Result, error) {
		calls++
		if calls < 2 {
			return process.Result{Output: "still working"}, nil
		}
		return process.Result{Output: "all done " + CompletionPromise}, nil
	})

	result, err := NewLoop(v, step, nil, 10).Run(context.Background(), "do the thing", "")
	if err != nil {
		t.Fatal(err)
	}
	if !result.Completed || result.Reason != ReasonPromise {
		t.Errorf("expected promise completion, got %+v", result)
	}
	if result.Iterations != 2 {
		t.Errorf("iterations: got %d, want 2", result.Iterations)
	}
}

func TestLoopMaxIterationsReported(t *testing.T) {
	v := newTestVault(t)
	writePendingAction(t, v, "ACTION_keep.md")

	step := process.StepFunc(func(ctx context.Context, prompt string) (process.Result, error) {
		return process.Result{Output: "no progress"}, nil
	})

	result, err := NewLoop(v, step, nil, 4).Run(context.Background(), "hopeless task", "")
	if err != nil {
		t.Fatalf("iteration cap must not be an error, got %v", err)
	}
	if result.Completed {
		t.Error("expected incomplete result")
	}
	if result.Reason != ReasonMaxIterations {
		t.Errorf("reason: got %s, want %s", result.Reason, ReasonMaxIterations)
	}
	if result.Iterations != 4 {
		t.Errorf("iterations: got %d, want 4", result.Iterations)
	}
}

func TestLoopStepErrorPropagates(t *testing.T) {
	v := newTestVault(t)
	writePendingAction(t, v, "ACTION_keep.md")

	boom := errors.New("step exploded")
	step := process.StepFunc(func(ctx context.Context, prompt string) (process.Result, error) {
		return process.Result{}, boom
	})

	_, err := NewLoop(v, step, nil, 5).Run(context.Background(), "task", "")
	if !errors.Is(err, boom) {
		t.Fatalf("expected step error to propagate, got %v", err)
	}
}

func TestCreateStateFile(t *testing.T) {
	v := newTestVault(t)
	loop := NewLoop(v, nil, nil, 10)

	path, err := loop.CreateStateFile("drain pending actions", "task42")
	if err != nil {
		t.Fatalf("CreateStateFile failed: %v", err)
	}
	if filepath.Base(path) != "ralph_loop_state_task42.json" {
		t.Errorf("unexpected state file name %s", filepath.Base(path))
	}
	if _, err := os.Stat(path); err != nil {
		t.Error("state file should exist")
	}
}
