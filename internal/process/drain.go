package process

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/ziadkadry99/vaultpilot/internal/action"
)

// DrainStep processes the pending queue one record per invocation: mark it
// processing, then archive it. When the queue is empty it emits the
// completion promise so a driving loop can stop.
type DrainStep struct {
	store *action.Store
}

// NewDrainStep creates a DrainStep over the given action store.
func NewDrainStep(store *action.Store) *DrainStep {
	return &DrainStep{store: store}
}

func (d *DrainStep) Invoke(ctx context.Context, prompt string) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	records, err := d.store.ListPending()
	if err != nil {
		return Result{}, err
	}
	if len(records) == 0 {
		return Result{Output: "queue empty <promise>TASK_COMPLETE</promise>"}, nil
	}

	rec := records[0]
	rec, err = d.store.MarkProcessed(rec, "processed by drain step")
	if err != nil {
		return Result{}, fmt.Errorf("marking %s processed: %w", rec.ID(), err)
	}
	rec, err = d.store.Archive(rec)
	if err != nil {
		return Result{}, fmt.Errorf("archiving %s: %w", rec.ID(), err)
	}

	return Result{Output: fmt.Sprintf("archived %s, %d remaining", filepath.Base(rec.Path), len(records)-1)}, nil
}
