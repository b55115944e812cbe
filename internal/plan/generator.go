package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/ziadkadry99/vaultpilot/internal/action"
	"github.com/ziadkadry99/vaultpilot/internal/audit"
	"github.com/ziadkadry99/vaultpilot/internal/vault"
)

// Generator writes plan and approval-request files for action records.
type Generator struct {
	vault    *vault.Vault
	trail    *audit.Trail
	extended bool
}

// NewGenerator creates a Generator. extended enables the wider sensitivity
// keyword set.
func NewGenerator(v *vault.Vault, trail *audit.Trail, extended bool) *Generator {
	return &Generator{vault: v, trail: trail, extended: extended}
}

// Generate writes PLAN_<stem>_<ts>.md under Plans/ for the record and returns
// its path. A plan is written for every action, sensitive or not; the
// approval decision comes afterwards and never suppresses the plan.
func (g *Generator) Generate(rec action.Record) (string, error) {
	ts := time.Now().Format("20060102_150405")
	path := filepath.Join(g.vault.Plans(), fmt.Sprintf("PLAN_%s_%s.md", rec.ID(), ts))

	content := fmt.Sprintf(`---
type: plan
action: %s
status: pending_approval
created: %s
---

# Plan: %s

## Objective
Handle the %s action at %s priority.

## Tasks
- [ ] Review the action details
- [ ] Carry out the required steps
- [ ] Verify the outcome
- [ ] Archive the action

## Timeline
Start immediately; complete within one working session.
`, rec.ID(), time.Now().Format(time.RFC3339), rec.ID(), rec.Meta.Type, rec.Meta.Priority)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("writing plan: %w", err)
	}

	if g.trail != nil {
		g.trail.Append(audit.Event{
			EventType:   audit.EventPlanCreated,
			Description: "generated plan for action",
			Actor:       audit.ActorSystem,
			Target:      filepath.Base(path),
			Result:      audit.ResultSuccess,
			Parameters:  map[string]any{"action": rec.ID()},
		})
	}

	return path, nil
}

// MaybeGenerateApproval checks the record for sensitive content and, when it
// trips, writes an approval request under Plans/Pending_Approval. It returns
// the approval path and whether one was created.
func (g *Generator) MaybeGenerateApproval(rec action.Record) (string, bool, error) {
	if !IsSensitive(rec.Body+" "+filepath.Base(rec.Path), g.extended) {
		return "", false, nil
	}

	ts := time.Now().Format("20060102_150405")
	path := filepath.Join(g.vault.PendingApproval(), fmt.Sprintf("APPROVAL_%s_%s.md", rec.ID(), ts))

	content := fmt.Sprintf(`---
type: approval_request
action: %s
status: pending
created: %s
---

# Approval Required: %s

This action mentions sensitive content and needs a human decision before any
external side effect runs.

## To Approve
Move this file to Plans/Approved/ (or run: vaultpilot approve %s)

## To Reject
Move this file to Plans/Rejected/ (or run: vaultpilot reject %s)
`, rec.ID(), time.Now().Format(time.RFC3339), rec.ID(), rec.ID(), rec.ID())

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", false, fmt.Errorf("writing approval request: %w", err)
	}

	if g.trail != nil {
		g.trail.Append(audit.Event{
			EventType:   audit.EventApprovalRequested,
			Description: "sensitive content detected, approval requested",
			Actor:       audit.ActorSystem,
			Target:      filepath.Base(path),
			Result:      audit.ResultPending,
			Parameters:  map[string]any{"action": rec.ID()},
		})
	}

	return path, true, nil
}
