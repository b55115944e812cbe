// Package orchestrator runs the detect → plan → gate → execute → archive
// cycle. It is the single consumer of the vault: watchers only report, the
// orchestrator is the only writer of action state.
package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/ziadkadry99/vaultpilot/internal/action"
	"github.com/ziadkadry99/vaultpilot/internal/audit"
	"github.com/ziadkadry99/vaultpilot/internal/config"
	"github.com/ziadkadry99/vaultpilot/internal/dashboard"
	"github.com/ziadkadry99/vaultpilot/internal/outbound"
	"github.com/ziadkadry99/vaultpilot/internal/plan"
	"github.com/ziadkadry99/vaultpilot/internal/recovery"
	"github.com/ziadkadry99/vaultpilot/internal/vault"
	"github.com/ziadkadry99/vaultpilot/internal/watcher"
)

// CycleResult counts what one cycle did.
type CycleResult struct {
	Detected      int                  `json:"detected"`
	Created       int                  `json:"created"`
	Processed     int                  `json:"processed"`
	AwaitingHuman int                  `json:"awaiting_human"`
	Blocked       int                  `json:"blocked"`
	Failed        int                  `json:"failed"`
	RecoverySweep recovery.SweepResult `json:"recovery_sweep"`
}

// Orchestrator coordinates one vault. All collaborators are injected.
type Orchestrator struct {
	cfg    config.Config
	vault  *vault.Vault
	store  *action.Store
	plans  *plan.Generator
	gate   *plan.Gate
	trail  *audit.Trail
	errs   *recovery.ErrorLog
	failed *recovery.FailedStore
	inbox  *watcher.InboxWatcher
	email  outbound.EmailSender
	social outbound.SocialPublisher
	board  *dashboard.Board
	logger *slog.Logger

	// OnRecord, when set, is called before each pending record is handled.
	// The CLI uses it to drive a progress bar.
	OnRecord func(index, total int)
}

// Deps bundles the orchestrator's collaborators.
type Deps struct {
	Config config.Config
	Vault  *vault.Vault
	Store  *action.Store
	Plans  *plan.Generator
	Gate   *plan.Gate
	Trail  *audit.Trail
	Errors *recovery.ErrorLog
	Failed *recovery.FailedStore
	Inbox  *watcher.InboxWatcher
	Email  outbound.EmailSender
	Social outbound.SocialPublisher
	Board  *dashboard.Board
	Logger *slog.Logger
}

// New creates an Orchestrator from its dependencies.
func New(deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Orchestrator{
		cfg:    deps.Config,
		vault:  deps.Vault,
		store:  deps.Store,
		plans:  deps.Plans,
		gate:   deps.Gate,
		trail:  deps.Trail,
		errs:   deps.Errors,
		failed: deps.Failed,
		inbox:  deps.Inbox,
		email:  deps.Email,
		social: deps.Social,
		board:  deps.Board,
		logger: logger,
	}
}

// RunCycle executes one full pass: convert new inbox files into actions,
// handle every pending action through the approval gate, then sweep the
// failed-action queue. Per-record failures are logged and counted, never
// fatal to the cycle.
func (o *Orchestrator) RunCycle(ctx context.Context) (CycleResult, error) {
	var result CycleResult
	cycleStart := time.Now()

	events, err := o.inbox.CheckForUpdates(ctx)
	if err != nil {
		return result, fmt.Errorf("checking inbox: %w", err)
	}
	result.Detected = len(events)

	for _, event := range events {
		o.trail.Append(audit.Event{
			EventType:   audit.EventFileDetected,
			Description: "new file in inbox",
			Actor:       audit.ActorWatcher,
			Target:      event.Name,
			Result:      audit.ResultDetected,
		})
		if _, err := o.store.CreateAction(event.Path); err != nil {
			if errors.Is(err, action.ErrSourceVanished) {
				o.logger.Warn("inbox file vanished, skipping", "file", event.Name)
				continue
			}
			o.errs.LogError(err, "creating action for "+event.Name, recovery.SeverityMedium)
			result.Failed++
			continue
		}
		result.Created++
		o.board.AppendActivity("New action created for " + event.Name)
	}

	records, err := o.store.ListPending()
	if err != nil {
		return result, fmt.Errorf("listing pending actions: %w", err)
	}

	for i, rec := range records {
		if o.OnRecord != nil {
			o.OnRecord(i, len(records))
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
		o.handleRecord(ctx, rec, &result)
	}

	// Sweep only entries deferred before this cycle began; an action that
	// failed moments ago already spent its in-cycle retry budget.
	sweep, err := o.failed.ProcessFailedActionsBefore(ctx, cycleStart, o.reexecute(ctx))
	if err != nil && !errors.Is(err, context.Canceled) {
		o.errs.LogError(err, "recovery sweep", recovery.SeverityMedium)
	}
	result.RecoverySweep = sweep
	if sweep.Attempted > 0 || sweep.PermanentlyFailed > 0 {
		o.trail.Append(audit.Event{
			EventType:   audit.EventRecoverySweep,
			Description: "failed-action queue swept",
			Actor:       audit.ActorSystem,
			Result:      audit.ResultSuccess,
			Parameters: map[string]any{
				"attempted": sweep.Attempted, "recovered": sweep.Recovered,
				"permanently_failed": sweep.PermanentlyFailed,
			},
		})
	}

	o.board.UpdateStats(o.pendingCount(), result.Processed, o.failed.Pending())
	o.board.TouchLastUpdate()

	return result, nil
}

// handleRecord takes one pending action through planning, the approval gate,
// and execution.
func (o *Orchestrator) handleRecord(ctx context.Context, rec action.Record, result *CycleResult) {
	if !o.hasPlan(rec) {
		if _, err := o.plans.Generate(rec); err != nil {
			o.errs.LogError(err, "generating plan for "+rec.ID(), recovery.SeverityMedium)
		}
	}
	if o.gate.Status(rec.ID()) == plan.ApprovalNone {
		if _, _, err := o.plans.MaybeGenerateApproval(rec); err != nil {
			o.errs.LogError(err, "generating approval for "+rec.ID(), recovery.SeverityMedium)
		}
	}

	switch o.gate.Status(rec.ID()) {
	case plan.ApprovalPending:
		result.AwaitingHuman++
		o.trail.Append(audit.Event{
			EventType:   audit.EventActionProcessing,
			Description: "awaiting human approval",
			Actor:       audit.ActorOrchestrator,
			Target:      rec.ID(),
			Result:      audit.ResultPending,
		})
		return
	case plan.ApprovalRejected:
		result.Blocked++
		o.trail.Append(audit.Event{
			EventType:   audit.EventActionProcessing,
			Description: "approval rejected, side effects permanently blocked",
			Actor:       audit.ActorOrchestrator,
			Target:      rec.ID(),
			Result:      audit.ResultFailed,
		})
		return
	}

	if err := o.execute(ctx, rec); err != nil {
		result.Failed++
		return
	}

	// Snapshot the record before rewriting it, so a botched archive can be
	// rolled back.
	backupPath, backupErr := recovery.BackupFile(rec.Path, o.vault.Backups())
	if backupErr != nil {
		o.errs.LogError(backupErr, "backing up "+rec.ID(), recovery.SeverityLow)
	}

	processed, err := o.store.MarkProcessed(rec, "processed by orchestrator")
	if err == nil {
		_, err = o.store.Archive(processed)
	}
	if err != nil {
		if backupErr == nil {
			recovery.RestoreFromBackup(backupPath, rec.Path, o.errs)
		}
		o.errs.LogError(err, "archiving "+rec.ID(), recovery.SeverityMedium)
		result.Failed++
		return
	}

	result.Processed++
	o.board.AppendActivity("Completed " + rec.ID())
}

// execute runs the record's external side effect, if its channel has one.
// Outbound calls go through retry-with-backoff; exhaustion defers the action
// to the failed queue instead of losing it.
func (o *Orchestrator) execute(ctx context.Context, rec action.Record) error {
	channel := rec.Channel()
	if channel == "inbox" {
		return nil
	}

	payload := deferredPayload{
		ActionID: rec.ID(),
		Channel:  channel,
		Subject:  rec.ID(),
		Body:     rec.Body,
		To:       rec.Meta.Source,
	}

	err := o.deliver(ctx, payload)
	if err == nil {
		o.trail.Append(audit.Event{
			EventType:   audit.EventExternalAction,
			Description: "outbound delivery on " + channel,
			Actor:       audit.ActorOrchestrator,
			Target:      rec.ID(),
			Result:      audit.ResultSuccess,
			Parameters:  map[string]any{"channel": channel},
		})
		return nil
	}

	if path, saveErr := o.failed.Save(rec.ID(), payload, recovery.ErrorInfo{
		Kind:    "delivery_failure",
		Message: err.Error(),
	}); saveErr != nil {
		o.errs.LogError(saveErr, "deferring "+rec.ID()+" to failed queue", recovery.SeverityHigh)
	} else {
		o.logger.Warn("action deferred to failed queue", "action", rec.ID(), "file", filepath.Base(path))
	}

	o.trail.Append(audit.Event{
		EventType:   audit.EventExternalAction,
		Description: "outbound delivery failed, deferred for recovery",
		Actor:       audit.ActorOrchestrator,
		Target:      rec.ID(),
		Result:      audit.ResultFailed,
		Parameters:  map[string]any{"channel": channel},
	})
	return err
}

// deliver sends one outbound payload with retries. Social channels degrade
// to email when the publisher is down, so the message still leaves.
func (o *Orchestrator) deliver(ctx context.Context, p deferredPayload) error {
	op := func() (outbound.Receipt, error) {
		if p.Channel == "email" {
			return o.email.Send(ctx, p.To, p.Subject, p.Body)
		}
		return recovery.GracefulDegrade(ctx, o.errs,
			func() (outbound.Receipt, error) { return o.social.Publish(ctx, p.Channel, p.Body) },
			func() (outbound.Receipt, error) { return o.email.Send(ctx, p.To, p.Subject, p.Body) },
			"publishing "+p.ActionID+" on "+p.Channel)
	}
	_, err := recovery.RetryWithBackoff(ctx, o.errs, op,
		o.cfg.MaxAttempts, o.cfg.BaseDelay(), "delivering "+p.ActionID)
	return err
}

// reexecute builds the sweep callback that retries deferred deliveries. Only
// one direct attempt per sweep; the sweep itself provides the retry budget.
func (o *Orchestrator) reexecute(ctx context.Context) func(recovery.FailedAction) error {
	return func(fa recovery.FailedAction) error {
		var p deferredPayload
		if err := json.Unmarshal(fa.OriginalAction, &p); err != nil {
			return fmt.Errorf("parsing deferred payload: %w", err)
		}
		switch p.Channel {
		case "email":
			_, err := o.email.Send(ctx, p.To, p.Subject, p.Body)
			return err
		default:
			_, err := o.social.Publish(ctx, p.Channel, p.Body)
			return err
		}
	}
}

// RunRecovery sweeps the failed-action queue without running a full cycle.
func (o *Orchestrator) RunRecovery(ctx context.Context) (recovery.SweepResult, error) {
	sweep, err := o.failed.ProcessFailedActions(ctx, o.reexecute(ctx))
	if err != nil {
		return sweep, err
	}
	o.trail.Append(audit.Event{
		EventType:   audit.EventRecoverySweep,
		Description: "failed-action queue swept",
		Actor:       audit.ActorSystem,
		Result:      audit.ResultSuccess,
		Parameters: map[string]any{
			"attempted": sweep.Attempted, "recovered": sweep.Recovered,
			"permanently_failed": sweep.PermanentlyFailed,
		},
	})
	return sweep, nil
}

type deferredPayload struct {
	ActionID string `json:"action_id"`
	Channel  string `json:"channel"`
	To       string `json:"to,omitempty"`
	Subject  string `json:"subject,omitempty"`
	Body     string `json:"body"`
}

func (o *Orchestrator) hasPlan(rec action.Record) bool {
	matches, err := filepath.Glob(filepath.Join(o.vault.Plans(), "PLAN_"+rec.ID()+"_*.md"))
	return err == nil && len(matches) > 0
}

func (o *Orchestrator) pendingCount() int {
	records, err := o.store.ListPending()
	if err != nil {
		return 0
	}
	return len(records)
}

// StartTime stamps system start in the audit trail. Called once per process.
func (o *Orchestrator) StartTime(started time.Time) {
	o.trail.Append(audit.Event{
		EventType:   audit.EventSystemStart,
		Description: "vaultpilot session started",
		Actor:       audit.ActorSystem,
		Result:      audit.ResultSuccess,
		Metadata:    map[string]any{"started": started.Format(time.RFC3339)},
	})
}
