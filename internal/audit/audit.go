package audit

import "time"

// Actor identifies who performed an action.
const (
	ActorSystem       = "system"
	ActorUser         = "user"
	ActorOrchestrator = "orchestrator"
	ActorWatcher      = "watcher"
)

// Result describes the outcome recorded with an event.
type Result string

const (
	ResultSuccess    Result = "success"
	ResultFailed     Result = "failed"
	ResultPending    Result = "pending"
	ResultDetected   Result = "detected"
	ResultInProgress Result = "in_progress"
)

// Common event types. Components may log ad-hoc types as well; these are the
// ones the summary and dashboard know about.
const (
	EventSystemStart       = "system_start"
	EventFileDetected      = "file_detected"
	EventActionCreated     = "action_created"
	EventActionProcessing  = "action_processing"
	EventActionArchived    = "action_archived"
	EventPlanCreated       = "plan_created"
	EventApprovalRequested = "approval_requested"
	EventApprovalDecision  = "approval_decision"
	EventExternalAction    = "external_action"
	EventLoopStart         = "loop_start"
	EventLoopComplete      = "loop_complete"
	EventRecoverySweep     = "recovery_sweep"
	EventHealthCheck       = "health_check"
)

// Event is a single append-only audit record. Events are never mutated or
// deleted once written.
type Event struct {
	Timestamp   time.Time      `json:"timestamp"`
	EventID     string         `json:"event_id"`
	EventType   string         `json:"event_type"`
	Description string         `json:"description"`
	Actor       string         `json:"actor"`
	Target      string         `json:"target"`
	Result      Result         `json:"result"`
	Parameters  map[string]any `json:"parameters"`
	Metadata    map[string]any `json:"metadata"`
	SessionID   string         `json:"session_id"`
}

// Summary is a re-derivable aggregate over a window of audit events.
type Summary struct {
	GeneratedAt       time.Time      `json:"generated_at"`
	DaysCovered       int            `json:"days_covered"`
	TotalEvents       int            `json:"total_events"`
	EventsByType      map[string]int `json:"events_by_type"`
	EventsByActor     map[string]int `json:"events_by_actor"`
	SuccessfulActions int            `json:"successful_actions"`
	FailedActions     int            `json:"failed_actions"`
}
