package plan

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/ziadkadry99/vaultpilot/internal/audit"
	"github.com/ziadkadry99/vaultpilot/internal/vault"
)

// ApprovalState is where an approval request currently sits.
type ApprovalState string

const (
	ApprovalNone     ApprovalState = "none"
	ApprovalPending  ApprovalState = "pending"
	ApprovalApproved ApprovalState = "approved"
	ApprovalRejected ApprovalState = "rejected"
)

// Gate reads and changes approval state. The Pending_Approval/Approved/
// Rejected directories are the state storage: moving the request file IS the
// decision, whether a human does it in their file manager or Approve/Reject
// does it here. Approved and rejected are terminal.
type Gate struct {
	vault *vault.Vault
	trail *audit.Trail
}

// NewGate creates a Gate over the vault's approval directories.
func NewGate(v *vault.Vault, trail *audit.Trail) *Gate {
	return &Gate{vault: v, trail: trail}
}

// Status reports the approval state for an action ID. ApprovalNone means no
// approval was ever requested, so the action needs none.
func (g *Gate) Status(actionID string) ApprovalState {
	if g.find(g.vault.Approved(), actionID) != "" {
		return ApprovalApproved
	}
	if g.find(g.vault.Rejected(), actionID) != "" {
		return ApprovalRejected
	}
	if g.find(g.vault.PendingApproval(), actionID) != "" {
		return ApprovalPending
	}
	return ApprovalNone
}

// IsApproved reports whether the action's request file sits in Approved/.
func (g *Gate) IsApproved(actionID string) bool {
	return g.Status(actionID) == ApprovalApproved
}

// Approve moves a pending request into Approved/. Decisions are final: a
// request already approved or rejected cannot be moved again.
func (g *Gate) Approve(actionID string) error {
	return g.decide(actionID, g.vault.Approved(), "approved")
}

// Reject moves a pending request into Rejected/.
func (g *Gate) Reject(actionID string) error {
	return g.decide(actionID, g.vault.Rejected(), "rejected")
}

func (g *Gate) decide(actionID, destDir, decision string) error {
	switch g.Status(actionID) {
	case ApprovalApproved, ApprovalRejected:
		return fmt.Errorf("approval for %s is already decided", actionID)
	case ApprovalNone:
		return fmt.Errorf("no approval request found for %s", actionID)
	}

	src := g.find(g.vault.PendingApproval(), actionID)
	dest := filepath.Join(destDir, filepath.Base(src))
	if err := os.Rename(src, dest); err != nil {
		return fmt.Errorf("recording decision: %w", err)
	}

	if g.trail != nil {
		g.trail.Append(audit.Event{
			EventType:   audit.EventApprovalDecision,
			Description: "approval request " + decision,
			Actor:       audit.ActorUser,
			Target:      filepath.Base(src),
			Result:      audit.ResultSuccess,
			Parameters:  map[string]any{"action": actionID, "decision": decision},
		})
	}
	return nil
}

// ListPending returns the approval request files awaiting a decision.
func (g *Gate) ListPending() ([]string, error) {
	entries, err := os.ReadDir(g.vault.PendingApproval())
	if err != nil {
		return nil, fmt.Errorf("scanning Pending_Approval: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasPrefix(entry.Name(), "APPROVAL_") {
			names = append(names, entry.Name())
		}
	}
	return names, nil
}

// find returns the path of the approval file for actionID in dir, or "".
func (g *Gate) find(dir, actionID string) string {
	matches, err := filepath.Glob(filepath.Join(dir, "APPROVAL_"+actionID+"_*.md"))
	if err != nil || len(matches) == 0 {
		return ""
	}
	return matches[0]
}
