package vault

import (
	"fmt"
	"os"
	"path/filepath"
)

// Well-known directory names inside a vault. The directory tree is the
// authoritative interchange format: other processes (and humans) read and
// relocate files in these folders directly.
const (
	InboxDir           = "Inbox"
	NeedsActionDir     = "Needs_Action"
	DoneDir            = "Done"
	PlansDir           = "Plans"
	PendingApprovalDir = "Pending_Approval"
	ApprovedDir        = "Approved"
	RejectedDir        = "Rejected"
	LogsDir            = "Logs"
	BackupsDir         = "Backups"
	FailedActionsDir   = "Failed_Actions"

	DashboardFile = "Dashboard.md"
	ManifestFile  = "manifest.db"
)

// Vault resolves paths inside a vault directory tree.
type Vault struct {
	root string
}

// New creates a Vault rooted at the given directory. The directory does not
// need to exist yet; call EnsureLayout before using it.
func New(root string) (*Vault, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolving vault root: %w", err)
	}
	return &Vault{root: abs}, nil
}

// Root returns the absolute vault root directory.
func (v *Vault) Root() string { return v.root }

func (v *Vault) Inbox() string       { return filepath.Join(v.root, InboxDir) }
func (v *Vault) NeedsAction() string { return filepath.Join(v.root, NeedsActionDir) }
func (v *Vault) Done() string        { return filepath.Join(v.root, DoneDir) }
func (v *Vault) Plans() string       { return filepath.Join(v.root, PlansDir) }
func (v *Vault) Logs() string        { return filepath.Join(v.root, LogsDir) }
func (v *Vault) Backups() string     { return filepath.Join(v.root, BackupsDir) }

// FailedActions returns the deferred-retry queue directory.
func (v *Vault) FailedActions() string { return filepath.Join(v.root, FailedActionsDir) }

// PendingApproval, Approved and Rejected are the three approval-state
// directories under Plans/.
func (v *Vault) PendingApproval() string { return filepath.Join(v.Plans(), PendingApprovalDir) }
func (v *Vault) Approved() string        { return filepath.Join(v.Plans(), ApprovedDir) }
func (v *Vault) Rejected() string        { return filepath.Join(v.Plans(), RejectedDir) }

// Dashboard returns the path of the free-text status board.
func (v *Vault) Dashboard() string { return filepath.Join(v.root, DashboardFile) }

// ManifestPath returns the path of the SQLite manifest index.
func (v *Vault) ManifestPath() string { return filepath.Join(v.root, ManifestFile) }

// EnsureLayout creates every vault directory that does not exist yet.
func (v *Vault) EnsureLayout() error {
	dirs := []string{
		v.Inbox(),
		v.NeedsAction(),
		v.Done(),
		v.Plans(),
		v.PendingApproval(),
		v.Approved(),
		v.Rejected(),
		v.Logs(),
		v.Backups(),
		v.FailedActions(),
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating %s: %w", dir, err)
		}
	}
	return nil
}
