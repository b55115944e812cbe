package vault

import (
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureLayout(t *testing.T) {
	root := filepath.Join(t.TempDir(), "MyVault")
	v, err := New(root)
	if err != nil {
		t.Fatal(err)
	}

	if err := v.EnsureLayout(); err != nil {
		t.Fatalf("EnsureLayout failed: %v", err)
	}

	dirs := []string{
		v.Inbox(), v.NeedsAction(), v.Done(), v.Plans(),
		v.PendingApproval(), v.Approved(), v.Rejected(),
		v.Logs(), v.Backups(), v.FailedActions(),
	}
	for _, dir := range dirs {
		info, err := os.Stat(dir)
		if err != nil {
			t.Errorf("missing directory %s: %v", dir, err)
			continue
		}
		if !info.IsDir() {
			t.Errorf("%s is not a directory", dir)
		}
	}

	// Idempotent.
	if err := v.EnsureLayout(); err != nil {
		t.Errorf("second EnsureLayout failed: %v", err)
	}
}

func TestApprovalDirsNestUnderPlans(t *testing.T) {
	v, err := New(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(v.PendingApproval()) != v.Plans() {
		t.Error("Pending_Approval should live under Plans")
	}
	if filepath.Dir(v.Approved()) != v.Plans() || filepath.Dir(v.Rejected()) != v.Plans() {
		t.Error("Approved and Rejected should live under Plans")
	}
}
