package recovery

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBackupFile(t *testing.T) {
	dir := t.TempDir()
	backups := filepath.Join(dir, "Backups")
	if err := os.Mkdir(backups, 0o755); err != nil {
		t.Fatal(err)
	}

	original := filepath.Join(dir, "ACTION_report.md")
	if err := os.WriteFile(original, []byte("important content"), 0o644); err != nil {
		t.Fatal(err)
	}

	backupPath, err := BackupFile(original, backups)
	if err != nil {
		t.Fatalf("BackupFile failed: %v", err)
	}

	name := filepath.Base(backupPath)
	if !strings.HasPrefix(name, "ACTION_report_backup_") || !strings.HasSuffix(name, ".md") {
		t.Errorf("unexpected backup name %s", name)
	}
	data, err := os.ReadFile(backupPath)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "important content" {
		t.Errorf("backup content: got %q", data)
	}
}

func TestBackupFileMissingSource(t *testing.T) {
	if _, err := BackupFile(filepath.Join(t.TempDir(), "gone.md"), t.TempDir()); err == nil {
		t.Error("expected error for missing source")
	}
}

func TestRestoreFromBackup(t *testing.T) {
	dir := t.TempDir()

	backup := filepath.Join(dir, "note_backup_20250101_120000.md")
	if err := os.WriteFile(backup, []byte("pristine"), 0o644); err != nil {
		t.Fatal(err)
	}

	original := filepath.Join(dir, "note.md")
	if err := os.WriteFile(original, []byte("mangled"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := RestoreFromBackup(backup, original, nil); err != nil {
		t.Fatalf("RestoreFromBackup failed: %v", err)
	}
	data, err := os.ReadFile(original)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "pristine" {
		t.Errorf("restored content: got %q", data)
	}
}

func TestRestoreFromBackupMissingBackupLogsCritical(t *testing.T) {
	log, dir := newTestLog(t)

	err := RestoreFromBackup(filepath.Join(dir, "absent.md"), filepath.Join(dir, "note.md"), log)
	if err == nil {
		t.Fatal("expected error for missing backup")
	}

	entries := readErrorEntries(t, dir)
	if len(entries) != 1 || entries[0].Severity != SeverityCritical {
		t.Errorf("expected one critical entry, got %+v", entries)
	}
}
