package recovery

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// BackupFile copies path into backupDir before a risky operation and returns
// the backup path. The name carries the original stem plus a timestamp so
// repeated backups of one file never collide.
func BackupFile(path, backupDir string) (string, error) {
	src, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for backup: %w", filepath.Base(path), err)
	}
	defer src.Close()

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(filepath.Base(path), ext)
	backupPath := filepath.Join(backupDir,
		fmt.Sprintf("%s_backup_%s%s", stem, time.Now().Format("20060102_150405"), ext))

	dst, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("creating backup: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(backupPath)
		return "", fmt.Errorf("copying to backup: %w", err)
	}
	return backupPath, nil
}

// RestoreFromBackup copies a backup over the original path. A failed restore
// is a critical condition: the original may already be damaged.
func RestoreFromBackup(backupPath, originalPath string, log *ErrorLog) error {
	src, err := os.Open(backupPath)
	if err != nil {
		if log != nil {
			log.LogError(err, "restoring "+filepath.Base(originalPath), SeverityCritical)
		}
		return fmt.Errorf("opening backup: %w", err)
	}
	defer src.Close()

	dst, err := os.Create(originalPath)
	if err != nil {
		if log != nil {
			log.LogError(err, "restoring "+filepath.Base(originalPath), SeverityCritical)
		}
		return fmt.Errorf("recreating original: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		if log != nil {
			log.LogError(err, "restoring "+filepath.Base(originalPath), SeverityCritical)
		}
		return fmt.Errorf("copying from backup: %w", err)
	}
	return nil
}
