package recovery

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sys/unix"

	"github.com/ziadkadry99/vaultpilot/internal/vault"
)

// Health thresholds. Crossing one degrades the overall status and adds an
// issue to the report; it never stops the system.
const (
	MinBackupSpaceMB   = 100
	MaxRecentErrors    = 5
	MaxFailedBacklog   = 10
	recentErrorsWindow = 24 * time.Hour
)

// HealthReport is the result of one health check pass.
type HealthReport struct {
	Timestamp          time.Time `json:"timestamp"`
	VaultAccessible    bool      `json:"vault_accessible"`
	LogsWritable       bool      `json:"logs_writable"`
	BackupSpaceMB      float64   `json:"backup_space_mb"`
	FailedActionsCount int       `json:"failed_actions_count"`
	RecentErrorsCount  int       `json:"recent_errors_count"`
	OverallStatus      string    `json:"overall_status"`
	Issues             []string  `json:"issues"`
}

// Healthy reports whether the check found no issues.
func (r HealthReport) Healthy() bool {
	return r.OverallStatus == "healthy"
}

// Checker runs system health checks over a vault.
type Checker struct {
	vault  *vault.Vault
	log    *ErrorLog
	failed *FailedStore
}

// NewChecker creates a health checker for the given vault.
func NewChecker(v *vault.Vault, log *ErrorLog, failed *FailedStore) *Checker {
	return &Checker{vault: v, log: log, failed: failed}
}

// Check inspects vault accessibility, log writability, backup disk space, the
// failed-action backlog, and the recent error rate. It always returns a
// report; degraded conditions appear in Issues rather than as an error.
func (c *Checker) Check() HealthReport {
	report := HealthReport{
		Timestamp:     time.Now(),
		OverallStatus: "healthy",
		Issues:        []string{},
	}

	if info, err := os.Stat(c.vault.Root()); err != nil || !info.IsDir() {
		report.Issues = append(report.Issues, "vault directory is not accessible")
	} else {
		report.VaultAccessible = true
	}

	report.LogsWritable = c.probeWritable(c.vault.Logs())
	if !report.LogsWritable {
		report.Issues = append(report.Issues, "logs directory is not writable")
	}

	report.BackupSpaceMB = diskFreeMB(c.vault.Backups())
	if report.BackupSpaceMB < MinBackupSpaceMB {
		report.Issues = append(report.Issues,
			fmt.Sprintf("low backup space: %.1f MB free", report.BackupSpaceMB))
	}

	if c.failed != nil {
		report.FailedActionsCount = c.failed.Pending()
		if report.FailedActionsCount > MaxFailedBacklog {
			report.Issues = append(report.Issues,
				fmt.Sprintf("failed-action backlog at %d entries", report.FailedActionsCount))
		}
	}

	if c.log != nil {
		report.RecentErrorsCount = c.log.CountRecent(recentErrorsWindow)
		if report.RecentErrorsCount > MaxRecentErrors {
			report.Issues = append(report.Issues,
				fmt.Sprintf("%d errors in the last 24 hours", report.RecentErrorsCount))
		}
	}

	if len(report.Issues) > 0 {
		report.OverallStatus = "degraded"
	}
	if !report.VaultAccessible {
		report.OverallStatus = "critical"
	}
	return report
}

// probeWritable verifies a directory accepts writes by creating and removing
// a probe file. Permission bits alone lie on some filesystems.
func (c *Checker) probeWritable(dir string) bool {
	probe := filepath.Join(dir, ".health_probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return false
	}
	os.Remove(probe)
	return true
}

func diskFreeMB(path string) float64 {
	var st unix.Statfs_t
	if err := unix.Statfs(path, &st); err != nil {
		return 0
	}
	return float64(st.Bavail) * float64(st.Bsize) / (1024 * 1024)
}
