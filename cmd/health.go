package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check system health",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		report := a.Checker.Check()

		asJSON, _ := cmd.Flags().GetBool("json")
		if asJSON {
			return json.NewEncoder(os.Stdout).Encode(report)
		}

		fmt.Printf("Status: %s\n", report.OverallStatus)
		fmt.Printf("Vault accessible: %v\n", report.VaultAccessible)
		fmt.Printf("Logs writable: %v\n", report.LogsWritable)
		fmt.Printf("Backup space: %.1f MB\n", report.BackupSpaceMB)
		fmt.Printf("Failed-action backlog: %d\n", report.FailedActionsCount)
		fmt.Printf("Errors (24h): %d\n", report.RecentErrorsCount)
		for _, issue := range report.Issues {
			fmt.Printf("  ! %s\n", issue)
		}

		if !report.Healthy() {
			os.Exit(1)
		}
		return nil
	},
}

func init() {
	healthCmd.Flags().Bool("json", false, "emit the report as JSON")
	rootCmd.AddCommand(healthCmd)
}
