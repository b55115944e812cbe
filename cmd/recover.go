package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var recoverCmd = &cobra.Command{
	Use:   "recover",
	Short: "Sweep the failed-action queue",
	Long: `Retries every recoverable entry in Failed_Actions/. Entries that have
exhausted their recovery attempts are marked permanently failed and left in
place for manual review.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		sweep, err := a.Orch.RunRecovery(ctx)
		if err != nil {
			return err
		}

		fmt.Printf("Sweep done: %d attempted, %d recovered, %d permanently failed.\n",
			sweep.Attempted, sweep.Recovered, sweep.PermanentlyFailed)
		if sweep.PermanentlyFailed > 0 {
			fmt.Printf("Review the permanently failed entries in %s.\n", a.Vault.FailedActions())
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(recoverCmd)
}
