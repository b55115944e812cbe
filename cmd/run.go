package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one full processing cycle",
	Long: `Runs a single detect-plan-gate-execute-archive pass over the vault,
then sweeps the failed-action queue.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var bar *progressbar.ProgressBar
		a.Orch.OnRecord = func(index, total int) {
			if bar == nil {
				bar = progressbar.NewOptions(total,
					progressbar.OptionSetDescription("processing actions"),
					progressbar.OptionSetWriter(os.Stderr),
					progressbar.OptionClearOnFinish(),
				)
			}
			bar.Set(index)
		}

		started := time.Now()
		result, err := a.Orch.RunCycle(ctx)
		if bar != nil {
			bar.Finish()
		}
		if err != nil {
			return err
		}

		fmt.Printf("Cycle done in %s: %d detected, %d created, %d processed, %d awaiting approval, %d blocked, %d failed.\n",
			formatDuration(time.Since(started)),
			result.Detected, result.Created, result.Processed,
			result.AwaitingHuman, result.Blocked, result.Failed)
		if s := result.RecoverySweep; s.Attempted > 0 || s.PermanentlyFailed > 0 {
			fmt.Printf("Recovery sweep: %d attempted, %d recovered, %d permanently failed.\n",
				s.Attempted, s.Recovered, s.PermanentlyFailed)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(runCmd)
}
