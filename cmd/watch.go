package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/vaultpilot/internal/config"
	"github.com/ziadkadry99/vaultpilot/internal/watcher"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the vault continuously",
	Long: `Runs processing cycles on the configured interval until interrupted.
Enabled external channels are polled alongside the inbox.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		a.Orch.StartTime(time.Now())
		interval := time.Duration(a.Config.CheckInterval) * time.Second

		// External channels run through the watcher manager; the inbox is
		// polled inside each cycle.
		var channelWatchers []watcher.Watcher
		for _, ch := range []config.Channel{config.ChannelEmail, config.ChannelWhatsApp, config.ChannelLinkedIn} {
			if a.Config.ChannelEnabled(ch) {
				channelWatchers = append(channelWatchers, watcher.NewSimulatedWatcher(string(ch), a.Logger))
			}
		}
		events := make(chan watcher.Event, 16)
		go watcher.NewManager(channelWatchers, interval, a.Logger).Run(ctx, events)
		go func() {
			for event := range events {
				a.Logger.Info("channel update", "channel", event.Channel, "name", event.Name)
			}
		}()

		fmt.Printf("Watching %s every %s. Ctrl-C to stop.\n", a.Vault.Root(), interval)

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			result, err := a.Orch.RunCycle(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				a.Logger.Error("cycle failed", "error", err)
			} else if result.Detected > 0 || result.Processed > 0 {
				a.Logger.Info("cycle complete",
					"detected", result.Detected, "processed", result.Processed,
					"awaiting_human", result.AwaitingHuman, "failed", result.Failed)
			}

			select {
			case <-ctx.Done():
				fmt.Println("Stopped.")
				return nil
			case <-ticker.C:
			}
		}
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
