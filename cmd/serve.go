package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/vaultpilot/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the vault API over HTTP",
	Long: `Exposes actions, approvals, audit queries, health, the rendered
dashboard, and a live audit websocket stream.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		addr, _ := cmd.Flags().GetString("addr")
		srv := server.New(a.Store, a.Gate, a.Checker, a.Trail, a.Audits, a.Board, a.Logger)
		return srv.ListenAndServe(ctx, addr)
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8787", "listen address")
	rootCmd.AddCommand(serveCmd)
}
