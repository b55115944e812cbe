package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/vaultpilot/internal/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve vault tools over MCP stdio",
	Long: `Exposes create_action, list_pending, get_health and search_archive as
MCP tools. Stdout carries protocol messages; logging goes to stderr.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		index, err := a.newArchiveIndex(context.Background())
		if err != nil {
			a.Logger.Warn("archive search unavailable", "error", err)
		}

		return mcp.New(a.Store, a.Checker, index, Version).ServeStdio()
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
