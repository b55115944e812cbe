package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ziadkadry99/vaultpilot/internal/config"
	"github.com/ziadkadry99/vaultpilot/internal/dashboard"
	"github.com/ziadkadry99/vaultpilot/internal/vault"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a vault with an interactive wizard",
	Long:  `Runs an interactive wizard to configure vaultpilot, writes .vaultpilot.yml, and creates the vault directory layout.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.RunWizard()
		if err != nil {
			return err
		}

		v, err := vault.New(cfg.Vault)
		if err != nil {
			return err
		}
		if err := v.EnsureLayout(); err != nil {
			return err
		}
		if err := dashboard.New(v.Dashboard()).Init(); err != nil {
			return err
		}

		fmt.Printf("Vault ready at %s. Drop files into %s to get started.\n", v.Root(), v.Inbox())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
