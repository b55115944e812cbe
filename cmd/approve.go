package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var approveCmd = &cobra.Command{
	Use:   "approve <action-id>",
	Short: "Approve a pending action",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Gate.Approve(args[0]); err != nil {
			return err
		}
		fmt.Printf("Approved %s. It will execute on the next cycle.\n", args[0])
		return nil
	},
}

var rejectCmd = &cobra.Command{
	Use:   "reject <action-id>",
	Short: "Reject a pending action",
	Long:  `Rejects a pending approval. The decision is final: the action's external side effects are permanently blocked.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.Gate.Reject(args[0]); err != nil {
			return err
		}
		fmt.Printf("Rejected %s. Its side effects are blocked.\n", args[0])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(approveCmd)
	rootCmd.AddCommand(rejectCmd)
}
