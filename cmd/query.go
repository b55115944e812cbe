package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var queryCmd = &cobra.Command{
	Use:   "query <text>",
	Short: "Semantic search over archived actions",
	Long:  `Embeds the query and searches completed actions in Done/. Requires OPENAI_API_KEY.`,
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx := context.Background()
		index, err := a.newArchiveIndex(ctx)
		if err != nil {
			return err
		}
		if index == nil {
			return fmt.Errorf("OPENAI_API_KEY is required for semantic search")
		}

		limit, _ := cmd.Flags().GetInt("limit")
		hits, err := index.Search(ctx, strings.Join(args, " "), limit)
		if err != nil {
			return err
		}
		if len(hits) == 0 {
			fmt.Println("No matching archived actions.")
			return nil
		}

		for _, hit := range hits {
			fmt.Printf("%s  (%.2f)\n", hit.ID, hit.Similarity)
			for _, line := range strings.Split(strings.TrimSpace(hit.Content), "\n") {
				fmt.Printf("    %s\n", line)
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	queryCmd.Flags().Int("limit", 5, "maximum number of results")
	rootCmd.AddCommand(queryCmd)
}
