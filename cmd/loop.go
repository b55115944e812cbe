package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/sashabaranov/go-openai"
	"github.com/spf13/cobra"

	"github.com/ziadkadry99/vaultpilot/internal/process"
	"github.com/ziadkadry99/vaultpilot/internal/ralph"
)

var loopCmd = &cobra.Command{
	Use:   "loop",
	Short: "Drain the pending queue with the persistence loop",
	Long: `Repeatedly processes pending actions until the queue is empty or the
iteration cap is reached. The cap being hit is reported, not treated as an
error; run again to keep going.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.Close()

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		maxIterations, _ := cmd.Flags().GetInt("max-iterations")
		if maxIterations == 0 {
			maxIterations = a.Config.MaxIterations
		}
		taskID, _ := cmd.Flags().GetString("task")
		if taskID == "" {
			taskID = uuid.NewString()[:8]
		}

		var step process.Step = process.NewDrainStep(a.Store)
		if useLLM, _ := cmd.Flags().GetBool("llm"); useLLM {
			apiKey := os.Getenv("OPENAI_API_KEY")
			if apiKey == "" {
				return fmt.Errorf("--llm requires OPENAI_API_KEY to be set")
			}
			step = process.NewOpenAIStep(openai.NewClient(apiKey), a.Config.OpenAIModel)
		}

		loop := ralph.NewLoop(a.Vault, step, a.Trail, maxIterations)
		if _, err := loop.CreateStateFile("drain pending actions", taskID); err != nil {
			a.Logger.Warn("could not write loop state file", "error", err)
		}

		prompt, _ := cmd.Flags().GetString("prompt")
		if prompt == "" {
			prompt = "Process every pending action in Needs_Action."
		}

		result, err := loop.Run(ctx, prompt, taskID)
		if err != nil {
			return err
		}

		if result.Completed {
			fmt.Printf("Task %s completed in %d iteration(s): %s\n", result.TaskID, result.Iterations, result.Reason)
		} else {
			fmt.Printf("Task %s stopped after %d iteration(s): %s\n", result.TaskID, result.Iterations, result.Reason)
		}
		return nil
	},
}

func init() {
	loopCmd.Flags().Int("max-iterations", 0, "iteration cap (default from config)")
	loopCmd.Flags().String("task", "", "task identifier (default random)")
	loopCmd.Flags().String("prompt", "", "initial task prompt")
	loopCmd.Flags().Bool("llm", false, "drive iterations through the configured chat model")
	rootCmd.AddCommand(loopCmd)
}
