package process

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
)

// OpenAIStep runs a prompt through a chat completion model. It is the
// production step for actions that need reasoning rather than plain file
// movement.
type OpenAIStep struct {
	client *openai.Client
	model  string
}

// NewOpenAIStep creates an OpenAIStep using the given client and model.
func NewOpenAIStep(client *openai.Client, model string) *OpenAIStep {
	return &OpenAIStep{client: client, model: model}
}

const stepSystemPrompt = `You are a personal automation assistant working through action files.
Do the work described in the prompt. When the whole task is finished, include
the exact string <promise>TASK_COMPLETE</promise> in your reply. If work
remains, describe what is left instead.`

func (s *OpenAIStep) Invoke(ctx context.Context, prompt string) (Result, error) {
	resp, err := s.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: s.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: stepSystemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return Result{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return Result{}, fmt.Errorf("chat completion returned no choices")
	}
	return Result{Output: resp.Choices[0].Message.Content}, nil
}
