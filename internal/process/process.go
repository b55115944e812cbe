package process

import "context"

// Result is what a processing step produced for one prompt.
type Result struct {
	Output string
}

// Step executes one unit of work from a prompt. Implementations block until
// done or ctx is cancelled; partial progress on the filesystem is acceptable,
// mid-operation rollback is not attempted.
type Step interface {
	Invoke(ctx context.Context, prompt string) (Result, error)
}

// StepFunc adapts a function to the Step interface.
type StepFunc func(ctx context.Context, prompt string) (Result, error)

func (f StepFunc) Invoke(ctx context.Context, prompt string) (Result, error) {
	return f(ctx, prompt)
}
