package outbound

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// SimulatedEmail logs the send and succeeds without contacting anything.
// Useful until a real provider is configured, and in tests.
type SimulatedEmail struct {
	logger *slog.Logger
}

// NewSimulatedEmail creates a simulated email sender.
func NewSimulatedEmail(logger *slog.Logger) *SimulatedEmail {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulatedEmail{logger: logger}
}

func (s *SimulatedEmail) Send(ctx context.Context, to, subject, body string) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	receipt := Receipt{ID: uuid.NewString(), Channel: "email", SentAt: time.Now(), Simulated: true}
	s.logger.Info("simulated email send", "to", to, "subject", subject, "receipt", receipt.ID)
	return receipt, nil
}

// SimulatedSocial logs the publish and succeeds.
type SimulatedSocial struct {
	logger *slog.Logger
}

// NewSimulatedSocial creates a simulated social publisher.
func NewSimulatedSocial(logger *slog.Logger) *SimulatedSocial {
	if logger == nil {
		logger = slog.Default()
	}
	return &SimulatedSocial{logger: logger}
}

func (s *SimulatedSocial) Publish(ctx context.Context, platform, content string) (Receipt, error) {
	if err := ctx.Err(); err != nil {
		return Receipt{}, err
	}
	receipt := Receipt{ID: uuid.NewString(), Channel: platform, SentAt: time.Now(), Simulated: true}
	s.logger.Info("simulated social publish", "platform", platform, "chars", len(content), "receipt", receipt.ID)
	return receipt, nil
}
