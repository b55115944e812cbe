package config

// Channel identifies an inbound watcher channel.
type Channel string

const (
	ChannelInbox    Channel = "inbox"
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
	ChannelLinkedIn Channel = "linkedin"
)

// Config is the top-level vaultpilot configuration, corresponding to .vaultpilot.yml.
type Config struct {
	Vault               string   `yaml:"vault" koanf:"vault"`
	SessionID           string   `yaml:"session_id" koanf:"session_id"`
	CheckInterval       int      `yaml:"check_interval" koanf:"check_interval"`
	MaxIterations       int      `yaml:"max_iterations" koanf:"max_iterations"`
	MaxAttempts         int      `yaml:"max_attempts" koanf:"max_attempts"`
	BaseDelaySeconds    float64  `yaml:"base_delay" koanf:"base_delay"`
	MaxRecoveryAttempts int      `yaml:"max_recovery_attempts" koanf:"max_recovery_attempts"`
	ExtendedSensitivity bool     `yaml:"extended_sensitivity" koanf:"extended_sensitivity"`
	Ignore              []string `yaml:"ignore" koanf:"ignore"`
	Channels            []string `yaml:"channels" koanf:"channels"`
	OpenAIModel         string   `yaml:"openai_model" koanf:"openai_model"`
	EmbeddingModel      string   `yaml:"embedding_model" koanf:"embedding_model"`
}
