package config

// DefaultIgnore are glob patterns skipped when scanning the Inbox by default.
// Temp files and editor droppings must never become action records.
var DefaultIgnore = []string{
	".*",
	"~*",
	"*.tmp",
	"*.part",
	"*.crdownload",
	".DS_Store",
	"Thumbs.db",
}

// validChannels is the set of recognized watcher channel values.
var validChannels = map[Channel]bool{
	ChannelInbox:    true,
	ChannelEmail:    true,
	ChannelWhatsApp: true,
	ChannelLinkedIn: true,
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Vault:               "Vault",
		SessionID:           "local_session",
		CheckInterval:       120,
		MaxIterations:       10,
		MaxAttempts:         3,
		BaseDelaySeconds:    1.0,
		MaxRecoveryAttempts: 3,
		ExtendedSensitivity: false,
		Ignore:              DefaultIgnore,
		Channels:            []string{"inbox", "email", "whatsapp", "linkedin"},
		OpenAIModel:         "gpt-4o-mini",
		EmbeddingModel:      "text-embedding-3-small",
	}
}
