package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	yamlv3 "gopkg.in/yaml.v3"
)

// Load reads configuration from the given YAML file, then overlays
// environment variable overrides (VAULTPILOT_*).
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Start from defaults.
	cfg := DefaultConfig()

	// Load YAML file if it exists.
	if _, err := os.Stat(path); err == nil {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", path, err)
		}
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("accessing config %s: %w", path, err)
	}

	// Overlay environment variables: VAULTPILOT_VAULT -> vault, etc.
	if err := k.Load(env.Provider("VAULTPILOT_", ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, "VAULTPILOT_"))
	}), nil); err != nil {
		return nil, fmt.Errorf("loading env overrides: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	return cfg, nil
}

// Save writes the configuration to the given YAML file path.
func (c *Config) Save(path string) error {
	data, err := yamlv3.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config to %s: %w", path, err)
	}
	return nil
}

// Validate checks that the configuration contains valid values.
func (c *Config) Validate() error {
	if c.Vault == "" {
		return fmt.Errorf("vault is required")
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("check_interval must be positive")
	}
	if c.MaxIterations <= 0 {
		return fmt.Errorf("max_iterations must be positive")
	}
	if c.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive")
	}
	if c.BaseDelaySeconds < 0 {
		return fmt.Errorf("base_delay must be non-negative")
	}
	if c.MaxRecoveryAttempts <= 0 {
		return fmt.Errorf("max_recovery_attempts must be positive")
	}
	for _, ch := range c.Channels {
		if !validChannels[Channel(ch)] {
			return fmt.Errorf("invalid channel %q: must be one of inbox, email, whatsapp, linkedin", ch)
		}
	}
	return nil
}

// BaseDelay returns the configured retry base delay as a duration.
func (c *Config) BaseDelay() time.Duration {
	return time.Duration(c.BaseDelaySeconds * float64(time.Second))
}

// ChannelEnabled reports whether the given watcher channel is configured.
func (c *Config) ChannelEnabled(ch Channel) bool {
	for _, name := range c.Channels {
		if Channel(name) == ch {
			return true
		}
	}
	return false
}
