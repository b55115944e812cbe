package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Vault != "Vault" {
		t.Errorf("vault: got %q", cfg.Vault)
	}
	if cfg.MaxIterations != 10 {
		t.Errorf("max_iterations: got %d, want 10", cfg.MaxIterations)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("max_attempts: got %d, want 3", cfg.MaxAttempts)
	}
	if cfg.MaxRecoveryAttempts != 3 {
		t.Errorf("max_recovery_attempts: got %d, want 3", cfg.MaxRecoveryAttempts)
	}
	if cfg.BaseDelay() != time.Second {
		t.Errorf("base delay: got %v, want 1s", cfg.BaseDelay())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config must validate: %v", err)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.vaultpilot.yml")

	original := DefaultConfig()
	original.Vault = "/data/myvault"
	original.CheckInterval = 30
	original.ExtendedSensitivity = true
	original.Channels = []string{"inbox", "email"}

	if err := original.Save(path); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if loaded.Vault != original.Vault {
		t.Errorf("vault: got %q, want %q", loaded.Vault, original.Vault)
	}
	if loaded.CheckInterval != original.CheckInterval {
		t.Errorf("check_interval: got %d, want %d", loaded.CheckInterval, original.CheckInterval)
	}
	if !loaded.ExtendedSensitivity {
		t.Error("extended_sensitivity lost in round-trip")
	}
	if len(loaded.Channels) != 2 {
		t.Errorf("channels: got %v", loaded.Channels)
	}
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("missing file must fall back to defaults, got %v", err)
	}
	if cfg.Vault != "Vault" || cfg.CheckInterval != 120 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
}

func TestEnvOverlay(t *testing.T) {
	os.Setenv("VAULTPILOT_VAULT", "/env/vault")
	os.Setenv("VAULTPILOT_SESSION_ID", "env_session")
	defer os.Unsetenv("VAULTPILOT_VAULT")
	defer os.Unsetenv("VAULTPILOT_SESSION_ID")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Vault != "/env/vault" {
		t.Errorf("env override lost: %q", cfg.Vault)
	}
	if cfg.SessionID != "env_session" {
		t.Errorf("session env override lost: %q", cfg.SessionID)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	bad := []func(*Config){
		func(c *Config) { c.Vault = "" },
		func(c *Config) { c.CheckInterval = 0 },
		func(c *Config) { c.MaxIterations = -1 },
		func(c *Config) { c.MaxAttempts = 0 },
		func(c *Config) { c.BaseDelaySeconds = -1 },
		func(c *Config) { c.MaxRecoveryAttempts = 0 },
		func(c *Config) { c.Channels = []string{"carrier_pigeon"} },
	}
	for i, mutate := range bad {
		cfg := DefaultConfig()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("case %d: expected validation error", i)
		}
	}
}

func TestChannelEnabled(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Channels = []string{"inbox", "email"}

	if !cfg.ChannelEnabled(ChannelInbox) || !cfg.ChannelEnabled(ChannelEmail) {
		t.Error("configured channels should be enabled")
	}
	if cfg.ChannelEnabled(ChannelWhatsApp) {
		t.Error("whatsapp is not configured")
	}
}
