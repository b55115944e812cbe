package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/manifoldco/promptui"
)

// RunWizard runs an interactive configuration wizard and returns the
// resulting Config. It also saves the config to .vaultpilot.yml.
func RunWizard() (*Config, error) {
	fmt.Println("Welcome to vaultpilot! Let's configure your vault.")
	fmt.Println()

	cfg := DefaultConfig()

	// 1. Vault location.
	vaultPrompt := promptui.Prompt{
		Label:   "Vault directory",
		Default: cfg.Vault,
	}
	vaultDir, err := vaultPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("vault selection: %w", err)
	}
	cfg.Vault = vaultDir

	// 2. Watcher channels.
	channelPrompt := promptui.Select{
		Label: "Select watcher channels",
		Items: []string{
			"inbox only              — just the drop folder",
			"inbox + email           — drop folder and email",
			"all channels            — inbox, email, whatsapp, linkedin",
		},
	}
	channelIdx, _, err := channelPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("channel selection: %w", err)
	}
	switch channelIdx {
	case 0:
		cfg.Channels = []string{"inbox"}
	case 1:
		cfg.Channels = []string{"inbox", "email"}
	default:
		cfg.Channels = []string{"inbox", "email", "whatsapp", "linkedin"}
	}

	// 3. Poll interval.
	intervalPrompt := promptui.Prompt{
		Label:   "Watcher check interval (seconds)",
		Default: strconv.Itoa(cfg.CheckInterval),
		Validate: func(s string) error {
			n, err := strconv.Atoi(strings.TrimSpace(s))
			if err != nil || n <= 0 {
				return fmt.Errorf("must be a positive integer")
			}
			return nil
		},
	}
	intervalStr, err := intervalPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("interval selection: %w", err)
	}
	cfg.CheckInterval, _ = strconv.Atoi(strings.TrimSpace(intervalStr))

	// 4. Sensitivity keyword set.
	sensPrompt := promptui.Select{
		Label: "Approval gating keyword set",
		Items: []string{
			"standard — payment, invoice, money, bank, financial",
			"extended — standard plus urgent, confidential, salary, ...",
		},
	}
	sensIdx, _, err := sensPrompt.Run()
	if err != nil {
		return nil, fmt.Errorf("sensitivity selection: %w", err)
	}
	cfg.ExtendedSensitivity = sensIdx == 1

	if err := cfg.Save(".vaultpilot.yml"); err != nil {
		return nil, err
	}

	fmt.Println()
	fmt.Println("Configuration saved to .vaultpilot.yml")
	return cfg, nil
}
