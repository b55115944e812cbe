package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ziadkadry99/vaultpilot/internal/action"
	"github.com/ziadkadry99/vaultpilot/internal/archive"
	"github.com/ziadkadry99/vaultpilot/internal/audit"
	"github.com/ziadkadry99/vaultpilot/internal/config"
	"github.com/ziadkadry99/vaultpilot/internal/dashboard"
	"github.com/ziadkadry99/vaultpilot/internal/db"
	"github.com/ziadkadry99/vaultpilot/internal/orchestrator"
	"github.com/ziadkadry99/vaultpilot/internal/outbound"
	"github.com/ziadkadry99/vaultpilot/internal/plan"
	"github.com/ziadkadry99/vaultpilot/internal/recovery"
	"github.com/ziadkadry99/vaultpilot/internal/vault"
	"github.com/ziadkadry99/vaultpilot/internal/watcher"
)

// app bundles the wired-up collaborators the commands share.
type app struct {
	Config  *config.Config
	Vault   *vault.Vault
	DB      *db.DB
	Errors  *recovery.ErrorLog
	Trail   *audit.Trail
	Audits  *audit.Store
	Store   *action.Store
	Plans   *plan.Generator
	Gate    *plan.Gate
	Failed  *recovery.FailedStore
	Checker *recovery.Checker
	Board   *dashboard.Board
	Logger  *slog.Logger
	Orch    *orchestrator.Orchestrator
}

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `vaultpilot init` to create a config file", err)
	}
	return cfg, nil
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// newApp wires the full dependency graph for a vault. Call Close when done.
func newApp() (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := newLogger()

	v, err := vault.New(cfg.Vault)
	if err != nil {
		return nil, err
	}
	if err := v.EnsureLayout(); err != nil {
		return nil, err
	}

	database, err := db.Open(v.ManifestPath())
	if err != nil {
		return nil, err
	}

	errs := recovery.NewErrorLog(v.Logs(), cfg.SessionID, logger)
	audits := audit.NewStore(database)
	trail := audit.NewTrail(v.Logs(), cfg.SessionID, audits, errs)
	store := action.NewStore(v, database, trail)
	failed := recovery.NewFailedStore(v.FailedActions(), errs, cfg.MaxRecoveryAttempts)
	board := dashboard.New(v.Dashboard())
	if err := board.Init(); err != nil {
		database.Close()
		return nil, err
	}

	a := &app{
		Config:  cfg,
		Vault:   v,
		DB:      database,
		Errors:  errs,
		Trail:   trail,
		Audits:  audits,
		Store:   store,
		Plans:   plan.NewGenerator(v, trail, cfg.ExtendedSensitivity),
		Gate:    plan.NewGate(v, trail),
		Failed:  failed,
		Checker: recovery.NewChecker(v, errs, failed),
		Board:   board,
		Logger:  logger,
	}

	a.Orch = orchestrator.New(orchestrator.Deps{
		Config: *cfg,
		Vault:  v,
		Store:  store,
		Plans:  a.Plans,
		Gate:   a.Gate,
		Trail:  trail,
		Errors: errs,
		Failed: failed,
		Inbox:  watcher.NewInboxWatcher(v.Inbox(), cfg.Ignore),
		Email:  outbound.NewSimulatedEmail(logger),
		Social: outbound.NewSimulatedSocial(logger),
		Board:  board,
		Logger: logger,
	})

	return a, nil
}

func (a *app) Close() {
	if a.DB != nil {
		a.DB.Close()
	}
}

// newArchiveIndex builds an in-memory semantic index over the Done directory.
// Requires OPENAI_API_KEY for embeddings; returns nil without one.
func (a *app) newArchiveIndex(ctx context.Context) (*archive.Index, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, nil
	}

	index, err := archive.NewInMemory(archive.OpenAIEmbedding(apiKey, a.Config.EmbeddingModel))
	if err != nil {
		return nil, err
	}

	entries, err := os.ReadDir(a.Vault.Done())
	if err != nil {
		return nil, fmt.Errorf("scanning Done: %w", err)
	}
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || filepath.Ext(name) != ".md" || strings.Contains(name, ".original.") {
			continue
		}
		path := filepath.Join(a.Vault.Done(), name)
		raw, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if err := index.Add(ctx, action.Parse(path, raw)); err != nil {
			a.Logger.Warn("skipping unindexable record", "file", name, "error", err)
		}
	}
	return index, nil
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
