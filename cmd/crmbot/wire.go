package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/agent"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/alerts"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/audit"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/budget"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/config"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/datastore"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/llm"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/metrics"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/session"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/tools"
)

const alertCooldown = time.Hour

// app is the set of long-lived components every subcommand shares.
type app struct {
	cfg      *config.Config
	store    *datastore.Client
	sessions *session.Store
	agent    *agent.Agent
	metrics  *metrics.Metrics
	budget   *budget.Tracker
	alerts   *alerts.Alerter
	closers  []func() error
}

func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			logger.Warn("close failed", "error", err)
		}
	}
}

func openStore(cfg *config.Config) (*datastore.Client, func() error, error) {
	var (
		backend datastore.Backend
		closer  = func() error { return nil }
	)

	switch cfg.Datastore.Backend {
	case "airtable":
		backend = datastore.NewAirtable(cfg.Datastore.APIKey, cfg.Datastore.BaseURL)
	case "sqlite":
		db, err := datastore.NewSQLite(cfg.Datastore.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		backend, closer = db, db.Close
	case "memory":
		backend = datastore.NewMemory()
	default:
		return nil, nil, fmt.Errorf("unknown datastore backend: %s", cfg.Datastore.Backend)
	}

	logger.Info("datastore ready", "backend", cfg.Datastore.Backend, "base", cfg.Domain.BaseID)
	return datastore.NewClient(backend, cfg.Domain), closer, nil
}

func wireApp(ctx context.Context, cfg *config.Config) (*app, error) {
	a := &app{
		cfg:     cfg,
		metrics: metrics.New(nil),
		alerts:  alerts.New(nil, alertCooldown),
	}

	store, closeStore, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	a.store = store
	a.closers = append(a.closers, closeStore)

	model, err := llm.New(llm.Config{
		Provider:  cfg.LLM.Provider,
		APIKey:    cfg.LLM.APIKey,
		Model:     cfg.LLM.Model,
		BaseURL:   cfg.LLM.BaseURL,
		MaxTokens: cfg.LLM.MaxTokens,
	})
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("create llm: %w", err)
	}

	prompt, err := agent.LoadSystemPrompt(cfg.SystemPromptPath, cfg.Domain.BaseID)
	if err != nil {
		a.Close()
		return nil, err
	}

	if cfg.Budget.Enabled {
		if err := a.wireBudget(); err != nil {
			a.Close()
			return nil, err
		}
	}

	auditLog := a.wireAudit(ctx)

	a.sessions = session.NewStore(session.Options{
		HistoryLimit: cfg.Memory.HistoryLimit,
		TTL:          cfg.Memory.TTL,
	})

	a.agent = agent.New(model, a.sessions, tools.NewGateway(store, cfg.Domain), cfg.Domain.Keywords, agent.Options{
		SystemPrompt: prompt,
		MaxSteps:     cfg.Safety.MaxSteps,
		MaxMessages:  cfg.Safety.MaxMessages,
		Budget:       a.budget,
		Alerts:       a.alerts,
		Metrics:      a.metrics,
		Audit:        auditLog,
	})

	logger.Info("agent ready", "llm", model.Provider(), "model", model.Model(), "maxSteps", cfg.Safety.MaxSteps, "maxMessages", cfg.Safety.MaxMessages)
	return a, nil
}

func (a *app) wireBudget() error {
	cfg := a.cfg.Budget

	a.budget = budget.NewTracker(
		budget.Config{DailyLimit: cfg.DailyLimit, WarnAt: cfg.WarnAt},
		func(used, limit int) {
			logger.Warn("budget warning", "used", used, "limit", limit)
			a.alerts.Warn("budget", fmt.Sprintf("%d/%d tokens used (%.0f%%)", used, limit, float64(used)/float64(limit)*100), nil)
		},
		func(used, limit int) {
			logger.Error("budget exceeded", "used", used, "limit", limit)
			a.alerts.Critical("budget", "Daily token limit reached, replies paused until tomorrow", nil)
		},
	)

	if cfg.UsagePath != "" {
		store, err := budget.Open(cfg.UsagePath, nil)
		if err != nil {
			return err
		}
		a.budget.SetStore(store)
		a.closers = append(a.closers, store.Close)
	}

	logger.Info("budget tracking enabled", "limit", cfg.DailyLimit, "warnAt", cfg.WarnAt, "usage", cfg.UsagePath)
	return nil
}

// wireAudit returns nil when storage is off or unreachable; auditing never
// blocks startup.
func (a *app) wireAudit(ctx context.Context) *audit.Log {
	cfg := a.cfg.Storage
	if !cfg.Enabled {
		return nil
	}

	sink, err := audit.NewMinIO(audit.MinIOConfig{
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
	})
	if err != nil {
		logger.Error("failed to create audit storage", "error", err)
		return nil
	}

	initCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := sink.Init(initCtx); err != nil {
		logger.Error("failed to init audit bucket", "error", err)
		return nil
	}

	logger.Info("audit enabled", "endpoint", cfg.Endpoint, "bucket", sink.Bucket())
	return audit.NewLog(sink)
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		if errors.Is(err, config.ErrMissingCredential) {
			return nil, fmt.Errorf("%w (set it in the environment or the env file)", err)
		}
		return nil, err
	}
	return cfg, nil
}
