package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/bot"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/httpapi"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
)

const shutdownTimeout = 15 * time.Second

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and any configured chat bots",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := wireApp(ctx, cfg)
			if err != nil {
				return err
			}
			defer a.Close()

			return serve(ctx, a)
		},
	}
}

func serve(ctx context.Context, a *app) error {
	stopSweeper, err := a.sessions.StartSweeper(a.cfg.Memory.SweepInterval)
	if err != nil {
		return err
	}
	defer stopSweeper()

	bots := startBots(ctx, a)
	if len(bots) > 0 {
		a.alerts.Info("server", "crmbot started on "+strings.Join(bots, ", "))
	}

	srv := &http.Server{
		Addr: a.cfg.Server.Addr(),
		Handler: httpapi.New(a.agent, a.store, httpapi.Options{
			TestKey: a.cfg.Server.TestRouterKey,
			Metrics: a.metrics,
			Budget:  a.budget,
		}).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("http server listening", "addr", srv.Addr, "bots", bots)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// startBots launches every configured transport. The first one also carries
// operator alerts when ALERT_CHAT_ID is set.
func startBots(ctx context.Context, a *app) []string {
	var started []string

	configs := []bot.Config{}
	if a.cfg.Bots.Telegram.Enabled {
		configs = append(configs, bot.Config{Provider: "telegram", Token: a.cfg.Bots.Telegram.Token})
	}
	if a.cfg.Bots.Discord.Enabled {
		configs = append(configs, bot.Config{Provider: "discord", Token: a.cfg.Bots.Discord.Token})
	}

	for _, c := range configs {
		b, err := bot.New(c, a.agent, a.metrics)
		if err != nil {
			logger.Error("failed to create bot", "provider", c.Provider, "error", err)
			continue
		}

		go func() {
			if err := b.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("bot stopped", "provider", b.Name(), "error", err)
			}
		}()

		if len(started) == 0 && a.cfg.Alerts.ChatID != 0 {
			chatID := a.cfg.Alerts.ChatID
			a.alerts.SetNotify(func(message string) {
				if err := b.Send(chatID, message); err != nil {
					logger.Error("alert delivery failed", "error", err, "chatID", chatID)
				}
			})
			logger.Info("error alerting enabled", "provider", b.Name(), "chatID", chatID)
		}

		started = append(started, b.Name())
	}

	return started
}
