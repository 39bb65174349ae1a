package bot

import (
	"fmt"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/metrics"
)

func New(cfg Config, handler Handler, m *metrics.Metrics) (Bot, error) {
	switch cfg.Provider {
	case providerTelegram:
		return NewTelegram(cfg.Token, handler, m)
	case providerDiscord:
		return NewDiscord(cfg.Token, handler, m)
	default:
		return nil, fmt.Errorf("unknown bot provider: %s", cfg.Provider)
	}
}

func NewTelegram(token string, handler Handler, m *metrics.Metrics) (Bot, error) {
	return newTelegram(token, handler, m)
}

func NewDiscord(token string, handler Handler, m *metrics.Metrics) (Bot, error) {
	return newDiscord(token, handler, m)
}
