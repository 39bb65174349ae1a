package bot

import (
	"context"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/agent"
)

type Bot interface {
	Start(ctx context.Context) error
	Send(chatID int64, message string) error
	Name() string
}

// Handler is the part of *agent.Agent the transports drive.
type Handler interface {
	HandleMessage(ctx context.Context, sender, text string) *agent.Reply
	ClearSession(sender string)
}

type Config struct {
	Provider string
	Token    string
}

var _ Handler = (*agent.Agent)(nil)
