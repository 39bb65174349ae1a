package bot

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/metrics"
)

const (
	providerTelegram = "telegram"
	providerDiscord  = "discord"

	// per-message limits of each platform
	telegramMaxChars = 4096
	discordMaxChars  = 2000

	msgSomethingWrong = "❌ משהו השתבש. אנא נסה שוב."
	msgMemoryCleared  = "🧹 השיחה אופסה."
)

// clearCommands reset the conversation instead of reaching the model.
var clearCommands = []string{"/clear", "/reset", "/start"}

func isClearCommand(text string) bool {
	cmd := strings.ToLower(strings.TrimSpace(text))
	if i := strings.IndexAny(cmd, " @"); i > 0 {
		cmd = cmd[:i]
	}
	for _, c := range clearCommands {
		if cmd == c {
			return true
		}
	}
	return false
}

func senderID(provider string, id any) string {
	return fmt.Sprintf("%s:%v", provider, id)
}

// respond runs one inbound chat message through the handler and returns the
// text to send back.
func respond(ctx context.Context, h Handler, m *metrics.Metrics, provider, sender, text string) string {
	m.Message(provider)

	if isClearCommand(text) {
		h.ClearSession(sender)
		return msgMemoryCleared
	}

	reply := h.HandleMessage(ctx, sender, text)
	if reply == nil {
		return msgSomethingWrong
	}
	if reply.Response != "" {
		return reply.Response
	}
	if reply.Error != "" {
		logger.Warn("message failed", "sender", sender, "error", reply.Error)
	}
	return msgSomethingWrong
}

// splitMessage cuts text into chunks of at most max runes, preferring line
// breaks.
func splitMessage(text string, max int) []string {
	if utf8.RuneCountInString(text) <= max {
		return []string{text}
	}

	var chunks []string
	runes := []rune(text)
	for len(runes) > max {
		cut := max
		for i := max; i > max/2; i-- {
			if runes[i-1] == '\n' {
				cut = i
				break
			}
		}
		chunks = append(chunks, string(runes[:cut]))
		runes = runes[cut:]
	}
	if len(runes) > 0 {
		chunks = append(chunks, string(runes))
	}
	return chunks
}

func truncate(s string, max int) string {
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	return string([]rune(s)[:max]) + "..."
}
