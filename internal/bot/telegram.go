package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/metrics"
)

type telegram struct {
	api     *tgbotapi.BotAPI
	handler Handler
	metrics *metrics.Metrics
}

func newTelegram(token string, handler Handler, m *metrics.Metrics) (Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, err
	}

	return &telegram{api: api, handler: handler, metrics: m}, nil
}

func (t *telegram) Name() string {
	return providerTelegram
}

func (t *telegram) Start(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := t.api.GetUpdatesChan(u)
	defer t.api.StopReceivingUpdates()

	logger.Info("telegram bot started", "username", t.api.Self.UserName)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case update := <-updates:
			if update.Message == nil || update.Message.Text == "" {
				continue
			}

			go t.handleMessage(ctx, update.Message)
		}
	}
}

func (t *telegram) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	sender := senderID(providerTelegram, msg.Chat.ID)
	from := ""
	if msg.From != nil {
		from = msg.From.UserName
	}
	logger.Info("message received", "sender", sender, "from", from, "text", truncate(msg.Text, 50))

	response := respond(ctx, t.handler, t.metrics, providerTelegram, sender, msg.Text)

	for i, chunk := range splitMessage(response, telegramMaxChars) {
		reply := tgbotapi.NewMessage(msg.Chat.ID, chunk)
		if i == 0 {
			reply.ReplyToMessageID = msg.MessageID
		}
		if _, err := t.api.Send(reply); err != nil {
			logger.Error("send failed", "sender", sender, "error", err)
			return
		}
	}

	logger.Info("reply sent", "sender", sender, "chars", len(response))
}

func (t *telegram) Send(chatID int64, message string) error {
	for _, chunk := range splitMessage(message, telegramMaxChars) {
		if _, err := t.api.Send(tgbotapi.NewMessage(chatID, chunk)); err != nil {
			logger.Error("proactive send failed", "error", err, "chatID", chatID)
			return err
		}
	}
	logger.Info("proactive message sent", "chatID", chatID, "chars", len(message))
	return nil
}
