package bot

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/logger"
	"github.com/Sostudio2025/RM-claude-whatsapp-bot-test-env/internal/metrics"
)

type discord struct {
	session *discordgo.Session
	handler Handler
	metrics *metrics.Metrics
	ctx     context.Context
}

func newDiscord(token string, handler Handler, m *metrics.Metrics) (Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, err
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentsDirectMessages | discordgo.IntentsMessageContent

	d := &discord{
		session: session,
		handler: handler,
		metrics: m,
		ctx:     context.Background(),
	}

	session.AddHandler(d.handleMessage)

	return d, nil
}

func (d *discord) Name() string {
	return providerDiscord
}

func (d *discord) Start(ctx context.Context) error {
	d.ctx = ctx

	if err := d.session.Open(); err != nil {
		return err
	}
	logger.Info("discord bot started")

	<-ctx.Done()
	return d.session.Close()
}

func (d *discord) Send(chatID int64, message string) error {
	channelID := fmt.Sprintf("%d", chatID)
	for _, chunk := range splitMessage(message, discordMaxChars) {
		if _, err := d.session.ChannelMessageSend(channelID, chunk); err != nil {
			logger.Error("discord send failed", "error", err, "channelID", channelID)
			return err
		}
	}
	logger.Info("discord message sent", "channelID", channelID, "chars", len(message))
	return nil
}

func (d *discord) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot || (s.State != nil && s.State.User != nil && m.Author.ID == s.State.User.ID) {
		return
	}
	if m.Content == "" {
		return
	}

	sender := senderID(providerDiscord, m.ChannelID)
	logger.Info("message received", "sender", sender, "from", m.Author.Username, "text", truncate(m.Content, 50))

	response := respond(d.ctx, d.handler, d.metrics, providerDiscord, sender, m.Content)

	for i, chunk := range splitMessage(response, discordMaxChars) {
		var err error
		if i == 0 {
			_, err = s.ChannelMessageSendReply(m.ChannelID, chunk, m.Reference())
		} else {
			_, err = s.ChannelMessageSend(m.ChannelID, chunk)
		}
		if err != nil {
			logger.Error("discord reply failed", "sender", sender, "error", err)
			return
		}
	}

	logger.Info("reply sent", "sender", sender, "chars", len(response))
}
