// Package telegram publishes notifier messages to a Telegram channel.
package telegram

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/fairyhunter13/crhoy-crawler/internal/config"
	"github.com/fairyhunter13/crhoy-crawler/internal/domain"
)

// botAPI is the slice of tgbotapi.BotAPI the sender needs.
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Sender delivers MarkdownV2 messages to one channel with bounded retries.
type Sender struct {
	bot        botAPI
	channelID  int64
	maxRetries int
}

// New connects the bot and returns a Sender for the configured channel.
func New(cfg config.Config) (*Sender, error) {
	if cfg.BotToken == "" {
		return nil, fmt.Errorf("op=telegram.New: bot token not configured: %w", domain.ErrInvalidArgument)
	}
	bot, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("op=telegram.New: %w", err)
	}
	return &Sender{bot: bot, channelID: cfg.ChannelID, maxRetries: cfg.NotifierMaxRetries}, nil
}

// Send publishes one already-formatted MarkdownV2 message. Web page previews
// are disabled so the channel stays compact.
func (s *Sender) Send(ctx domain.Context, text string) error {
	msg := tgbotapi.NewMessage(s.channelID, text)
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	msg.DisableWebPagePreview = true

	policy := backoff.WithContext(
		backoff.WithMaxRetries(backoff.NewConstantBackOff(time.Second), uint64(s.maxRetries)), ctx)
	op := func() error {
		_, err := s.bot.Send(msg)
		if err != nil {
			slog.Warn("telegram send failed", slog.String("error", err.Error()))
		}
		return err
	}
	if err := backoff.Retry(op, policy); err != nil {
		return fmt.Errorf("op=telegram.Send: %w: %w", domain.ErrUnavailable, err)
	}
	return nil
}
