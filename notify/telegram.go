package notify

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"store-monitor/config"
)

// TelegramSender delivers notifications to a fixed chat. The recipient
// argument is ignored; telegram routing is per bot+chat, not per
// address.
type TelegramSender struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

// NewTelegramSender connects the bot API.
func NewTelegramSender(cfg config.TelegramConfig) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPI(cfg.Token)
	if err != nil {
		return nil, fmt.Errorf("telegram bot init: %w", err)
	}
	return &TelegramSender{bot: bot, chatID: cfg.ChatID}, nil
}

func (s *TelegramSender) Send(_, subject, body string, isHTML bool) error {
	msg := tgbotapi.NewMessage(s.chatID, fmt.Sprintf("%s\n\n%s", subject, body))
	if isHTML {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	if _, err := s.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
