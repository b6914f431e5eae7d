package share

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// TelegramTarget posts summaries to one chat through a bot.
type TelegramTarget struct {
	bot    *tgbotapi.BotAPI
	chatID int64
}

var _ Target = (*TelegramTarget)(nil)

// NewTelegramTarget authenticates the bot token against the Bot API.
func NewTelegramTarget(token string, chatID int64) (*TelegramTarget, error) {
	return NewTelegramTargetWithEndpoint(token, chatID, tgbotapi.APIEndpoint)
}

// NewTelegramTargetWithEndpoint uses a custom Bot API endpoint of the form
// "https://host/bot%s/%s".
func NewTelegramTargetWithEndpoint(token string, chatID int64, endpoint string) (*TelegramTarget, error) {
	if token == "" || chatID == 0 {
		return nil, ErrNoTarget
	}
	bot, err := tgbotapi.NewBotAPIWithAPIEndpoint(token, endpoint)
	if err != nil {
		return nil, fmt.Errorf("telegram bot: %w", err)
	}
	return &TelegramTarget{bot: bot, chatID: chatID}, nil
}

func (t *TelegramTarget) Name() string { return "telegram" }

// Share sends the text, or the file with the text as caption.
func (t *TelegramTarget) Share(ctx context.Context, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var msg tgbotapi.Chattable
	if len(p.File) > 0 {
		doc := tgbotapi.NewDocument(t.chatID, tgbotapi.FileBytes{Name: p.FileName, Bytes: p.File})
		doc.Caption = p.Text
		msg = doc
	} else {
		msg = tgbotapi.NewMessage(t.chatID, p.Text)
	}
	if _, err := t.bot.Send(msg); err != nil {
		return fmt.Errorf("telegram send: %w", err)
	}
	return nil
}
