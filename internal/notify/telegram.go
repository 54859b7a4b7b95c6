// Package notify delivers reminder pushes to mobile users.
package notify

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Notifier pushes a message to a user's linked chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, message string) error
}

// TelegramNotifier sends reminders through the Telegram Bot API.
type TelegramNotifier struct {
	api *tgbotapi.BotAPI
	log *zap.Logger
}

func NewTelegramNotifier(token string, log *zap.Logger) (*TelegramNotifier, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create bot api: %w", err)
	}
	log.Info("notifier authorized", zap.String("account", api.Self.UserName))
	return &TelegramNotifier{api: api, log: log}, nil
}

func (n *TelegramNotifier) Notify(ctx context.Context, chatID int64, message string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(chatID, message)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := n.api.Send(msg); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// LogNotifier writes notifications to the log instead of a chat. Used when
// no Telegram token is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, chatID int64, message string) error {
	n.log.Info("notification (no delivery channel)",
		zap.Int64("chat_id", chatID),
		zap.String("message", message))
	return nil
}
