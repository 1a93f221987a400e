package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-telegram/bot"
)

// DefaultTelegramAPI is the Bot API base URL.
const DefaultTelegramAPI = "https://api.telegram.org"

// TelegramConfig identifies the bot and the group chat.
type TelegramConfig struct {
	Token   string
	ChatID  string
	BaseURL string // optional: defaults to DefaultTelegramAPI
}

// TelegramNotifier posts messages to a chat through the Telegram Bot API.
// It only sends; updates are never polled.
type TelegramNotifier struct {
	bot    *bot.Bot
	token  string
	chatID string
}

var _ Notifier = (*TelegramNotifier)(nil)

// NewTelegramNotifier creates a notifier for cfg. A nil client uses the bot library's default.
// PRE: cfg.Token and cfg.ChatID are non-empty
// POST: Returns a ready-to-use notifier; no request is made
func NewTelegramNotifier(cfg TelegramConfig, client *http.Client) (*TelegramNotifier, error) {
	if cfg.Token == "" || cfg.ChatID == "" {
		return nil, fmt.Errorf("telegram: bot token and chat id are required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = DefaultTelegramAPI
	}

	opts := []bot.Option{bot.WithSkipGetMe(), bot.WithServerURL(base)}
	if client != nil {
		opts = append(opts, bot.WithHTTPClient(client.Timeout, client))
	}
	b, err := bot.New(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("telegram: %w", err)
	}
	return &TelegramNotifier{bot: b, token: cfg.Token, chatID: cfg.ChatID}, nil
}

// Notify implements Notifier. A response with ok=false is an error.
func (t *TelegramNotifier) Notify(ctx context.Context, text string) error {
	_, err := t.bot.SendMessage(ctx, &bot.SendMessageParams{
		ChatID: t.chatID,
		Text:   text,
	})
	if err != nil {
		return fmt.Errorf("telegram: send: %w", t.redact(err))
	}
	return nil
}

// redact drops the request URL, which carries the bot token, from err.
func (t *TelegramNotifier) redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	if strings.Contains(err.Error(), t.token) {
		return errors.New(strings.ReplaceAll(err.Error(), t.token, "<token>"))
	}
	return err
}
