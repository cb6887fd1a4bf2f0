package notify

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// telegramSendInterval spaces consecutive messages to one chat so bursts of
// opportunities stay under Telegram's per-chat rate limit.
const telegramSendInterval = time.Second

// telegramTimeout bounds one Bot API call, matching the Discord webhook client.
const telegramTimeout = 10 * time.Second

// TelegramSender delivers notifications via the Telegram Bot API.
type TelegramSender struct {
	bot      *tgbotapi.BotAPI
	chatID   int64
	channel  string
	interval time.Duration

	mu       sync.Mutex
	lastSend time.Time
}

// NewTelegramSender creates a TelegramSender for the given bot token and chat
// ID. chatID is either a numeric chat id or an @channel username. The token
// is verified with a getMe call.
func NewTelegramSender(token, chatID string) (*TelegramSender, error) {
	client := &http.Client{Timeout: telegramTimeout}
	return newTelegramSender(token, chatID, tgbotapi.APIEndpoint, client, telegramSendInterval)
}

func newTelegramSender(token, chatID, endpoint string, client *http.Client, interval time.Duration) (*TelegramSender, error) {
	bot, err := tgbotapi.NewBotAPIWithClient(token, endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("telegram: connect bot: %w", err)
	}

	t := &TelegramSender{bot: bot, interval: interval}
	if strings.HasPrefix(chatID, "@") {
		t.channel = chatID
		return t, nil
	}
	id, err := strconv.ParseInt(chatID, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("telegram: invalid chat id %q: %w", chatID, err)
	}
	t.chatID = id
	return t, nil
}

// Send posts a message to the configured Telegram chat. The title is rendered
// in bold using legacy Markdown syntax.
func (t *TelegramSender) Send(ctx context.Context, title, message string) error {
	text := fmt.Sprintf("*%s*\n%s", escape(title), message)

	var msg tgbotapi.MessageConfig
	if t.channel != "" {
		msg = tgbotapi.NewMessageToChannel(t.channel, text)
	} else {
		msg = tgbotapi.NewMessage(t.chatID, text)
	}
	msg.ParseMode = tgbotapi.ModeMarkdown
	msg.DisableWebPagePreview = true

	if err := t.wait(ctx); err != nil {
		return err
	}
	// The Bot API client takes no context; the call is abandoned on
	// cancellation and bounded by the HTTP client timeout.
	done := make(chan error, 1)
	go func() {
		_, err := t.bot.Send(msg)
		done <- err
	}()
	select {
	case <-ctx.Done():
		return fmt.Errorf("telegram: send message: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("telegram: send message: %w", err)
		}
		return nil
	}
}

// wait blocks until the send interval since the previous message elapsed.
func (t *TelegramSender) wait(ctx context.Context) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if d := t.interval - time.Since(t.lastSend); d > 0 {
		timer := time.NewTimer(d)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}
	}
	t.lastSend = time.Now()
	return nil
}

// Name returns the sender identifier.
func (t *TelegramSender) Name() string {
	return "telegram"
}
