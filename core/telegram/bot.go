package telegram

import (
	"context"

	"github.com/m3rciful/botkit/core/telegram/api"
	"github.com/m3rciful/botkit/core/telegram/sender"
)

// Bot is the outbound surface handed to commands and hooks. Plain messages
// go through the async sender queue so ordering and retries are handled in
// one place; reads and document uploads stay synchronous.
type Bot struct {
	client *api.Client
	queue  *sender.Dispatcher
}

// NewBot wraps an API client with the outbound queue.
func NewBot(client *api.Client, queue *sender.Dispatcher) *Bot {
	return &Bot{client: client, queue: queue}
}

// SendMessage queues a text message for delivery. The error reflects queue
// admission only; delivery failures are logged by the sender.
func (b *Bot) SendMessage(ctx context.Context, chatID int64, text string, opts *api.SendOptions) error {
	return b.queue.Enqueue(ctx, "sendMessage", func(ctx context.Context) error {
		return b.client.SendMessage(ctx, chatID, text, opts)
	})
}

// GetMyCommands fetches the published command menu.
func (b *Bot) GetMyCommands(ctx context.Context) ([]api.BotCommand, error) {
	return b.client.GetMyCommands(ctx)
}

// AnswerCallbackQuery acknowledges an inline keyboard press.
func (b *Bot) AnswerCallbackQuery(ctx context.Context, id, text string) error {
	return b.queue.Enqueue(ctx, "answerCallbackQuery", func(ctx context.Context) error {
		return b.client.AnswerCallbackQuery(ctx, id, text)
	})
}

// SendDocument uploads a local file synchronously. Uploads can be large, so
// they bypass the queue and its retry deadline.
func (b *Bot) SendDocument(ctx context.Context, chatID int64, path string) error {
	return b.client.SendDocument(ctx, chatID, path)
}
