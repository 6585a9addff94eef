// Package feedwatch polls RSS/Atom feeds from the bot's loop hook and
// announces new items to a chat. The last seen item of each feed is kept in
// the persisted state document, so restarts do not repost old entries.
package feedwatch

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/mmcdole/gofeed"

	"github.com/m3rciful/botkit/core/logger"
	"github.com/m3rciful/botkit/core/state"
	"github.com/m3rciful/botkit/core/telegram/commands"
)

// Feed names one watched feed.
type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// Options configures the watcher.
type Options struct {
	Feeds  []Feed
	ChatID int64
	// Parser overrides the feed parser, mainly for tests.
	Parser *gofeed.Parser
}

// Watcher checks feeds each polling tick.
type Watcher struct {
	feeds  []Feed
	chatID int64
	store  *state.Store
	parser *gofeed.Parser
}

// NewWatcher builds a watcher over the shared state store.
func NewWatcher(store *state.Store, opts Options) *Watcher {
	parser := opts.Parser
	if parser == nil {
		parser = gofeed.NewParser()
	}
	return &Watcher{
		feeds:  opts.Feeds,
		chatID: opts.ChatID,
		store:  store,
		parser: parser,
	}
}

// HookName is the loop hook registration name.
const HookName = "feedwatch"

func stateKey(feedName string) string {
	return "feedwatch:" + feedName
}

// Check polls every feed once. A failing feed is logged and the remaining
// feeds still run; the first failure is returned after all feeds ran.
func (w *Watcher) Check(ctx context.Context, bot commands.Messenger) error {
	var firstErr error
	for _, feed := range w.feeds {
		if err := w.checkFeed(ctx, bot, feed); err != nil {
			logger.PLUG.LogAttrs(ctx, slog.LevelError, "feedwatch.feed_failed",
				slog.String("event", "feedwatch.feed_failed"),
				slog.String("feed", feed.Name),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (w *Watcher) checkFeed(ctx context.Context, bot commands.Messenger, feed Feed) error {
	parsed, err := w.parser.ParseURLWithContext(feed.URL, ctx)
	if err != nil {
		return fmt.Errorf("parse %s: %w", feed.URL, err)
	}
	if len(parsed.Items) == 0 {
		return nil
	}

	lastSeen, _ := w.store.GetString(stateKey(feed.Name))

	// Items are newest first in most feeds; collect everything above the
	// last seen marker and announce oldest first.
	var fresh []*gofeed.Item
	for _, item := range parsed.Items {
		if itemID(item) == lastSeen {
			break
		}
		fresh = append(fresh, item)
	}
	if len(fresh) == 0 {
		return nil
	}
	if lastSeen == "" {
		// First run: remember the newest item without flooding the chat.
		w.store.SetString(stateKey(feed.Name), itemID(fresh[0]))
		return nil
	}

	for i := len(fresh) - 1; i >= 0; i-- {
		item := fresh[i]
		text := fmt.Sprintf("%s: %s\n%s", feed.Name, item.Title, item.Link)
		if err := bot.SendMessage(ctx, w.chatID, text, nil); err != nil {
			return err
		}
	}
	w.store.SetString(stateKey(feed.Name), itemID(fresh[0]))
	return nil
}

func itemID(item *gofeed.Item) string {
	if item.GUID != "" {
		return item.GUID
	}
	return item.Link
}
