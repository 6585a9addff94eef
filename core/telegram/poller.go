package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/m3rciful/botkit/core/logger"
	"github.com/m3rciful/botkit/core/state"
	"github.com/m3rciful/botkit/core/telegram/api"
)

// UpdateSource fetches pending updates starting at an offset.
type UpdateSource interface {
	GetUpdates(ctx context.Context, offset int64, allowed []string, timeoutSec int) ([]api.Update, error)
}

// PollerOptions configures the polling loop.
type PollerOptions struct {
	// Interval is the pause between ticks.
	Interval time.Duration
	// LongPollTimeoutSeconds enables server-side long polling when > 0.
	LongPollTimeoutSeconds int
	// AllowedUpdates restricts which update kinds the server delivers.
	AllowedUpdates []string
}

// Poller drives the fetch/dispatch cycle. It is the only writer of the
// persisted update offset.
type Poller struct {
	source     UpdateSource
	store      *state.Store
	dispatcher *Dispatcher
	opts       PollerOptions
}

// NewPoller assembles a poller over an update source, offset store and
// dispatcher.
func NewPoller(source UpdateSource, store *state.Store, dispatcher *Dispatcher, opts PollerOptions) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 10 * time.Second
	}
	return &Poller{source: source, store: store, dispatcher: dispatcher, opts: opts}
}

// Tick runs one polling cycle: loop hooks first, then fetch and dispatch.
// The in-memory offset advances past each update before its dispatch, so a
// crashing handler cannot cause redelivery. State is flushed once per batch.
func (p *Poller) Tick(ctx context.Context) error {
	p.dispatcher.DispatchLoopHooks(ctx)

	offset := p.store.UpdateID()
	updates, err := p.source.GetUpdates(ctx, offset, p.opts.AllowedUpdates, p.opts.LongPollTimeoutSeconds)
	if err != nil {
		return err
	}
	if len(updates) == 0 {
		return nil
	}

	for _, u := range updates {
		p.store.SetUpdateID(u.UpdateID + 1)
		p.handleUpdate(ctx, u)
	}

	if _, err := p.store.Flush(); err != nil {
		return fmt.Errorf("state flush: %w", err)
	}
	return nil
}

func (p *Poller) handleUpdate(ctx context.Context, u api.Update) {
	var userID, chatID int64
	switch {
	case u.Message != nil:
		chatID = u.Message.ChatID
		if u.Message.Sender != nil {
			userID = u.Message.Sender.ID
		}
	case u.CallbackQuery != nil:
		if u.CallbackQuery.Sender != nil {
			userID = u.CallbackQuery.Sender.ID
		}
		if u.CallbackQuery.Message != nil {
			chatID = u.CallbackQuery.Message.ChatID
		}
	}
	ctx = logger.WithUpdateMeta(ctx, u.UpdateID, userID, chatID)
	ctx = logger.WithRID(ctx, logger.BuildRID(u.UpdateID, chatID, userID))

	var err error
	switch {
	case u.CallbackQuery != nil:
		err = p.dispatcher.DispatchCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		err = p.dispatcher.DispatchMessage(ctx, u.Message)
	default:
		logger.POLL.LogAttrs(ctx, slog.LevelDebug, "poll.update_skipped",
			slog.String("event", "poll.update_skipped"),
		)
		return
	}
	if err != nil {
		logger.POLL.LogAttrs(ctx, slog.LevelError, "poll.dispatch_failed",
			slog.String("event", "poll.dispatch_failed"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
	}
}

// Run polls until the context is cancelled. Tick failures are logged and the
// loop keeps going after the regular pause; only cancellation stops it.
func (p *Poller) Run(ctx context.Context) error {
	logger.POLL.LogAttrs(ctx, slog.LevelInfo, "poll.start",
		slog.String("event", "poll.start"),
		slog.Int64("offset", p.store.UpdateID()),
		slog.Duration("duration", p.opts.Interval),
	)
	for {
		tickCtx := logger.WithRID(ctx, "tick-"+uuid.NewString()[:8])
		if err := p.Tick(tickCtx); err != nil {
			logger.POLL.LogAttrs(tickCtx, slog.LevelError, "poll.tick_failed",
				slog.String("event", "poll.tick_failed"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}

		select {
		case <-ctx.Done():
			logger.POLL.LogAttrs(ctx, slog.LevelInfo, "poll.stop",
				slog.String("event", "poll.stop"),
				slog.Int64("offset", p.store.UpdateID()),
			)
			return ctx.Err()
		case <-time.After(p.opts.Interval):
		}
	}
}
