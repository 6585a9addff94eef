package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	coreconfig "github.com/m3rciful/botkit/core/config"
	"github.com/m3rciful/botkit/core/logger"
	"github.com/m3rciful/botkit/core/state"
	"github.com/m3rciful/botkit/core/telegram/api"
	"github.com/m3rciful/botkit/core/telegram/middleware"
	tgsender "github.com/m3rciful/botkit/core/telegram/sender"
)

// RunOptions controls the behaviour of RunBot.
type RunOptions struct {
	Config   *coreconfig.Config
	Registry *Registry

	SenderOptions tgsender.Options

	OnStart func(ctx context.Context, rt Runtime) error
	OnStop  func(ctx context.Context, rt Runtime) error
}

// Runtime exposes runtime components to lifecycle hooks.
type Runtime struct {
	Bot      *Bot
	Registry *Registry
	Store    *state.Store
}

// RunBot composes the client, state store, sender queue and polling loop,
// then polls until the provided context is done.
func RunBot(ctx context.Context, opts RunOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.Config == nil {
		return fmt.Errorf("telegram: nil config provided")
	}

	cfg := opts.Config
	reg := opts.Registry
	if reg == nil {
		reg = NewRegistry()
	}
	reg.RegisterBuiltins()

	client := api.NewClient(cfg.Telegram.Token,
		api.WithBaseURL(cfg.Telegram.APIURL),
		api.WithHTTPClient(BuildHTTPClient()),
	)

	store := state.NewStore(cfg.State.Path)
	if err := store.Load(); err != nil {
		return fmt.Errorf("telegram: load state: %w", err)
	}

	// One worker keeps outbound sends in enqueue order.
	senderOpts := opts.SenderOptions
	senderOpts.Workers = 1
	queue := tgsender.NewDispatcher(senderOpts)
	bot := NewBot(client, queue)

	dispatcher := NewDispatcher(reg, bot, DispatcherOptions{
		CommandTimeout: time.Duration(cfg.Dispatch.CommandTimeoutSeconds) * time.Second,
		Admin:          middleware.AdminOptions{AdminID: cfg.Telegram.AdminID},
		RateLimit: middleware.RateLimitOptions{
			Interval: time.Duration(cfg.RateLimit.IntervalMS) * time.Millisecond,
			Exclude:  cfg.RateLimit.ExcludeUpdates,
		},
	})

	allowed := cfg.Telegram.AllowedUpdates
	if len(allowed) == 0 {
		allowed = []string{coreconfig.UpdateMessage}
		if reg.HasCallbacks() {
			allowed = append(allowed, coreconfig.UpdateCallback)
		}
	}

	poller := NewPoller(client, store, dispatcher, PollerOptions{
		Interval:               time.Duration(cfg.Telegram.PollIntervalSeconds) * time.Second,
		LongPollTimeoutSeconds: cfg.Telegram.LongPollTimeoutSeconds,
		AllowedUpdates:         allowed,
	})

	if me, err := client.GetMe(ctx); err != nil {
		logger.TG.LogAttrs(ctx, slog.LevelWarn, "bot.identify_failed",
			slog.String("event", "bot.identify_failed"),
			slog.String("err", err.Error()),
		)
	} else {
		logger.TG.LogAttrs(ctx, slog.LevelInfo, "bot.identified",
			slog.String("event", "bot.identified"),
			slog.String("username", me.Username),
		)
	}

	if err := client.SetMyCommands(ctx, reg.ListCommands()); err != nil {
		logger.TWire.LogAttrs(ctx, slog.LevelError, "register.commands.set_failed",
			slog.String("event", "register.commands.set_failed"),
			slog.String("err", err.Error()),
		)
	}

	rt := Runtime{Bot: bot, Registry: reg, Store: store}
	if opts.OnStart != nil {
		if err := opts.OnStart(ctx, rt); err != nil {
			queue.Close()
			return err
		}
	}

	runErr := poller.Run(ctx)

	var stopErr error
	if opts.OnStop != nil {
		stopErr = opts.OnStop(context.WithoutCancel(ctx), rt)
	}

	queue.Close()
	if _, err := store.Flush(); err != nil {
		logger.STATE.LogAttrs(ctx, slog.LevelError, "state.final_flush_failed",
			slog.String("event", "state.final_flush_failed"),
			slog.String("err", err.Error()),
		)
	}

	if stopErr != nil {
		return stopErr
	}
	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		return runErr
	}
	return nil
}
