package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	coreconfig "github.com/m3rciful/botkit/core/config"
	"github.com/m3rciful/botkit/core/logger"
	"github.com/m3rciful/botkit/core/telegram/api"
	"github.com/m3rciful/botkit/core/telegram/callbacks"
	"github.com/m3rciful/botkit/core/telegram/commands"
	"github.com/m3rciful/botkit/core/telegram/middleware"
	"github.com/m3rciful/botkit/core/telegram/netutil"
)

// DispatcherOptions configures command dispatch.
type DispatcherOptions struct {
	// CommandTimeout bounds each command execution. Zero disables the bound.
	CommandTimeout time.Duration
	// Admin controls admin-only command gating.
	Admin middleware.AdminOptions
	// RateLimit throttles per-user command bursts when Interval > 0.
	RateLimit middleware.RateLimitOptions
}

// Dispatcher routes parsed updates to registered commands, hooks and
// callback handlers.
type Dispatcher struct {
	reg  *Registry
	bot  commands.Messenger
	opts DispatcherOptions

	// limiter is built once so its per-user bookkeeping persists across
	// invocations. Commands consume it through the rateLimit middleware,
	// callbacks directly.
	limiter   *middleware.Limiter
	rateLimit middleware.Middleware
}

// NewDispatcher wires a dispatcher over a registry and outbound messenger.
func NewDispatcher(reg *Registry, bot commands.Messenger, opts DispatcherOptions) *Dispatcher {
	limiter := middleware.NewLimiter(opts.RateLimit)
	return &Dispatcher{
		reg:       reg,
		bot:       bot,
		opts:      opts,
		limiter:   limiter,
		rateLimit: middleware.RateLimit(limiter, opts.RateLimit.OnLimited),
	}
}

// DispatchMessage routes one message. Command messages run every matching
// command; each matched command runs in its own goroutine and the call
// returns once all of them finish. Non-command messages go to message hooks.
func (d *Dispatcher) DispatchMessage(ctx context.Context, msg *api.Message) error {
	if msg == nil {
		return nil
	}
	if msg.IsCommand {
		return d.dispatchCommand(ctx, msg)
	}
	return d.dispatchHooks(ctx, msg)
}

func (d *Dispatcher) dispatchCommand(ctx context.Context, msg *api.Message) error {
	var matched []commands.Command
	for _, cmd := range d.reg.Commands() {
		if commands.Matches(cmd.Trigger(), msg.Text) {
			matched = append(matched, cmd)
		}
	}
	if len(matched) == 0 {
		logger.TG.LogAttrs(ctx, slog.LevelDebug, "dispatch.no_match",
			slog.String("event", "dispatch.no_match"),
			slog.String("text", logger.SanitizeLimit(msg.Text, 64)),
		)
		return nil
	}

	errs := make([]error, len(matched))
	var wg sync.WaitGroup
	for i, cmd := range matched {
		wg.Add(1)
		go func(i int, cmd commands.Command) {
			defer wg.Done()
			errs[i] = d.runCommand(ctx, cmd, msg)
		}(i, cmd)
	}
	wg.Wait()
	return errors.Join(errs...)
}

// runCommand executes one command through the middleware chain. A failure is
// reported back into the originating chat and returned to the caller.
func (d *Dispatcher) runCommand(ctx context.Context, cmd commands.Command, msg *api.Message) error {
	trigger := cmd.Trigger()
	ctx = logger.WithHandler(ctx, strings.TrimPrefix(trigger, "/"))

	exec := func(ctx context.Context, inv *commands.Invocation) error {
		return cmd.Execute(ctx, inv)
	}
	gated := middleware.AdminGate(d.opts.Admin, cmd,
		middleware.Chain(exec,
			middleware.Timeout(d.opts.CommandTimeout),
			middleware.Recover(),
		),
	)
	invoke := middleware.Chain(gated,
		d.rateLimit,
		middleware.Logging(),
	)

	inv := commands.NewInvocation(d.bot, msg)
	err := invoke(ctx, inv)
	if err == nil {
		return nil
	}

	diag := fmt.Sprintf("%s failed (%s): %s",
		trigger, netutil.Kind(err), logger.SanitizeLimit(err.Error(), 256))
	if sendErr := d.bot.SendMessage(ctx, msg.ChatID, diag, nil); sendErr != nil {
		logger.TG.LogAttrs(ctx, slog.LevelError, "dispatch.report_failed",
			slog.String("event", "dispatch.report_failed"),
			slog.String("trigger", trigger),
			slog.String("err", sendErr.Error()),
		)
	}
	return fmt.Errorf("%s: %w", trigger, err)
}

func (d *Dispatcher) dispatchHooks(ctx context.Context, msg *api.Message) error {
	var errs []error
	for _, hook := range d.reg.MessageHooks() {
		if err := hook(ctx, d.bot, msg); err != nil {
			logger.TG.LogAttrs(ctx, slog.LevelError, "dispatch.message_hook_failed",
				slog.String("event", "dispatch.message_hook_failed"),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// DispatchLoopHooks runs every loop hook once. A failing hook is logged and
// the rest still run.
func (d *Dispatcher) DispatchLoopHooks(ctx context.Context) {
	for _, hook := range d.reg.LoopHooks() {
		if err := hook.Fn(ctx, d.bot); err != nil {
			logger.POLL.LogAttrs(ctx, slog.LevelError, "loop_hook.failed",
				slog.String("event", "loop_hook.failed"),
				slog.String("handler", hook.Name),
				slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			)
		}
	}
}

// DispatchCallback routes a callback query by the key segment of its data.
func (d *Dispatcher) DispatchCallback(ctx context.Context, cb *api.CallbackQuery) error {
	if cb == nil {
		return nil
	}
	key, _ := callbacks.Split(cb.Data)
	ctx = logger.WithHandler(ctx, "cb:"+key)

	handler, ok := d.reg.GetCallback(key)
	if !ok {
		logger.TG.LogAttrs(ctx, slog.LevelWarn, "dispatch.callback_unknown",
			slog.String("event", "dispatch.callback_unknown"),
			slog.String("cb_key", key),
		)
		return nil
	}

	var userID int64
	if cb.Sender != nil {
		userID = cb.Sender.ID
	}
	if !d.limiter.Allow(coreconfig.UpdateCallback, userID) {
		logger.TG.LogAttrs(ctx, slog.LevelWarn, "tg.rate_limit",
			slog.String("event", "tg.rate_limit"),
			slog.String("cb_key", key),
			slog.Int64("user_id", userID),
		)
		return nil
	}

	start := time.Now()
	err := handler(ctx, d.bot, cb)
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "callback.handled",
		slog.String("status", logger.Status(err)),
		slog.String("cb_key", key),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	)
	return err
}
