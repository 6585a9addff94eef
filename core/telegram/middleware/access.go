package middleware

import (
	"context"
	"log/slog"

	"github.com/m3rciful/botkit/core/logger"
	"github.com/m3rciful/botkit/core/telegram/commands"
)

// AdminOptions defines how admin-only checks behave.
type AdminOptions struct {
	AdminID  int64
	OnReject Invoker
}

// AdminGate wraps a command invoker with an admin check when the command
// declares itself admin-only. With no admin configured the gate is inert.
func AdminGate(opts AdminOptions, cmd commands.Command, inner Invoker) Invoker {
	restricted, ok := cmd.(commands.AdminOnly)
	if !ok || !restricted.AdminOnly() || opts.AdminID == 0 {
		return inner
	}
	return func(ctx context.Context, inv *commands.Invocation) error {
		if inv.SenderID() != opts.AdminID {
			logger.TG.LogAttrs(ctx, slog.LevelWarn, "tg.access_denied",
				slog.String("event", "tg.access_denied"),
				slog.String("trigger", cmd.Trigger()),
				slog.Int64("user_id", inv.SenderID()),
			)
			if opts.OnReject != nil {
				return opts.OnReject(ctx, inv)
			}
			return nil
		}
		return inner(ctx, inv)
	}
}
