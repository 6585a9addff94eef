package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/m3rciful/botkit/core/logger"
	"github.com/m3rciful/botkit/core/telegram/commands"
)

// Recover converts handler panics into errors so one command cannot take
// down the polling loop.
func Recover() Middleware {
	return func(next Invoker) Invoker {
		return func(ctx context.Context, inv *commands.Invocation) (err error) {
			defer func() {
				if r := recover(); r != nil {
					logger.TG.LogAttrs(ctx, slog.LevelError, "tg.panic",
						slog.String("event", "tg.panic"),
						slog.Any("err", r),
						slog.String("stack", string(debug.Stack())),
					)
					err = fmt.Errorf("handler panic: %v", r)
				}
			}()
			return next(ctx, inv)
		}
	}
}
