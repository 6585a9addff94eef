package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/m3rciful/botkit/core/telegram/commands"
)

// Timeout bounds each invocation. The handler keeps its goroutine when it
// overruns; the buffered channel lets it finish and be collected.
func Timeout(limit time.Duration) Middleware {
	return func(next Invoker) Invoker {
		if limit <= 0 {
			return next
		}
		return func(ctx context.Context, inv *commands.Invocation) error {
			ctx, cancel := context.WithTimeout(ctx, limit)
			defer cancel()

			done := make(chan error, 1)
			go func() {
				done <- next(ctx, inv)
			}()
			select {
			case err := <-done:
				return err
			case <-ctx.Done():
				return fmt.Errorf("command timed out after %s: %w", limit, ctx.Err())
			}
		}
	}
}
