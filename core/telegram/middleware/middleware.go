// Package middleware wraps command invocation with cross-cutting behaviour:
// panic recovery, structured summaries, rate limiting, admin access checks
// and per-command timeouts.
package middleware

import (
	"context"

	"github.com/m3rciful/botkit/core/telegram/commands"
)

// Invoker executes one matched command invocation.
type Invoker func(ctx context.Context, inv *commands.Invocation) error

// Middleware decorates an Invoker.
type Middleware func(Invoker) Invoker

// Chain applies middlewares so the first listed runs outermost.
func Chain(inner Invoker, mws ...Middleware) Invoker {
	for i := len(mws) - 1; i >= 0; i-- {
		inner = mws[i](inner)
	}
	return inner
}
