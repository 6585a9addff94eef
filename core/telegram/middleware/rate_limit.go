package middleware

import (
	"context"
	"log/slog"
	"sync"
	"time"

	coreconfig "github.com/m3rciful/botkit/core/config"
	"github.com/m3rciful/botkit/core/logger"
	"github.com/m3rciful/botkit/core/telegram/commands"
)

// RateLimitOptions configures behaviour of the rate limit middleware.
type RateLimitOptions struct {
	Interval time.Duration
	// Exclude lists update kinds ("message", "callback_query") that bypass
	// limiting entirely.
	Exclude   []string
	OnLimited Invoker
}

// Limiter tracks the last accepted action per user. Message commands and
// callback queries share one limiter so a user cannot dodge the interval by
// alternating between the two.
type Limiter struct {
	interval time.Duration
	exclude  map[string]struct{}

	mu       sync.Mutex
	lastSeen map[int64]time.Time
}

// NewLimiter builds a limiter from options. A zero interval disables it.
func NewLimiter(opts RateLimitOptions) *Limiter {
	exclude := make(map[string]struct{}, len(opts.Exclude))
	for _, kind := range opts.Exclude {
		exclude[kind] = struct{}{}
	}
	return &Limiter{
		interval: opts.Interval,
		exclude:  exclude,
		lastSeen: make(map[int64]time.Time),
	}
}

// Allow reports whether an action of the given update kind from userID may
// proceed, recording the acceptance time when it does. Excluded kinds and
// unidentified users always pass.
func (l *Limiter) Allow(kind string, userID int64) bool {
	if l == nil || l.interval <= 0 || userID == 0 {
		return true
	}
	if _, skip := l.exclude[kind]; skip {
		return true
	}

	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if last, seen := l.lastSeen[userID]; seen && now.Sub(last) < l.interval {
		return false
	}
	l.lastSeen[userID] = now
	return true
}

// RateLimit enforces a minimum interval between commands from the same user.
// Limited invocations are dropped, not failed.
func RateLimit(l *Limiter, onLimited Invoker) Middleware {
	return func(next Invoker) Invoker {
		return func(ctx context.Context, inv *commands.Invocation) error {
			if l.Allow(coreconfig.UpdateMessage, inv.SenderID()) {
				return next(ctx, inv)
			}
			logger.TG.LogAttrs(ctx, slog.LevelWarn, "tg.rate_limit",
				slog.String("event", "tg.rate_limit"),
				slog.Int64("chat_id", inv.ChatID()),
				slog.Int64("user_id", inv.SenderID()),
			)
			if onLimited != nil {
				_ = onLimited(ctx, inv)
			}
			return nil
		}
	}
}
