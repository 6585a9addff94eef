package middleware

import (
	"context"
	"log/slog"
	"reflect"
	"strings"
	"time"

	"github.com/m3rciful/botkit/core/logger"
	"github.com/m3rciful/botkit/core/telegram/commands"
)

// Logging emits one summary line per handled invocation.
func Logging() Middleware {
	return func(next Invoker) Invoker {
		return func(ctx context.Context, inv *commands.Invocation) error {
			start := time.Now()
			err := next(ctx, inv)
			logHandlerSummary(ctx, start, err)
			return err
		}
	}
}

func logHandlerSummary(ctx context.Context, start time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "fail"
	}
	attrs := []slog.Attr{
		slog.String("status", status),
		slog.String("outcome", status),
		slog.Int64("duration_ms", logger.RoundMS(time.Since(start)).Milliseconds()),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
			slog.String("err_code", deriveErrorCode(err)),
		)
	}
	logger.LogEvent(ctx, logger.Component("tg"), slog.LevelInfo, "handler.handled", attrs...)
}

func deriveErrorCode(err error) string {
	if err == nil {
		return ""
	}
	type coder interface{ Code() string }
	if c, ok := err.(coder); ok {
		if code := strings.TrimSpace(c.Code()); code != "" {
			return strings.ToUpper(strings.ReplaceAll(code, " ", "_"))
		}
	}
	t := reflect.TypeOf(err)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t != nil && t.Name() != "" {
		return strings.ToUpper(strings.ReplaceAll(t.Name(), " ", "_"))
	}
	return "UNKNOWN_ERROR"
}
