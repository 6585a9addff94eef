package commands

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/botkit/core/logger"
	"github.com/m3rciful/botkit/core/telegram/api"
)

// Lister exposes the locally registered command menu.
type Lister interface {
	ListCommands() []api.BotCommand
}

// Help lists every known command: the menu published upstream merged with
// local registrations. Local descriptions win on conflict.
type Help struct {
	local Lister
}

func NewHelp(local Lister) *Help { return &Help{local: local} }

func (h *Help) Trigger() string  { return "/help" }
func (h *Help) Describe() string { return "List available commands" }

func (h *Help) Execute(ctx context.Context, inv *Invocation) error {
	merged := make(map[string]string)
	remote, err := inv.Bot.GetMyCommands(ctx)
	if err != nil {
		// The local menu is still useful, so degrade instead of failing.
		logger.TG.LogAttrs(ctx, slog.LevelWarn, "help.remote_menu_failed",
			slog.String("err", err.Error()),
		)
	}
	for _, c := range remote {
		merged[normalizeTrigger(c.Command)] = c.Description
	}
	if h.local != nil {
		for _, c := range h.local.ListCommands() {
			merged[normalizeTrigger(c.Command)] = c.Description
		}
	}

	triggers := make([]string, 0, len(merged))
	for t := range merged {
		triggers = append(triggers, t)
	}
	sort.Strings(triggers)

	var b strings.Builder
	b.WriteString("Available commands:\n")
	for _, t := range triggers {
		b.WriteString(t)
		if d := merged[t]; d != "" {
			b.WriteString(" ")
			b.WriteString(d)
		}
		b.WriteString("\n")
	}
	return inv.Bot.SendMessage(ctx, inv.ChatID(), b.String(), nil)
}

func normalizeTrigger(cmd string) string {
	if !strings.HasPrefix(cmd, "/") {
		return "/" + cmd
	}
	return cmd
}
