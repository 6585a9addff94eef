// Package commands defines the command contract and the builtin
// /start and /help handlers.
package commands

import (
	"context"
	"strings"

	"github.com/m3rciful/botkit/core/telegram/api"
)

// Messenger is the outbound surface a command needs. The concrete
// implementation queues sends through the async sender.
type Messenger interface {
	SendMessage(ctx context.Context, chatID int64, text string, opts *api.SendOptions) error
	GetMyCommands(ctx context.Context) ([]api.BotCommand, error)
}

// Command is a named handler matched by its slash trigger.
type Command interface {
	// Trigger returns the slash token, e.g. "/help".
	Trigger() string
	// Describe returns a one-line description for the command menu.
	Describe() string
	Execute(ctx context.Context, inv *Invocation) error
}

// AdminOnly marks a command as restricted to the configured admin.
// Commands implement it in addition to Command.
type AdminOnly interface {
	AdminOnly() bool
}

// Invocation carries everything a command sees for one matched message.
type Invocation struct {
	Bot  Messenger
	Msg  *api.Message
	Args []string
}

// NewInvocation splits the message text into arguments. The command token
// itself is dropped; runs of whitespace separate arguments.
func NewInvocation(bot Messenger, msg *api.Message) *Invocation {
	var args []string
	if msg != nil {
		if fields := strings.Fields(msg.Text); len(fields) > 1 {
			args = fields[1:]
		}
	}
	return &Invocation{Bot: bot, Msg: msg, Args: args}
}

// ChatID returns the originating chat, or 0 when absent.
func (inv *Invocation) ChatID() int64 {
	if inv.Msg == nil {
		return 0
	}
	return inv.Msg.ChatID
}

// SenderID returns the sending user's id, or 0 when absent.
func (inv *Invocation) SenderID() int64 {
	if inv.Msg == nil || inv.Msg.Sender == nil {
		return 0
	}
	return inv.Msg.Sender.ID
}

// Matches reports whether text addresses the given trigger. Only the first
// whitespace-separated token counts, a "@botname" suffix is ignored and the
// comparison is case-insensitive, so "/radarr_plus" never matches "/radarr".
func Matches(trigger, text string) bool {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return false
	}
	token := fields[0]
	if at := strings.IndexByte(token, '@'); at >= 0 {
		token = token[:at]
	}
	return strings.EqualFold(token, trigger)
}

// Func adapts a plain function into a Command.
type Func struct {
	Name        string
	Description string
	Fn          func(ctx context.Context, inv *Invocation) error
}

func (f Func) Trigger() string  { return f.Name }
func (f Func) Describe() string { return f.Description }

func (f Func) Execute(ctx context.Context, inv *Invocation) error {
	return f.Fn(ctx, inv)
}
