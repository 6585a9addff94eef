package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/m3rciful/botkit/core/logger"
	"github.com/m3rciful/botkit/core/telegram/api"
	"github.com/m3rciful/botkit/core/telegram/commands"
)

// MessageHook observes every non-command message.
type MessageHook func(ctx context.Context, bot commands.Messenger, msg *api.Message) error

// LoopHook runs once per polling tick, before updates are fetched.
type LoopHook struct {
	Name string
	Fn   func(ctx context.Context, bot commands.Messenger) error
}

// CallbackHandler handles an inline keyboard callback routed by its key.
type CallbackHandler func(ctx context.Context, bot commands.Messenger, cb *api.CallbackQuery) error

// Registry holds commands, hooks and callback handlers in registration order.
type Registry struct {
	cmds     []commands.Command
	triggers map[string]struct{}

	msgHooks  []MessageHook
	loopHooks []LoopHook

	callbacks   map[string]CallbackHandler
	callbacksMu sync.RWMutex
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		triggers:  make(map[string]struct{}),
		callbacks: make(map[string]CallbackHandler),
	}
}

// RegisterCommand adds a command. Invalid and duplicate registrations are
// skipped with a warning rather than failing startup.
func (r *Registry) RegisterCommand(cmd commands.Command) {
	if r == nil || cmd == nil {
		return
	}
	trigger := cmd.Trigger()
	if trigger == "" || cmd.Describe() == "" {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", trigger),
			slog.String("reason", "invalid"),
		)
		return
	}
	if !strings.HasPrefix(trigger, "/") {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.skip",
			slog.String("name", trigger),
			slog.String("reason", "no_slash_prefix"),
		)
		return
	}
	key := strings.ToLower(trigger)
	if _, exists := r.triggers[key]; exists {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.command.duplicate",
			slog.String("name", trigger),
		)
		return
	}
	r.triggers[key] = struct{}{}
	r.cmds = append(r.cmds, cmd)
}

// Commands returns registered commands in registration order.
func (r *Registry) Commands() []commands.Command {
	return r.cmds
}

// ListCommands returns the visible command menu, sorted by trigger.
// Admin-only commands are excluded.
func (r *Registry) ListCommands() []api.BotCommand {
	var list []api.BotCommand
	for _, cmd := range r.cmds {
		if restricted, ok := cmd.(commands.AdminOnly); ok && restricted.AdminOnly() {
			continue
		}
		list = append(list, api.BotCommand{
			Command:     strings.TrimPrefix(cmd.Trigger(), "/"),
			Description: cmd.Describe(),
		})
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Command < list[j].Command })
	return list
}

// RegisterMessageHook adds a hook invoked for every non-command message.
func (r *Registry) RegisterMessageHook(h MessageHook) {
	if h == nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.message_hook.skip",
			slog.String("reason", "nil"),
		)
		return
	}
	r.msgHooks = append(r.msgHooks, h)
}

// MessageHooks returns message hooks in registration order.
func (r *Registry) MessageHooks() []MessageHook {
	return r.msgHooks
}

// RegisterLoopHook adds a hook run once per polling tick.
func (r *Registry) RegisterLoopHook(name string, fn func(ctx context.Context, bot commands.Messenger) error) {
	if name == "" || fn == nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.loop_hook.skip",
			slog.String("name", name),
			slog.String("reason", "invalid"),
		)
		return
	}
	r.loopHooks = append(r.loopHooks, LoopHook{Name: name, Fn: fn})
}

// LoopHooks returns loop hooks in registration order.
func (r *Registry) LoopHooks() []LoopHook {
	return r.loopHooks
}

// RegisterCallback adds a callback handler mapped to its key.
func (r *Registry) RegisterCallback(key string, handler CallbackHandler) error {
	if r == nil || key == "" || handler == nil {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.callback.skip",
			slog.String("key", key),
			slog.Bool("handler_nil", handler == nil),
		)
		return errors.New("invalid callback registration")
	}
	r.callbacksMu.Lock()
	defer r.callbacksMu.Unlock()
	if _, exists := r.callbacks[key]; exists {
		logger.TWire.LogAttrs(context.Background(), slog.LevelWarn, "register.callback.duplicate",
			slog.String("key", key),
		)
		return fmt.Errorf("callback already registered: %s", key)
	}
	r.callbacks[key] = handler
	return nil
}

// GetCallback safely returns the handler for a key.
func (r *Registry) GetCallback(key string) (CallbackHandler, bool) {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	h, ok := r.callbacks[key]
	return h, ok
}

// ListCallbacks returns sorted callback keys for diagnostics.
func (r *Registry) ListCallbacks() []string {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	names := make([]string, 0, len(r.callbacks))
	for k := range r.callbacks {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// HasCallbacks reports whether any callback handler is registered. The
// polling loop uses it to decide whether callback updates are requested.
func (r *Registry) HasCallbacks() bool {
	r.callbacksMu.RLock()
	defer r.callbacksMu.RUnlock()
	return len(r.callbacks) > 0
}

// RegisterBuiltins wires /help and /start backed by the registry itself.
func (r *Registry) RegisterBuiltins() {
	help := commands.NewHelp(r)
	r.RegisterCommand(help)
	r.RegisterCommand(commands.NewStart(help))
}
