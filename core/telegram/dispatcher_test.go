package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/m3rciful/botkit/core/telegram/api"
	"github.com/m3rciful/botkit/core/telegram/callbacks"
	"github.com/m3rciful/botkit/core/telegram/commands"
	"github.com/m3rciful/botkit/core/telegram/middleware"
)

type recordingMessenger struct {
	mu   sync.Mutex
	sent []string
	menu []api.BotCommand
}

func (f *recordingMessenger) SendMessage(_ context.Context, _ int64, text string, _ *api.SendOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

func (f *recordingMessenger) GetMyCommands(context.Context) ([]api.BotCommand, error) {
	return f.menu, nil
}

func (f *recordingMessenger) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func commandMessage(text string) *api.Message {
	return &api.Message{
		ID:        1,
		ChatID:    77,
		Sender:    &api.User{ID: 5, FirstName: "Ann"},
		Text:      text,
		IsCommand: true,
	}
}

func TestDispatchMessageRunsMatchingCommand(t *testing.T) {
	reg := NewRegistry()
	var gotArgs []string
	reg.RegisterCommand(commands.Func{Name: "/echo", Description: "echo", Fn: func(_ context.Context, inv *commands.Invocation) error {
		gotArgs = inv.Args
		return inv.Bot.SendMessage(context.Background(), inv.ChatID(), strings.Join(inv.Args, " "), nil)
	}})
	bot := &recordingMessenger{}
	d := NewDispatcher(reg, bot, DispatcherOptions{})

	if err := d.DispatchMessage(context.Background(), commandMessage("/echo hello world")); err != nil {
		t.Fatal(err)
	}
	if len(gotArgs) != 2 || gotArgs[0] != "hello" {
		t.Fatalf("args = %v", gotArgs)
	}
	if sent := bot.Sent(); len(sent) != 1 || sent[0] != "hello world" {
		t.Fatalf("sent = %v", sent)
	}
}

func TestDispatchMessageExactTokenOnly(t *testing.T) {
	reg := NewRegistry()
	var ran bool
	reg.RegisterCommand(commands.Func{Name: "/radarr", Description: "movies", Fn: func(context.Context, *commands.Invocation) error {
		ran = true
		return nil
	}})
	d := NewDispatcher(reg, &recordingMessenger{}, DispatcherOptions{})

	if err := d.DispatchMessage(context.Background(), commandMessage("/radarr_plus some movie")); err != nil {
		t.Fatal(err)
	}
	if ran {
		t.Fatal("/radarr must not match /radarr_plus")
	}
}

func TestDispatchMessageReportsFailureInChat(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand(commands.Func{Name: "/broken", Description: "broken", Fn: func(context.Context, *commands.Invocation) error {
		return errors.New("downstream exploded")
	}})
	bot := &recordingMessenger{}
	d := NewDispatcher(reg, bot, DispatcherOptions{})

	err := d.DispatchMessage(context.Background(), commandMessage("/broken"))
	if err == nil || !strings.Contains(err.Error(), "/broken") {
		t.Fatalf("err = %v", err)
	}
	sent := bot.Sent()
	if len(sent) != 1 {
		t.Fatalf("sent %d diagnostics, want 1", len(sent))
	}
	if !strings.Contains(sent[0], "/broken failed") || !strings.Contains(sent[0], "downstream exploded") {
		t.Fatalf("diagnostic = %q", sent[0])
	}
}

func TestDispatchMessageRecoversPanic(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand(commands.Func{Name: "/panic", Description: "panics", Fn: func(context.Context, *commands.Invocation) error {
		panic("kaboom")
	}})
	bot := &recordingMessenger{}
	d := NewDispatcher(reg, bot, DispatcherOptions{})

	err := d.DispatchMessage(context.Background(), commandMessage("/panic"))
	if err == nil || !strings.Contains(err.Error(), "handler panic") {
		t.Fatalf("err = %v", err)
	}
	if len(bot.Sent()) != 1 {
		t.Fatal("panic should still produce one diagnostic")
	}
}

func TestDispatchMessageTimeout(t *testing.T) {
	reg := NewRegistry()
	reg.RegisterCommand(commands.Func{Name: "/slow", Description: "slow", Fn: func(ctx context.Context, _ *commands.Invocation) error {
		select {
		case <-time.After(5 * time.Second):
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}})
	d := NewDispatcher(reg, &recordingMessenger{}, DispatcherOptions{CommandTimeout: 20 * time.Millisecond})

	err := d.DispatchMessage(context.Background(), commandMessage("/slow"))
	if err == nil || !strings.Contains(err.Error(), "timed out") {
		t.Fatalf("err = %v", err)
	}
}

func TestDispatchMessageHooksIsolateFailures(t *testing.T) {
	reg := NewRegistry()
	var ran []string
	reg.RegisterMessageHook(func(context.Context, commands.Messenger, *api.Message) error {
		ran = append(ran, "first")
		return errors.New("first hook failed")
	})
	reg.RegisterMessageHook(func(context.Context, commands.Messenger, *api.Message) error {
		ran = append(ran, "second")
		return nil
	})
	d := NewDispatcher(reg, &recordingMessenger{}, DispatcherOptions{})

	msg := &api.Message{ID: 2, ChatID: 77, Text: "plain text"}
	err := d.DispatchMessage(context.Background(), msg)
	if err == nil {
		t.Fatal("expected joined hook error")
	}
	if len(ran) != 2 {
		t.Fatalf("ran = %v, want both hooks", ran)
	}
}

func TestDispatchLoopHooksContinueOnFailure(t *testing.T) {
	reg := NewRegistry()
	var ran []string
	reg.RegisterLoopHook("failing", func(context.Context, commands.Messenger) error {
		ran = append(ran, "failing")
		return errors.New("boom")
	})
	reg.RegisterLoopHook("healthy", func(context.Context, commands.Messenger) error {
		ran = append(ran, "healthy")
		return nil
	})
	d := NewDispatcher(reg, &recordingMessenger{}, DispatcherOptions{})

	d.DispatchLoopHooks(context.Background())
	if len(ran) != 2 {
		t.Fatalf("ran = %v, want both hooks", ran)
	}
}

func TestDispatchCallbackRoutesByKey(t *testing.T) {
	reg := NewRegistry()
	var gotPayload string
	reg.RegisterCallback("confirm", func(_ context.Context, _ commands.Messenger, cb *api.CallbackQuery) error {
		_, gotPayload = callbacks.Split(cb.Data)
		return nil
	})
	d := NewDispatcher(reg, &recordingMessenger{}, DispatcherOptions{})

	cb := &api.CallbackQuery{ID: "1", Data: "confirm|42", Sender: &api.User{ID: 5}}
	if err := d.DispatchCallback(context.Background(), cb); err != nil {
		t.Fatal(err)
	}
	if gotPayload != "42" {
		t.Fatalf("payload = %q", gotPayload)
	}

	// Unknown keys are dropped without error.
	if err := d.DispatchCallback(context.Background(), &api.CallbackQuery{ID: "2", Data: "nope|1"}); err != nil {
		t.Fatal(err)
	}
}

func TestDispatchCallbackRateLimited(t *testing.T) {
	reg := NewRegistry()
	var handled int
	reg.RegisterCallback("confirm", func(context.Context, commands.Messenger, *api.CallbackQuery) error {
		handled++
		return nil
	})
	d := NewDispatcher(reg, &recordingMessenger{}, DispatcherOptions{
		RateLimit: middleware.RateLimitOptions{Interval: time.Hour},
	})

	ctx := context.Background()
	cb := &api.CallbackQuery{ID: "1", Data: "confirm|42", Sender: &api.User{ID: 5}}
	if err := d.DispatchCallback(ctx, cb); err != nil {
		t.Fatal(err)
	}
	if err := d.DispatchCallback(ctx, cb); err != nil {
		t.Fatal(err)
	}
	if handled != 1 {
		t.Fatalf("handled = %d, want 1", handled)
	}
}

func TestDispatchCallbackExcludedFromRateLimit(t *testing.T) {
	reg := NewRegistry()
	var handled int
	reg.RegisterCallback("confirm", func(context.Context, commands.Messenger, *api.CallbackQuery) error {
		handled++
		return nil
	})
	d := NewDispatcher(reg, &recordingMessenger{}, DispatcherOptions{
		RateLimit: middleware.RateLimitOptions{Interval: time.Hour, Exclude: []string{"callback_query"}},
	})

	ctx := context.Background()
	cb := &api.CallbackQuery{ID: "1", Data: "confirm|42", Sender: &api.User{ID: 5}}
	for i := 0; i < 3; i++ {
		if err := d.DispatchCallback(ctx, cb); err != nil {
			t.Fatal(err)
		}
	}
	if handled != 3 {
		t.Fatalf("handled = %d, want 3", handled)
	}
}

func TestDispatchAdminOnlyCommand(t *testing.T) {
	reg := NewRegistry()
	var ran bool
	reg.RegisterCommand(adminCmd{commands.Func{Name: "/secret", Description: "secret", Fn: func(context.Context, *commands.Invocation) error {
		ran = true
		return nil
	}}})
	d := NewDispatcher(reg, &recordingMessenger{}, DispatcherOptions{
		Admin: middleware.AdminOptions{AdminID: 999},
	})

	if err := d.DispatchMessage(context.Background(), commandMessage("/secret")); err != nil {
		t.Fatal(err)
	}
	if ran {
		t.Fatal("non-admin should be rejected")
	}

	msg := commandMessage("/secret")
	msg.Sender.ID = 999
	if err := d.DispatchMessage(context.Background(), msg); err != nil {
		t.Fatal(err)
	}
	if !ran {
		t.Fatal("admin should pass")
	}
}
