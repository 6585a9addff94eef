package telegram

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/m3rciful/botkit/core/telegram/api"
	"github.com/m3rciful/botkit/core/telegram/commands"
)

func nopHandler(context.Context, *commands.Invocation) error { return nil }

type adminCmd struct{ commands.Func }

func (adminCmd) AdminOnly() bool { return true }

func TestRegisterCommandValidation(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand(commands.Func{Name: "/a", Description: "first", Fn: nopHandler})
	r.RegisterCommand(commands.Func{Name: "", Description: "no trigger", Fn: nopHandler})
	r.RegisterCommand(commands.Func{Name: "noslash", Description: "bad", Fn: nopHandler})
	r.RegisterCommand(commands.Func{Name: "/a", Description: "duplicate", Fn: nopHandler})
	r.RegisterCommand(commands.Func{Name: "/A", Description: "case duplicate", Fn: nopHandler})
	r.RegisterCommand(commands.Func{Name: "/b", Description: "", Fn: nopHandler})

	if got := len(r.Commands()); got != 1 {
		t.Fatalf("registered %d commands, want 1", got)
	}
	if r.Commands()[0].Trigger() != "/a" {
		t.Fatalf("kept %q", r.Commands()[0].Trigger())
	}
}

func TestListCommandsSortedAndFiltered(t *testing.T) {
	r := NewRegistry()
	r.RegisterCommand(commands.Func{Name: "/zeta", Description: "last", Fn: nopHandler})
	r.RegisterCommand(commands.Func{Name: "/alpha", Description: "first", Fn: nopHandler})
	r.RegisterCommand(adminCmd{commands.Func{Name: "/secret", Description: "hidden", Fn: nopHandler}})

	want := []api.BotCommand{
		{Command: "alpha", Description: "first"},
		{Command: "zeta", Description: "last"},
	}
	if diff := cmp.Diff(want, r.ListCommands()); diff != "" {
		t.Fatalf("ListCommands mismatch (-want +got):\n%s", diff)
	}
}

func TestRegisterCallback(t *testing.T) {
	r := NewRegistry()
	h := func(context.Context, commands.Messenger, *api.CallbackQuery) error { return nil }

	if err := r.RegisterCallback("confirm", h); err != nil {
		t.Fatal(err)
	}
	if err := r.RegisterCallback("confirm", h); err == nil {
		t.Fatal("duplicate registration should fail")
	}
	if err := r.RegisterCallback("", h); err == nil {
		t.Fatal("empty key should fail")
	}
	if _, ok := r.GetCallback("confirm"); !ok {
		t.Fatal("callback not found")
	}
	if !r.HasCallbacks() {
		t.Fatal("HasCallbacks should be true")
	}
}

func TestRegisterBuiltins(t *testing.T) {
	r := NewRegistry()
	r.RegisterBuiltins()

	list := r.ListCommands()
	if len(list) != 2 {
		t.Fatalf("menu has %d entries, want 2", len(list))
	}
	if list[0].Command != "help" || list[1].Command != "start" {
		t.Fatalf("menu = %v", list)
	}
}
