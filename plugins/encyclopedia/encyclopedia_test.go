package encyclopedia

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m3rciful/botkit/core/telegram/api"
	"github.com/m3rciful/botkit/core/telegram/commands"
)

type fakeMessenger struct {
	sent []string
	opts []*api.SendOptions
}

func (f *fakeMessenger) SendMessage(_ context.Context, _ int64, text string, opts *api.SendOptions) error {
	f.sent = append(f.sent, text)
	f.opts = append(f.opts, opts)
	return nil
}

func (f *fakeMessenger) GetMyCommands(context.Context) ([]api.BotCommand, error) { return nil, nil }

func newWikiServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("search"); got != "go language" {
			t.Errorf("search term = %q", got)
		}
		io.WriteString(w, `["go language", ["Go (programming language)"], [""], ["https://en.wikipedia.org/wiki/Go_(programming_language)"]]`)
	})
	mux.HandleFunc("/api/rest_v1/page/summary/", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{
			"title": "Go (programming language)",
			"extract": "Go is a statically typed language & runtime.",
			"content_urls": {"desktop": {"page": "https://en.wikipedia.org/wiki/Go_(programming_language)"}}
		}`)
	})
	return httptest.NewServer(mux)
}

func TestWikipediaLookup(t *testing.T) {
	srv := newWikiServer(t)
	defer srv.Close()

	cmd := Command(Options{BaseURL: srv.URL, HTTPClient: srv.Client()})
	bot := &fakeMessenger{}
	msg := &api.Message{ChatID: 1, Text: "/wikipedia go language", IsCommand: true}

	if err := cmd.Execute(context.Background(), commands.NewInvocation(bot, msg)); err != nil {
		t.Fatal(err)
	}
	if len(bot.sent) != 1 {
		t.Fatalf("sent = %v", bot.sent)
	}
	out := bot.sent[0]
	if !strings.Contains(out, "<b>Go (programming language)</b>") {
		t.Errorf("missing bold title: %q", out)
	}
	if !strings.Contains(out, "statically typed language &amp; runtime") {
		t.Errorf("summary should be HTML-escaped: %q", out)
	}
	if bot.opts[0] == nil || bot.opts[0].ParseMode != api.ModeHTML {
		t.Errorf("parse mode = %+v", bot.opts[0])
	}
}

func TestWikipediaUsageWithoutArgs(t *testing.T) {
	cmd := Command(Options{})
	bot := &fakeMessenger{}
	msg := &api.Message{ChatID: 1, Text: "/wikipedia", IsCommand: true}

	if err := cmd.Execute(context.Background(), commands.NewInvocation(bot, msg)); err != nil {
		t.Fatal(err)
	}
	if len(bot.sent) != 1 || !strings.Contains(bot.sent[0], "Usage") {
		t.Fatalf("sent = %v", bot.sent)
	}
}
