package mediarequest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/m3rciful/botkit/core/telegram/api"
	"github.com/m3rciful/botkit/core/telegram/commands"
)

type fakeMessenger struct {
	sent     []string
	opts     []*api.SendOptions
	answered []string
}

func (f *fakeMessenger) SendMessage(_ context.Context, _ int64, text string, opts *api.SendOptions) error {
	f.sent = append(f.sent, text)
	f.opts = append(f.opts, opts)
	return nil
}

func (f *fakeMessenger) GetMyCommands(context.Context) ([]api.BotCommand, error) { return nil, nil }

func (f *fakeMessenger) AnswerCallbackQuery(_ context.Context, _ string, text string) error {
	f.answered = append(f.answered, text)
	return nil
}

type managerServer struct {
	*httptest.Server
	deleted []string
}

func newManagerServer(t *testing.T) *managerServer {
	t.Helper()
	ms := &managerServer{}
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v3/movie/lookup/imdb", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("X-Api-Key") != "k3y" {
			t.Errorf("missing api key header")
		}
		if r.URL.Query().Get("imdbId") != "tt0133093" {
			w.WriteHeader(http.StatusNotFound)
			io.WriteString(w, `{}`)
			return
		}
		io.WriteString(w, `{"title": "The Matrix", "year": 1999, "imdbId": "tt0133093"}`)
	})
	mux.HandleFunc("/api/v3/movie/lookup", func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `[
			{"id": 1, "title": "Old Film", "year": 1970, "imdbId": "tt0000001"},
			{"id": 2, "title": "New Film", "year": 2024, "imdbId": "tt0000002"},
			{"id": 3, "title": "Mid Film", "year": 2001, "imdbId": "tt0000003"}
		]`)
	})
	mux.HandleFunc("/api/v3/movie", func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodPost:
			var req map[string]any
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("decode add request: %v", err)
			}
			if req["monitored"] != true {
				t.Errorf("added movie should be monitored")
			}
			io.WriteString(w, `{"id": 11, "title": "The Matrix", "year": 1999, "imdbId": "tt0133093"}`)
		case http.MethodGet:
			io.WriteString(w, `[{"id": 11, "title": "The Matrix", "year": 1999, "imdbId": "tt0133093"}]`)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	})
	mux.HandleFunc("/api/v3/movie/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		ms.deleted = append(ms.deleted, r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	ms.Server = httptest.NewServer(mux)
	return ms
}

func newPlugin(t *testing.T, srv *managerServer) *Plugin {
	t.Helper()
	client := NewClient(ClientOptions{
		BaseURL:    srv.URL,
		APIKey:     "k3y",
		HTTPClient: srv.Client(),
	})
	return New(client, nil)
}

func invocation(bot commands.Messenger, text string) *commands.Invocation {
	msg := &api.Message{
		ID:        1,
		ChatID:    50,
		Sender:    &api.User{ID: 8, FirstName: "Ann"},
		Text:      text,
		IsCommand: true,
	}
	return commands.NewInvocation(bot, msg)
}

func commandByName(t *testing.T, p *Plugin, name string) commands.Command {
	t.Helper()
	for _, c := range p.Commands() {
		if c.Trigger() == name {
			return c
		}
	}
	t.Fatalf("command %s not found", name)
	return nil
}

func TestRadarrAdd(t *testing.T) {
	srv := newManagerServer(t)
	defer srv.Close()
	p := newPlugin(t, srv)
	bot := &fakeMessenger{}

	cmd := commandByName(t, p, "/radarr")
	if err := cmd.Execute(context.Background(), invocation(bot, "/radarr tt0133093")); err != nil {
		t.Fatal(err)
	}
	if len(bot.sent) != 1 || !strings.Contains(bot.sent[0], "Added The Matrix (1999)") {
		t.Fatalf("sent = %v", bot.sent)
	}
}

func TestRadarrAddUnknownMovie(t *testing.T) {
	srv := newManagerServer(t)
	defer srv.Close()
	p := newPlugin(t, srv)
	bot := &fakeMessenger{}

	cmd := commandByName(t, p, "/radarr")
	err := cmd.Execute(context.Background(), invocation(bot, "/radarr tt9999999"))
	if err == nil {
		t.Fatal("expected lookup failure")
	}
	if len(bot.sent) != 0 {
		t.Fatalf("nothing should be sent, got %v", bot.sent)
	}
}

func TestRadarrRemoveAsksForConfirmation(t *testing.T) {
	srv := newManagerServer(t)
	defer srv.Close()
	p := newPlugin(t, srv)
	bot := &fakeMessenger{}

	cmd := commandByName(t, p, "/radarr")
	if err := cmd.Execute(context.Background(), invocation(bot, "/radarr remove tt0133093")); err != nil {
		t.Fatal(err)
	}
	if len(bot.sent) != 1 || !strings.Contains(bot.sent[0], "Remove The Matrix") {
		t.Fatalf("sent = %v", bot.sent)
	}
	markup := bot.opts[0].ReplyMarkup
	if markup == nil || len(markup.InlineKeyboard) != 1 || len(markup.InlineKeyboard[0]) != 2 {
		t.Fatalf("markup = %+v", markup)
	}
	if markup.InlineKeyboard[0][0].CallbackData != "mrq_rm|11" {
		t.Fatalf("confirm data = %q", markup.InlineKeyboard[0][0].CallbackData)
	}
	if markup.InlineKeyboard[0][1].CallbackData != "mrq_rm|cancel" {
		t.Fatalf("cancel data = %q", markup.InlineKeyboard[0][1].CallbackData)
	}
	if len(srv.deleted) != 0 {
		t.Fatal("nothing should be deleted before confirmation")
	}
}

func TestRemoveConfirmCallbackDeletes(t *testing.T) {
	srv := newManagerServer(t)
	defer srv.Close()
	p := newPlugin(t, srv)
	bot := &fakeMessenger{}

	// Stage the confirmation so session data exists.
	cmd := commandByName(t, p, "/radarr")
	if err := cmd.Execute(context.Background(), invocation(bot, "/radarr remove tt0133093")); err != nil {
		t.Fatal(err)
	}

	cb := &api.CallbackQuery{
		ID:      "cbq-7",
		Sender:  &api.User{ID: 8},
		Message: &api.Message{ID: 2, ChatID: 50},
		Data:    "mrq_rm|11",
	}
	if err := p.HandleRemoveConfirm(context.Background(), bot, cb); err != nil {
		t.Fatal(err)
	}
	if len(srv.deleted) != 1 || !strings.Contains(srv.deleted[0], "/api/v3/movie/11") {
		t.Fatalf("deleted = %v", srv.deleted)
	}
	last := bot.sent[len(bot.sent)-1]
	if !strings.Contains(last, "Removed The Matrix") {
		t.Fatalf("confirmation message = %q", last)
	}
	if len(bot.answered) != 1 || bot.answered[0] != "Removed" {
		t.Fatalf("answered = %v", bot.answered)
	}
}

func TestRemoveCancelCallback(t *testing.T) {
	srv := newManagerServer(t)
	defer srv.Close()
	p := newPlugin(t, srv)
	bot := &fakeMessenger{}

	cb := &api.CallbackQuery{
		ID:      "cbq-8",
		Sender:  &api.User{ID: 8},
		Message: &api.Message{ID: 2, ChatID: 50},
		Data:    "mrq_rm|cancel",
	}
	if err := p.HandleRemoveConfirm(context.Background(), bot, cb); err != nil {
		t.Fatal(err)
	}
	if len(srv.deleted) != 0 {
		t.Fatal("cancel must not delete")
	}
	if len(bot.sent) != 1 || !strings.Contains(bot.sent[0], "cancelled") {
		t.Fatalf("sent = %v", bot.sent)
	}
}

func TestFindMoviesNewestFirstInCodeBlock(t *testing.T) {
	srv := newManagerServer(t)
	defer srv.Close()
	p := newPlugin(t, srv)
	bot := &fakeMessenger{}

	cmd := commandByName(t, p, "/find_movies")
	if err := cmd.Execute(context.Background(), invocation(bot, "/find_movies film")); err != nil {
		t.Fatal(err)
	}
	if len(bot.sent) != 1 {
		t.Fatalf("sent = %v", bot.sent)
	}
	out := bot.sent[0]
	if !strings.HasPrefix(out, "```") {
		t.Fatalf("expected code block, got %q", out)
	}
	newIdx := strings.Index(out, "New Film")
	midIdx := strings.Index(out, "Mid Film")
	oldIdx := strings.Index(out, "Old Film")
	if !(newIdx < midIdx && midIdx < oldIdx) {
		t.Fatalf("not newest first:\n%s", out)
	}
	if bot.opts[0] == nil || bot.opts[0].ParseMode != api.ModeMarkdownV2 {
		t.Fatalf("parse mode = %+v", bot.opts[0])
	}
}

func TestRequestsWithoutDatabase(t *testing.T) {
	srv := newManagerServer(t)
	defer srv.Close()
	p := newPlugin(t, srv)
	bot := &fakeMessenger{}

	cmd := commandByName(t, p, "/requests")
	if err := cmd.Execute(context.Background(), invocation(bot, "/requests")); err != nil {
		t.Fatal(err)
	}
	if len(bot.sent) != 1 || !strings.Contains(bot.sent[0], "not configured") {
		t.Fatalf("sent = %v", bot.sent)
	}
}
