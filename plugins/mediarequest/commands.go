package mediarequest

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/m3rciful/botkit/core/logger"
	"github.com/m3rciful/botkit/core/telegram/api"
	"github.com/m3rciful/botkit/core/telegram/callbacks"
	"github.com/m3rciful/botkit/core/telegram/commands"
	"github.com/m3rciful/botkit/core/telegram/format"
	"github.com/m3rciful/botkit/core/telegram/session"
)

// RemoveCallbackKey routes remove-confirmation presses to this plugin.
const RemoveCallbackKey = "mrq_rm"

const cancelPayload = "cancel"

// CallbackAnswerer acknowledges inline keyboard presses. The runtime bot
// implements it.
type CallbackAnswerer interface {
	AnswerCallbackQuery(ctx context.Context, id, text string) error
}

// Plugin bundles the movie commands and their confirmation callback.
type Plugin struct {
	client   *Client
	log      *RequestLog
	sessions *session.Manager
}

// New builds the plugin. log may be nil when no database is configured;
// request history is then skipped.
func New(client *Client, log *RequestLog) *Plugin {
	return &Plugin{
		client:   client,
		log:      log,
		sessions: session.NewManager(),
	}
}

// Commands returns the plugin's commands.
func (p *Plugin) Commands() []commands.Command {
	return []commands.Command{
		commands.Func{
			Name:        "/radarr",
			Description: "Add or remove a movie by IMDb id",
			Fn:          p.radarr,
		},
		commands.Func{
			Name:        "/find_movies",
			Description: "Search movies by title",
			Fn:          p.findMovies,
		},
		commands.Func{
			Name:        "/requests",
			Description: "Show recent movie requests",
			Fn:          p.requests,
		},
	}
}

func (p *Plugin) radarr(ctx context.Context, inv *commands.Invocation) error {
	if len(inv.Args) == 0 {
		return inv.Bot.SendMessage(ctx, inv.ChatID(),
			"Usage: /radarr <imdb-id> or /radarr remove <imdb-id>", nil)
	}
	if strings.EqualFold(inv.Args[0], "remove") {
		if len(inv.Args) < 2 {
			return inv.Bot.SendMessage(ctx, inv.ChatID(), "Usage: /radarr remove <imdb-id>", nil)
		}
		return p.confirmRemove(ctx, inv, inv.Args[1])
	}
	return p.add(ctx, inv, inv.Args[0])
}

func (p *Plugin) add(ctx context.Context, inv *commands.Invocation, imdbID string) error {
	movie, err := p.client.LookupIMDB(ctx, imdbID)
	if err != nil {
		return err
	}
	added, err := p.client.Add(ctx, movie)
	if err != nil {
		return err
	}
	p.record(ctx, inv, ActionAdd, added.Title, added.IMDBID)

	text := fmt.Sprintf("Added %s (%d), download search started.", added.Title, added.Year)
	return inv.Bot.SendMessage(ctx, inv.ChatID(), text, nil)
}

// confirmRemove stages the removal behind an inline keyboard so a stray
// message cannot delete files.
func (p *Plugin) confirmRemove(ctx context.Context, inv *commands.Invocation, imdbID string) error {
	movie, err := p.client.FindInLibrary(ctx, imdbID)
	if err != nil {
		return err
	}
	p.sessions.SetTemp(inv.SenderID(), "pending_remove_title", movie.Title)
	p.sessions.SetTemp(inv.SenderID(), "pending_remove_imdb", movie.IMDBID)

	markup := api.Keyboard(
		api.Row(
			api.InlineKeyboardButton{
				Text:         "Yes, remove",
				CallbackData: callbacks.Join(RemoveCallbackKey, fmt.Sprintf("%d", movie.ID)),
			},
			api.InlineKeyboardButton{
				Text:         "Cancel",
				CallbackData: callbacks.Join(RemoveCallbackKey, cancelPayload),
			},
		),
	)
	text := fmt.Sprintf("Remove %s (%d) and delete its files?", movie.Title, movie.Year)
	return inv.Bot.SendMessage(ctx, inv.ChatID(), text, &api.SendOptions{ReplyMarkup: markup})
}

// HandleRemoveConfirm is the callback handler for RemoveCallbackKey.
func (p *Plugin) HandleRemoveConfirm(ctx context.Context, bot commands.Messenger, cb *api.CallbackQuery) error {
	_, payload := callbacks.Split(cb.Data)
	var userID, chatID int64
	if cb.Sender != nil {
		userID = cb.Sender.ID
	}
	if cb.Message != nil {
		chatID = cb.Message.ChatID
	}
	defer func() {
		p.sessions.ClearTemp(userID, "pending_remove_title")
		p.sessions.ClearTemp(userID, "pending_remove_imdb")
	}()

	answer := func(text string) {
		if answerer, ok := bot.(CallbackAnswerer); ok {
			if err := answerer.AnswerCallbackQuery(ctx, cb.ID, text); err != nil {
				logger.PLUG.LogAttrs(ctx, slog.LevelWarn, "mediarequest.answer_failed",
					slog.String("event", "mediarequest.answer_failed"),
					slog.String("err", err.Error()),
				)
			}
		}
	}

	if payload == cancelPayload {
		answer("Cancelled")
		return bot.SendMessage(ctx, chatID, "Removal cancelled.", nil)
	}

	movieID, err := callbacks.PayloadInt64(payload)
	if err != nil {
		answer("Bad request")
		return fmt.Errorf("mediarequest: bad remove payload %q: %w", payload, err)
	}
	if err := p.client.Delete(ctx, movieID); err != nil {
		answer("Removal failed")
		return err
	}

	title, _ := p.sessions.GetTempString(userID, "pending_remove_title")
	imdbID, _ := p.sessions.GetTempString(userID, "pending_remove_imdb")
	if title == "" {
		title = fmt.Sprintf("movie %d", movieID)
	}
	p.recordRaw(ctx, userID, chatID, ActionRemove, title, imdbID)

	answer("Removed")
	return bot.SendMessage(ctx, chatID, fmt.Sprintf("Removed %s.", title), nil)
}

func (p *Plugin) findMovies(ctx context.Context, inv *commands.Invocation) error {
	if len(inv.Args) == 0 {
		return inv.Bot.SendMessage(ctx, inv.ChatID(), "Usage: /find_movies <title>", nil)
	}
	term := strings.Join(inv.Args, " ")

	movies, err := p.client.Search(ctx, term)
	if err != nil {
		return err
	}
	if len(movies) == 0 {
		return inv.Bot.SendMessage(ctx, inv.ChatID(), fmt.Sprintf("No matches for %q.", term), nil)
	}

	sort.SliceStable(movies, func(i, j int) bool { return movies[i].Year > movies[j].Year })
	if len(movies) > 15 {
		movies = movies[:15]
	}

	var b strings.Builder
	for _, m := range movies {
		fmt.Fprintf(&b, "%s (%d)  %s\n", m.Title, m.Year, m.IMDBID)
	}
	return inv.Bot.SendMessage(ctx, inv.ChatID(), format.CodeBlock(strings.TrimRight(b.String(), "\n")),
		&api.SendOptions{ParseMode: api.ModeMarkdownV2})
}

func (p *Plugin) requests(ctx context.Context, inv *commands.Invocation) error {
	if p.log == nil {
		return inv.Bot.SendMessage(ctx, inv.ChatID(), "Request history is not configured.", nil)
	}
	recent, err := p.log.Recent(ctx, 10)
	if err != nil {
		return err
	}
	if len(recent) == 0 {
		return inv.Bot.SendMessage(ctx, inv.ChatID(), "No requests recorded yet.", nil)
	}

	var b strings.Builder
	b.WriteString("Recent requests:\n")
	for _, r := range recent {
		fmt.Fprintf(&b, "%s  %s %s (%s)\n",
			r.CreatedAt.Format("2006-01-02 15:04"), r.Action, r.Title, r.IMDBID)
	}
	return inv.Bot.SendMessage(ctx, inv.ChatID(), b.String(), nil)
}

func (p *Plugin) record(ctx context.Context, inv *commands.Invocation, action, title, imdbID string) {
	p.recordRaw(ctx, inv.SenderID(), inv.ChatID(), action, title, imdbID)
}

// recordRaw writes history without failing the user-facing flow.
func (p *Plugin) recordRaw(ctx context.Context, userID, chatID int64, action, title, imdbID string) {
	if p.log == nil {
		return
	}
	err := p.log.Record(ctx, Request{
		UserID: userID,
		ChatID: chatID,
		Action: action,
		Title:  title,
		IMDBID: imdbID,
	})
	if err != nil {
		logger.PLUG.LogAttrs(ctx, slog.LevelError, "mediarequest.record_failed",
			slog.String("event", "mediarequest.record_failed"),
			slog.String("err", err.Error()),
		)
	}
}
