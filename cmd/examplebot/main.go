// Command examplebot runs a bot wired with every bundled plugin: movie
// requests, quotes, encyclopedia lookups, video downloads and feed watching.
package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"

	"github.com/jmoiron/sqlx"

	"github.com/m3rciful/botkit/core/bootstrap"
	corecmd "github.com/m3rciful/botkit/core/cmd"
	"github.com/m3rciful/botkit/core/logger"
	"github.com/m3rciful/botkit/core/telegram"
	"github.com/m3rciful/botkit/core/telegram/api"
	"github.com/m3rciful/botkit/core/telegram/commands"
	"github.com/m3rciful/botkit/plugins/encyclopedia"
	"github.com/m3rciful/botkit/plugins/feedwatch"
	"github.com/m3rciful/botkit/plugins/mediarequest"
	"github.com/m3rciful/botkit/plugins/quotes"
	"github.com/m3rciful/botkit/plugins/videofetch"
)

type app struct {
	cfg *appConfig
	db  *sqlx.DB
}

func main() {
	err := corecmd.Run(corecmd.Options{
		DefaultConfigPath: "config.yml",
		LoadConfig: func(path string) (corecmd.ConfigCarrier, error) {
			return loadConfig(path)
		},
		Bootstrap: func(carrier corecmd.ConfigCarrier) (corecmd.BotApp, error) {
			cfg, ok := carrier.(*appConfig)
			if !ok {
				return nil, fmt.Errorf("unexpected config type %T", carrier)
			}
			result, err := bootstrap.Run(bootstrap.Options{
				Config:   &cfg.Core,
				Database: cfg.Database,
			})
			if err != nil {
				return nil, err
			}
			return &app{cfg: cfg, db: result.DB}, nil
		},
	})
	if err != nil {
		log.Fatal(err)
	}
}

// BotRunOptions assembles the registry and run options for the bot runtime.
func (a *app) BotRunOptions() (telegram.RunOptions, error) {
	reg := telegram.NewRegistry()

	if a.cfg.Radarr.URL != "" {
		client := mediarequest.NewClient(mediarequest.ClientOptions{
			BaseURL:          a.cfg.Radarr.URL,
			APIKey:           a.cfg.Radarr.APIKey,
			QualityProfileID: a.cfg.Radarr.QualityProfileID,
			RootFolder:       a.cfg.Radarr.RootFolder,
		})
		var history *mediarequest.RequestLog
		if a.db != nil {
			history = mediarequest.NewRequestLog(a.db)
		}
		movies := mediarequest.New(client, history)
		for _, cmd := range movies.Commands() {
			reg.RegisterCommand(cmd)
		}
		if err := reg.RegisterCallback(mediarequest.RemoveCallbackKey, movies.HandleRemoveConfirm); err != nil {
			return telegram.RunOptions{}, err
		}
	}

	reg.RegisterCommand(quotes.Command(quotes.Options{}))
	reg.RegisterCommand(encyclopedia.Command(encyclopedia.Options{}))
	reg.RegisterCommand(videofetch.Command(videofetch.Options{}))

	// Log every plain message that reaches the bot.
	reg.RegisterMessageHook(func(ctx context.Context, _ commands.Messenger, msg *api.Message) error {
		logger.PLUG.LogAttrs(ctx, slog.LevelInfo, "message.seen",
			slog.String("event", "message.seen"),
			slog.Int64("chat_id", msg.ChatID),
			slog.String("payload", logger.SanitizeLimit(msg.Text, 128)),
		)
		return nil
	})

	opts := telegram.RunOptions{
		Config:   &a.cfg.Core,
		Registry: reg,
	}

	if len(a.cfg.Feeds.Items) > 0 {
		cfg := a.cfg
		opts.OnStart = func(ctx context.Context, rt telegram.Runtime) error {
			watcher := feedwatch.NewWatcher(rt.Store, feedwatch.Options{
				Feeds:  cfg.Feeds.Items,
				ChatID: cfg.Feeds.ChatID,
			})
			rt.Registry.RegisterLoopHook(feedwatch.HookName, watcher.Check)
			return nil
		}
	}
	return opts, nil
}
