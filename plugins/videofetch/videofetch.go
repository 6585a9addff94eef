// Package videofetch provides the admin-only /youtube_dl command. It shells
// out to yt-dlp and uploads the downloaded file back into the chat.
package videofetch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/m3rciful/botkit/core/logger"
	"github.com/m3rciful/botkit/core/telegram/commands"
)

// DocumentSender uploads a local file into a chat. The runtime bot
// implements it; invocation messengers are asserted against it.
type DocumentSender interface {
	SendDocument(ctx context.Context, chatID int64, path string) error
}

// Options configures the videofetch plugin.
type Options struct {
	// Binary is the downloader executable. Defaults to "yt-dlp".
	Binary string
	// WorkDir is where downloads land. Defaults to the OS temp dir.
	WorkDir string
}

type command struct {
	opts Options
}

// Command returns the /youtube_dl command.
func Command(opts Options) commands.Command {
	if opts.Binary == "" {
		opts.Binary = "yt-dlp"
	}
	if opts.WorkDir == "" {
		opts.WorkDir = os.TempDir()
	}
	return &command{opts: opts}
}

func (c *command) Trigger() string  { return "/youtube_dl" }
func (c *command) Describe() string { return "Download a video and post it here" }
func (c *command) AdminOnly() bool  { return true }

func (c *command) Execute(ctx context.Context, inv *commands.Invocation) error {
	if len(inv.Args) == 0 {
		return inv.Bot.SendMessage(ctx, inv.ChatID(), "Usage: /youtube_dl <url>", nil)
	}
	uploader, ok := inv.Bot.(DocumentSender)
	if !ok {
		return fmt.Errorf("videofetch: messenger cannot upload documents")
	}
	url := inv.Args[0]

	dir, err := os.MkdirTemp(c.opts.WorkDir, "videofetch-")
	if err != nil {
		return fmt.Errorf("videofetch: create work dir: %w", err)
	}
	defer func() {
		if err := os.RemoveAll(dir); err != nil {
			logger.PLUG.LogAttrs(ctx, slog.LevelWarn, "videofetch.cleanup_failed",
				slog.String("event", "videofetch.cleanup_failed"),
				slog.String("err", err.Error()),
			)
		}
	}()

	if err := inv.Bot.SendMessage(ctx, inv.ChatID(), "Downloading, hang on...", nil); err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, c.opts.Binary,
		"--no-playlist",
		"-o", filepath.Join(dir, "%(title)s.%(ext)s"),
		url,
	)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("videofetch: %s failed: %w: %s",
			c.opts.Binary, err, logger.SanitizeLimit(strings.TrimSpace(string(out)), 256))
	}

	path, err := firstFile(dir)
	if err != nil {
		return err
	}
	return uploader.SendDocument(ctx, inv.ChatID(), path)
}

func firstFile(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("videofetch: read work dir: %w", err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			return filepath.Join(dir, e.Name()), nil
		}
	}
	return "", fmt.Errorf("videofetch: downloader produced no file")
}
