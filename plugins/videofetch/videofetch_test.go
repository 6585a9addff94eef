package videofetch

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/m3rciful/botkit/core/telegram/api"
	"github.com/m3rciful/botkit/core/telegram/commands"
)

type fakeUploader struct {
	sent     []string
	uploaded []string
}

func (f *fakeUploader) SendMessage(_ context.Context, _ int64, text string, _ *api.SendOptions) error {
	f.sent = append(f.sent, text)
	return nil
}

func (f *fakeUploader) GetMyCommands(context.Context) ([]api.BotCommand, error) { return nil, nil }

func (f *fakeUploader) SendDocument(_ context.Context, _ int64, path string) error {
	f.uploaded = append(f.uploaded, path)
	return nil
}

// fakeDownloader is a script standing in for yt-dlp. It writes one file
// into the -o template's directory.
func fakeDownloader(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	script := filepath.Join(dir, "fake-dlp")
	body := `#!/bin/sh
# args: --no-playlist -o <template> <url>
template="$3"
out="$(dirname "$template")/video.mp4"
echo "fake video bytes" > "$out"
`
	if err := os.WriteFile(script, []byte(body), 0o755); err != nil {
		t.Fatal(err)
	}
	return script
}

func TestYoutubeDLDownloadsAndUploads(t *testing.T) {
	cmd := Command(Options{Binary: fakeDownloader(t), WorkDir: t.TempDir()})
	if !cmd.(interface{ AdminOnly() bool }).AdminOnly() {
		t.Fatal("command must be admin-only")
	}

	bot := &fakeUploader{}
	msg := &api.Message{ChatID: 1, Text: "/youtube_dl https://example.org/v/1", IsCommand: true}
	if err := cmd.Execute(context.Background(), commands.NewInvocation(bot, msg)); err != nil {
		t.Fatal(err)
	}
	if len(bot.uploaded) != 1 || filepath.Base(bot.uploaded[0]) != "video.mp4" {
		t.Fatalf("uploaded = %v", bot.uploaded)
	}
	// Work dir is cleaned after upload.
	if _, err := os.Stat(filepath.Dir(bot.uploaded[0])); !os.IsNotExist(err) {
		t.Fatalf("work dir should be removed, stat err = %v", err)
	}
}

func TestYoutubeDLUsage(t *testing.T) {
	cmd := Command(Options{})
	bot := &fakeUploader{}
	msg := &api.Message{ChatID: 1, Text: "/youtube_dl", IsCommand: true}
	if err := cmd.Execute(context.Background(), commands.NewInvocation(bot, msg)); err != nil {
		t.Fatal(err)
	}
	if len(bot.sent) != 1 || !strings.Contains(bot.sent[0], "Usage") {
		t.Fatalf("sent = %v", bot.sent)
	}
}

func TestYoutubeDLFailurePropagates(t *testing.T) {
	cmd := Command(Options{Binary: "/nonexistent/binary", WorkDir: t.TempDir()})
	bot := &fakeUploader{}
	msg := &api.Message{ChatID: 1, Text: "/youtube_dl https://example.org/v/1", IsCommand: true}
	if err := cmd.Execute(context.Background(), commands.NewInvocation(bot, msg)); err == nil {
		t.Fatal("expected downloader failure")
	}
	if len(bot.uploaded) != 0 {
		t.Fatal("nothing should be uploaded on failure")
	}
}
