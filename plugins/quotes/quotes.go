// Package quotes provides the /kanye command backed by a public quote API.
package quotes

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/m3rciful/botkit/core/telegram/commands"
)

const defaultAPIURL = "https://api.kanye.rest"

// Options configures the quotes plugin.
type Options struct {
	// APIURL overrides the quote endpoint, mainly for tests.
	APIURL string
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

type quote struct {
	Quote string `json:"quote"`
}

// Command returns the /kanye command.
func Command(opts Options) commands.Command {
	url := opts.APIURL
	if url == "" {
		url = defaultAPIURL
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}

	return commands.Func{
		Name:        "/kanye",
		Description: "Get a random Kanye West quote",
		Fn: func(ctx context.Context, inv *commands.Invocation) error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return fmt.Errorf("quotes: build request: %w", err)
			}
			resp, err := httpc.Do(req)
			if err != nil {
				return fmt.Errorf("quotes: fetch: %w", err)
			}
			defer resp.Body.Close()
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("quotes: unexpected status %s", resp.Status)
			}

			var q quote
			if err := json.NewDecoder(resp.Body).Decode(&q); err != nil {
				return fmt.Errorf("quotes: decode: %w", err)
			}
			return inv.Bot.SendMessage(ctx, inv.ChatID(), fmt.Sprintf("%q - Kanye West", q.Quote), nil)
		},
	}
}
