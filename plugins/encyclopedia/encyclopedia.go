// Package encyclopedia provides the /wikipedia command.
package encyclopedia

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/m3rciful/botkit/core/telegram/api"
	"github.com/m3rciful/botkit/core/telegram/commands"
	"github.com/m3rciful/botkit/core/telegram/format"
)

const defaultBaseURL = "https://en.wikipedia.org"

// Options configures the encyclopedia plugin.
type Options struct {
	// BaseURL overrides the wiki host, mainly for tests.
	BaseURL string
	// HTTPClient overrides the default client.
	HTTPClient *http.Client
}

// Client looks up articles on a MediaWiki instance.
type Client struct {
	base  string
	httpc *http.Client
}

// NewClient builds a lookup client.
func NewClient(opts Options) *Client {
	base := strings.TrimRight(opts.BaseURL, "/")
	if base == "" {
		base = defaultBaseURL
	}
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{base: base, httpc: httpc}
}

// Article is a resolved encyclopedia page.
type Article struct {
	Title   string
	Summary string
	URL     string
}

// Search resolves a term to its best-matching article title.
func (c *Client) Search(ctx context.Context, term string) (string, error) {
	q := url.Values{
		"action": {"opensearch"},
		"search": {term},
		"limit":  {"1"},
		"format": {"json"},
	}
	var result []json.RawMessage
	if err := c.getJSON(ctx, c.base+"/w/api.php?"+q.Encode(), &result); err != nil {
		return "", fmt.Errorf("encyclopedia: search %q: %w", term, err)
	}
	// opensearch returns [term, [titles], [descriptions], [urls]].
	if len(result) < 2 {
		return "", fmt.Errorf("encyclopedia: malformed search response")
	}
	var titles []string
	if err := json.Unmarshal(result[1], &titles); err != nil || len(titles) == 0 {
		return "", fmt.Errorf("encyclopedia: no results for %q", term)
	}
	return titles[0], nil
}

type summaryResponse struct {
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Content struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

// Summary fetches the intro extract for an exact title.
func (c *Client) Summary(ctx context.Context, title string) (*Article, error) {
	endpoint := c.base + "/api/rest_v1/page/summary/" + url.PathEscape(title)
	var resp summaryResponse
	if err := c.getJSON(ctx, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("encyclopedia: summary %q: %w", title, err)
	}
	page := resp.Content.Desktop.Page
	if page == "" {
		page = c.base + "/wiki/" + url.PathEscape(title)
	}
	return &Article{Title: resp.Title, Summary: resp.Extract, URL: page}, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unexpected status %s", resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// Command returns the /wikipedia command.
func Command(opts Options) commands.Command {
	client := NewClient(opts)
	return commands.Func{
		Name:        "/wikipedia",
		Description: "Look up a term on Wikipedia",
		Fn: func(ctx context.Context, inv *commands.Invocation) error {
			if len(inv.Args) == 0 {
				return inv.Bot.SendMessage(ctx, inv.ChatID(), "Usage: /wikipedia <term>", nil)
			}
			term := strings.Join(inv.Args, " ")

			title, err := client.Search(ctx, term)
			if err != nil {
				return err
			}
			article, err := client.Summary(ctx, title)
			if err != nil {
				return err
			}

			text := fmt.Sprintf("<b>%s</b>\n%s\n\n%s",
				format.EscapeHTML(article.Title),
				format.EscapeHTML(article.Summary),
				article.URL,
			)
			return inv.Bot.SendMessage(ctx, inv.ChatID(), text, &api.SendOptions{ParseMode: api.ModeHTML})
		},
	}
}
