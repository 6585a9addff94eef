package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/m3rciful/botkit/core/logger"
	"log/slog"
)

// DefaultBaseURL is the production Bot API endpoint.
const DefaultBaseURL = "https://api.telegram.org"

var tokenRe = regexp.MustCompile(`bot[0-9]+:[A-Za-z0-9_-]+`)

// Error is a failed Bot API call. Code carries the upstream error_code
// (usually an HTTP status) for error-kind classification.
type Error struct {
	Code        int
	Description string
}

func (e *Error) Error() string {
	return fmt.Sprintf("telegram api: %s (%d)", e.Description, e.Code)
}

// Client is a thin HTTP JSON client for the Bot API.
type Client struct {
	token string
	base  string
	httpc *http.Client
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL points the client at a non-default API host.
// An empty value keeps the default.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		if base != "" {
			c.base = strings.TrimRight(base, "/")
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpc *http.Client) Option {
	return func(c *Client) {
		c.httpc = httpc
	}
}

// NewClient creates a Bot API client for the given token.
func NewClient(token string, opts ...Option) *Client {
	c := &Client{
		token: token,
		base:  DefaultBaseURL,
		httpc: &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
}

func (c *Client) endpoint(method string) string {
	return c.base + "/bot" + c.token + "/" + method
}

// call posts params as JSON to the given API method and returns the raw result.
func (c *Client) call(ctx context.Context, method string, params any) (json.RawMessage, error) {
	var body io.Reader
	if params != nil {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("telegram api: encode %s params: %w", method, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(method), body)
	if err != nil {
		return nil, c.redact(err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return nil, c.redact(err)
	}
	defer resp.Body.Close()

	return c.decode(ctx, method, resp, time.Since(start))
}

func (c *Client) decode(ctx context.Context, method string, resp *http.Response, took time.Duration) (json.RawMessage, error) {
	var parsed apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("telegram api: decode %s response: %w", method, c.redact(err))
	}
	if !parsed.OK {
		code := parsed.ErrorCode
		if code == 0 {
			code = resp.StatusCode
		}
		return nil, &Error{Code: code, Description: parsed.Description}
	}
	if logger.TG != nil && logger.ShouldSampleDebug() {
		logger.TG.LogAttrs(ctx, slog.LevelDebug, "api.call",
			slog.String("event", "api.call"),
			slog.String("method", method),
			slog.Duration("duration", logger.RoundMS(took)),
		)
	}
	return parsed.Result, nil
}

// redact strips the bot token from error text so it never reaches logs.
func (c *Client) redact(err error) error {
	if err == nil {
		return nil
	}
	msg := tokenRe.ReplaceAllString(err.Error(), "bot<redacted>")
	if c.token != "" {
		msg = strings.ReplaceAll(msg, c.token, "<redacted>")
	}
	return fmt.Errorf("%s", msg)
}

type getUpdatesRequest struct {
	Offset         int64    `json:"offset,omitempty"`
	Timeout        int      `json:"timeout,omitempty"`
	AllowedUpdates []string `json:"allowed_updates,omitempty"`
}

// GetUpdates fetches updates with id >= offset, parsed into the typed model
// and sorted by ascending update id. timeoutSec > 0 enables long polling.
func (c *Client) GetUpdates(ctx context.Context, offset int64, allowed []string, timeoutSec int) ([]Update, error) {
	result, err := c.call(ctx, "getUpdates", getUpdatesRequest{
		Offset:         offset,
		Timeout:        timeoutSec,
		AllowedUpdates: allowed,
	})
	if err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(result, &raws); err != nil {
		return nil, fmt.Errorf("telegram api: decode updates: %w", err)
	}

	updates := make([]Update, 0, len(raws))
	for _, raw := range raws {
		updates = append(updates, ParseUpdate(raw))
	}
	// The API promises ascending order; enforce it anyway.
	sort.Slice(updates, func(i, j int) bool { return updates[i].UpdateID < updates[j].UpdateID })
	return updates, nil
}

type sendMessageRequest struct {
	ChatID              int64                 `json:"chat_id"`
	Text                string                `json:"text"`
	ParseMode           string                `json:"parse_mode,omitempty"`
	ReplyMarkup         *InlineKeyboardMarkup `json:"reply_markup,omitempty"`
	DisableNotification bool                  `json:"disable_notification,omitempty"`
}

// SendMessage posts a text message to the given chat. opts may be nil.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string, opts *SendOptions) error {
	req := sendMessageRequest{ChatID: chatID, Text: text}
	if opts != nil {
		req.ParseMode = opts.ParseMode
		req.ReplyMarkup = opts.ReplyMarkup
		req.DisableNotification = opts.DisableNotification
	}
	_, err := c.call(ctx, "sendMessage", req)
	return err
}

// GetMyCommands returns the command list registered with the API.
func (c *Client) GetMyCommands(ctx context.Context) ([]BotCommand, error) {
	result, err := c.call(ctx, "getMyCommands", nil)
	if err != nil {
		return nil, err
	}
	var cmds []BotCommand
	if err := json.Unmarshal(result, &cmds); err != nil {
		return nil, fmt.Errorf("telegram api: decode commands: %w", err)
	}
	return cmds, nil
}

// SetMyCommands replaces the command list shown in the client command menu.
func (c *Client) SetMyCommands(ctx context.Context, cmds []BotCommand) error {
	_, err := c.call(ctx, "setMyCommands", map[string]any{"commands": cmds})
	return err
}

// GetMe returns the bot's own account.
func (c *Client) GetMe(ctx context.Context) (*User, error) {
	result, err := c.call(ctx, "getMe", nil)
	if err != nil {
		return nil, err
	}
	return parseUser(result), nil
}

// AnswerCallbackQuery acknowledges a callback query, optionally with a toast text.
func (c *Client) AnswerCallbackQuery(ctx context.Context, id, text string) error {
	params := map[string]any{"callback_query_id": id}
	if text != "" {
		params["text"] = text
	}
	_, err := c.call(ctx, "answerCallbackQuery", params)
	return err
}

// SendDocument uploads a local file to the given chat as a document.
func (c *Client) SendDocument(ctx context.Context, chatID int64, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("telegram api: open document: %w", err)
	}
	defer f.Close()

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if err := mw.WriteField("chat_id", fmt.Sprintf("%d", chatID)); err != nil {
		return fmt.Errorf("telegram api: encode document form: %w", err)
	}
	part, err := mw.CreateFormFile("document", filepath.Base(path))
	if err != nil {
		return fmt.Errorf("telegram api: encode document form: %w", err)
	}
	if _, err := io.Copy(part, f); err != nil {
		return fmt.Errorf("telegram api: read document: %w", err)
	}
	if err := mw.Close(); err != nil {
		return fmt.Errorf("telegram api: encode document form: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint("sendDocument"), &buf)
	if err != nil {
		return c.redact(err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	start := time.Now()
	resp, err := c.httpc.Do(req)
	if err != nil {
		return c.redact(err)
	}
	defer resp.Body.Close()

	_, err = c.decode(ctx, "sendDocument", resp, time.Since(start))
	return err
}
