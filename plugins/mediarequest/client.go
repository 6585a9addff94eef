// Package mediarequest integrates a Radarr-style movie manager: adding and
// removing movies by IMDb id, searching the library, and keeping a request
// history in Postgres.
package mediarequest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Movie is the subset of the manager's movie resource the plugin uses.
type Movie struct {
	ID     int64  `json:"id"`
	Title  string `json:"title"`
	Year   int    `json:"year"`
	IMDBID string `json:"imdbId"`
}

// ClientOptions configures the manager client.
type ClientOptions struct {
	BaseURL string
	APIKey  string
	// QualityProfileID and RootFolder are applied to added movies.
	QualityProfileID int
	RootFolder       string
	HTTPClient       *http.Client
}

// Client talks to the movie manager HTTP API.
type Client struct {
	opts  ClientOptions
	httpc *http.Client
}

// NewClient builds a manager client.
func NewClient(opts ClientOptions) *Client {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	httpc := opts.HTTPClient
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{opts: opts, httpc: httpc}
}

// LookupIMDB resolves an IMDb id to a movie resource.
func (c *Client) LookupIMDB(ctx context.Context, imdbID string) (*Movie, error) {
	q := url.Values{"imdbId": {imdbID}}
	var movie Movie
	if err := c.do(ctx, http.MethodGet, "/api/v3/movie/lookup/imdb?"+q.Encode(), nil, &movie); err != nil {
		return nil, fmt.Errorf("mediarequest: lookup %s: %w", imdbID, err)
	}
	if movie.Title == "" {
		return nil, fmt.Errorf("mediarequest: no movie found for %s", imdbID)
	}
	return &movie, nil
}

// Search finds library and lookup matches for a free-text term.
func (c *Client) Search(ctx context.Context, term string) ([]Movie, error) {
	q := url.Values{"term": {term}}
	var movies []Movie
	if err := c.do(ctx, http.MethodGet, "/api/v3/movie/lookup?"+q.Encode(), nil, &movies); err != nil {
		return nil, fmt.Errorf("mediarequest: search %q: %w", term, err)
	}
	return movies, nil
}

type addRequest struct {
	Title            string     `json:"title"`
	Year             int        `json:"year"`
	IMDBID           string     `json:"imdbId"`
	QualityProfileID int        `json:"qualityProfileId"`
	RootFolderPath   string     `json:"rootFolderPath"`
	Monitored        bool       `json:"monitored"`
	AddOptions       addOptions `json:"addOptions"`
}

type addOptions struct {
	SearchForMovie bool `json:"searchForMovie"`
}

// Add registers a movie for download.
func (c *Client) Add(ctx context.Context, movie *Movie) (*Movie, error) {
	body := addRequest{
		Title:            movie.Title,
		Year:             movie.Year,
		IMDBID:           movie.IMDBID,
		QualityProfileID: c.opts.QualityProfileID,
		RootFolderPath:   c.opts.RootFolder,
		Monitored:        true,
		AddOptions:       addOptions{SearchForMovie: true},
	}
	var added Movie
	if err := c.do(ctx, http.MethodPost, "/api/v3/movie", body, &added); err != nil {
		return nil, fmt.Errorf("mediarequest: add %s: %w", movie.IMDBID, err)
	}
	return &added, nil
}

// Library lists movies already managed.
func (c *Client) Library(ctx context.Context) ([]Movie, error) {
	var movies []Movie
	if err := c.do(ctx, http.MethodGet, "/api/v3/movie", nil, &movies); err != nil {
		return nil, fmt.Errorf("mediarequest: list library: %w", err)
	}
	return movies, nil
}

// FindInLibrary returns the managed movie matching an IMDb id, if any.
func (c *Client) FindInLibrary(ctx context.Context, imdbID string) (*Movie, error) {
	movies, err := c.Library(ctx)
	if err != nil {
		return nil, err
	}
	for i := range movies {
		if strings.EqualFold(movies[i].IMDBID, imdbID) {
			return &movies[i], nil
		}
	}
	return nil, fmt.Errorf("mediarequest: %s is not in the library", imdbID)
}

// Delete removes a managed movie and its files.
func (c *Client) Delete(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/v3/movie/%d?deleteFiles=true", id)
	if err := c.do(ctx, http.MethodDelete, path, nil, nil); err != nil {
		return fmt.Errorf("mediarequest: delete %d: %w", id, err)
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.opts.BaseURL+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("X-Api-Key", c.opts.APIKey)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(msg)))
	}
	if dst == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}
