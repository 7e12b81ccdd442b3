// Package giphy proxies GIF search so the Giphy API key stays server-side.
package giphy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

const (
	DefaultBaseURL = "https://api.giphy.com/v1"
	DefaultLimit   = 20
	MaxLimit       = 50
)

// GIF is the normalized shape returned to clients. Preview is the
// fixed-height rendition used in pickers, Original the full-size URL
// stored in message rows.
type GIF struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Preview  string `json:"preview_url"`
	Original string `json:"original_url"`
}

type apiResponse struct {
	Data []struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Images struct {
			FixedHeight struct {
				URL string `json:"url"`
			} `json:"fixed_height"`
			Original struct {
				URL string `json:"url"`
			} `json:"original"`
		} `json:"images"`
	} `json:"data"`
}

// Searcher finds GIFs. An empty query returns trending results.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]GIF, error)
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (c *Client) Search(ctx context.Context, query string, limit int) ([]GIF, error) {
	if limit <= 0 || limit > MaxLimit {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("limit", strconv.Itoa(limit))

	endpoint := c.baseURL + "/gifs/trending"
	if query != "" {
		endpoint = c.baseURL + "/gifs/search"
		params.Set("q", query)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build gif request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch gifs: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("giphy: search returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, fmt.Errorf("read gif response: %w", err)
	}

	var payload apiResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode gif response: %w", err)
	}

	gifs := make([]GIF, 0, len(payload.Data))
	for _, d := range payload.Data {
		gifs = append(gifs, GIF{
			ID:       d.ID,
			Title:    d.Title,
			Preview:  d.Images.FixedHeight.URL,
			Original: d.Images.Original.URL,
		})
	}
	return gifs, nil
}
