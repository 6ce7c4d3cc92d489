// Package wiki implements the encyclopedic-lookup service against the
// MediaWiki API.
package wiki

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/sage"
)

const (
	// DefaultMaxChars caps the article body handed to the answering prompt.
	DefaultMaxChars = 4000
	// DefaultTimeout bounds a single lookup.
	DefaultTimeout = 15 * time.Second

	userAgent = "sage-research/1.0 (https://github.com/mark3labs/sage)"
)

// Config configures a Client.
type Config struct {
	// Language selects the wiki edition, e.g. "en".
	Language string
	// BaseURL overrides the API endpoint derived from Language.
	BaseURL  string
	MaxChars int
	Timeout  time.Duration
}

// Client looks up the single best matching Wikipedia article for a query.
type Client struct {
	endpoint string
	maxChars int
	client   *http.Client
}

var _ sage.Encyclopedia = (*Client)(nil)

// New creates a Client.
func New(cfg Config, client *http.Client) *Client {
	if cfg.Language == "" {
		cfg.Language = "en"
	}
	if cfg.MaxChars <= 0 {
		cfg.MaxChars = DefaultMaxChars
	}
	endpoint := cfg.BaseURL
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", cfg.Language)
	}
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	return &Client{endpoint: endpoint, maxChars: cfg.MaxChars, client: client}
}

type queryResponse struct {
	Query struct {
		Pages []struct {
			PageID  int    `json:"pageid"`
			Title   string `json:"title"`
			Extract string `json:"extract"`
			FullURL string `json:"fullurl"`
			Missing bool   `json:"missing"`
		} `json:"pages"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// Lookup returns at most one document for query. No match is not an error.
func (c *Client) Lookup(ctx context.Context, query string) ([]sage.Document, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("formatversion", "2")
	params.Set("generator", "search")
	params.Set("gsrsearch", query)
	params.Set("gsrlimit", "1")
	params.Set("prop", "extracts|info")
	params.Set("inprop", "url")
	params.Set("explaintext", "1")
	params.Set("exlimit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("wiki: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wiki: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("wiki: API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var parsed queryResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("wiki: failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("wiki: API error %s: %s", parsed.Error.Code, parsed.Error.Info)
	}

	for _, p := range parsed.Query.Pages {
		if p.Missing {
			continue
		}
		return []sage.Document{{
			Title:   p.Title,
			URL:     p.FullURL,
			Content: truncate(strings.TrimSpace(p.Extract), c.maxChars),
		}}, nil
	}
	return nil, nil
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
