package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/mark3labs/sage"
)

// DefaultBraveURL is the Brave web search endpoint.
const DefaultBraveURL = "https://api.search.brave.com/res/v1/web/search"

// Brave searches the web through the Brave Search API.
type Brave struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// NewBrave creates a Brave searcher. An empty baseURL selects the public API.
func NewBrave(apiKey, baseURL string, client *http.Client) *Brave {
	if baseURL == "" {
		baseURL = DefaultBraveURL
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Brave{apiKey: apiKey, baseURL: baseURL, client: client}
}

// braveSearchResponse represents the response from Brave Search API
type braveSearchResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search returns up to k results for query. Brave only returns snippets, so
// every item is a Record without Content.
func (b *Brave) Search(ctx context.Context, query string, k int) ([]sage.Evidence, error) {
	if b.apiKey == "" {
		return nil, fmt.Errorf("search: brave API key is required")
	}

	params := url.Values{}
	params.Set("q", query)
	if k > 0 {
		params.Set("count", strconv.Itoa(k))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("search: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: brave request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(ProviderBrave, resp)
	}

	var parsed braveSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("search: failed to parse brave response: %w", err)
	}

	items := make([]sage.Evidence, 0, len(parsed.Web.Results))
	for i, r := range parsed.Web.Results {
		if k > 0 && i >= k {
			break
		}
		items = append(items, sage.Record{
			Title:   plainText(r.Title),
			URL:     r.URL,
			Snippet: plainText(r.Description),
		})
	}
	return items, nil
}
