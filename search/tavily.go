package search

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/mark3labs/sage"
)

// DefaultTavilyURL is the Tavily search endpoint.
const DefaultTavilyURL = "https://api.tavily.com/search"

// Tavily searches the web through the Tavily API.
type Tavily struct {
	apiKey  string
	baseURL string
	client  *http.Client
	// IncludeAnswer asks Tavily for a generated answer, returned as the first
	// item in plain text form.
	IncludeAnswer bool
}

// NewTavily creates a Tavily searcher. An empty baseURL selects the public API.
func NewTavily(apiKey, baseURL string, client *http.Client) *Tavily {
	if baseURL == "" {
		baseURL = DefaultTavilyURL
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultTimeout}
	}
	return &Tavily{apiKey: apiKey, baseURL: baseURL, client: client}
}

type tavilyRequest struct {
	Query         string `json:"query"`
	MaxResults    int    `json:"max_results"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
}

type tavilyResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Search returns up to k results for query.
func (t *Tavily) Search(ctx context.Context, query string, k int) ([]sage.Evidence, error) {
	body, err := json.Marshal(tavilyRequest{
		Query:         query,
		MaxResults:    k,
		SearchDepth:   "basic",
		IncludeAnswer: t.IncludeAnswer,
	})
	if err != nil {
		return nil, fmt.Errorf("search: failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("search: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	resp, err := t.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search: tavily request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, statusError(ProviderTavily, resp)
	}

	var parsed tavilyResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("search: failed to parse tavily response: %w", err)
	}

	items := make([]sage.Evidence, 0, len(parsed.Results)+1)
	if a := strings.TrimSpace(parsed.Answer); a != "" {
		items = append(items, sage.Text(a))
	}
	for _, r := range parsed.Results {
		items = append(items, sage.Record{Title: r.Title, URL: r.URL, Content: r.Content})
	}
	if k > 0 && len(items) > k {
		items = items[:k]
	}
	return items, nil
}
