// Package search implements the web-search service used to gather interview
// evidence.
package search

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/mark3labs/sage"
)

const (
	ProviderTavily = "tavily"
	ProviderBrave  = "brave"
)

// DefaultTimeout bounds a single search request.
const DefaultTimeout = 15 * time.Second

// Config selects and configures a search backend.
type Config struct {
	Provider string
	APIKey   string
	BaseURL  string
	Timeout  time.Duration
}

// New returns the searcher for cfg.Provider.
func New(cfg Config, client *http.Client) (sage.Searcher, error) {
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		client = &http.Client{Timeout: timeout}
	}
	switch strings.ToLower(cfg.Provider) {
	case "", ProviderTavily:
		return NewTavily(cfg.APIKey, cfg.BaseURL, client), nil
	case ProviderBrave:
		return NewBrave(cfg.APIKey, cfg.BaseURL, client), nil
	default:
		return nil, fmt.Errorf("search: unknown provider %q", cfg.Provider)
	}
}

// StatusError is returned when a search API answers with a non-200 status.
type StatusError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("search: %s returned status %d: %s", e.Provider, e.StatusCode, e.Body)
}

func statusError(provider string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Provider: provider, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

// plainText drops markup from an HTML fragment and collapses whitespace.
func plainText(fragment string) string {
	if !strings.ContainsAny(fragment, "<&") {
		return strings.Join(strings.Fields(fragment), " ")
	}
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(fragment))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.EndTagToken, html.SelfClosingTagToken:
			b.WriteByte(' ')
		}
	}
}
