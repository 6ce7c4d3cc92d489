package sage

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

const validRoster = `{"analysts": [
	{"name": "Ada", "role": "Physicist", "affiliation": "MIT"},
	{"name": "Grace", "role": "Engineer", "affiliation": "IBM"},
	{"name": "Alan", "role": "Policy Analyst", "affiliation": "RAND"}
]}`

// scriptedCompleter answers each prompt kind with canned text and records
// every call.
type scriptedCompleter struct {
	mu     sync.Mutex
	calls  [][]Message
	roster string
	// fail returns a non-nil error to make the matching call fail.
	fail func(msgs []Message) error
}

func newScriptedCompleter() *scriptedCompleter {
	return &scriptedCompleter{roster: validRoster}
}

func (c *scriptedCompleter) Complete(ctx context.Context, msgs []Message) (string, error) {
	c.mu.Lock()
	c.calls = append(c.calls, msgs)
	c.mu.Unlock()

	if c.fail != nil {
		if err := c.fail(msgs); err != nil {
			return "", err
		}
	}

	system := msgs[0].Content
	switch {
	case strings.HasPrefix(system, "Create "):
		return c.roster, nil
	case strings.Contains(system, "Ask a question"):
		return "What is the state of the art?", nil
	case system == searchQueryPrompt:
		return "state of the art", nil
	case strings.HasPrefix(system, "You are an expert"):
		return "It is advancing quickly.", nil
	case strings.HasPrefix(system, "Summarize"):
		return "Section by " + analystIn(system), nil
	case strings.HasPrefix(system, "Write a comprehensive report"):
		return "The synthesized body.", nil
	case strings.HasPrefix(system, "Write an introduction"):
		return "Introduction: An opening paragraph.\nConclusion: A closing paragraph.", nil
	}
	return "", fmt.Errorf("unexpected prompt: %q", system)
}

func (c *scriptedCompleter) callsMatching(prefix string) [][]Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out [][]Message
	for _, msgs := range c.calls {
		if strings.HasPrefix(msgs[0].Content, prefix) {
			out = append(out, msgs)
		}
	}
	return out
}

// analystIn extracts the analyst name from a summary prompt.
func analystIn(system string) string {
	i := strings.LastIndex(system, " by ")
	if i < 0 {
		return ""
	}
	return strings.TrimSuffix(system[i+len(" by "):], ":")
}

type fakeSearcher struct {
	mu      sync.Mutex
	queries []string
	items   []Evidence
	err     error
}

func (s *fakeSearcher) Search(ctx context.Context, query string, k int) ([]Evidence, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	if s.items != nil {
		return s.items, nil
	}
	return []Evidence{
		Record{Title: "A", URL: "https://a", Content: "Qubits are fragile."},
		Text("Error correction is improving."),
	}, nil
}

type fakeEncyclopedia struct {
	docs []Document
	err  error
}

func (e *fakeEncyclopedia) Lookup(ctx context.Context, query string) ([]Document, error) {
	if e.err != nil {
		return nil, e.err
	}
	if e.docs != nil {
		return e.docs, nil
	}
	return []Document{{Title: "Quantum computing", Content: "A quantum computer exploits superposition."}}, nil
}
