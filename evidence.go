package sage

import "strings"

// Evidence is a single retrieval result. Search backends return either a
// structured Record or plain Text.
type Evidence interface {
	// text returns the extractable text, or "" when there is none.
	text() string
}

// Record is a structured search hit.
type Record struct {
	Title   string `json:"title,omitempty"`
	URL     string `json:"url,omitempty"`
	Content string `json:"content,omitempty"`
	Snippet string `json:"snippet,omitempty"`
}

func (r Record) text() string {
	if c := strings.TrimSpace(r.Content); c != "" {
		return c
	}
	return strings.TrimSpace(r.Snippet)
}

// Text is a search hit that arrived as a bare string.
type Text string

func (t Text) text() string {
	return strings.TrimSpace(string(t))
}

// NormalizeEvidence flattens items to plain text in input order,
// dropping items with nothing to extract.
func NormalizeEvidence(items []Evidence) []string {
	out := make([]string, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		if s := item.text(); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// BuildContext joins normalized search results and encyclopedic bodies into
// the context blob handed to the answering prompt. Search results come first.
func BuildContext(results []Evidence, docs []Document) string {
	parts := NormalizeEvidence(results)
	for _, d := range docs {
		if c := strings.TrimSpace(d.Content); c != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, "\n")
}
