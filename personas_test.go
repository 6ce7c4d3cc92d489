package sage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestParseRoster(t *testing.T) {
	analysts, err := ParseRoster(validRoster)
	require.NoError(t, err)
	assert.Equal(t, []Analyst{
		{Name: "Ada", Role: "Physicist", Affiliation: "MIT"},
		{Name: "Grace", Role: "Engineer", Affiliation: "IBM"},
		{Name: "Alan", Role: "Policy Analyst", Affiliation: "RAND"},
	}, analysts)
}

func TestParseRosterFenced(t *testing.T) {
	analysts, err := ParseRoster("```json\n" + validRoster + "\n```")
	require.NoError(t, err)
	assert.Len(t, analysts, RosterSize)
}

func TestParseRosterKeepsFirstThree(t *testing.T) {
	analysts, err := ParseRoster(`{"analysts": [
		{"name": "1", "role": "r", "affiliation": "a"},
		{"name": "2", "role": "r", "affiliation": "a"},
		{"name": "3", "role": "r", "affiliation": "a"},
		{"name": "4", "role": "r", "affiliation": "a"}
	]}`)
	require.NoError(t, err)
	require.Len(t, analysts, 3)
	assert.Equal(t, "3", analysts[2].Name)
}

func TestParseRosterRejects(t *testing.T) {
	tests := map[string]string{
		"not json":      "Here are three analysts: Ada, Grace and Alan.",
		"missing key":   `{"personas": []}`,
		"too few":       `{"analysts": [{"name": "A", "role": "R", "affiliation": "F"}]}`,
		"missing field": `{"analysts": [{"name": "A", "role": "R"}, {"name": "B", "role": "R", "affiliation": "F"}, {"name": "C", "role": "R", "affiliation": "F"}]}`,
		"wrong type":    `{"analysts": "three of them"}`,
	}
	for name, in := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := ParseRoster(in)
			assert.Error(t, err)
		})
	}
}

func TestPersonaNodeFallback(t *testing.T) {
	c := newScriptedCompleter()
	c.roster = "Sorry, I can't produce JSON today."
	fallbacks := 0

	node := newPersonaNode(c, zaptest.NewLogger(t), func() { fallbacks++ })
	u, err := Run(context.Background(), node, State{Topic: "fusion"})
	require.NoError(t, err)

	assert.Equal(t, FallbackRoster(), u.Analysts)
	require.NotNil(t, u.Cursor)
	assert.Equal(t, 0, *u.Cursor)
	assert.Equal(t, 1, fallbacks)
}

func TestPersonaNodePromptNamesTopic(t *testing.T) {
	c := newScriptedCompleter()
	node := newPersonaNode(c, zaptest.NewLogger(t), nil)

	u, err := Run(context.Background(), node, State{Topic: "fusion energy"})
	require.NoError(t, err)
	assert.Equal(t, "Ada", u.Analysts[0].Name)

	calls := c.callsMatching("Create ")
	require.Len(t, calls, 1)
	assert.Contains(t, calls[0][0].Content, "fusion energy")
	assert.Contains(t, calls[0][0].Content, "'analysts'")
}

func TestPersonaNodeCompletionError(t *testing.T) {
	c := newScriptedCompleter()
	c.fail = func([]Message) error { return errors.New("rate limited") }

	node := newPersonaNode(c, zaptest.NewLogger(t), func() { t.Error("fallback must not be used for transport errors") },
		WithMaxRetries(2))
	_, err := Run(context.Background(), node, State{Topic: "fusion"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rate limited")
	assert.Len(t, c.callsMatching("Create "), 2)
}
