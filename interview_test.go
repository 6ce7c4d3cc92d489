package sage

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestInterviewNode(t *testing.T, c Completer, s Searcher, e Encyclopedia, continueOnError bool) Node {
	return NewNodeAdapter[interviewInput, interviewOutput](&interviewNode{
		BaseNodeG:       NewBaseNodeG[interviewInput, interviewOutput](),
		completer:       c,
		searcher:        s,
		encyclopedia:    e,
		searchResults:   DefaultSearchResults,
		continueOnError: continueOnError,
		logger:          zaptest.NewLogger(t),
	})
}

func interviewState() State {
	return State{Topic: "quantum computing", Analysts: FallbackRoster(), Cursor: 1, Sections: []string{"first"}}
}

func TestInterviewRound(t *testing.T) {
	c := newScriptedCompleter()
	s := &fakeSearcher{}
	node := newTestInterviewNode(t, c, s, &fakeEncyclopedia{}, false)

	u, err := Run(context.Background(), node, interviewState())
	require.NoError(t, err)

	assert.Equal(t, []string{"Section by Default Analyst 2"}, u.Sections)
	require.NotNil(t, u.Cursor)
	assert.Equal(t, 2, *u.Cursor)
	assert.Empty(t, u.Failures)

	// Four completions: question, query, answer, summary.
	assert.Len(t, c.calls, 4)
	assert.Equal(t, []string{"state of the art"}, s.queries)

	question := c.callsMatching("You are Default Analyst 2")
	require.Len(t, question, 1)
	assert.Equal(t, "You are Default Analyst 2, Industry Expert. Ask a question about quantum computing.", question[0][0].Content)

	query := c.callsMatching(searchQueryPrompt)
	require.Len(t, query, 1)
	assert.Equal(t, Message{Role: RoleUser, Content: "What is the state of the art?"}, query[0][1])

	answer := c.callsMatching("You are an expert")
	require.Len(t, answer, 1)
	assert.Contains(t, answer[0][0].Content, "Qubits are fragile.\nError correction is improving.\nA quantum computer exploits superposition.")
	assert.Equal(t, "What is the state of the art?", answer[0][1].Content)

	summary := c.callsMatching("Summarize")
	require.Len(t, summary, 1)
	assert.Equal(t, "Q: What is the state of the art?\nA: It is advancing quickly.", summary[0][1].Content)
}

func TestInterviewLimitsEvidence(t *testing.T) {
	c := newScriptedCompleter()
	s := &fakeSearcher{items: []Evidence{Text("1"), Text("2"), Text("3"), Text("4"), Text("5")}}
	e := &fakeEncyclopedia{docs: []Document{{Content: "first doc"}, {Content: "second doc"}}}
	node := newTestInterviewNode(t, c, s, e, false)

	_, err := Run(context.Background(), node, interviewState())
	require.NoError(t, err)

	answer := c.callsMatching("You are an expert")
	require.Len(t, answer, 1)
	assert.Contains(t, answer[0][0].Content, "1\n2\n3\nfirst doc")
	assert.NotContains(t, answer[0][0].Content, "4")
	assert.NotContains(t, answer[0][0].Content, "second doc")
}

func TestInterviewEmptyEvidenceStillAnswers(t *testing.T) {
	c := newScriptedCompleter()
	s := &fakeSearcher{items: []Evidence{}}
	e := &fakeEncyclopedia{docs: []Document{}}
	node := newTestInterviewNode(t, c, s, e, false)

	u, err := Run(context.Background(), node, interviewState())
	require.NoError(t, err)
	assert.Len(t, u.Sections, 1)
}

func TestInterviewFailureAborts(t *testing.T) {
	c := newScriptedCompleter()
	s := &fakeSearcher{err: errors.New("search quota exceeded")}
	node := newTestInterviewNode(t, c, s, &fakeEncyclopedia{}, false)

	_, err := Run(context.Background(), node, interviewState())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "web search failed")
	assert.Contains(t, err.Error(), "search quota exceeded")
}

func TestInterviewFailureIsolated(t *testing.T) {
	c := newScriptedCompleter()
	e := &fakeEncyclopedia{err: errors.New("wiki unreachable")}
	node := newTestInterviewNode(t, c, &fakeSearcher{}, e, true)

	u, err := Run(context.Background(), node, interviewState())
	require.NoError(t, err)

	require.Len(t, u.Sections, 1)
	assert.Contains(t, u.Sections[0], "Default Analyst 2")
	require.NotNil(t, u.Cursor)
	assert.Equal(t, 2, *u.Cursor)
	require.Len(t, u.Failures, 1)
	assert.Equal(t, "Default Analyst 2", u.Failures[0].Analyst.Name)
	assert.Contains(t, u.Failures[0].Error, "wiki unreachable")
}

func TestInterviewPastRoster(t *testing.T) {
	node := newTestInterviewNode(t, newScriptedCompleter(), &fakeSearcher{}, &fakeEncyclopedia{}, true)
	state := State{Analysts: FallbackRoster(), Cursor: 3, Sections: []string{"a", "b", "c"}}

	_, err := Run(context.Background(), node, state)
	assert.ErrorIs(t, err, ErrNoAnalyst)
}
