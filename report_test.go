package sage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestSplitIntroConclusion(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		intro      string
		conclusion string
	}{
		{
			name:       "labeled",
			in:         "Introduction: Opening words.\nConclusion: Closing words.",
			intro:      "Opening words.",
			conclusion: "Closing words.",
		},
		{
			name:       "no intro label",
			in:         "Opening.\n\nConclusion:\nClosing.",
			intro:      "Opening.",
			conclusion: "Closing.",
		},
		{
			name:       "unlabeled falls back to midpoint",
			in:         "abcdefghijklmnopqrst",
			intro:      "abcdefghij",
			conclusion: "klmnopqrst",
		},
		{
			name:       "two conclusion labels fall back to midpoint",
			in:         "Conclusion: aa Conclusion: bb",
			intro:      "Conclusion: aa",
			conclusion: "Conclusion: bb",
		},
		{
			name:       "midpoint counts runes",
			in:         "ééééxxxx",
			intro:      "éééé",
			conclusion: "xxxx",
		},
		{
			name:       "empty",
			in:         "",
			intro:      "",
			conclusion: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			intro, conclusion := SplitIntroConclusion(tt.in)
			assert.Equal(t, tt.intro, intro)
			assert.Equal(t, tt.conclusion, conclusion)
		})
	}
}

func TestFinalize(t *testing.T) {
	assert.Equal(t, "I\n\nB\n\nC", Finalize("I", "B", "C"))
	assert.Equal(t, Finalize("I", "B", "C"), Finalize("I", "B", "C"))
	assert.Equal(t, "\n\n\n\n", Finalize("", "", ""))
}

func TestFinalizeNodeIsIdempotent(t *testing.T) {
	state := State{Introduction: "I", Body: "B", Conclusion: "C"}
	node := newFinalizeNode()

	u1, err := Run(context.Background(), node, state)
	require.NoError(t, err)
	once := state.Apply(u1)

	u2, err := Run(context.Background(), node, once)
	require.NoError(t, err)
	twice := once.Apply(u2)

	assert.Equal(t, "I\n\nB\n\nC", once.Final)
	assert.Equal(t, once, twice)
}

func TestReportNodePromptListsSections(t *testing.T) {
	c := newScriptedCompleter()
	node := NewNodeAdapter[reportInput, string](&reportNode{
		BaseNodeG: NewBaseNodeG[reportInput, string](),
		completer: c,
		logger:    zap.NewNop(),
	})

	u, err := Run(context.Background(), node, State{Topic: "fusion", Sections: []string{"alpha", "beta"}})
	require.NoError(t, err)
	require.NotNil(t, u.Body)
	assert.Equal(t, "The synthesized body.", *u.Body)

	calls := c.callsMatching("Write a comprehensive report")
	require.Len(t, calls, 1)
	prompt := calls[0][0].Content
	assert.Contains(t, prompt, "fusion")
	assert.Less(t, strings.Index(prompt, "Section 1:\nalpha"), strings.Index(prompt, "Section 2:\nbeta"))
}

func TestIntroNodeWarnsOnUnlabeledResponse(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	c := CompleterFunc(func(ctx context.Context, msgs []Message) (string, error) {
		assert.Equal(t, "The body.", msgs[1].Content)
		return "abcdefghijklmnopqrst", nil
	})
	node := NewNodeAdapter[introInput, introOutput](&introNode{
		BaseNodeG: NewBaseNodeG[introInput, introOutput](),
		completer: c,
		logger:    zap.New(core),
	})

	u, err := Run(context.Background(), node, State{Topic: "t", Body: "The body."})
	require.NoError(t, err)
	assert.Equal(t, "abcdefghij", *u.Introduction)
	assert.Equal(t, "klmnopqrst", *u.Conclusion)
	assert.Equal(t, 1, logs.Len())
}
