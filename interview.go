package sage

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

// DefaultSearchResults is the number of web results gathered per interview.
const DefaultSearchResults = 3

type interviewInput struct {
	topic   string
	analyst Analyst
	cursor  int
}

type interviewOutput struct {
	section string
	failure *InterviewFailure
}

// interviewNode runs one question -> retrieve -> answer -> summarize round
// for the analyst at the cursor.
type interviewNode struct {
	*BaseNodeG[interviewInput, interviewOutput]
	completer       Completer
	searcher        Searcher
	encyclopedia    Encyclopedia
	searchResults   int
	continueOnError bool
	logger          *zap.Logger
}

func (n *interviewNode) PrepG(ctx context.Context, state State) (interviewInput, error) {
	analyst, err := state.CurrentAnalyst()
	if err != nil {
		return interviewInput{}, err
	}
	return interviewInput{topic: state.Topic, analyst: analyst, cursor: state.Cursor}, nil
}

func (n *interviewNode) ExecG(ctx context.Context, in interviewInput) (interviewOutput, error) {
	section, err := n.interview(ctx, in)
	if err != nil {
		return interviewOutput{}, err
	}
	return interviewOutput{section: section}, nil
}

// ExecFallbackG isolates a failed round when configured to; otherwise the
// error aborts the run.
func (n *interviewNode) ExecFallbackG(in interviewInput, err error) (interviewOutput, error) {
	if !n.continueOnError {
		return interviewOutput{}, err
	}
	n.logger.Warn("Interview failed, continuing without it",
		zap.String("analyst", in.analyst.Name),
		zap.Int("cursor", in.cursor),
		zap.Error(err),
	)
	return interviewOutput{
		section: failedInterviewSection(in.analyst),
		failure: &InterviewFailure{Analyst: in.analyst, Error: err.Error()},
	}, nil
}

func (n *interviewNode) PostG(ctx context.Context, state State, in interviewInput, out interviewOutput) (Update, error) {
	u := Update{
		Sections: []string{out.section},
		Cursor:   ptr(in.cursor + 1),
	}
	if out.failure != nil {
		u.Failures = []InterviewFailure{*out.failure}
	}
	return u, nil
}

func (n *interviewNode) interview(ctx context.Context, in interviewInput) (string, error) {
	log := n.logger.With(zap.String("analyst", in.analyst.Name), zap.Int("cursor", in.cursor))

	question, err := n.completer.Complete(ctx, []Message{
		SystemMessage(questionPrompt(in.analyst, in.topic)),
	})
	if err != nil {
		return "", fmt.Errorf("interview: question failed: %w", err)
	}
	log.Debug("Question generated", zap.String("question", question))

	query, err := n.completer.Complete(ctx, []Message{
		SystemMessage(searchQueryPrompt),
		UserMessage(question),
	})
	if err != nil {
		return "", fmt.Errorf("interview: search query failed: %w", err)
	}
	log.Debug("Search query generated", zap.String("query", query))

	results, err := n.searcher.Search(ctx, query, n.searchResults)
	if err != nil {
		return "", fmt.Errorf("interview: web search failed: %w", err)
	}
	if len(results) > n.searchResults {
		results = results[:n.searchResults]
	}

	docs, err := n.encyclopedia.Lookup(ctx, query)
	if err != nil {
		return "", fmt.Errorf("interview: encyclopedia lookup failed: %w", err)
	}
	if len(docs) > 1 {
		docs = docs[:1]
	}

	evidence := BuildContext(results, docs)
	log.Debug("Evidence gathered",
		zap.Int("search_results", len(results)),
		zap.Int("documents", len(docs)),
		zap.Int("context_bytes", len(evidence)),
	)

	answer, err := n.completer.Complete(ctx, []Message{
		SystemMessage(answerPrompt(in.topic, evidence)),
		UserMessage(question),
	})
	if err != nil {
		return "", fmt.Errorf("interview: answer failed: %w", err)
	}

	section, err := n.completer.Complete(ctx, []Message{
		SystemMessage(summaryPrompt(in.topic, in.analyst)),
		UserMessage(interviewTranscript(question, answer)),
	})
	if err != nil {
		return "", fmt.Errorf("interview: summary failed: %w", err)
	}
	return section, nil
}
