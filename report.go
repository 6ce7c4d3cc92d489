package sage

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Finalize assembles the final report: introduction, body and conclusion
// separated by a blank line.
func Finalize(introduction, body, conclusion string) string {
	return introduction + "\n\n" + body + "\n\n" + conclusion
}

// SplitIntroConclusion separates a labeled introduction/conclusion response.
// When the conclusion label does not split the text into exactly two parts,
// the raw text is cut at its rune midpoint instead.
func SplitIntroConclusion(text string) (introduction, conclusion string) {
	parts := strings.Split(text, conclusionLabel)
	if len(parts) == 2 {
		introduction = strings.TrimSpace(strings.ReplaceAll(parts[0], introLabel, ""))
		conclusion = strings.TrimSpace(parts[1])
		return introduction, conclusion
	}

	runes := []rune(text)
	mid := len(runes) / 2
	return strings.TrimSpace(string(runes[:mid])), strings.TrimSpace(string(runes[mid:]))
}

type reportInput struct {
	topic    string
	sections []string
}

// reportNode synthesizes the interview sections into one narrative body.
type reportNode struct {
	*BaseNodeG[reportInput, string]
	completer Completer
	logger    *zap.Logger
}

func (n *reportNode) PrepG(ctx context.Context, state State) (reportInput, error) {
	return reportInput{topic: state.Topic, sections: state.Sections}, nil
}

func (n *reportNode) ExecG(ctx context.Context, in reportInput) (string, error) {
	body, err := n.completer.Complete(ctx, []Message{
		SystemMessage(reportPrompt(in.topic, in.sections)),
	})
	if err != nil {
		return "", fmt.Errorf("report: completion failed: %w", err)
	}
	return body, nil
}

func (n *reportNode) PostG(ctx context.Context, state State, in reportInput, body string) (Update, error) {
	n.logger.Debug("Report body written", zap.Int("sections", len(in.sections)), zap.Int("bytes", len(body)))
	return Update{Body: ptr(body)}, nil
}

type introInput struct {
	topic string
	body  string
}

type introOutput struct {
	introduction string
	conclusion   string
}

// introNode writes the introduction and conclusion around the body.
type introNode struct {
	*BaseNodeG[introInput, introOutput]
	completer Completer
	logger    *zap.Logger
}

func (n *introNode) PrepG(ctx context.Context, state State) (introInput, error) {
	return introInput{topic: state.Topic, body: state.Body}, nil
}

func (n *introNode) ExecG(ctx context.Context, in introInput) (introOutput, error) {
	resp, err := n.completer.Complete(ctx, []Message{
		SystemMessage(introConclusionPrompt(in.topic)),
		UserMessage(in.body),
	})
	if err != nil {
		return introOutput{}, fmt.Errorf("intro: completion failed: %w", err)
	}
	if strings.Count(resp, conclusionLabel) != 1 {
		n.logger.Warn("Conclusion label not found once, splitting at midpoint",
			zap.Int("labels", strings.Count(resp, conclusionLabel)))
	}
	intro, conclusion := SplitIntroConclusion(resp)
	return introOutput{introduction: intro, conclusion: conclusion}, nil
}

func (n *introNode) PostG(ctx context.Context, state State, in introInput, out introOutput) (Update, error) {
	return Update{Introduction: ptr(out.introduction), Conclusion: ptr(out.conclusion)}, nil
}

type finalizeInput struct {
	introduction string
	body         string
	conclusion   string
}

func newFinalizeNode(opts ...NodeOption) Node {
	nodeOpts := make([]any, 0, len(opts)+3)
	for _, o := range opts {
		nodeOpts = append(nodeOpts, o)
	}
	nodeOpts = append(nodeOpts,
		WithPrepFunc(func(ctx context.Context, state State) (any, error) {
			return finalizeInput{
				introduction: state.Introduction,
				body:         state.Body,
				conclusion:   state.Conclusion,
			}, nil
		}),
		WithExecFunc(func(ctx context.Context, prepResult any) (any, error) {
			in, ok := prepResult.(finalizeInput)
			if !ok {
				return nil, fmt.Errorf("finalize: unexpected prep result %T", prepResult)
			}
			return Finalize(in.introduction, in.body, in.conclusion), nil
		}),
		WithPostFunc(func(ctx context.Context, state State, prepResult, execResult any) (Update, error) {
			final, ok := execResult.(string)
			if !ok {
				return Update{}, fmt.Errorf("finalize: unexpected exec result %T", execResult)
			}
			return Update{Final: ptr(final)}, nil
		}),
	)
	return NewNode(nodeOpts...)
}
