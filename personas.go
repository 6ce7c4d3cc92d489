package sage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// FallbackRoster returns the fixed roster used when persona generation
// produces something unusable.
func FallbackRoster() []Analyst {
	return []Analyst{
		{Name: "Default Analyst 1", Role: "General Researcher", Affiliation: "University"},
		{Name: "Default Analyst 2", Role: "Industry Expert", Affiliation: "Tech Company"},
		{Name: "Default Analyst 3", Role: "Policy Advisor", Affiliation: "Government Think Tank"},
	}
}

var errRosterShort = errors.New("roster: too few analysts")

// ParseRoster decodes a completion of the form {"analysts": [...]} and keeps
// the first RosterSize entries. A markdown code fence around the JSON is
// tolerated.
func ParseRoster(text string) ([]Analyst, error) {
	var payload struct {
		Analysts *[]Analyst `json:"analysts"`
	}
	if err := json.Unmarshal([]byte(stripFence(text)), &payload); err != nil {
		return nil, fmt.Errorf("roster: decode: %w", err)
	}
	if payload.Analysts == nil {
		return nil, errors.New("roster: missing key \"analysts\"")
	}
	analysts := *payload.Analysts
	if len(analysts) < RosterSize {
		return nil, fmt.Errorf("%w: got %d, want %d", errRosterShort, len(analysts), RosterSize)
	}
	analysts = analysts[:RosterSize]
	for i, a := range analysts {
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("roster: entry %d: %w", i, err)
		}
	}
	return analysts, nil
}

func stripFence(text string) string {
	t := strings.TrimSpace(text)
	if !strings.HasPrefix(t, "```") {
		return t
	}
	t = strings.TrimPrefix(t, "```")
	if nl := strings.IndexByte(t, '\n'); nl >= 0 {
		t = t[nl+1:]
	}
	t = strings.TrimSuffix(strings.TrimSpace(t), "```")
	return strings.TrimSpace(t)
}

type rosterResult struct {
	analysts []Analyst
	fallback bool
}

// personaNode generates the analyst roster.
type personaNode struct {
	*BaseNodeG[string, rosterResult]
	completer  Completer
	logger     *zap.Logger
	onFallback func()
}

func newPersonaNode(c Completer, logger *zap.Logger, onFallback func(), opts ...NodeOption) Node {
	return NewNodeAdapter[string, rosterResult](&personaNode{
		BaseNodeG:  NewBaseNodeG[string, rosterResult](opts...),
		completer:  c,
		logger:     logger,
		onFallback: onFallback,
	})
}

func (n *personaNode) PrepG(ctx context.Context, state State) (string, error) {
	return state.Topic, nil
}

func (n *personaNode) ExecG(ctx context.Context, topic string) (rosterResult, error) {
	resp, err := n.completer.Complete(ctx, []Message{SystemMessage(rosterPrompt(topic, RosterSize))})
	if err != nil {
		return rosterResult{}, fmt.Errorf("personas: completion failed: %w", err)
	}

	analysts, err := ParseRoster(resp)
	if err != nil {
		n.logger.Warn("Persona roster unusable, using fallback roster", zap.Error(err))
		if n.onFallback != nil {
			n.onFallback()
		}
		return rosterResult{analysts: FallbackRoster(), fallback: true}, nil
	}
	return rosterResult{analysts: analysts}, nil
}

func (n *personaNode) PostG(ctx context.Context, state State, topic string, res rosterResult) (Update, error) {
	for _, a := range res.analysts {
		n.logger.Debug("Analyst created",
			zap.String("name", a.Name),
			zap.String("role", a.Role),
			zap.String("affiliation", a.Affiliation),
			zap.Bool("fallback", res.fallback),
		)
	}
	return Update{Analysts: res.analysts, Cursor: ptr(0)}, nil
}
