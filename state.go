package sage

import (
	"errors"
	"fmt"
	"strings"
)

// RosterSize is the number of analyst personas interviewed per run.
const RosterSize = 3

var (
	// ErrEmptyTopic is returned when a run is started without a topic.
	ErrEmptyTopic = errors.New("sage: topic is empty")
	// ErrInvariant is returned when a state update leaves the state inconsistent.
	ErrInvariant = errors.New("sage: state invariant violated")
	// ErrNoAnalyst is returned when an interview is requested past the end of the roster.
	ErrNoAnalyst = errors.New("sage: no analyst at cursor")
)

// Analyst is a synthetic persona that frames one interview.
type Analyst struct {
	Name        string `json:"name" yaml:"name"`
	Role        string `json:"role" yaml:"role"`
	Affiliation string `json:"affiliation" yaml:"affiliation"`
}

// Validate reports whether every field is set.
func (a Analyst) Validate() error {
	var missing []string
	if strings.TrimSpace(a.Name) == "" {
		missing = append(missing, "name")
	}
	if strings.TrimSpace(a.Role) == "" {
		missing = append(missing, "role")
	}
	if strings.TrimSpace(a.Affiliation) == "" {
		missing = append(missing, "affiliation")
	}
	if len(missing) > 0 {
		return fmt.Errorf("analyst: missing %s", strings.Join(missing, ", "))
	}
	return nil
}

// InterviewFailure records an interview round that was skipped because it
// failed while interview isolation was enabled.
type InterviewFailure struct {
	Analyst Analyst `json:"analyst" yaml:"analyst"`
	Error   string  `json:"error" yaml:"error"`
}

// State is the research record threaded through every transition.
type State struct {
	RunID        string             `json:"run_id" yaml:"run_id"`
	Topic        string             `json:"topic" yaml:"topic"`
	Analysts     []Analyst          `json:"analysts" yaml:"analysts"`
	Cursor       int                `json:"cursor" yaml:"cursor"`
	Sections     []string           `json:"sections" yaml:"sections"`
	Body         string             `json:"body" yaml:"body"`
	Introduction string             `json:"introduction" yaml:"introduction"`
	Conclusion   string             `json:"conclusion" yaml:"conclusion"`
	Final        string             `json:"final" yaml:"final"`
	Failures     []InterviewFailure `json:"failures,omitempty" yaml:"failures,omitempty"`
}

// Update names the fields a node changes. Nil pointers and slices leave the
// corresponding field untouched. Sections and Failures are appended.
type Update struct {
	Analysts     []Analyst
	Cursor       *int
	Sections     []string
	Body         *string
	Introduction *string
	Conclusion   *string
	Final        *string
	Failures     []InterviewFailure
}

// Apply merges u into a copy of s and returns it. The receiver's slices are
// never shared with the result.
func (s State) Apply(u Update) State {
	next := s
	if u.Analysts != nil {
		next.Analysts = append([]Analyst(nil), u.Analysts...)
	}
	if u.Cursor != nil {
		next.Cursor = *u.Cursor
	}
	if len(u.Sections) > 0 {
		next.Sections = append(append([]string(nil), s.Sections...), u.Sections...)
	}
	if u.Body != nil {
		next.Body = *u.Body
	}
	if u.Introduction != nil {
		next.Introduction = *u.Introduction
	}
	if u.Conclusion != nil {
		next.Conclusion = *u.Conclusion
	}
	if u.Final != nil {
		next.Final = *u.Final
	}
	if len(u.Failures) > 0 {
		next.Failures = append(append([]InterviewFailure(nil), s.Failures...), u.Failures...)
	}
	return next
}

// Check verifies the cursor and section bookkeeping.
func (s State) Check() error {
	if s.Cursor < 0 || s.Cursor > len(s.Analysts) {
		return fmt.Errorf("%w: cursor %d outside [0, %d]", ErrInvariant, s.Cursor, len(s.Analysts))
	}
	if len(s.Sections) != s.Cursor {
		return fmt.Errorf("%w: %d sections for cursor %d", ErrInvariant, len(s.Sections), s.Cursor)
	}
	return nil
}

// Done reports whether every analyst has been interviewed.
func (s State) Done() bool {
	return s.Cursor >= len(s.Analysts)
}

// CurrentAnalyst returns the persona at the cursor.
func (s State) CurrentAnalyst() (Analyst, error) {
	if s.Cursor < 0 || s.Cursor >= len(s.Analysts) {
		return Analyst{}, fmt.Errorf("%w: cursor %d, roster %d", ErrNoAnalyst, s.Cursor, len(s.Analysts))
	}
	return s.Analysts[s.Cursor], nil
}

func ptr[T any](v T) *T {
	return &v
}
