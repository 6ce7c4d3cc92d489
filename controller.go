package sage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mark3labs/sage/metrics"
)

// StageError reports the stage whose node aborted a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("sage: stage %s failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// Controller runs the research workflow for one topic at a time. A Controller
// keeps no per-run state and may be shared by concurrent runs.
type Controller struct {
	completer    Completer
	searcher     Searcher
	encyclopedia Encyclopedia

	logger          *zap.Logger
	metrics         *metrics.Metrics
	maxAttempts     int
	wait            time.Duration
	searchResults   int
	continueOnError bool
	nodes           map[Stage]Node
}

// Option configures a Controller.
type Option func(*Controller)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *Controller) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithMetrics records run and stage metrics into m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

// WithRetryPolicy sets how many times each node's Exec is attempted and how
// long to wait between attempts. The default is a single attempt.
func WithRetryPolicy(maxAttempts int, wait time.Duration) Option {
	return func(c *Controller) {
		c.maxAttempts = maxAttempts
		c.wait = wait
	}
}

// WithSearchResults sets how many web results each interview gathers.
func WithSearchResults(k int) Option {
	return func(c *Controller) {
		if k > 0 {
			c.searchResults = k
		}
	}
}

// WithInterviewErrorHandling controls what happens when an interview round
// fails. With continueOnError false (the default) the run aborts. With true
// the round is recorded in State.Failures, a placeholder section is written
// and the loop moves on to the next analyst.
func WithInterviewErrorHandling(continueOnError bool) Option {
	return func(c *Controller) {
		c.continueOnError = continueOnError
	}
}

// WithNode replaces the node executed for stage.
func WithNode(stage Stage, node Node) Option {
	return func(c *Controller) {
		if node != nil {
			c.nodes[stage] = node
		}
	}
}

// NewController wires the workflow nodes around the three collaborators.
func NewController(completer Completer, searcher Searcher, encyclopedia Encyclopedia, opts ...Option) *Controller {
	c := &Controller{
		completer:     completer,
		searcher:      searcher,
		encyclopedia:  encyclopedia,
		logger:        zap.NewNop(),
		maxAttempts:   1,
		searchResults: DefaultSearchResults,
		nodes:         make(map[Stage]Node),
	}
	for _, opt := range opts {
		opt(c)
	}

	nodeOpts := []NodeOption{WithMaxRetries(c.maxAttempts), WithWait(c.wait)}
	interview := &interviewNode{
		BaseNodeG:       NewBaseNodeG[interviewInput, interviewOutput](nodeOpts...),
		completer:       c.completer,
		searcher:        c.searcher,
		encyclopedia:    c.encyclopedia,
		searchResults:   c.searchResults,
		continueOnError: c.continueOnError,
		logger:          c.logger,
	}
	report := &reportNode{
		BaseNodeG: NewBaseNodeG[reportInput, string](nodeOpts...),
		completer: c.completer,
		logger:    c.logger,
	}
	intro := &introNode{
		BaseNodeG: NewBaseNodeG[introInput, introOutput](nodeOpts...),
		completer: c.completer,
		logger:    c.logger,
	}

	defaults := map[Stage]Node{
		StageCreateAnalysts:       newPersonaNode(c.completer, c.logger, c.metrics.Fallback, nodeOpts...),
		StageConductInterview:     NewNodeAdapter[interviewInput, interviewOutput](interview),
		StageWriteReport:          NewNodeAdapter[reportInput, string](report),
		StageWriteIntroConclusion: NewNodeAdapter[introInput, introOutput](intro),
		StageFinalizeReport:       newFinalizeNode(nodeOpts...),
	}
	for stage, node := range defaults {
		if _, ok := c.nodes[stage]; !ok {
			c.nodes[stage] = node
		}
	}
	return c
}

// Run executes the workflow for topic and returns the final state. On
// failure the state merged so far is returned together with a *StageError.
func (c *Controller) Run(ctx context.Context, topic string) (State, error) {
	if strings.TrimSpace(topic) == "" {
		return State{}, ErrEmptyTopic
	}

	state := State{RunID: uuid.NewString(), Topic: topic}
	log := c.logger.With(zap.String("run_id", state.RunID))
	log.Info("Report run started", zap.String("topic", topic))

	started := time.Now()
	c.metrics.RunStarted()

	stage := StageCreateAnalysts
	for stage != StageDone {
		if err := ctx.Err(); err != nil {
			return state, c.abort(log, started, stage, fmt.Errorf("run cancelled: %w", err))
		}

		next, err := c.step(ctx, log, stage, state)
		if err != nil {
			return state, c.abort(log, started, stage, err)
		}

		to := Next(stage, next)
		log.Debug("Transition",
			zap.Stringer("from", stage),
			zap.Stringer("to", to),
			zap.Int("cursor", next.Cursor),
			zap.Int("analysts", len(next.Analysts)),
		)
		state = next
		stage = to
	}

	c.metrics.RunFinished("success", time.Since(started))
	log.Info("Report run finished",
		zap.Int("sections", len(state.Sections)),
		zap.Int("skipped_interviews", len(state.Failures)),
		zap.Duration("duration", time.Since(started)),
	)
	return state, nil
}

// step runs the node for stage and returns the merged state.
func (c *Controller) step(ctx context.Context, log *zap.Logger, stage Stage, state State) (State, error) {
	node, ok := c.nodes[stage]
	if !ok {
		return state, fmt.Errorf("no node registered for stage %s", stage)
	}

	started := time.Now()
	update, err := Run(ctx, node, state)
	if err != nil {
		c.metrics.StageFinished(stage.String(), "error", time.Since(started))
		return state, err
	}
	c.metrics.StageFinished(stage.String(), "success", time.Since(started))

	next := state.Apply(update)
	if err := next.Check(); err != nil {
		return state, err
	}
	if stage == StageConductInterview && next.Cursor != state.Cursor+1 {
		return state, fmt.Errorf("%w: interview moved cursor from %d to %d", ErrInvariant, state.Cursor, next.Cursor)
	}
	for range update.Failures {
		c.metrics.InterviewSkipped()
	}
	log.Debug("Stage completed", zap.Stringer("stage", stage), zap.Duration("duration", time.Since(started)))
	return next, nil
}

func (c *Controller) abort(log *zap.Logger, started time.Time, stage Stage, err error) error {
	c.metrics.RunFinished("error", time.Since(started))
	log.Error("Report run aborted", zap.Stringer("stage", stage), zap.Error(err))
	return &StageError{Stage: stage, Err: err}
}
