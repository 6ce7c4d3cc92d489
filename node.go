// Package sage turns a research topic into a multi-section report by running a
// panel of analyst personas through retrieval-augmented interviews and
// synthesizing what they learn.
//
// The workflow is a small state machine. Each step is a Node with a
// prep -> exec -> post lifecycle: Prep reads what it needs from the current
// State, Exec talks to the outside world, and Post turns the result into an
// Update that the Controller merges before choosing the next Stage.
//
// Example:
//
//	ctrl := sage.NewController(completer, searcher, encyclopedia,
//	    sage.WithLogger(logger),
//	)
//
//	state, err := ctrl.Run(ctx, "quantum computing")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(state.Final)
package sage

import (
	"context"
	"fmt"
	"time"
)

// Node is one step of the workflow.
//
// Nodes never mutate State. Post describes the fields the step changes as an
// Update and the Controller merges it.
type Node interface {
	// Prep extracts the step's input from the state.
	Prep(ctx context.Context, state State) (any, error)

	// Exec does the step's work. It may be attempted several times and must
	// not depend on State.
	Exec(ctx context.Context, prepResult any) (any, error)

	// Post turns the step's output into an Update.
	Post(ctx context.Context, state State, prepResult, execResult any) (Update, error)
}

// RetryableNode is a Node with its own retry policy.
type RetryableNode interface {
	Node
	GetMaxRetries() int
	GetWait() time.Duration
}

// FallbackNode is consulted once Exec has failed on every attempt. Returning
// a nil error recovers the step.
type FallbackNode interface {
	ExecFallback(prepResult any, err error) (any, error)
}

// BaseNode carries a retry policy and no-op lifecycle methods. Embed it and
// override what the step needs.
type BaseNode struct {
	maxRetries int
	wait       time.Duration
}

// NodeOption configures a BaseNode.
type NodeOption func(*BaseNode)

// NewBaseNode returns a BaseNode that attempts Exec once.
func NewBaseNode(opts ...NodeOption) *BaseNode {
	n := &BaseNode{maxRetries: 1}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// WithMaxRetries sets the maximum number of Exec attempts. Values below one
// are treated as one.
func WithMaxRetries(retries int) NodeOption {
	return func(n *BaseNode) {
		n.maxRetries = max(retries, 1)
	}
}

// WithWait sets the pause between Exec attempts.
func WithWait(wait time.Duration) NodeOption {
	return func(n *BaseNode) {
		n.wait = wait
	}
}

func (n *BaseNode) GetMaxRetries() int { return n.maxRetries }

func (n *BaseNode) GetWait() time.Duration { return n.wait }

func (n *BaseNode) Prep(ctx context.Context, state State) (any, error) {
	return nil, nil
}

func (n *BaseNode) Exec(ctx context.Context, prepResult any) (any, error) {
	return nil, nil
}

func (n *BaseNode) Post(ctx context.Context, state State, prepResult, execResult any) (Update, error) {
	return Update{}, nil
}

// ExecFallback gives up with the last Exec error.
func (n *BaseNode) ExecFallback(prepResult any, err error) (any, error) {
	return nil, err
}

// Run drives node through prep, exec and post against state and returns the
// node's Update. Exec is retried according to the node's policy, then handed
// to ExecFallback if the node has one.
func Run(ctx context.Context, node Node, state State) (Update, error) {
	if err := ctx.Err(); err != nil {
		return Update{}, fmt.Errorf("run: context cancelled: %w", err)
	}

	prepResult, err := node.Prep(ctx, state)
	if err != nil {
		return Update{}, fmt.Errorf("run: prep failed: %w", err)
	}

	execResult, err := execWithRetries(ctx, node, prepResult)
	if err != nil {
		return Update{}, err
	}

	update, err := node.Post(ctx, state, prepResult, execResult)
	if err != nil {
		return Update{}, fmt.Errorf("run: post failed: %w", err)
	}
	return update, nil
}

func execWithRetries(ctx context.Context, node Node, prepResult any) (any, error) {
	attempts, wait := 1, time.Duration(0)
	if r, ok := node.(RetryableNode); ok {
		attempts, wait = max(r.GetMaxRetries(), 1), r.GetWait()
	}

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 && wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, fmt.Errorf("run: context cancelled while waiting to retry: %w", ctx.Err())
			}
		}
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("run: context cancelled before attempt %d: %w", attempt+1, err)
		}

		result, err := node.Exec(ctx, prepResult)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}

	if fb, ok := node.(FallbackNode); ok {
		result, err := fb.ExecFallback(prepResult, lastErr)
		if err == nil {
			return result, nil
		}
		lastErr = err
	}
	return nil, fmt.Errorf("run: exec failed after %d attempts: %w", attempts, lastErr)
}

// FuncNode is a Node assembled from plain functions. Missing functions fall
// back to the BaseNode no-ops.
type FuncNode struct {
	*BaseNode
	prep func(context.Context, State) (any, error)
	exec func(context.Context, any) (any, error)
	post func(context.Context, State, any, any) (Update, error)
}

func (n *FuncNode) Prep(ctx context.Context, state State) (any, error) {
	if n.prep == nil {
		return n.BaseNode.Prep(ctx, state)
	}
	return n.prep(ctx, state)
}

func (n *FuncNode) Exec(ctx context.Context, prepResult any) (any, error) {
	if n.exec == nil {
		return n.BaseNode.Exec(ctx, prepResult)
	}
	return n.exec(ctx, prepResult)
}

func (n *FuncNode) Post(ctx context.Context, state State, prepResult, execResult any) (Update, error) {
	if n.post == nil {
		return n.BaseNode.Post(ctx, state, prepResult, execResult)
	}
	return n.post(ctx, state, prepResult, execResult)
}

// FuncOption sets one of a FuncNode's functions.
type FuncOption func(*FuncNode)

// NewNode builds a FuncNode. opts may mix FuncOption and NodeOption values;
// anything else is ignored.
func NewNode(opts ...any) Node {
	n := &FuncNode{BaseNode: NewBaseNode()}
	for _, opt := range opts {
		switch o := opt.(type) {
		case FuncOption:
			o(n)
		case NodeOption:
			o(n.BaseNode)
		}
	}
	return n
}

func WithPrepFunc(fn func(context.Context, State) (any, error)) FuncOption {
	return func(n *FuncNode) { n.prep = fn }
}

func WithExecFunc(fn func(context.Context, any) (any, error)) FuncOption {
	return func(n *FuncNode) { n.exec = fn }
}

func WithPostFunc(fn func(context.Context, State, any, any) (Update, error)) FuncOption {
	return func(n *FuncNode) { n.post = fn }
}
