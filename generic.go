package sage

import (
	"context"
	"fmt"
	"time"
)

// NodeG is a generic version of Node for type-safe implementations
type NodeG[P, E any] interface {
	// PrepG reads and preprocesses data from the state with typed result
	PrepG(ctx context.Context, state State) (P, error)

	// ExecG executes the main logic with typed input and output
	ExecG(ctx context.Context, prepResult P) (E, error)

	// PostG converts typed results into a state update
	PostG(ctx context.Context, state State, prepResult P, execResult E) (Update, error)
}

// FallbackNodeG is implemented by generic nodes that can recover from an
// exhausted Exec.
type FallbackNodeG[P, E any] interface {
	ExecFallbackG(prepResult P, err error) (E, error)
}

// BaseNodeG provides a generic base implementation
type BaseNodeG[P, E any] struct {
	*BaseNode
}

// NewBaseNodeG creates a new generic BaseNode
func NewBaseNodeG[P, E any](opts ...NodeOption) *BaseNodeG[P, E] {
	return &BaseNodeG[P, E]{
		BaseNode: NewBaseNode(opts...),
	}
}

// PrepG default implementation
func (n *BaseNodeG[P, E]) PrepG(ctx context.Context, state State) (P, error) {
	var zero P
	return zero, nil
}

// ExecG default implementation
func (n *BaseNodeG[P, E]) ExecG(ctx context.Context, prepResult P) (E, error) {
	var zero E
	return zero, nil
}

// PostG default implementation
func (n *BaseNodeG[P, E]) PostG(ctx context.Context, state State, prepResult P, execResult E) (Update, error) {
	return Update{}, nil
}

// NodeAdapter adapts a generic node to the standard Node interface.
// Retry settings and fallbacks of the wrapped node are forwarded.
type NodeAdapter[P, E any] struct {
	node NodeG[P, E]
}

// NewNodeAdapter creates an adapter from generic to standard node
func NewNodeAdapter[P, E any](node NodeG[P, E]) Node {
	return &NodeAdapter[P, E]{node: node}
}

func (a *NodeAdapter[P, E]) Prep(ctx context.Context, state State) (any, error) {
	return a.node.PrepG(ctx, state)
}

func (a *NodeAdapter[P, E]) Exec(ctx context.Context, prepResult any) (any, error) {
	typed, err := assertPrep[P](prepResult)
	if err != nil {
		return nil, err
	}
	return a.node.ExecG(ctx, typed)
}

func (a *NodeAdapter[P, E]) Post(ctx context.Context, state State, prepResult, execResult any) (Update, error) {
	var p P
	var e E

	if typed, ok := prepResult.(P); ok {
		p = typed
	}
	if typed, ok := execResult.(E); ok {
		e = typed
	}

	return a.node.PostG(ctx, state, p, e)
}

// GetMaxRetries forwards the wrapped node's retry count.
func (a *NodeAdapter[P, E]) GetMaxRetries() int {
	if r, ok := a.node.(interface{ GetMaxRetries() int }); ok {
		return r.GetMaxRetries()
	}
	return 1
}

// GetWait forwards the wrapped node's retry wait.
func (a *NodeAdapter[P, E]) GetWait() time.Duration {
	if r, ok := a.node.(interface{ GetWait() time.Duration }); ok {
		return r.GetWait()
	}
	return 0
}

// ExecFallback forwards to the wrapped node when it implements FallbackNodeG.
func (a *NodeAdapter[P, E]) ExecFallback(prepResult any, err error) (any, error) {
	fb, ok := a.node.(FallbackNodeG[P, E])
	if !ok {
		return nil, err
	}
	typed, perr := assertPrep[P](prepResult)
	if perr != nil {
		return nil, err
	}
	return fb.ExecFallbackG(typed, err)
}

// RunG executes a generic node with type safety
func RunG[P, E any](ctx context.Context, node NodeG[P, E], state State) (Update, error) {
	return Run(ctx, NewNodeAdapter(node), state)
}

func assertPrep[P any](v any) (P, error) {
	var zero P
	if v == nil {
		return zero, nil
	}
	typed, ok := v.(P)
	if !ok {
		return zero, fmt.Errorf("adapter: prep result has type %T, expected %T", v, zero)
	}
	return typed, nil
}
