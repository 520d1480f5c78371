package pipeline

import (
	"context"
	"sync/atomic"
)

// State represents the lifecycle of a pipeline
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateCompleted
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateCompleted:
		return "completed"
	case StateFaulted:
		return "faulted"
	default:
		return "unknown"
	}
}

// Pipeline is a single-use chain of behaviours around a terminal step.
// Behaviours run in slice order, the first one outermost.
type Pipeline struct {
	behaviors []Behavior
	terminal  Terminal
	state     atomic.Int32
	cursor    atomic.Int32
}

// New assembles a pipeline in the idle state. It panics if terminal is nil.
func New(terminal Terminal, behaviors ...Behavior) *Pipeline {
	if terminal == nil {
		panic("pipeline: terminal step cannot be nil")
	}

	p := &Pipeline{
		behaviors: make([]Behavior, len(behaviors)),
		terminal:  terminal,
	}
	copy(p.behaviors, behaviors)
	return p
}

// Len returns the number of behaviours, excluding the terminal step
func (p *Pipeline) Len() int {
	return len(p.behaviors)
}

// State returns the current lifecycle state
func (p *Pipeline) State() State {
	return State(p.state.Load())
}

// Cursor returns the index of the step most recently entered. It equals Len()
// once the terminal step has been reached.
func (p *Pipeline) Cursor() int {
	return int(p.cursor.Load())
}

// Execute drives the pipeline from idle to completed or faulted. It may be
// called once; later calls return a UsageError.
func (p *Pipeline) Execute(ctx context.Context, req any) (any, error) {
	if !p.state.CompareAndSwap(int32(StateIdle), int32(StateRunning)) {
		return nil, &UsageError{Op: "execute", Step: -1, State: p.State()}
	}
	// A panicking step leaves the pipeline faulted while the panic unwinds
	defer p.state.CompareAndSwap(int32(StateRunning), int32(StateFaulted))

	out, err := p.invoke(ctx, req, 0)
	if err != nil {
		p.state.Store(int32(StateFaulted))
		return out, err
	}

	p.state.Store(int32(StateCompleted))
	return out, nil
}

func (p *Pipeline) invoke(ctx context.Context, req any, index int) (any, error) {
	p.cursor.Store(int32(index))

	if index >= len(p.behaviors) {
		return p.terminal(ctx, req)
	}

	return p.behaviors[index].Handle(ctx, req, p.continuation(index))
}

func (p *Pipeline) continuation(index int) Next {
	var used atomic.Bool

	return func(ctx context.Context, req any) (any, error) {
		if state := p.State(); state != StateRunning {
			return nil, &UsageError{Op: "continue", Step: index, State: state}
		}
		if !used.CompareAndSwap(false, true) {
			return nil, &UsageError{Op: "continue", Step: index, State: StateRunning}
		}

		return p.invoke(ctx, req, index+1)
	}
}
