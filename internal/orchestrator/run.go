package orchestrator

import (
	"strings"
	"sync"
)

// RunState is the lifecycle state of one agent run.
type RunState string

const (
	RunPending   RunState = "pending"
	RunActive    RunState = "active"
	RunStreaming RunState = "streaming"
	RunCompleted RunState = "completed"
	RunFailed    RunState = "failed"
)

// stateRank orders states so transitions can only move forward.
var stateRank = map[RunState]int{
	RunPending:   0,
	RunActive:    1,
	RunStreaming: 2,
	RunCompleted: 3,
	RunFailed:    3,
}

// Terminal reports whether the state is completed or failed.
func (s RunState) Terminal() bool {
	return s == RunCompleted || s == RunFailed
}

// AgentRun tracks one provider's progress on one prompt. State transitions
// are monotonic; once terminal, a run never changes again.
type AgentRun struct {
	Provider string

	mu      sync.Mutex
	state   RunState
	answer  strings.Builder
	err     error
	limited bool
}

// NewAgentRun creates a pending run for the named provider.
func NewAgentRun(provider string) *AgentRun {
	return &AgentRun{Provider: provider, state: RunPending}
}

// transition moves the run forward. Backward moves and moves out of a
// terminal state are ignored.
func (r *AgentRun) transition(to RunState) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Terminal() || stateRank[to] < stateRank[r.state] {
		return false
	}
	r.state = to
	return true
}

// Start marks the run active.
func (r *AgentRun) Start() { r.transition(RunActive) }

// AppendChunk accumulates streamed text and marks the run streaming.
func (r *AgentRun) AppendChunk(text string) {
	r.mu.Lock()
	if r.state.Terminal() {
		r.mu.Unlock()
		return
	}
	r.state = RunStreaming
	r.answer.WriteString(text)
	r.mu.Unlock()
}

// Complete marks the run completed.
func (r *AgentRun) Complete() { r.transition(RunCompleted) }

// Fail marks the run failed with the given error. The first failure wins.
func (r *AgentRun) Fail(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.state.Terminal() {
		return
	}
	r.state = RunFailed
	r.err = err
}

// MarkLimited records that the run's tool loop hit its iteration cap and the
// answer is partial.
func (r *AgentRun) MarkLimited() {
	r.mu.Lock()
	r.limited = true
	r.mu.Unlock()
}

// State returns the current state.
func (r *AgentRun) State() RunState {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// Answer returns the text accumulated so far.
func (r *AgentRun) Answer() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.answer.String()
}

// Err returns the failure, if any.
func (r *AgentRun) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Limited reports whether the answer was cut short by the tool loop's
// iteration cap.
func (r *AgentRun) Limited() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.limited
}
