package tool

import (
	"context"
	"fmt"
)

// Caller is implemented by providers that support tool use. Turn sends the
// transcript and the tool catalog, and returns the provider's next turn:
// text, tool calls, or both. A Turn with no calls is the final answer.
type Caller interface {
	Turn(ctx context.Context, tr *Transcript, defs []Definition) (*TurnResult, error)
}

// LoopState tracks where an agent's tool loop currently is.
type LoopState string

const (
	StateAwaitingResponse     LoopState = "awaiting_response"
	StateExecutingTools       LoopState = "executing_tools"
	StateAwaitingContinuation LoopState = "awaiting_continuation"
	StateDone                 LoopState = "done"
)

// LoopResult is the outcome of one agent's tool loop.
type LoopResult struct {
	// Text is the final answer, or the best partial answer if LimitHit.
	Text string
	// State is the loop's terminal state.
	State LoopState
	// Iterations is the number of provider turns consumed.
	Iterations int
	// LimitHit reports that the loop terminated because the iteration cap
	// was reached with tool calls still pending.
	LimitHit bool
}

// Loop drives a tool-capable provider: execute each emitted call
// independently, append all results to the transcript, re-invoke. Repeats
// until the provider answers without tool calls or the iteration cap is hit.
type Loop struct {
	registry      *Registry
	maxIterations int

	// OnAction, if set, is called before each tool executes. Used to surface
	// tool activity as status events.
	OnAction func(Call)
}

// NewLoop creates a loop over the given registry. A non-positive cap falls
// back to 5 iterations.
func NewLoop(registry *Registry, maxIterations int) *Loop {
	if maxIterations <= 0 {
		maxIterations = 5
	}
	return &Loop{registry: registry, maxIterations: maxIterations}
}

// Run executes the loop for one prompt and returns the final (or partial)
// answer. An error return means the provider itself failed or the context
// was cancelled; tool failures never abort the loop.
func (l *Loop) Run(ctx context.Context, caller Caller, system, prompt string) (*LoopResult, error) {
	tr := &Transcript{System: system, Prompt: prompt}
	res := &LoopResult{State: StateAwaitingResponse}

	for res.Iterations < l.maxIterations {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		res.Iterations++
		res.State = StateAwaitingResponse

		turn, err := caller.Turn(ctx, tr, l.registry.Definitions())
		if err != nil {
			return res, fmt.Errorf("provider turn %d: %w", res.Iterations, err)
		}
		if turn.Text != "" {
			res.Text = turn.Text
		}

		if len(turn.Calls) == 0 {
			res.State = StateDone
			return res, nil
		}

		res.State = StateExecutingTools
		results := make([]Result, 0, len(turn.Calls))
		for _, call := range turn.Calls {
			if l.OnAction != nil {
				l.OnAction(call)
			}
			// Sibling calls in one turn carry no ordering dependency; each
			// resolves independently and a failure becomes an error result.
			results = append(results, l.registry.Execute(ctx, call))
		}

		tr.Steps = append(tr.Steps, Step{Text: turn.Text, Calls: turn.Calls, Results: results})
		res.State = StateAwaitingContinuation
	}

	// Cap reached with the provider still asking for tools: surface whatever
	// partial answer exists, tagged.
	res.State = StateDone
	res.LimitHit = true
	return res, nil
}
