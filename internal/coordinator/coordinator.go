// Package coordinator layers collaboration strategies over the orchestrator:
// parallel fan-out, sequential context building, consensus synthesis,
// multi-round debate, specialist roles and the build pipeline.
package coordinator

import (
	"context"
	"fmt"

	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/orchestrator"
)

// Strategy selects how the providers collaborate on a prompt.
type Strategy string

const (
	// StrategyParallel runs every provider independently on the same prompt.
	StrategyParallel Strategy = "parallel"
	// StrategySequential runs providers one after another, each seeing
	// truncated context from its predecessors.
	StrategySequential Strategy = "sequential"
	// StrategyConsensus fans out in parallel, then synthesizes one answer.
	StrategyConsensus Strategy = "consensus"
	// StrategyDebate runs multiple rounds where each provider sees the
	// others' previous answers.
	StrategyDebate Strategy = "debate"
	// StrategySpecialist gives each provider a distinct role perspective.
	StrategySpecialist Strategy = "specialist"
	// StrategyBuild runs the phased code-building pipeline.
	StrategyBuild Strategy = "build"
)

// ParseStrategy validates a strategy name.
func ParseStrategy(s string) (Strategy, error) {
	switch Strategy(s) {
	case StrategyParallel, StrategySequential, StrategyConsensus,
		StrategyDebate, StrategySpecialist, StrategyBuild:
		return Strategy(s), nil
	default:
		return "", fmt.Errorf("unknown coordination strategy %q", s)
	}
}

// Round is one round of a debate.
type Round struct {
	Number    int               `json:"round"`
	Responses map[string]string `json:"responses"`
}

// Result is the outcome of one coordination run.
type Result struct {
	Strategy Strategy `json:"strategy"`
	// Order lists the providers that answered, in answer order.
	Order []string `json:"order"`
	// Responses maps provider name to its final answer.
	Responses map[string]string `json:"responses"`
	// Failures maps provider name to its error text.
	Failures map[string]string `json:"failures,omitempty"`
	// Synthesis is the consensus answer, when the strategy produces one.
	Synthesis string `json:"synthesis,omitempty"`
	// Rounds holds the full debate history, when the strategy is debate.
	Rounds []Round `json:"rounds,omitempty"`
}

// Coordinator runs collaboration strategies over an orchestrator's provider
// pool, sharing its event feed.
type Coordinator struct {
	orch *orchestrator.Orchestrator
	cfg  *config.Config
}

// New creates a coordinator over the given orchestrator.
func New(orch *orchestrator.Orchestrator) *Coordinator {
	return &Coordinator{orch: orch, cfg: orch.Config()}
}

// Run executes the named strategy. The build strategy has its own entry
// point; Run rejects it.
func (c *Coordinator) Run(ctx context.Context, strategy Strategy, prompt string) (*Result, error) {
	c.orch.Emit(orchestrator.Event{
		Type: orchestrator.EventCoordinationStarted,
		Mode: string(strategy),
	})

	var (
		res *Result
		err error
	)
	switch strategy {
	case StrategyParallel:
		res, err = c.parallel(ctx, prompt)
	case StrategySequential:
		res, err = c.sequential(ctx, prompt)
	case StrategyConsensus:
		res, err = c.consensus(ctx, prompt)
	case StrategyDebate:
		res, err = c.debate(ctx, prompt)
	case StrategySpecialist:
		res, err = c.specialist(ctx, prompt, nil)
	case StrategyBuild:
		return nil, fmt.Errorf("build strategy runs through Build, not Run")
	default:
		return nil, fmt.Errorf("unknown coordination strategy %q", strategy)
	}
	if err != nil {
		return nil, err
	}

	c.orch.Emit(orchestrator.Event{
		Type:    orchestrator.EventCoordinationCompleted,
		Mode:    string(strategy),
		Content: res.Synthesis,
	})
	return res, nil
}

// parallel is the tri-lam mode: every provider answers independently.
func (c *Coordinator) parallel(ctx context.Context, prompt string) (*Result, error) {
	c.orch.Emit(orchestrator.Event{Type: orchestrator.EventTriLamStarted})

	runs, err := c.orch.FanOut(ctx, prompt)
	if err != nil {
		return nil, err
	}
	res := collectRuns(StrategyParallel, runs)

	c.orch.Emit(orchestrator.Event{Type: orchestrator.EventTriLamCompleted})
	return res, nil
}

// sequential runs providers in sorted order, feeding each a truncated digest
// of the answers before it. A failed provider contributes a failure note to
// the context instead of an answer.
func (c *Coordinator) sequential(ctx context.Context, prompt string) (*Result, error) {
	names := c.orch.Enabled()
	if len(names) == 0 {
		return nil, orchestrator.ErrNoProviders
	}

	res := &Result{
		Strategy:  StrategySequential,
		Responses: make(map[string]string),
		Failures:  make(map[string]string),
	}
	var history []contextEntry

	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		run := c.orch.Run(ctx, name, sequentialPrompt(prompt, history))
		if run.State() == orchestrator.RunFailed {
			res.Failures[name] = run.Err().Error()
			history = append(history, contextEntry{
				provider: name,
				text:     fmt.Sprintf("(agent failed: %v)", run.Err()),
			})
			continue
		}
		res.Order = append(res.Order, name)
		res.Responses[name] = run.Answer()
		history = append(history, contextEntry{provider: name, text: run.Answer()})
	}

	if len(res.Responses) == 0 {
		return nil, orchestrator.ErrAllProvidersFailed
	}
	return res, nil
}

// consensus fans out in parallel, then asks the synthesis provider to merge
// the surviving answers. A failed synthesis falls back to the verbatim
// answer set rather than failing the run.
func (c *Coordinator) consensus(ctx context.Context, prompt string) (*Result, error) {
	runs, err := c.orch.FanOut(ctx, prompt)
	if err != nil {
		return nil, err
	}
	res := collectRuns(StrategyConsensus, runs)

	synthName := c.synthesisProvider()
	synthesis, err := c.orch.AskSingle(ctx, synthName, consensusPrompt(prompt, res.Order, res.Responses))
	if err != nil {
		c.orch.Emit(orchestrator.Event{
			Type:    orchestrator.EventStatusMessage,
			Message: fmt.Sprintf("consensus synthesis failed (%v); returning individual answers", err),
		})
		return res, nil
	}
	res.Synthesis = synthesis
	return res, nil
}

// debate runs the configured number of rounds. Round one answers the prompt
// directly; later rounds show each provider the other providers' previous
// answers and ask it to refine its position.
func (c *Coordinator) debate(ctx context.Context, prompt string) (*Result, error) {
	rounds := c.cfg.Coordination.DebateRounds
	if rounds < 1 {
		rounds = 1
	}

	res := &Result{
		Strategy:  StrategyDebate,
		Responses: make(map[string]string),
		Failures:  make(map[string]string),
	}

	var prev map[string]string
	for n := 1; n <= rounds; n++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prompts := make(map[string]string)
		for _, name := range c.orch.Enabled() {
			if n == 1 {
				prompts[name] = prompt
			} else {
				prompts[name] = debatePrompt(prompt, name, prev)
			}
		}

		runs, err := c.orch.FanOutPrompts(ctx, prompts)
		if err != nil {
			if len(res.Rounds) > 0 {
				break // keep the rounds that did complete
			}
			return nil, err
		}

		round := Round{Number: n, Responses: make(map[string]string)}
		for _, run := range runs {
			if run.State() == orchestrator.RunCompleted {
				round.Responses[run.Provider] = run.Answer()
			} else if run.Err() != nil {
				res.Failures[run.Provider] = run.Err().Error()
			}
		}
		res.Rounds = append(res.Rounds, round)
		prev = round.Responses
	}

	// Final positions are the last round each provider completed.
	for _, round := range res.Rounds {
		for name, answer := range round.Responses {
			if _, seen := res.Responses[name]; !seen {
				res.Order = append(res.Order, name)
			}
			res.Responses[name] = answer
		}
	}
	return res, nil
}

// specialist gives each provider a role to answer from. Missing roles fall
// back to a general assistant perspective.
func (c *Coordinator) specialist(ctx context.Context, prompt string, roles map[string]string) (*Result, error) {
	prompts := make(map[string]string)
	for _, name := range c.orch.Enabled() {
		role := roles[name]
		if role == "" {
			role = defaultRoles[name]
		}
		if role == "" {
			role = "general assistant"
		}
		prompts[name] = specialistPrompt(prompt, role)
	}

	runs, err := c.orch.FanOutPrompts(ctx, prompts)
	if err != nil {
		return nil, err
	}
	return collectRuns(StrategySpecialist, runs), nil
}

// Specialist runs the specialist strategy with explicit role assignments.
func (c *Coordinator) Specialist(ctx context.Context, prompt string, roles map[string]string) (*Result, error) {
	return c.specialist(ctx, prompt, roles)
}

// defaultRoles gives each known backend a distinct perspective when the
// caller assigns none.
var defaultRoles = map[string]string{
	"openai":    "software architect focused on structure and maintainability",
	"anthropic": "careful reviewer focused on correctness and edge cases",
	"gemini":    "product engineer focused on user experience and pragmatism",
	"ollama":    "performance engineer focused on efficiency",
	"llamacpp":  "minimalist engineer focused on simplicity",
}

// synthesisProvider picks who writes the consensus: the configured provider
// when it is usable, otherwise the first enabled provider in sorted order.
func (c *Coordinator) synthesisProvider() string {
	if name := c.cfg.Coordination.SynthesisProvider; name != "" {
		if _, ok := c.orch.Provider(name); ok {
			return name
		}
	}
	names := c.orch.Enabled()
	if len(names) == 0 {
		return ""
	}
	return names[0]
}

// collectRuns folds terminal runs into a Result.
func collectRuns(strategy Strategy, runs []*orchestrator.AgentRun) *Result {
	res := &Result{
		Strategy:  strategy,
		Responses: make(map[string]string),
		Failures:  make(map[string]string),
	}
	for _, run := range runs {
		if run.State() == orchestrator.RunCompleted {
			res.Order = append(res.Order, run.Provider)
			res.Responses[run.Provider] = run.Answer()
		} else if run.Err() != nil {
			res.Failures[run.Provider] = run.Err().Error()
		}
	}
	return res
}
