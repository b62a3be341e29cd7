package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/provider"
	"github.com/professai/aitril/internal/tool"
)

// ErrAllProvidersFailed indicates every provider in a fan-out failed.
var ErrAllProvidersFailed = errors.New("all providers failed")

// ErrNoProviders indicates no provider is enabled and constructable.
var ErrNoProviders = errors.New("no providers enabled: run 'aitril init' or set an API key")

const defaultEventBuffer = 256

// toolSystemPrompt frames the agent when the tool loop is active.
const toolSystemPrompt = "You are a helpful assistant. You may call the available tools when they help you answer. Give a direct final answer once you have what you need."

// Orchestrator owns the provider pool and the event feed. One orchestrator
// serves one session; it is safe for concurrent use.
type Orchestrator struct {
	cfg       *config.Config
	providers map[string]provider.Provider
	emitter   *Emitter
	tools     *tool.Registry
}

// New builds an orchestrator from the config snapshot. Providers that fail to
// construct (missing key, bad config) are skipped with a warning so one
// misconfigured backend never takes down the rest.
func New(cfg *config.Config) *Orchestrator {
	providers := make(map[string]provider.Provider)
	for _, name := range cfg.EnabledProviders() {
		p, err := provider.New(name, cfg.Providers[name])
		if err != nil {
			log.Printf("[orchestrator] skipping provider %s: %v", name, err)
			continue
		}
		providers[name] = p
	}
	return NewWithProviders(cfg, providers)
}

// NewWithProviders builds an orchestrator over an explicit provider set.
func NewWithProviders(cfg *config.Config, providers map[string]provider.Provider) *Orchestrator {
	if providers == nil {
		providers = make(map[string]provider.Provider)
	}
	return &Orchestrator{
		cfg:       cfg,
		providers: providers,
		emitter:   NewEmitter(defaultEventBuffer),
		tools:     tool.NewRegistry(),
	}
}

// Events returns the multiplexed event feed.
func (o *Orchestrator) Events() <-chan Event {
	return o.emitter.Events()
}

// Emit publishes an event on the feed. Coordination layers stacked on top of
// the orchestrator use this to share the same feed.
func (o *Orchestrator) Emit(event Event) {
	o.emitter.Emit(event)
}

// Close closes the event feed. Call only after all work has finished.
func (o *Orchestrator) Close() {
	o.emitter.Close()
}

// Config returns the config snapshot the orchestrator was built from.
func (o *Orchestrator) Config() *config.Config {
	return o.cfg
}

// Enabled returns the usable provider names in sorted order.
func (o *Orchestrator) Enabled() []string {
	names := make([]string, 0, len(o.providers))
	for name := range o.providers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Provider returns the named provider instance.
func (o *Orchestrator) Provider(name string) (provider.Provider, bool) {
	p, ok := o.providers[name]
	return p, ok
}

// toolLoopFor returns a configured tool loop when the named provider has
// tools enabled and can drive them.
func (o *Orchestrator) toolLoopFor(name string) (*tool.Loop, tool.Caller, bool) {
	p, ok := o.providers[name]
	if !ok {
		return nil, nil, false
	}
	if !o.cfg.Providers[name].EnableTools {
		return nil, nil, false
	}
	caller, ok := p.(tool.Caller)
	if !ok {
		return nil, nil, false
	}
	return tool.NewLoop(o.tools, o.cfg.Coordination.MaxToolIterations), caller, true
}

// AskSingle sends a prompt to one provider and returns the complete answer
// without emitting events. Tool-capable providers with tools enabled run the
// tool loop.
func (o *Orchestrator) AskSingle(ctx context.Context, name, prompt string) (string, error) {
	p, ok := o.providers[name]
	if !ok {
		return "", fmt.Errorf("provider %q is not enabled", name)
	}

	if loop, caller, ok := o.toolLoopFor(name); ok {
		res, err := loop.Run(ctx, caller, toolSystemPrompt, prompt)
		if err != nil {
			return "", err
		}
		return res.Text, nil
	}
	return p.Ask(ctx, prompt)
}

// Run streams one provider's answer to one prompt, emitting agent_started,
// agent_chunk and a terminal agent_completed or agent_error. It blocks until
// the run is terminal and returns it.
func (o *Orchestrator) Run(ctx context.Context, name, prompt string) *AgentRun {
	run := NewAgentRun(name)
	o.execute(ctx, run, prompt)
	return run
}

// FanOut sends the same prompt to every enabled provider concurrently. It
// blocks until every run is terminal. The returned error is non-nil only
// when there are no providers or every run failed; individual failures are
// recorded on the runs and the survivors' answers stand.
func (o *Orchestrator) FanOut(ctx context.Context, prompt string) ([]*AgentRun, error) {
	prompts := make(map[string]string, len(o.providers))
	for _, name := range o.Enabled() {
		prompts[name] = prompt
	}
	return o.FanOutPrompts(ctx, prompts)
}

// FanOutPrompts sends a per-provider prompt to each named provider
// concurrently. Providers not in the pool are skipped.
func (o *Orchestrator) FanOutPrompts(ctx context.Context, prompts map[string]string) ([]*AgentRun, error) {
	names := make([]string, 0, len(prompts))
	for name := range prompts {
		if _, ok := o.providers[name]; ok {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if len(names) == 0 {
		return nil, ErrNoProviders
	}

	runs := make([]*AgentRun, len(names))
	var wg sync.WaitGroup
	for i, name := range names {
		runs[i] = NewAgentRun(name)
		wg.Add(1)
		go func(run *AgentRun, prompt string) {
			defer wg.Done()
			o.execute(ctx, run, prompt)
		}(runs[i], prompts[name])
	}
	wg.Wait()

	failed := 0
	for _, run := range runs {
		if run.State() == RunFailed {
			failed++
		}
	}
	if failed == len(runs) {
		return runs, ErrAllProvidersFailed
	}
	return runs, nil
}

// execute drives one run to a terminal state, emitting events along the way.
func (o *Orchestrator) execute(ctx context.Context, run *AgentRun, prompt string) {
	name := run.Provider
	p, ok := o.providers[name]
	if !ok {
		err := fmt.Errorf("provider %q is not enabled", name)
		run.Fail(err)
		o.emitAgentError(name, err)
		return
	}

	run.Start()
	o.Emit(Event{
		Type:         EventAgentStarted,
		Agent:        name,
		AgentDisplay: p.DisplayName(),
	})

	if loop, caller, ok := o.toolLoopFor(name); ok {
		o.executeToolLoop(ctx, run, loop, caller, prompt)
		return
	}

	ch, err := p.AskStream(ctx, prompt)
	if err != nil {
		run.Fail(err)
		o.emitAgentError(name, err)
		return
	}

	for chunk := range ch {
		if chunk.Err != nil {
			run.Fail(chunk.Err)
			o.emitAgentError(name, chunk.Err)
			return
		}
		run.AppendChunk(chunk.Text)
		o.Emit(Event{
			Type:         EventAgentChunk,
			Agent:        name,
			AgentDisplay: p.DisplayName(),
			Content:      chunk.Text,
		})
	}
	if err := ctx.Err(); err != nil {
		run.Fail(err)
		o.emitAgentError(name, err)
		return
	}

	run.Complete()
	o.Emit(Event{
		Type:         EventAgentCompleted,
		Agent:        name,
		AgentDisplay: p.DisplayName(),
		Content:      run.Answer(),
	})
}

// executeToolLoop drives a tools-enabled run. Tool actions surface as status
// messages; the final answer arrives as one chunk plus the completion event.
func (o *Orchestrator) executeToolLoop(ctx context.Context, run *AgentRun, loop *tool.Loop, caller tool.Caller, prompt string) {
	name := run.Provider
	display := provider.DisplayName(name)

	loop.OnAction = func(call tool.Call) {
		o.Emit(Event{
			Type:         EventStatusMessage,
			Agent:        name,
			AgentDisplay: display,
			Message:      fmt.Sprintf("%s is using tool: %s", display, call.Name),
		})
	}

	res, err := loop.Run(ctx, caller, toolSystemPrompt, prompt)
	if err != nil {
		run.Fail(err)
		o.emitAgentError(name, err)
		return
	}

	run.AppendChunk(res.Text)
	o.Emit(Event{
		Type:         EventAgentChunk,
		Agent:        name,
		AgentDisplay: display,
		Content:      res.Text,
	})

	if res.LimitHit {
		run.MarkLimited()
		o.Emit(Event{
			Type:         EventStatusMessage,
			Agent:        name,
			AgentDisplay: display,
			Message:      fmt.Sprintf("%s stopped after %d tool iterations; answer may be partial", display, res.Iterations),
		})
	}

	run.Complete()
	o.Emit(Event{
		Type:         EventAgentCompleted,
		Agent:        name,
		AgentDisplay: display,
		Content:      run.Answer(),
	})
}

func (o *Orchestrator) emitAgentError(name string, err error) {
	o.Emit(Event{
		Type:         EventAgentError,
		Agent:        name,
		AgentDisplay: provider.DisplayName(name),
		Error:        err.Error(),
	})
}
