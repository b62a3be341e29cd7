package coordinator

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/orchestrator"
	"github.com/professai/aitril/internal/provider"
)

// stub is a scriptable provider that records every prompt it receives.
type stub struct {
	name      string
	chunks    []string
	streamErr error
	askFn     func(prompt string) (string, error)

	mu      sync.Mutex
	prompts []string
}

func (s *stub) Name() string        { return s.name }
func (s *stub) DisplayName() string { return s.name }

func (s *stub) record(prompt string) {
	s.mu.Lock()
	s.prompts = append(s.prompts, prompt)
	s.mu.Unlock()
}

func (s *stub) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.prompts...)
}

func (s *stub) Ask(ctx context.Context, prompt string) (string, error) {
	s.record(prompt)
	if s.askFn != nil {
		return s.askFn(prompt)
	}
	if s.streamErr != nil {
		return "", s.streamErr
	}
	return strings.Join(s.chunks, ""), nil
}

func (s *stub) AskStream(ctx context.Context, prompt string) (<-chan provider.Chunk, error) {
	s.record(prompt)
	out := make(chan provider.Chunk)
	go func() {
		defer close(out)
		if s.streamErr != nil {
			out <- provider.Chunk{Err: s.streamErr}
			return
		}
		for _, c := range s.chunks {
			out <- provider.Chunk{Text: c}
		}
	}()
	return out, nil
}

func newTestCoordinator(t *testing.T, providers map[string]provider.Provider) (*Coordinator, *orchestrator.Orchestrator) {
	t.Helper()
	cfg := config.Default()
	orch := orchestrator.NewWithProviders(cfg, providers)
	return New(orch), orch
}

func drainEvents(orch *orchestrator.Orchestrator) <-chan []orchestrator.Event {
	done := make(chan []orchestrator.Event, 1)
	go func() {
		var events []orchestrator.Event
		for ev := range orch.Events() {
			events = append(events, ev)
		}
		done <- events
	}()
	return done
}

func eventTypes(events []orchestrator.Event) []orchestrator.EventType {
	out := make([]orchestrator.EventType, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Type)
	}
	return out
}

func hasType(events []orchestrator.Event, t orchestrator.EventType) bool {
	for _, ev := range events {
		if ev.Type == t {
			return true
		}
	}
	return false
}

func TestParseStrategy(t *testing.T) {
	for _, name := range []string{"parallel", "sequential", "consensus", "debate", "specialist", "build"} {
		if _, err := ParseStrategy(name); err != nil {
			t.Errorf("ParseStrategy(%q): %v", name, err)
		}
	}
	if _, err := ParseStrategy("vote"); err == nil {
		t.Error("expected error for unknown strategy")
	}
}

func TestParallelStrategy(t *testing.T) {
	c, orch := newTestCoordinator(t, map[string]provider.Provider{
		"alpha": &stub{name: "alpha", chunks: []string{"A"}},
		"beta":  &stub{name: "beta", chunks: []string{"B"}},
	})
	events := drainEvents(orch)

	res, err := c.Run(context.Background(), StrategyParallel, "question")
	orch.Close()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Responses["alpha"] != "A" || res.Responses["beta"] != "B" {
		t.Errorf("responses = %+v", res.Responses)
	}

	evs := <-events
	for _, want := range []orchestrator.EventType{
		orchestrator.EventCoordinationStarted,
		orchestrator.EventTriLamStarted,
		orchestrator.EventTriLamCompleted,
		orchestrator.EventCoordinationCompleted,
	} {
		if !hasType(evs, want) {
			t.Errorf("missing event %s in %v", want, eventTypes(evs))
		}
	}
}

func TestSequentialContextTruncated(t *testing.T) {
	long := strings.Repeat("x", 800)
	alpha := &stub{name: "alpha", chunks: []string{long}}
	beta := &stub{name: "beta", chunks: []string{"B"}}
	c, orch := newTestCoordinator(t, map[string]provider.Provider{
		"alpha": alpha, "beta": beta,
	})
	go func() {
		for range orch.Events() {
		}
	}()

	res, err := c.Run(context.Background(), StrategySequential, "question")
	orch.Close()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := res.Order; len(got) != 2 || got[0] != "alpha" || got[1] != "beta" {
		t.Fatalf("order = %v", got)
	}

	betaPrompts := beta.seen()
	if len(betaPrompts) != 1 {
		t.Fatalf("beta prompts = %d", len(betaPrompts))
	}
	p := betaPrompts[0]
	if !strings.Contains(p, "[Context from alpha]") {
		t.Error("beta prompt missing alpha context")
	}
	if strings.Contains(p, long) {
		t.Error("alpha context was not truncated")
	}
	if !strings.Contains(p, strings.Repeat("x", 500)+"...") {
		t.Error("truncation marker missing")
	}
	// The first provider sees the bare prompt.
	if alpha.seen()[0] != "question" {
		t.Errorf("alpha prompt = %q", alpha.seen()[0])
	}
}

func TestSequentialFailureNote(t *testing.T) {
	alpha := &stub{name: "alpha", streamErr: errors.New("quota")}
	beta := &stub{name: "beta", chunks: []string{"B"}}
	c, orch := newTestCoordinator(t, map[string]provider.Provider{
		"alpha": alpha, "beta": beta,
	})
	go func() {
		for range orch.Events() {
		}
	}()

	res, err := c.Run(context.Background(), StrategySequential, "q")
	orch.Close()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, ok := res.Failures["alpha"]; !ok {
		t.Error("alpha failure not recorded")
	}
	if !strings.Contains(beta.seen()[0], "agent failed") {
		t.Error("beta prompt missing failure note")
	}
}

func TestConsensusSynthesis(t *testing.T) {
	alpha := &stub{name: "alpha", chunks: []string{"A"}, askFn: func(string) (string, error) { return "SYNTH", nil }}
	beta := &stub{name: "beta", chunks: []string{"B"}}
	c, orch := newTestCoordinator(t, map[string]provider.Provider{
		"alpha": alpha, "beta": beta,
	})
	go func() {
		for range orch.Events() {
		}
	}()

	res, err := c.Run(context.Background(), StrategyConsensus, "q")
	orch.Close()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if res.Synthesis != "SYNTH" {
		t.Errorf("Synthesis = %q", res.Synthesis)
	}
	// The synthesis prompt carries both answers.
	asks := alpha.seen()
	last := asks[len(asks)-1]
	if !strings.Contains(last, "Response from alpha:\nA") || !strings.Contains(last, "Response from beta:\nB") {
		t.Errorf("synthesis prompt incomplete:\n%s", last)
	}
}

func TestConsensusSynthesisFailureKeepsAnswers(t *testing.T) {
	alpha := &stub{name: "alpha", chunks: []string{"A"}, askFn: func(string) (string, error) { return "", errors.New("down") }}
	c, orch := newTestCoordinator(t, map[string]provider.Provider{"alpha": alpha})
	events := drainEvents(orch)

	res, err := c.Run(context.Background(), StrategyConsensus, "q")
	orch.Close()
	if err != nil {
		t.Fatalf("synthesis failure must not fail the run: %v", err)
	}
	if res.Synthesis != "" {
		t.Errorf("Synthesis = %q, want empty", res.Synthesis)
	}
	if res.Responses["alpha"] != "A" {
		t.Errorf("individual answers lost: %+v", res.Responses)
	}
	if !hasType(<-events, orchestrator.EventStatusMessage) {
		t.Error("expected a status_message about the failed synthesis")
	}
}

func TestConsensusAllFail(t *testing.T) {
	c, orch := newTestCoordinator(t, map[string]provider.Provider{
		"alpha": &stub{name: "alpha", streamErr: errors.New("boom")},
	})
	go func() {
		for range orch.Events() {
		}
	}()
	_, err := c.Run(context.Background(), StrategyConsensus, "q")
	orch.Close()
	if !errors.Is(err, orchestrator.ErrAllProvidersFailed) {
		t.Fatalf("err = %v", err)
	}
}

func TestDebateRoundsSeeOthersAnswers(t *testing.T) {
	alpha := &stub{name: "alpha", chunks: []string{"alpha-position"}}
	beta := &stub{name: "beta", chunks: []string{"beta-position"}}
	c, orch := newTestCoordinator(t, map[string]provider.Provider{
		"alpha": alpha, "beta": beta,
	})
	go func() {
		for range orch.Events() {
		}
	}()

	res, err := c.Run(context.Background(), StrategyDebate, "topic")
	orch.Close()
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(res.Rounds) != 2 {
		t.Fatalf("rounds = %d, want 2 (config default)", len(res.Rounds))
	}

	betaPrompts := beta.seen()
	if len(betaPrompts) != 2 {
		t.Fatalf("beta saw %d prompts", len(betaPrompts))
	}
	if betaPrompts[0] != "topic" {
		t.Errorf("round 1 prompt = %q", betaPrompts[0])
	}
	round2 := betaPrompts[1]
	if !strings.Contains(round2, "alpha-position") {
		t.Error("round 2 prompt missing the other agent's answer")
	}
	if strings.Contains(round2, "beta-position") {
		t.Error("round 2 prompt should exclude the agent's own answer")
	}
}

func TestSpecialistRoles(t *testing.T) {
	alpha := &stub{name: "alpha", chunks: []string{"A"}}
	c, orch := newTestCoordinator(t, map[string]provider.Provider{"alpha": alpha})
	go func() {
		for range orch.Events() {
		}
	}()

	res, err := c.Specialist(context.Background(), "q", map[string]string{"alpha": "security auditor"})
	orch.Close()
	if err != nil {
		t.Fatalf("Specialist: %v", err)
	}
	if res.Responses["alpha"] != "A" {
		t.Errorf("responses = %+v", res.Responses)
	}
	if !strings.Contains(alpha.seen()[0], "security auditor") {
		t.Errorf("role missing from prompt: %q", alpha.seen()[0])
	}
}

func TestRunRejectsBuild(t *testing.T) {
	c, orch := newTestCoordinator(t, map[string]provider.Provider{
		"alpha": &stub{name: "alpha", chunks: []string{"A"}},
	})
	defer orch.Close()
	if _, err := c.Run(context.Background(), StrategyBuild, "q"); err == nil {
		t.Fatal("Run should reject the build strategy")
	}
}
