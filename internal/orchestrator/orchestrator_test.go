package orchestrator

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/provider"
	"github.com/professai/aitril/internal/tool"
)

// stubProvider streams canned chunks, optionally waiting on a gate first.
type stubProvider struct {
	name   string
	chunks []string
	err    error
	gate   chan struct{}
}

func (s *stubProvider) Name() string        { return s.name }
func (s *stubProvider) DisplayName() string { return "Stub (" + s.name + ")" }

func (s *stubProvider) Ask(ctx context.Context, prompt string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	var full string
	for _, c := range s.chunks {
		full += c
	}
	return full, nil
}

func (s *stubProvider) AskStream(ctx context.Context, prompt string) (<-chan provider.Chunk, error) {
	out := make(chan provider.Chunk)
	go func() {
		defer close(out)
		if s.gate != nil {
			select {
			case <-s.gate:
			case <-ctx.Done():
				out <- provider.Chunk{Err: ctx.Err()}
				return
			}
		}
		if s.err != nil {
			out <- provider.Chunk{Err: s.err}
			return
		}
		for _, c := range s.chunks {
			out <- provider.Chunk{Text: c}
		}
	}()
	return out, nil
}

// toolStub answers via the tool loop: one tool call, then a final answer.
type toolStub struct {
	stubProvider
}

func (s *toolStub) Turn(ctx context.Context, tr *tool.Transcript, defs []tool.Definition) (*tool.TurnResult, error) {
	if len(tr.Steps) == 0 {
		return &tool.TurnResult{
			Calls: []tool.Call{{ID: "c1", Name: "system_info", Args: map[string]any{"info_type": "os"}}},
		}, nil
	}
	return &tool.TurnResult{Text: "tooled answer"}, nil
}

func newTestOrchestrator(t *testing.T, providers map[string]provider.Provider) *Orchestrator {
	t.Helper()
	cfg := config.Default()
	return NewWithProviders(cfg, providers)
}

// drain collects the full event feed in the background.
func drain(o *Orchestrator) <-chan []Event {
	done := make(chan []Event, 1)
	go func() {
		var events []Event
		for ev := range o.Events() {
			events = append(events, ev)
		}
		done <- events
	}()
	return done
}

func countType(events []Event, t EventType) int {
	n := 0
	for _, ev := range events {
		if ev.Type == t {
			n++
		}
	}
	return n
}

func TestFanOutAllComplete(t *testing.T) {
	o := newTestOrchestrator(t, map[string]provider.Provider{
		"alpha": &stubProvider{name: "alpha", chunks: []string{"a1", "a2"}},
		"beta":  &stubProvider{name: "beta", chunks: []string{"b1"}},
	})
	events := drain(o)

	runs, err := o.FanOut(context.Background(), "hi")
	o.Close()
	if err != nil {
		t.Fatalf("FanOut: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("got %d runs", len(runs))
	}
	for _, run := range runs {
		if run.State() != RunCompleted {
			t.Errorf("run %s state = %s", run.Provider, run.State())
		}
	}
	if runs[0].Provider != "alpha" || runs[0].Answer() != "a1a2" {
		t.Errorf("alpha run = %s %q", runs[0].Provider, runs[0].Answer())
	}
	if runs[1].Answer() != "b1" {
		t.Errorf("beta answer = %q", runs[1].Answer())
	}

	evs := <-events
	if got := countType(evs, EventAgentStarted); got != 2 {
		t.Errorf("agent_started count = %d", got)
	}
	if got := countType(evs, EventAgentChunk); got != 3 {
		t.Errorf("agent_chunk count = %d", got)
	}
	if got := countType(evs, EventAgentCompleted); got != 2 {
		t.Errorf("agent_completed count = %d", got)
	}
}

func TestFanOutIsolatesFailure(t *testing.T) {
	o := newTestOrchestrator(t, map[string]provider.Provider{
		"alpha": &stubProvider{name: "alpha", err: errors.New("boom")},
		"beta":  &stubProvider{name: "beta", chunks: []string{"ok"}},
	})
	events := drain(o)

	runs, err := o.FanOut(context.Background(), "hi")
	o.Close()
	if err != nil {
		t.Fatalf("one survivor should not be an error: %v", err)
	}
	if runs[0].State() != RunFailed || runs[0].Err() == nil {
		t.Errorf("alpha should fail: state=%s err=%v", runs[0].State(), runs[0].Err())
	}
	if runs[1].State() != RunCompleted || runs[1].Answer() != "ok" {
		t.Errorf("beta should survive: state=%s answer=%q", runs[1].State(), runs[1].Answer())
	}

	evs := <-events
	if got := countType(evs, EventAgentError); got != 1 {
		t.Errorf("agent_error count = %d", got)
	}
}

func TestFanOutAllFail(t *testing.T) {
	o := newTestOrchestrator(t, map[string]provider.Provider{
		"alpha": &stubProvider{name: "alpha", err: errors.New("boom")},
		"beta":  &stubProvider{name: "beta", err: errors.New("bust")},
	})
	go func() {
		for range o.Events() {
		}
	}()

	runs, err := o.FanOut(context.Background(), "hi")
	o.Close()
	if !errors.Is(err, ErrAllProvidersFailed) {
		t.Fatalf("err = %v, want ErrAllProvidersFailed", err)
	}
	if len(runs) != 2 {
		t.Errorf("failed runs should still be returned: %d", len(runs))
	}
}

func TestFanOutEmptyPool(t *testing.T) {
	o := newTestOrchestrator(t, nil)
	defer o.Close()
	_, err := o.FanOut(context.Background(), "hi")
	if !errors.Is(err, ErrNoProviders) {
		t.Fatalf("err = %v, want ErrNoProviders", err)
	}
}

func TestSlowProviderDoesNotBlockFast(t *testing.T) {
	gate := make(chan struct{})
	o := newTestOrchestrator(t, map[string]provider.Provider{
		"fast": &stubProvider{name: "fast", chunks: []string{"quick"}},
		"slow": &stubProvider{name: "slow", chunks: []string{"late"}, gate: gate},
	})

	fastDone := make(chan struct{})
	events := make(chan []Event, 1)
	go func() {
		var evs []Event
		for ev := range o.Events() {
			if ev.Type == EventAgentCompleted && ev.Agent == "fast" {
				close(fastDone)
			}
			evs = append(evs, ev)
		}
		events <- evs
	}()

	go func() {
		// Release the slow provider only after the fast one's answer has
		// made it all the way through the feed.
		select {
		case <-fastDone:
		case <-time.After(5 * time.Second):
		}
		close(gate)
	}()

	runs, err := o.FanOut(context.Background(), "hi")
	o.Close()
	if err != nil {
		t.Fatalf("FanOut: %v", err)
	}

	select {
	case <-fastDone:
	default:
		t.Fatal("fast provider never completed; slow provider blocked the feed")
	}
	for _, run := range runs {
		if run.State() != RunCompleted {
			t.Errorf("run %s state = %s", run.Provider, run.State())
		}
	}
	<-events
}

func TestFanOutPromptsPerProvider(t *testing.T) {
	alpha := &stubProvider{name: "alpha", chunks: []string{"a"}}
	o := newTestOrchestrator(t, map[string]provider.Provider{"alpha": alpha})
	go func() {
		for range o.Events() {
		}
	}()

	runs, err := o.FanOutPrompts(context.Background(), map[string]string{
		"alpha":   "hello",
		"missing": "ignored",
	})
	o.Close()
	if err != nil {
		t.Fatalf("FanOutPrompts: %v", err)
	}
	if len(runs) != 1 || runs[0].Provider != "alpha" {
		t.Fatalf("runs = %+v", runs)
	}
}

func TestRunToolLoop(t *testing.T) {
	cfg := config.Default()
	cfg.Providers["alpha"] = config.ProviderConfig{Enabled: true, EnableTools: true}

	o := NewWithProviders(cfg, map[string]provider.Provider{
		"alpha": &toolStub{stubProvider{name: "alpha"}},
	})
	events := drain(o)

	run := o.Run(context.Background(), "alpha", "what os")
	o.Close()

	if run.State() != RunCompleted {
		t.Fatalf("state = %s, err = %v", run.State(), run.Err())
	}
	if run.Answer() != "tooled answer" {
		t.Errorf("answer = %q", run.Answer())
	}

	evs := <-events
	if got := countType(evs, EventStatusMessage); got != 1 {
		t.Errorf("status_message count = %d, want 1 tool action", got)
	}
	if got := countType(evs, EventAgentCompleted); got != 1 {
		t.Errorf("agent_completed count = %d", got)
	}
}

func TestAskSingleUnknownProvider(t *testing.T) {
	o := newTestOrchestrator(t, map[string]provider.Provider{
		"alpha": &stubProvider{name: "alpha", chunks: []string{"a"}},
	})
	defer o.Close()

	if _, err := o.AskSingle(context.Background(), "nope", "hi"); err == nil {
		t.Fatal("expected error for unknown provider")
	}
	got, err := o.AskSingle(context.Background(), "alpha", "hi")
	if err != nil || got != "a" {
		t.Fatalf("AskSingle = %q, %v", got, err)
	}
}

func TestAgentRunMonotonic(t *testing.T) {
	run := NewAgentRun("x")
	run.Start()
	run.AppendChunk("partial")
	run.Complete()
	if run.State() != RunCompleted {
		t.Fatalf("state = %s", run.State())
	}

	// Terminal states are absorbing.
	run.Fail(errors.New("late"))
	if run.State() != RunCompleted || run.Err() != nil {
		t.Errorf("terminal run mutated: state=%s err=%v", run.State(), run.Err())
	}
	run.AppendChunk("more")
	if run.Answer() != "partial" {
		t.Errorf("terminal run accumulated text: %q", run.Answer())
	}
}

func TestEmitterDropsWhenFull(t *testing.T) {
	e := NewEmitter(1)
	e.Emit(Event{Type: EventStatusMessage})
	// Buffer is full and nobody is draining; this emit must drop, not hang.
	done := make(chan struct{})
	go func() {
		e.Emit(Event{Type: EventStatusMessage})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Emit blocked on a full channel")
	}
	if e.DroppedCount() != 1 {
		t.Errorf("DroppedCount = %d", e.DroppedCount())
	}
}
