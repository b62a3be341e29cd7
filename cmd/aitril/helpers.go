package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/orchestrator"
	"github.com/professai/aitril/internal/provider"
	"github.com/professai/aitril/internal/state"
)

var (
	headerColor = color.New(color.FgCyan, color.Bold)
	agentColor  = color.New(color.FgGreen, color.Bold)
	warnColor   = color.New(color.FgYellow)
	errorColor  = color.New(color.FgRed)
	dimColor    = color.New(color.FgHiBlack)
)

// providerAliases maps the friendly names people type to internal provider
// identifiers.
var providerAliases = map[string]string{
	"gpt":    provider.NameOpenAI,
	"claude": provider.NameAnthropic,
	"gemini": provider.NameGemini,
}

// canonicalProvider resolves friendly aliases like "gpt" and "claude".
func canonicalProvider(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if canonical, ok := providerAliases[name]; ok {
		return canonical
	}
	return name
}

// signalContext returns a context cancelled by SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// requireProviders loads config and checks that at least min providers are
// enabled, pointing at 'aitril init' otherwise.
func requireProviders(min int) (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	enabled := cfg.EnabledProviders()
	if len(enabled) < min {
		return nil, fmt.Errorf("need at least %d enabled providers, have %d; run 'aitril init' or export provider API keys", min, len(enabled))
	}
	return cfg, nil
}

// banner prints a section heading framed by "=" rules, matching the tri-lam
// terminal output style.
func banner(title string) {
	rule := strings.Repeat("=", 60)
	headerColor.Println(rule)
	headerColor.Println(title)
	headerColor.Println(rule)
}

// section prints a per-agent heading framed by light rules.
func section(title string) {
	rule := strings.Repeat("─", 60)
	fmt.Println(rule)
	agentColor.Println(title)
	fmt.Println(rule)
}

// printerOptions control which event types the terminal printer echoes.
type printerOptions struct {
	// chunks streams agent_chunk content to stdout as it arrives.
	chunks bool
}

// startPrinter consumes the orchestrator event feed in the background and
// echoes progress to the terminal. The returned function blocks until the
// feed is drained; call orch.Close() first.
func startPrinter(orch *orchestrator.Orchestrator, opts printerOptions) func() {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range orch.Events() {
			switch ev.Type {
			case orchestrator.EventAgentChunk:
				if opts.chunks {
					fmt.Print(ev.Content)
				}
			case orchestrator.EventStatusMessage:
				dimColor.Println(ev.Message)
			case orchestrator.EventPhaseChanged:
				headerColor.Printf("\n[%s] %s\n", ev.Phase, ev.Message)
			case orchestrator.EventAgentError:
				errorColor.Printf("%s failed: %s\n", ev.AgentDisplay, ev.Error)
			}
		}
	}()
	return func() { <-done }
}

// historyDB opens the session history database, or returns nil when history
// is disabled.
func historyDB(cfg *config.Config) (*state.DB, error) {
	if !cfg.History.Enabled {
		return nil, nil
	}
	path := cfg.History.DBPath
	if path == "" {
		path = state.DefaultDBPath()
	}
	return state.Open(path)
}

// saveTurn records one exchange in the history database. A missing session
// id creates a new session named after the prompt. History failures are
// reported as warnings, never as run failures.
func saveTurn(cfg *config.Config, sessionID, prompt, strategy string, responses map[string]string, startedAt time.Time) {
	db, err := historyDB(cfg)
	if err != nil {
		warnColor.Printf("history unavailable: %v\n", err)
		return
	}
	if db == nil {
		return
	}
	defer db.Close()

	if sessionID == "" {
		name := prompt
		if len(name) > 60 {
			name = name[:60]
		}
		session, err := db.CreateSession(name)
		if err != nil {
			warnColor.Printf("history unavailable: %v\n", err)
			return
		}
		sessionID = session.ID
	}

	completed := time.Now()
	if _, err := db.RecordTurn(sessionID, prompt, strategy, responses, startedAt, &completed); err != nil {
		warnColor.Printf("record turn: %v\n", err)
	}
}
