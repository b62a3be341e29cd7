package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/professai/aitril/internal/orchestrator"
	"github.com/professai/aitril/internal/provider"
)

var askCmd = &cobra.Command{
	Use:   "ask <provider> <prompt>",
	Short: "Ask a single provider",
	Long: `Ask one provider a question and stream its answer.

Accepts friendly names: gpt (openai), claude (anthropic), gemini.

Examples:
  aitril ask claude "Explain goroutine scheduling"
  aitril ask gpt "Write a haiku about compilers"`,
	Args: cobra.MinimumNArgs(2),
	RunE: runAsk,
}

func runAsk(cmd *cobra.Command, args []string) error {
	name := canonicalProvider(args[0])
	prompt := strings.Join(args[1:], " ")

	cfg, err := requireProviders(1)
	if err != nil {
		return err
	}
	if pc, ok := cfg.Providers[name]; !ok || !pc.Enabled {
		return fmt.Errorf("provider %q is not enabled; enabled: %s", name, strings.Join(cfg.EnabledProviders(), ", "))
	}

	ctx, cancel := signalContext()
	defer cancel()

	orch := orchestrator.New(cfg)
	wait := startPrinter(orch, printerOptions{chunks: true})

	banner(provider.DisplayName(name))
	run := orch.Run(ctx, name, prompt)
	orch.Close()
	wait()
	fmt.Println()

	if err := run.Err(); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}
