package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/professai/aitril/internal/coordinator"
	"github.com/professai/aitril/internal/orchestrator"
	"github.com/professai/aitril/internal/provider"
)

var (
	coordinateStrategy string
	coordinateSession  string
)

var coordinateCmd = &cobra.Command{
	Use:   "coordinate <prompt>",
	Short: "Run a collaboration strategy across providers",
	Long: `Run one of the coordination strategies:

  parallel    every provider answers independently
  sequential  each provider sees its predecessors' answers
  consensus   parallel answers synthesized into one
  debate      multi-round refinement against the other answers
  specialist  each provider answers from a distinct role

For code building, use 'aitril build' instead.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runCoordinate,
}

func init() {
	coordinateCmd.Flags().StringVarP(&coordinateStrategy, "strategy", "s", "consensus", "Coordination strategy")
	coordinateCmd.Flags().StringVar(&coordinateSession, "session", "", "Session id to record the exchange under")
}

func runCoordinate(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")

	strategy, err := coordinator.ParseStrategy(coordinateStrategy)
	if err != nil {
		return err
	}
	if strategy == coordinator.StrategyBuild {
		return fmt.Errorf("use 'aitril build' for the build pipeline")
	}

	cfg, err := requireProviders(2)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	orch := orchestrator.New(cfg)
	wait := startPrinter(orch, printerOptions{})

	started := time.Now()
	res, err := coordinator.New(orch).Run(ctx, strategy, prompt)
	orch.Close()
	wait()
	if err != nil {
		return err
	}

	banner(fmt.Sprintf("COORDINATION RESULTS (%s)", res.Strategy))
	for _, name := range res.Order {
		section(provider.DisplayName(name))
		fmt.Println(res.Responses[name])
	}
	for name, failure := range res.Failures {
		section(provider.DisplayName(name))
		errorColor.Printf("error: %s\n", failure)
	}
	if res.Synthesis != "" {
		section("Synthesis")
		fmt.Println(res.Synthesis)
	}
	if len(res.Rounds) > 0 {
		dimColor.Printf("\n%d debate rounds\n", len(res.Rounds))
	}

	saveTurn(cfg, coordinateSession, prompt, string(res.Strategy), res.Responses, started)
	return nil
}
