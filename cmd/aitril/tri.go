package main

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/professai/aitril/internal/orchestrator"
	"github.com/professai/aitril/internal/provider"
)

var triCmd = &cobra.Command{
	Use:   "tri <prompt>",
	Short: "Fan a prompt out to every enabled provider",
	Long: `Run the tri-lam: every enabled provider answers the same prompt in
parallel, and the answers are printed side by side. A slow or failing
provider never blocks the others.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runTri,
}

func runTri(cmd *cobra.Command, args []string) error {
	prompt := strings.Join(args, " ")

	cfg, err := requireProviders(2)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	orch := orchestrator.New(cfg)
	wait := startPrinter(orch, printerOptions{})

	started := time.Now()
	runs, err := orch.FanOut(ctx, prompt)
	orch.Close()
	wait()

	if err != nil && !errors.Is(err, orchestrator.ErrAllProvidersFailed) {
		return err
	}

	banner("\U0001F9EC TRI-LAM RESULTS")
	responses := make(map[string]string, len(runs))
	for _, run := range runs {
		section(provider.DisplayName(run.Provider))
		if runErr := run.Err(); runErr != nil {
			errorColor.Printf("error: %v\n", runErr)
			continue
		}
		fmt.Println(run.Answer())
		responses[run.Provider] = run.Answer()
	}
	dimColor.Printf("\ncompleted in %s\n", time.Since(started).Round(time.Millisecond))

	saveTurn(cfg, "", prompt, "parallel", responses, started)
	return err
}
