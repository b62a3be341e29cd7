package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/professai/aitril/internal/artifact"
	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/coordinator"
	"github.com/professai/aitril/internal/deploy"
	"github.com/professai/aitril/internal/orchestrator"
)

var buildDeployTarget string

var buildCmd = &cobra.Command{
	Use:   "build <task>",
	Short: "Build code collaboratively through phased coordination",
	Long: `Run the build pipeline: providers agree on a plan, implement it
sequentially, review the result with consensus, and revise rejected files
a bounded number of times.

Pass --deploy to send the verified artifacts to a configured target
afterwards (local, docker, github, ec2), or --deploy skip to finish
without deploying. Without --deploy, the available targets are listed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringVarP(&buildDeployTarget, "deploy", "d", "", "Deployment target for verified artifacts")
}

func runBuild(cmd *cobra.Command, args []string) error {
	task := strings.Join(args, " ")

	cfg, err := requireProviders(2)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	orch := orchestrator.New(cfg)
	wait := startPrinter(orch, printerOptions{})

	started := time.Now()
	coord := coordinator.New(orch)
	res, err := coord.Build(ctx, task)
	orch.Close()
	wait()
	if err != nil {
		return err
	}

	banner("BUILD RESULTS")
	fmt.Println("Plan:")
	fmt.Println(res.Plan)
	fmt.Println()

	artifacts := res.Artifacts.Current()
	fmt.Printf("Artifacts (%d):\n", len(artifacts))
	for _, a := range artifacts {
		versions := len(res.Artifacts.History(a.Path))
		switch a.Status {
		case artifact.StatusVerified:
			agentColor.Printf("  %-32s %s (v%d)\n", a.Path, a.Status, versions)
		case artifact.StatusRejected:
			errorColor.Printf("  %-32s %s (v%d)\n", a.Path, a.Status, versions)
		default:
			fmt.Printf("  %-32s %s (v%d)\n", a.Path, a.Status, versions)
		}
	}
	if res.ForcedAdvance {
		warnColor.Printf("review advanced with rejected artifacts after %d revise cycles\n", res.ReviseCycles)
	}
	dimColor.Printf("completed in %s\n", time.Since(started).Round(time.Millisecond))

	if buildDeployTarget == "" {
		fmt.Println("\nDeployment targets:")
		for _, opt := range coord.DeploymentOptions() {
			fmt.Printf("  %-8s %s\n", opt.ID, opt.Description)
		}
		fmt.Println("re-run with --deploy <target> to deploy, or --deploy skip")
		return nil
	}

	return deployArtifacts(cfg, buildDeployTarget, res)
}

func deployArtifacts(cfg *config.Config, target string, res *coordinator.BuildResult) error {
	ctx, cancel := signalContext()
	defer cancel()

	sel := deploy.NewSelector(cfg, func(ev orchestrator.Event) {
		if ev.Type == orchestrator.EventStatusMessage {
			dimColor.Println(ev.Message)
		}
	})
	outcome, err := sel.Deploy(ctx, target, res.Artifacts.Current())
	if err != nil {
		return fmt.Errorf("deploy to %s: %w", target, err)
	}

	agentColor.Println(outcome.Message)
	if outcome.Location != "" {
		fmt.Printf("location: %s\n", outcome.Location)
	}
	if outcome.URL != "" {
		fmt.Printf("url: %s\n", outcome.URL)
	}
	return nil
}
