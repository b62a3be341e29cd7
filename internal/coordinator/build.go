package coordinator

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/professai/aitril/internal/artifact"
	"github.com/professai/aitril/internal/orchestrator"
)

// Phase is one stage of the build pipeline.
type Phase string

const (
	PhasePlanning       Phase = "planning"
	PhaseImplementation Phase = "implementation"
	PhaseReview         Phase = "review"
	PhaseDeployment     Phase = "deployment"
)

// phaseDescriptions are the human-readable banners for phase_changed events.
var phaseDescriptions = map[Phase]string{
	PhasePlanning:       "Agreeing on architecture",
	PhaseImplementation: "Building sequentially on the plan",
	PhaseReview:         "Reviewing implementation with consensus",
	PhaseDeployment:     "Ready to deploy",
}

// BuildResult is the outcome of a build pipeline run.
type BuildResult struct {
	Task string
	// Plan is the synthesized architecture the implementation followed.
	Plan string
	// Planning holds each provider's planning answer.
	Planning map[string]string
	// Implementation holds each provider's implementation answer.
	Implementation map[string]string
	// Review holds each provider's final review answer.
	Review map[string]string
	// Artifacts is the registry of everything the build produced.
	Artifacts *artifact.Registry
	// ReviseCycles counts how many revision passes ran.
	ReviseCycles int
	// ForcedAdvance is set when the revise cap was hit with rejected
	// artifacts still present.
	ForcedAdvance bool
}

// Build runs the phased pipeline: planning, implementation, review with
// bounded revision, then deployment readiness. The returned result holds the
// artifact registry; actual deployment is the caller's move.
func (c *Coordinator) Build(ctx context.Context, task string) (*BuildResult, error) {
	c.orch.Emit(orchestrator.Event{
		Type:    orchestrator.EventBuildStarted,
		Message: task,
	})

	res := &BuildResult{
		Task:      task,
		Artifacts: artifact.NewRegistry(),
	}

	if err := c.buildPlanning(ctx, res); err != nil {
		return nil, err
	}
	if err := c.buildImplementation(ctx, res); err != nil {
		return nil, err
	}
	if err := c.buildReview(ctx, res); err != nil {
		return nil, err
	}

	c.setPhase(PhaseDeployment)
	c.orch.Emit(orchestrator.Event{
		Type:    orchestrator.EventDeploymentOptions,
		Options: c.DeploymentOptions(),
	})
	c.orch.Emit(orchestrator.Event{
		Type:    orchestrator.EventStatusMessage,
		Message: "Build complete! Select a deployment option, or choose 'Skip Deployment' to finish.",
	})
	c.orch.Emit(orchestrator.Event{
		Type:    orchestrator.EventBuildCompleted,
		Message: task,
	})
	return res, nil
}

func (c *Coordinator) setPhase(phase Phase) {
	c.orch.Emit(orchestrator.Event{
		Type:    orchestrator.EventPhaseChanged,
		Phase:   string(phase),
		Message: phaseDescriptions[phase],
	})
}

// buildPlanning fans the planning prompt out and synthesizes one plan.
func (c *Coordinator) buildPlanning(ctx context.Context, res *BuildResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.setPhase(PhasePlanning)

	runs, err := c.orch.FanOut(ctx, planningPrompt(res.Task))
	if err != nil {
		return fmt.Errorf("planning phase: %w", err)
	}
	planning := collectRuns(StrategyBuild, runs)
	res.Planning = planning.Responses

	plan, err := c.orch.AskSingle(ctx, c.synthesisProvider(),
		consensusPrompt(planningPrompt(res.Task), planning.Order, planning.Responses))
	if err != nil {
		// Fall back to the first surviving plan rather than aborting.
		plan = planning.Responses[planning.Order[0]]
		c.orch.Emit(orchestrator.Event{
			Type:    orchestrator.EventStatusMessage,
			Message: fmt.Sprintf("plan synthesis failed (%v); using %s's plan", err, planning.Order[0]),
		})
	}
	res.Plan = plan
	res.Artifacts.Record("PLAN.md", artifact.KindPlan, plan, string(PhasePlanning))
	return nil
}

// buildImplementation runs providers sequentially over the plan, harvesting
// fenced code blocks into artifacts as each answer lands.
func (c *Coordinator) buildImplementation(ctx context.Context, res *BuildResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.setPhase(PhaseImplementation)

	base := implementationPrompt(res.Task, res.Plan)
	res.Implementation = make(map[string]string)
	var history []contextEntry

	for _, name := range c.orch.Enabled() {
		if err := ctx.Err(); err != nil {
			return err
		}
		run := c.orch.Run(ctx, name, sequentialPrompt(base, history))
		if run.State() != orchestrator.RunCompleted {
			history = append(history, contextEntry{
				provider: name,
				text:     fmt.Sprintf("(agent failed: %v)", run.Err()),
			})
			continue
		}
		res.Implementation[name] = run.Answer()
		history = append(history, contextEntry{provider: name, text: run.Answer()})
		res.Artifacts.RecordBlocks(run.Answer(), string(PhaseImplementation))
	}

	if len(res.Implementation) == 0 {
		return fmt.Errorf("implementation phase: %w", orchestrator.ErrAllProvidersFailed)
	}
	return nil
}

// buildReview verifies artifacts and runs bounded revise cycles until
// everything passes or the cap forces an advance.
func (c *Coordinator) buildReview(ctx context.Context, res *BuildResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.setPhase(PhaseReview)

	maxCycles := c.cfg.Coordination.MaxReviseCycles
	if maxCycles < 0 {
		maxCycles = 0
	}

	for {
		_, rejected := res.Artifacts.VerifyAll(artifact.Verifier{})

		paths := currentPaths(res.Artifacts)
		runs, err := c.orch.FanOut(ctx, reviewPrompt(res.Task, paths))
		if err != nil {
			c.orch.Emit(orchestrator.Event{
				Type:    orchestrator.EventStatusMessage,
				Message: fmt.Sprintf("review unavailable (%v); advancing with structural verification only", err),
			})
			return nil
		}
		review := collectRuns(StrategyBuild, runs)
		res.Review = review.Responses

		if rejected == 0 {
			return nil
		}
		if res.ReviseCycles >= maxCycles {
			res.ForcedAdvance = true
			c.orch.Emit(orchestrator.Event{
				Type:    orchestrator.EventStatusMessage,
				Message: fmt.Sprintf("revise limit reached with %d artifact(s) still rejected; advancing anyway", rejected),
			})
			return nil
		}

		res.ReviseCycles++
		revised, err := c.orch.AskSingle(ctx, c.synthesisProvider(),
			revisePrompt(res.Task, rejectedPaths(res.Artifacts), combinedFeedback(review)))
		if err != nil {
			res.ForcedAdvance = true
			c.orch.Emit(orchestrator.Event{
				Type:    orchestrator.EventStatusMessage,
				Message: fmt.Sprintf("revision failed (%v); advancing with rejected artifacts", err),
			})
			return nil
		}
		res.Artifacts.RecordBlocks(revised, string(PhaseReview))
	}
}

// DeploymentOptions lists the selectable targets in presentation order, plus
// the always-available skip choice.
func (c *Coordinator) DeploymentOptions() []orchestrator.DeploymentOption {
	known := []orchestrator.DeploymentOption{
		{ID: "local", Name: "Local File System", Description: "Save files to local directory"},
		{ID: "docker", Name: "Docker Container", Description: "Build and run as Docker container"},
		{ID: "github", Name: "GitHub Pages", Description: "Deploy to GitHub Pages"},
		{ID: "ec2", Name: "AWS EC2", Description: "Deploy to EC2 instance"},
	}

	var options []orchestrator.DeploymentOption
	for _, opt := range known {
		if _, ok := c.cfg.Deployment[opt.ID]; ok {
			options = append(options, opt)
		}
	}
	options = append(options, orchestrator.DeploymentOption{
		ID: "skip", Name: "Skip Deployment", Description: "Just show the code",
	})
	return options
}

func currentPaths(reg *artifact.Registry) []string {
	var paths []string
	for _, a := range reg.Current() {
		paths = append(paths, a.Path)
	}
	return paths
}

func rejectedPaths(reg *artifact.Registry) []string {
	var paths []string
	for _, a := range reg.Current() {
		if a.Status == artifact.StatusRejected {
			paths = append(paths, a.Path)
		}
	}
	return paths
}

// combinedFeedback folds the review answers into one feedback blob in a
// stable order.
func combinedFeedback(review *Result) string {
	names := append([]string(nil), review.Order...)
	sort.Strings(names)
	var parts []string
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("[%s]: %s", name, review.Responses[name]))
	}
	return strings.Join(parts, "\n\n")
}
