package deploy

import (
	"context"
	"errors"
	"fmt"

	"github.com/professai/aitril/internal/artifact"
	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/orchestrator"
)

// TargetSkip is the sentinel choice that finishes a build with no
// deployment. It never reaches a handler.
const TargetSkip = "skip"

var (
	// ErrUnknownTarget indicates a target ID outside the configured set.
	ErrUnknownTarget = errors.New("unknown deployment target")
	// ErrTargetDisabled indicates the target exists but is switched off.
	ErrTargetDisabled = errors.New("deployment target is disabled")
	// ErrNoVerifiedArtifacts indicates there is nothing deployable.
	ErrNoVerifiedArtifacts = errors.New("no verified artifacts to deploy")
)

// Selector resolves a target choice, validates it and runs the handler,
// narrating progress on the orchestrator's event feed.
type Selector struct {
	cfg     *config.Config
	targets map[string]Target
	emit    func(orchestrator.Event)
}

// NewSelector builds a selector with the standard handler set.
func NewSelector(cfg *config.Config, emit func(orchestrator.Event)) *Selector {
	if emit == nil {
		emit = func(orchestrator.Event) {}
	}
	return &Selector{
		cfg:  cfg,
		emit: emit,
		targets: map[string]Target{
			"local":  LocalTarget{},
			"docker": NewDockerTarget(),
			"github": NewGitHubTarget(),
			"ec2":    NewEC2Target(),
		},
	}
}

// Register replaces or adds a handler. Mostly a test seam.
func (s *Selector) Register(t Target) {
	s.targets[t.Name()] = t
}

// Deploy resolves targetID and ships the verified subset of artifacts.
// Configuration problems surface before any artifact I/O happens; a handler
// failure leaves the artifacts in place so the deployment can be retried.
func (s *Selector) Deploy(ctx context.Context, targetID string, artifacts []artifact.Artifact) (*Outcome, error) {
	if targetID == TargetSkip {
		outcome := &Outcome{Target: TargetSkip, Message: "Deployment skipped"}
		s.emit(orchestrator.Event{
			Type:    orchestrator.EventStatusMessage,
			Message: "Deployment skipped.",
		})
		s.emit(orchestrator.Event{
			Type:    orchestrator.EventDeploymentCompleted,
			Target:  TargetSkip,
			Message: outcome.Message,
		})
		return outcome, nil
	}

	target, ok := s.targets[targetID]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTarget, targetID)
	}
	targetCfg, ok := s.cfg.Deployment[targetID]
	if !ok {
		return nil, fmt.Errorf("%w: %q is not configured", ErrUnknownTarget, targetID)
	}
	if !targetCfg.Enabled {
		return nil, fmt.Errorf("%w: %q", ErrTargetDisabled, targetID)
	}
	if err := target.Validate(targetCfg); err != nil {
		return nil, fmt.Errorf("deployment target %q: %w", targetID, err)
	}

	var verified []artifact.Artifact
	for _, a := range artifacts {
		if a.Status == artifact.StatusVerified {
			verified = append(verified, a)
		}
	}
	if len(verified) == 0 {
		return nil, ErrNoVerifiedArtifacts
	}

	s.emit(orchestrator.Event{
		Type:   orchestrator.EventDeploymentStarted,
		Target: targetID,
	})
	s.emit(orchestrator.Event{
		Type:    orchestrator.EventStatusMessage,
		Message: fmt.Sprintf("Deploying %d artifact(s) to %s...", len(verified), targetID),
	})

	outcome, err := target.Deploy(ctx, verified, targetCfg)
	if err != nil {
		s.emit(orchestrator.Event{
			Type:   orchestrator.EventStatusMessage,
			Target: targetID,
			Error:  err.Error(),
		})
		return nil, err
	}

	s.emit(orchestrator.Event{
		Type:    orchestrator.EventDeploymentCompleted,
		Target:  targetID,
		Message: outcome.Message,
	})
	return outcome, nil
}
