// Package deploy dispatches build artifacts to deployment targets: the local
// filesystem, Docker, GitHub Pages and EC2. Targets are pluggable behind a
// single interface; the selector owns validation and event emission.
package deploy

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/professai/aitril/internal/artifact"
	"github.com/professai/aitril/internal/config"
)

// Outcome describes a finished deployment.
type Outcome struct {
	Target   string   `json:"target"`
	Message  string   `json:"message"`
	Location string   `json:"location,omitempty"`
	URL      string   `json:"url,omitempty"`
	Files    []string `json:"files,omitempty"`
}

// Target is one deployment destination. Deploy must be safe to re-run for
// the same artifact set; re-deploys overwrite cleanly.
type Target interface {
	Name() string
	// Validate checks the target's configuration before any artifact I/O.
	Validate(cfg config.TargetConfig) error
	// Deploy ships the artifacts. On error the artifacts are untouched in
	// the registry and the deployment can be retried.
	Deploy(ctx context.Context, artifacts []artifact.Artifact, cfg config.TargetConfig) (*Outcome, error)
}

// runner executes an external command in dir and returns its combined
// output. Tests substitute their own.
type runner func(ctx context.Context, dir, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// writeArtifacts materializes the artifact set under dir, creating parent
// directories as needed.
func writeArtifacts(dir string, artifacts []artifact.Artifact) ([]string, error) {
	var written []string
	for _, a := range artifacts {
		path := filepath.Join(dir, filepath.FromSlash(a.Path))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create directory for %s: %w", a.Path, err)
		}
		if err := os.WriteFile(path, []byte(a.Content), 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", a.Path, err)
		}
		written = append(written, path)
	}
	return written, nil
}

// option reads a target option with a fallback.
func option(cfg config.TargetConfig, key, fallback string) string {
	if v, ok := cfg.Options[key]; ok && v != "" {
		return v
	}
	return fallback
}

// requireOptions checks that all the named options are present.
func requireOptions(cfg config.TargetConfig, keys ...string) error {
	var missing []string
	for _, key := range keys {
		if cfg.Options[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required option(s): %s", strings.Join(missing, ", "))
	}
	return nil
}
