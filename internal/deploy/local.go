package deploy

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/professai/aitril/internal/artifact"
	"github.com/professai/aitril/internal/config"
)

// LocalTarget saves artifacts to a directory on the local filesystem.
type LocalTarget struct{}

func (LocalTarget) Name() string { return "local" }

func (LocalTarget) Validate(cfg config.TargetConfig) error {
	return requireOptions(cfg, "output_dir")
}

func (LocalTarget) Deploy(ctx context.Context, artifacts []artifact.Artifact, cfg config.TargetConfig) (*Outcome, error) {
	dir := cfg.Options["output_dir"]
	if strings.HasPrefix(dir, "~/") {
		home, err := os.UserHomeDir()
		if err == nil {
			dir = filepath.Join(home, dir[2:])
		}
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	files, err := writeArtifacts(dir, artifacts)
	if err != nil {
		return nil, err
	}

	return &Outcome{
		Target:   "local",
		Message:  fmt.Sprintf("Deployed %d files to %s", len(files), dir),
		Location: dir,
		Files:    files,
	}, nil
}
