package deploy

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/professai/aitril/internal/artifact"
	"github.com/professai/aitril/internal/config"
)

// EC2Target ships artifacts to a remote host over scp and runs optional
// post-deploy commands over ssh.
type EC2Target struct {
	run runner
}

// NewEC2Target creates an ec2 target using the system ssh and scp binaries.
func NewEC2Target() *EC2Target {
	return &EC2Target{run: execRunner}
}

func (*EC2Target) Name() string { return "ec2" }

func (*EC2Target) Validate(cfg config.TargetConfig) error {
	return requireOptions(cfg, "host", "user", "key_path")
}

func (t *EC2Target) Deploy(ctx context.Context, artifacts []artifact.Artifact, cfg config.TargetConfig) (*Outcome, error) {
	host := cfg.Options["host"]
	user := cfg.Options["user"]
	keyPath := cfg.Options["key_path"]
	remoteDir := option(cfg, "remote_dir", "/var/www/html")
	dest := fmt.Sprintf("%s@%s", user, host)

	dir, err := os.MkdirTemp("", "aitril-ec2-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	if _, err := writeArtifacts(dir, artifacts); err != nil {
		return nil, err
	}

	t.run(ctx, dir, "ssh", "-i", keyPath, dest, "mkdir -p "+remoteDir)

	if out, err := t.run(ctx, dir, "scp", "-i", keyPath, "-r", ".", dest+":"+remoteDir+"/"); err != nil {
		return nil, fmt.Errorf("scp failed: %v: %s", err, strings.TrimSpace(string(out)))
	}

	if post := cfg.Options["post_deploy"]; post != "" {
		if out, err := t.run(ctx, dir, "ssh", "-i", keyPath, dest, post); err != nil {
			return nil, fmt.Errorf("post-deploy command failed: %v: %s", err, strings.TrimSpace(string(out)))
		}
	}

	return &Outcome{
		Target:   "ec2",
		Message:  fmt.Sprintf("Deployed to EC2: %s:%s", dest, remoteDir),
		Location: remoteDir,
	}, nil
}
