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

// GitHubTarget force-pushes artifacts to a repository's gh-pages branch.
type GitHubTarget struct {
	run runner
}

// NewGitHubTarget creates a github target using the system git binary.
func NewGitHubTarget() *GitHubTarget {
	return &GitHubTarget{run: execRunner}
}

func (*GitHubTarget) Name() string { return "github" }

func (*GitHubTarget) Validate(cfg config.TargetConfig) error {
	return requireOptions(cfg, "repo_url")
}

func (t *GitHubTarget) Deploy(ctx context.Context, artifacts []artifact.Artifact, cfg config.TargetConfig) (*Outcome, error) {
	repoURL := cfg.Options["repo_url"]
	branch := option(cfg, "branch", "gh-pages")

	dir, err := os.MkdirTemp("", "aitril-ghpages-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	if out, err := t.run(ctx, dir, "git", "clone", repoURL, "."); err != nil {
		return nil, fmt.Errorf("git clone failed: %v: %s", err, strings.TrimSpace(string(out)))
	}

	// Create the branch if it is new, then make sure it is checked out.
	t.run(ctx, dir, "git", "checkout", "-b", branch)
	t.run(ctx, dir, "git", "checkout", branch)

	if err := clearWorktree(dir); err != nil {
		return nil, err
	}
	if _, err := writeArtifacts(dir, artifacts); err != nil {
		return nil, err
	}

	t.run(ctx, dir, "git", "add", ".")
	t.run(ctx, dir, "git", "commit", "-m", "Deploy: aitril build")

	if out, err := t.run(ctx, dir, "git", "push", "origin", branch, "--force"); err != nil {
		return nil, fmt.Errorf("git push failed: %v: %s", err, strings.TrimSpace(string(out)))
	}

	return &Outcome{
		Target:  "github",
		Message: "Deployed to GitHub Pages",
		URL:     pagesURL(repoURL),
	}, nil
}

// clearWorktree removes everything except the .git directory so the push
// replaces the branch contents wholesale.
func clearWorktree(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.Name() == ".git" {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// pagesURL derives the public GitHub Pages URL from a clone URL.
func pagesURL(repoURL string) string {
	trimmed := strings.TrimSuffix(repoURL, ".git")
	parts := strings.Split(trimmed, "/")
	if len(parts) < 2 {
		return ""
	}
	repoName := parts[len(parts)-1]
	username := parts[len(parts)-2]
	if i := strings.LastIndex(username, ":"); i >= 0 {
		username = username[i+1:]
	}
	return fmt.Sprintf("https://%s.github.io/%s/", username, repoName)
}
