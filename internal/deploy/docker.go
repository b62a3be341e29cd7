package deploy

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/professai/aitril/internal/artifact"
	"github.com/professai/aitril/internal/config"
)

// DockerTarget builds the artifacts into an image and optionally runs a
// container from it. A Dockerfile is generated when the artifacts carry none.
type DockerTarget struct {
	run runner
}

// NewDockerTarget creates a docker target using the system docker binary.
func NewDockerTarget() *DockerTarget {
	return &DockerTarget{run: execRunner}
}

func (*DockerTarget) Name() string { return "docker" }

func (*DockerTarget) Validate(cfg config.TargetConfig) error {
	return requireOptions(cfg, "image_name")
}

func (t *DockerTarget) Deploy(ctx context.Context, artifacts []artifact.Artifact, cfg config.TargetConfig) (*Outcome, error) {
	imageName := cfg.Options["image_name"]
	containerName := option(cfg, "container_name", strings.ReplaceAll(imageName, ":", "-"))
	port := option(cfg, "port", "8080")
	autoRun := option(cfg, "auto_run", "true") == "true"

	dir, err := os.MkdirTemp("", "aitril-docker-*")
	if err != nil {
		return nil, err
	}
	defer os.RemoveAll(dir)

	if _, err := writeArtifacts(dir, artifacts); err != nil {
		return nil, err
	}
	if !hasPath(artifacts, "Dockerfile") {
		dockerfile := generateDockerfile(artifacts)
		if err := os.WriteFile(dir+"/Dockerfile", []byte(dockerfile), 0o644); err != nil {
			return nil, fmt.Errorf("write Dockerfile: %w", err)
		}
	}

	if out, err := t.run(ctx, dir, "docker", "build", "-t", imageName, "."); err != nil {
		return nil, fmt.Errorf("docker build failed: %v: %s", err, strings.TrimSpace(string(out)))
	}

	outcome := &Outcome{
		Target:  "docker",
		Message: fmt.Sprintf("Docker image built: %s", imageName),
	}

	if autoRun {
		// Clean replace of any previous container with the same name.
		t.run(ctx, dir, "docker", "stop", containerName)
		t.run(ctx, dir, "docker", "rm", containerName)

		out, err := t.run(ctx, dir, "docker", "run", "-d", "--name", containerName,
			"-p", port+":"+port, imageName)
		if err != nil {
			outcome.Message += fmt.Sprintf("\nWarning: container run failed: %v: %s", err, strings.TrimSpace(string(out)))
		} else {
			outcome.URL = "http://localhost:" + port
			outcome.Message += fmt.Sprintf("\nContainer running: %s on port %s", containerName, port)
		}
	}
	return outcome, nil
}

func hasPath(artifacts []artifact.Artifact, path string) bool {
	for _, a := range artifacts {
		if a.Path == path {
			return true
		}
	}
	return false
}

// generateDockerfile picks a base image from the dominant file type.
func generateDockerfile(artifacts []artifact.Artifact) string {
	hasPython, hasNode, hasHTML := false, false, false
	for _, a := range artifacts {
		switch {
		case strings.HasSuffix(a.Path, ".py"):
			hasPython = true
		case a.Path == "package.json":
			hasNode = true
		case strings.HasSuffix(a.Path, ".html"):
			hasHTML = true
		}
	}

	switch {
	case hasPython:
		return `FROM python:3.12-slim
WORKDIR /app
COPY . .
RUN pip install -r requirements.txt || true
EXPOSE 8080
CMD ["python", "app.py"]
`
	case hasNode:
		return `FROM node:20-slim
WORKDIR /app
COPY package*.json ./
RUN npm install
COPY . .
EXPOSE 8080
CMD ["npm", "start"]
`
	case hasHTML:
		return `FROM nginx:alpine
COPY . /usr/share/nginx/html
EXPOSE 8080
CMD ["nginx", "-g", "daemon off;"]
`
	default:
		return `FROM alpine:latest
WORKDIR /app
COPY . .
EXPOSE 8080
CMD ["sh", "-c", "echo 'Deployed files:' && ls -la"]
`
	}
}
