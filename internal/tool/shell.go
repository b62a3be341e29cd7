package tool

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// shellTimeout bounds a single shell command.
const shellTimeout = 10 * time.Second

// shellOutputLimit caps captured command output.
const shellOutputLimit = 10000

// allowedCommands is the fixed safety allow-list. Anything else is rejected
// before execution, never attempted.
var allowedCommands = []string{
	"curl", "wget", "date", "cal", "uptime", "whoami",
	"pwd", "ls", "cat", "echo", "which", "uname",
}

// ShellTool executes whitelisted shell commands.
type ShellTool struct {
	allowed map[string]bool
}

// NewShellTool creates a shell tool with the default allow-list.
func NewShellTool() *ShellTool {
	allowed := make(map[string]bool, len(allowedCommands))
	for _, c := range allowedCommands {
		allowed[c] = true
	}
	return &ShellTool{allowed: allowed}
}

func (s *ShellTool) Name() string { return "execute_shell_command" }

func (s *ShellTool) Description() string {
	return "Execute a shell command and return the output. Use this to run system commands like curl, ls, date, etc."
}

func (s *ShellTool) Definition() Definition {
	return Definition{
		Name:        s.Name(),
		Description: s.Description(),
		Parameters: map[string]any{
			"command": map[string]any{
				"type":        "string",
				"description": "The shell command to execute (e.g., 'curl https://api.example.com', 'date +%Z')",
			},
		},
		Required: []string{"command"},
	}
}

// Allowed reports whether the base command of the given command line is on
// the allow-list.
func (s *ShellTool) Allowed(command string) bool {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return false
	}
	return s.allowed[fields[0]]
}

func (s *ShellTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	command, err := stringArg(args, "command")
	if err != nil {
		return "", err
	}

	if !s.Allowed(command) {
		base := ""
		if fields := strings.Fields(command); len(fields) > 0 {
			base = fields[0]
		}
		return fmt.Sprintf("Error: Command %q not allowed. Allowed commands: %s",
			base, strings.Join(allowedCommands, ", ")), nil
	}

	ctx, cancel := context.WithTimeout(ctx, shellTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", command)
	output, runErr := cmd.CombinedOutput()

	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Sprintf("Error: Command timed out after %v", shellTimeout), nil
	}
	if runErr != nil {
		return fmt.Sprintf("Error (%v): %s", runErr, truncate(strings.TrimSpace(string(output)), shellOutputLimit)), nil
	}

	out := strings.TrimSpace(string(output))
	if out == "" {
		return "(command executed successfully, no output)", nil
	}
	return truncate(out, shellOutputLimit), nil
}
