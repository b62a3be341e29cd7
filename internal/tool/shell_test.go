package tool

import (
	"context"
	"strings"
	"testing"
)

func TestShellAllowed(t *testing.T) {
	s := NewShellTool()

	tests := []struct {
		command string
		want    bool
	}{
		{"echo hello", true},
		{"date +%Z", true},
		{"uname -a", true},
		{"rm -rf /", false},
		{"sudo ls", false},
		{"bash -c 'echo hi'", false},
		{"", false},
		{"   ", false},
	}

	for _, tt := range tests {
		if got := s.Allowed(tt.command); got != tt.want {
			t.Errorf("Allowed(%q) = %v, want %v", tt.command, got, tt.want)
		}
	}
}

func TestShellRejectsDisallowedWithoutExecuting(t *testing.T) {
	s := NewShellTool()

	out, err := s.Execute(context.Background(), map[string]any{"command": "rm -rf /tmp/whatever"})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(out, "not allowed") {
		t.Errorf("output = %q, should report not allowed", out)
	}
}

func TestShellEcho(t *testing.T) {
	s := NewShellTool()

	out, err := s.Execute(context.Background(), map[string]any{"command": "echo tri-lam"})
	if err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if !strings.Contains(out, "tri-lam") {
		t.Errorf("output = %q, want echo output", out)
	}
}

func TestShellMissingCommandArg(t *testing.T) {
	s := NewShellTool()

	if _, err := s.Execute(context.Background(), map[string]any{}); err == nil {
		t.Error("missing command should be an error")
	}
}
