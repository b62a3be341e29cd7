package tool

import (
	"context"
	"strings"
	"testing"
)

func TestNewRegistryDefaults(t *testing.T) {
	r := NewRegistry()

	for _, name := range []string{"execute_shell_command", "get_system_info", "file_operation", "http_request"} {
		if _, ok := r.Get(name); !ok {
			t.Errorf("default tool %q missing", name)
		}
	}
}

func TestDefinitionsSorted(t *testing.T) {
	r := NewRegistry()
	defs := r.Definitions()

	if len(defs) != 4 {
		t.Fatalf("got %d definitions, want 4", len(defs))
	}
	for i := 1; i < len(defs); i++ {
		if defs[i-1].Name >= defs[i].Name {
			t.Errorf("definitions not sorted: %q >= %q", defs[i-1].Name, defs[i].Name)
		}
	}
}

func TestExecuteBlankName(t *testing.T) {
	r := NewRegistry()

	result := r.Execute(context.Background(), Call{ID: "c1", Name: "   "})

	if !result.IsError {
		t.Error("blank tool name should produce an error result")
	}
	if result.CallID != "c1" {
		t.Errorf("CallID = %q, want c1", result.CallID)
	}
}

func TestExecuteUnknownTool(t *testing.T) {
	r := NewRegistry()

	result := r.Execute(context.Background(), Call{ID: "c2", Name: "launch_rockets"})

	if !result.IsError {
		t.Error("unknown tool should produce an error result")
	}
	if !strings.Contains(result.Content, "not found") {
		t.Errorf("content = %q, should mention not found", result.Content)
	}
}

func TestExecuteToolErrorBecomesResult(t *testing.T) {
	r := NewRegistry()

	// Missing required info_type triggers no error: it defaults. Use the
	// file tool with a missing operation arg instead.
	result := r.Execute(context.Background(), Call{ID: "c3", Name: "file_operation", Args: map[string]any{}})

	if !result.IsError {
		t.Error("execution failure should become an error result, not abort")
	}
}
