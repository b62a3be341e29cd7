package tool

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestFileWriteThenRead(t *testing.T) {
	f := NewFileTool()
	path := filepath.Join(t.TempDir(), "out.txt")

	out, err := f.Execute(context.Background(), map[string]any{
		"operation": "write",
		"path":      path,
		"content":   "hello world",
	})
	if err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if !strings.Contains(out, "11 characters") {
		t.Errorf("write output = %q", out)
	}

	out, err = f.Execute(context.Background(), map[string]any{
		"operation": "read",
		"path":      path,
	})
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if out != "hello world" {
		t.Errorf("read = %q, want hello world", out)
	}
}

func TestFileReadTruncation(t *testing.T) {
	f := NewFileTool()
	path := filepath.Join(t.TempDir(), "big.txt")
	if err := os.WriteFile(path, []byte(strings.Repeat("x", fileReadLimit+500)), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}

	out, err := f.Execute(context.Background(), map[string]any{
		"operation": "read",
		"path":      path,
	})
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !strings.Contains(out, "truncated") {
		t.Error("oversized read should be truncated")
	}
}

func TestFileList(t *testing.T) {
	f := NewFileTool()
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.txt"), []byte("a"), 0644); err != nil {
		t.Fatalf("setup: %v", err)
	}
	if err := os.Mkdir(filepath.Join(dir, "sub"), 0755); err != nil {
		t.Fatalf("setup: %v", err)
	}

	out, err := f.Execute(context.Background(), map[string]any{
		"operation": "list",
		"path":      dir,
	})
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if !strings.Contains(out, "a.txt") || !strings.Contains(out, "sub/") {
		t.Errorf("list output = %q", out)
	}
}

func TestFileWriteMissingContent(t *testing.T) {
	f := NewFileTool()

	out, err := f.Execute(context.Background(), map[string]any{
		"operation": "write",
		"path":      filepath.Join(t.TempDir(), "x.txt"),
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if !strings.Contains(out, "content parameter required") {
		t.Errorf("output = %q", out)
	}
}
