package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// fileReadLimit caps file contents returned to the provider.
const fileReadLimit = 5000

// FileTool performs bounded read, write, and list operations.
type FileTool struct{}

// NewFileTool creates a file tool.
func NewFileTool() *FileTool { return &FileTool{} }

func (f *FileTool) Name() string { return "file_operation" }

func (f *FileTool) Description() string {
	return "Perform file operations: read, write, or list files in a directory."
}

func (f *FileTool) Definition() Definition {
	return Definition{
		Name:        f.Name(),
		Description: f.Description(),
		Parameters: map[string]any{
			"operation": map[string]any{
				"type":        "string",
				"enum":        []string{"read", "write", "list"},
				"description": "The file operation to perform",
			},
			"path": map[string]any{
				"type":        "string",
				"description": "File or directory path",
			},
			"content": map[string]any{
				"type":        "string",
				"description": "Content to write (only for 'write' operation)",
			},
		},
		Required: []string{"operation", "path"},
	}
}

func (f *FileTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	operation, err := stringArg(args, "operation")
	if err != nil {
		return "", err
	}
	path, err := stringArg(args, "path")
	if err != nil {
		return "", err
	}

	switch operation {
	case "read":
		return f.read(path)
	case "write":
		content, ok := args["content"].(string)
		if !ok {
			return "Error: content parameter required for write operation", nil
		}
		return f.write(path, content)
	case "list":
		return f.list(path)
	default:
		return fmt.Sprintf("Error: unknown operation %q", operation), nil
	}
}

func (f *FileTool) read(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Error: cannot read %q: %v", path, err), nil
	}
	return truncate(string(content), fileReadLimit), nil
}

func (f *FileTool) write(path, content string) (string, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Sprintf("Error: cannot create directory for %q: %v", path, err), nil
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return fmt.Sprintf("Error: cannot write %q: %v", path, err), nil
	}
	return fmt.Sprintf("Successfully wrote %d characters to %s", len(content), path), nil
}

func (f *FileTool) list(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Sprintf("Error: directory %q does not exist", path), nil
	}
	if !info.IsDir() {
		return fmt.Sprintf("%q is a file, not a directory", path), nil
	}

	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Sprintf("Error: cannot list %q: %v", path, err), nil
	}
	if len(entries) == 0 {
		return "(empty directory)", nil
	}

	var b strings.Builder
	for _, entry := range entries {
		if entry.IsDir() {
			fmt.Fprintf(&b, "d %s/\n", entry.Name())
			continue
		}
		if fi, err := entry.Info(); err == nil {
			fmt.Fprintf(&b, "- %s (%d bytes)\n", entry.Name(), fi.Size())
		} else {
			fmt.Fprintf(&b, "- %s\n", entry.Name())
		}
	}
	return b.String(), nil
}
