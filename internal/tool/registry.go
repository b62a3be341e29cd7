package tool

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Registry holds the fixed tool catalog for a run. Lookups are concurrent;
// registration happens before any agents start.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates a registry with the default tool catalog.
func NewRegistry() *Registry {
	r := &Registry{tools: make(map[string]Tool)}
	for _, t := range []Tool{
		NewShellTool(),
		NewSystemInfoTool(),
		NewFileTool(),
		NewHTTPTool(),
	} {
		r.Register(t)
	}
	return r
}

// NewEmptyRegistry creates a registry with no tools (for testing).
func NewEmptyRegistry() *Registry {
	return &Registry{tools: make(map[string]Tool)}
}

// Register adds a tool, replacing any existing tool with the same name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tools[t.Name()] = t
}

// Get returns the tool with the given name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Definitions returns all tool definitions in sorted name order.
func (r *Registry) Definitions() []Definition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)
	defs := make([]Definition, 0, len(names))
	for _, name := range names {
		defs = append(defs, r.tools[name].Definition())
	}
	return defs
}

// Execute resolves one call to a result. A blank or unknown tool name, or an
// execution error, produces a synthesized error result rather than aborting;
// the caller feeds the result back to the provider and the loop continues.
func (r *Registry) Execute(ctx context.Context, call Call) Result {
	name := strings.TrimSpace(call.Name)
	if name == "" {
		return Result{CallID: call.ID, Name: call.Name, Content: "Error: tool call has no name", IsError: true}
	}

	t, ok := r.Get(name)
	if !ok {
		return Result{CallID: call.ID, Name: name, Content: fmt.Sprintf("Error: tool %q not found", name), IsError: true}
	}

	content, err := t.Execute(ctx, call.Args)
	if err != nil {
		return Result{CallID: call.ID, Name: name, Content: fmt.Sprintf("Error executing tool %q: %v", name, err), IsError: true}
	}
	return Result{CallID: call.ID, Name: name, Content: content}
}
