// Package tool provides the whitelisted tool catalog that agents may invoke
// during a coordination run, and the loop that feeds tool results back to the
// requesting provider.
package tool

import (
	"context"
	"fmt"
)

// Tool is a side-effecting operation a provider may request.
type Tool interface {
	// Name is the identifier the provider uses to request the tool.
	Name() string
	// Description tells the provider what the tool does.
	Description() string
	// Definition returns the parameter schema in neutral JSON-schema form.
	Definition() Definition
	// Execute runs the tool. Implementations bound their own wall-clock time
	// and truncate oversized output.
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// Definition describes a tool's calling convention to a provider.
// Providers translate it into their own function-calling wire format.
type Definition struct {
	Name        string
	Description string
	// Parameters maps parameter name to its JSON-schema fragment.
	Parameters map[string]any
	Required   []string
}

// Call is one tool invocation requested by a provider.
type Call struct {
	// ID is the provider-assigned call identifier, echoed back in the Result.
	ID   string
	Name string
	Args map[string]any
}

// Result is the resolution of exactly one Call.
type Result struct {
	CallID  string
	Name    string
	Content string
	IsError bool
}

// Transcript is the provider-neutral running context of one agent's turn:
// the original prompt plus every completed call/response step. Providers
// rebuild their wire-format message list from it on each re-invocation.
type Transcript struct {
	System string
	Prompt string
	Steps  []Step
}

// Step records one provider turn that requested tools, together with the
// results that were fed back.
type Step struct {
	Text    string
	Calls   []Call
	Results []Result
}

// TurnResult is what a tool-capable provider produced for one turn: any text
// emitted so far and zero or more tool calls. No calls means the turn is the
// final answer.
type TurnResult struct {
	Text  string
	Calls []Call
}

// stringArg extracts a required string argument.
func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("parameter %q must be a string", key)
	}
	return s, nil
}

// optionalStringArg extracts an optional string argument.
func optionalStringArg(args map[string]any, key string) string {
	if v, ok := args[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// truncate caps s at limit characters, noting the original size.
func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return fmt.Sprintf("%s\n... (truncated, %d total characters)", s[:limit], len(s))
}
