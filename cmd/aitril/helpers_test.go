package main

import (
	"testing"
)

func TestCanonicalProvider(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "gpt alias", input: "gpt", expected: "openai"},
		{name: "claude alias", input: "claude", expected: "anthropic"},
		{name: "gemini passthrough", input: "gemini", expected: "gemini"},
		{name: "canonical name unchanged", input: "openai", expected: "openai"},
		{name: "case and whitespace normalized", input: "  Claude ", expected: "anthropic"},
		{name: "unknown name unchanged", input: "ollama", expected: "ollama"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := canonicalProvider(tt.input); got != tt.expected {
				t.Errorf("canonicalProvider(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestRequireProvidersTooFew(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GOOGLE_API_KEY", "")

	if _, err := requireProviders(2); err == nil {
		t.Fatal("expected error with no enabled providers")
	}
}
