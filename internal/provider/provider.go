// Package provider abstracts the LLM backends aitril coordinates. Each
// backend implements the same capability contract: a single completion and a
// streamed completion. Tool-capable backends additionally expose a Turn
// operation used by the tool execution loop.
package provider

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/professai/aitril/internal/config"
)

// Provider is one LLM backend. Implementations must bound their own latency
// and fail rather than hang; callers apply no timeout of their own.
type Provider interface {
	// Name is the internal identifier (e.g. "anthropic").
	Name() string
	// DisplayName is the human-readable name (e.g. "Claude (Anthropic)").
	DisplayName() string
	// Ask sends a prompt and returns the complete response.
	Ask(ctx context.Context, prompt string) (string, error)
	// AskStream sends a prompt and returns a channel of incremental chunks.
	// The channel closes when the stream ends; a stream failure is delivered
	// as a final chunk with Err set.
	AskStream(ctx context.Context, prompt string) (<-chan Chunk, error)
}

// Chunk is one incremental piece of a streamed response.
type Chunk struct {
	Text string
	Err  error
}

// Known backend identifiers.
const (
	NameOpenAI    = "openai"
	NameAnthropic = "anthropic"
	NameGemini    = "gemini"
	NameOllama    = "ollama"
	NameLlamaCpp  = "llamacpp"
)

// displayNames maps internal names to user-facing names.
var displayNames = map[string]string{
	NameOpenAI:    "GPT (OpenAI)",
	NameAnthropic: "Claude (Anthropic)",
	NameGemini:    "Gemini (Google)",
	NameOllama:    "Ollama (Local)",
	NameLlamaCpp:  "Llama.cpp (Local)",
}

// DisplayName returns the user-facing name for a backend identifier.
func DisplayName(name string) string {
	if dn, ok := displayNames[name]; ok {
		return dn
	}
	if name == "" {
		return name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

// New creates a provider instance for the given backend identifier. The set
// of backends is closed; an unknown name is a configuration error.
func New(name string, cfg config.ProviderConfig) (Provider, error) {
	switch strings.ToLower(name) {
	case NameOpenAI:
		return newOpenAI(cfg)
	case NameAnthropic:
		return newAnthropic(cfg)
	case NameGemini:
		return newGemini(cfg)
	case NameOllama:
		return newOllama(cfg), nil
	case NameLlamaCpp:
		return newLlamaCpp(cfg), nil
	default:
		known := make([]string, 0, len(displayNames))
		for k := range displayNames {
			known = append(known, k)
		}
		sort.Strings(known)
		return nil, fmt.Errorf("unknown provider %q (available: %s)", name, strings.Join(known, ", "))
	}
}

// resolveModel picks the model with config > environment > default precedence.
func resolveModel(cfg config.ProviderConfig, envVar, fallback string) string {
	if cfg.Model != "" {
		return cfg.Model
	}
	if m := os.Getenv(envVar); m != "" {
		return m
	}
	return fallback
}

// resolveKey finds the API key via the configured env var name, falling back
// to the backend's conventional variable. Returns an error naming the
// variable when the key is required but absent.
func resolveKey(cfg config.ProviderConfig, defaultEnvVar, backend string) (string, error) {
	envVar := cfg.APIKeyEnv
	if envVar == "" {
		envVar = defaultEnvVar
	}
	key := os.Getenv(envVar)
	if key == "" {
		return "", fmt.Errorf("no API key found for %s: set %s or configure via 'aitril init'", backend, envVar)
	}
	return key, nil
}

// resolveBaseURL picks the base URL for local backends with config >
// environment > default precedence.
func resolveBaseURL(cfg config.ProviderConfig, envVar, fallback string) string {
	if cfg.BaseURL != "" {
		return cfg.BaseURL
	}
	if u := os.Getenv(envVar); u != "" {
		return u
	}
	return fallback
}
