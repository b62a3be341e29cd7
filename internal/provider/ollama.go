package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/professai/aitril/internal/config"
)

const defaultOllamaBaseURL = "http://localhost:11434"

// ollamaProvider talks to a local Ollama server. Responses stream as
// newline-delimited JSON.
type ollamaProvider struct {
	client  *http.Client
	baseURL string
	model   string
}

func newOllama(cfg config.ProviderConfig) Provider {
	return &ollamaProvider{
		client:  newHTTPClient(),
		baseURL: resolveBaseURL(cfg, "OLLAMA_BASE_URL", defaultOllamaBaseURL),
		model:   resolveModel(cfg, "OLLAMA_MODEL", "llama3.2"),
	}
}

func (p *ollamaProvider) Name() string        { return NameOllama }
func (p *ollamaProvider) DisplayName() string { return displayNames[NameOllama] }

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type ollamaChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

func (p *ollamaProvider) Ask(ctx context.Context, prompt string) (string, error) {
	req := ollamaRequest{Model: p.model, Prompt: prompt, Stream: false}
	resp, err := postJSON(ctx, p.client, p.baseURL+"/api/generate", nil, req)
	if err != nil {
		return "", fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError("ollama", resp)
	}
	defer resp.Body.Close()

	var parsed ollamaChunk
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("ollama response: %w", err)
	}
	return parsed.Response, nil
}

func (p *ollamaProvider) AskStream(ctx context.Context, prompt string) (<-chan Chunk, error) {
	req := ollamaRequest{Model: p.model, Prompt: prompt, Stream: true}
	resp, err := postJSON(ctx, p.client, p.baseURL+"/api/generate", nil, req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("ollama", resp)
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		err := scanLines(resp.Body, func(line string) bool {
			var chunk ollamaChunk
			if json.Unmarshal([]byte(line), &chunk) != nil {
				return true
			}
			if chunk.Response != "" {
				select {
				case out <- Chunk{Text: chunk.Response}:
				case <-ctx.Done():
					return false
				}
			}
			return !chunk.Done
		})
		if err != nil {
			select {
			case out <- Chunk{Err: fmt.Errorf("ollama stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}
