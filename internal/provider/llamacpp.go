package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/professai/aitril/internal/config"
)

const defaultLlamaCppBaseURL = "http://localhost:8080"

// llamacppProvider talks to a local llama.cpp server's completion endpoint.
type llamacppProvider struct {
	client  *http.Client
	baseURL string
}

func newLlamaCpp(cfg config.ProviderConfig) Provider {
	return &llamacppProvider{
		client:  newHTTPClient(),
		baseURL: resolveBaseURL(cfg, "LLAMACPP_BASE_URL", defaultLlamaCppBaseURL),
	}
}

func (p *llamacppProvider) Name() string        { return NameLlamaCpp }
func (p *llamacppProvider) DisplayName() string { return displayNames[NameLlamaCpp] }

type llamacppRequest struct {
	Prompt   string `json:"prompt"`
	NPredict int    `json:"n_predict"`
	Stream   bool   `json:"stream,omitempty"`
}

type llamacppChunk struct {
	Content string `json:"content"`
	Stop    bool   `json:"stop"`
}

func (p *llamacppProvider) Ask(ctx context.Context, prompt string) (string, error) {
	req := llamacppRequest{Prompt: prompt, NPredict: 1024}
	resp, err := postJSON(ctx, p.client, p.baseURL+"/completion", nil, req)
	if err != nil {
		return "", fmt.Errorf("llamacpp request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError("llamacpp", resp)
	}
	defer resp.Body.Close()

	var parsed llamacppChunk
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("llamacpp response: %w", err)
	}
	return parsed.Content, nil
}

func (p *llamacppProvider) AskStream(ctx context.Context, prompt string) (<-chan Chunk, error) {
	req := llamacppRequest{Prompt: prompt, NPredict: 1024, Stream: true}
	resp, err := postJSON(ctx, p.client, p.baseURL+"/completion", nil, req)
	if err != nil {
		return nil, fmt.Errorf("llamacpp request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("llamacpp", resp)
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		err := scanSSE(resp.Body, func(data string) bool {
			var chunk llamacppChunk
			if json.Unmarshal([]byte(data), &chunk) != nil {
				return true
			}
			if chunk.Content != "" {
				select {
				case out <- Chunk{Text: chunk.Content}:
				case <-ctx.Done():
					return false
				}
			}
			return !chunk.Stop
		})
		if err != nil {
			select {
			case out <- Chunk{Err: fmt.Errorf("llamacpp stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}
