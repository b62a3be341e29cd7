package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/professai/aitril/internal/config"
)

const defaultGeminiBaseURL = "https://generativelanguage.googleapis.com/v1beta"

// geminiProvider talks to the Google Generative Language API.
type geminiProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func newGemini(cfg config.ProviderConfig) (Provider, error) {
	key, err := resolveKey(cfg, "GOOGLE_API_KEY", "Gemini")
	if err != nil {
		return nil, err
	}
	return &geminiProvider{
		client:  newHTTPClient(),
		baseURL: resolveBaseURL(cfg, "GEMINI_BASE_URL", defaultGeminiBaseURL),
		apiKey:  key,
		model:   resolveModel(cfg, "GEMINI_MODEL", "gemini-2.0-flash"),
	}, nil
}

func (p *geminiProvider) Name() string        { return NameGemini }
func (p *geminiProvider) DisplayName() string { return displayNames[NameGemini] }

type geminiRequest struct {
	Contents []geminiContent `json:"contents"`
}

type geminiContent struct {
	Parts []geminiPart `json:"parts"`
}

type geminiPart struct {
	Text string `json:"text"`
}

type geminiResponse struct {
	Candidates []struct {
		Content geminiContent `json:"content"`
	} `json:"candidates"`
}

func (t geminiResponse) text() string {
	var out string
	for _, c := range t.Candidates {
		for _, part := range c.Content.Parts {
			out += part.Text
		}
	}
	return out
}

func (p *geminiProvider) Ask(ctx context.Context, prompt string) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", p.baseURL, p.model, p.apiKey)
	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	resp, err := postJSON(ctx, p.client, url, nil, req)
	if err != nil {
		return "", fmt.Errorf("gemini request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError("gemini", resp)
	}
	defer resp.Body.Close()

	var parsed geminiResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("gemini response: %w", err)
	}
	if len(parsed.Candidates) == 0 {
		return "", fmt.Errorf("gemini response: no candidates")
	}
	return parsed.text(), nil
}

func (p *geminiProvider) AskStream(ctx context.Context, prompt string) (<-chan Chunk, error) {
	url := fmt.Sprintf("%s/models/%s:streamGenerateContent?alt=sse&key=%s", p.baseURL, p.model, p.apiKey)
	req := geminiRequest{
		Contents: []geminiContent{{Parts: []geminiPart{{Text: prompt}}}},
	}
	resp, err := postJSON(ctx, p.client, url, nil, req)
	if err != nil {
		return nil, fmt.Errorf("gemini request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("gemini", resp)
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		err := scanSSE(resp.Body, func(data string) bool {
			var parsed geminiResponse
			if json.Unmarshal([]byte(data), &parsed) != nil {
				return true
			}
			text := parsed.text()
			if text == "" {
				return true
			}
			select {
			case out <- Chunk{Text: text}:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err != nil {
			select {
			case out <- Chunk{Err: fmt.Errorf("gemini stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}
