package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/tool"
)

const defaultOpenAIBaseURL = "https://api.openai.com/v1"

// openaiProvider talks to the OpenAI chat completions API.
type openaiProvider struct {
	client  *http.Client
	baseURL string
	apiKey  string
	model   string
}

func newOpenAI(cfg config.ProviderConfig) (Provider, error) {
	key, err := resolveKey(cfg, "OPENAI_API_KEY", "OpenAI")
	if err != nil {
		return nil, err
	}
	return &openaiProvider{
		client:  newHTTPClient(),
		baseURL: resolveBaseURL(cfg, "OPENAI_BASE_URL", defaultOpenAIBaseURL),
		apiKey:  key,
		model:   resolveModel(cfg, "OPENAI_MODEL", "gpt-4o"),
	}, nil
}

func (p *openaiProvider) Name() string        { return NameOpenAI }
func (p *openaiProvider) DisplayName() string { return displayNames[NameOpenAI] }

type oaMessage struct {
	Role       string       `json:"role"`
	Content    string       `json:"content,omitempty"`
	ToolCalls  []oaToolCall `json:"tool_calls,omitempty"`
	ToolCallID string       `json:"tool_call_id,omitempty"`
}

type oaToolCall struct {
	ID       string         `json:"id"`
	Type     string         `json:"type"`
	Function oaFunctionCall `json:"function"`
}

type oaFunctionCall struct {
	Name      string `json:"name"`
	Arguments string `json:"arguments"`
}

type oaTool struct {
	Type     string     `json:"type"`
	Function oaFunction `json:"function"`
}

type oaFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

type oaRequest struct {
	Model    string      `json:"model"`
	Messages []oaMessage `json:"messages"`
	Stream   bool        `json:"stream,omitempty"`
	Tools    []oaTool    `json:"tools,omitempty"`
}

type oaResponse struct {
	Choices []struct {
		Message oaMessage `json:"message"`
	} `json:"choices"`
}

func (p *openaiProvider) headers() map[string]string {
	return map[string]string{"Authorization": "Bearer " + p.apiKey}
}

func (p *openaiProvider) Ask(ctx context.Context, prompt string) (string, error) {
	req := oaRequest{
		Model:    p.model,
		Messages: []oaMessage{{Role: "user", Content: prompt}},
	}
	resp, err := postJSON(ctx, p.client, p.baseURL+"/chat/completions", p.headers(), req)
	if err != nil {
		return "", fmt.Errorf("openai request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", statusError("openai", resp)
	}
	defer resp.Body.Close()

	var parsed oaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return "", fmt.Errorf("openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("openai response: no choices")
	}
	return parsed.Choices[0].Message.Content, nil
}

func (p *openaiProvider) AskStream(ctx context.Context, prompt string) (<-chan Chunk, error) {
	req := oaRequest{
		Model:    p.model,
		Messages: []oaMessage{{Role: "user", Content: prompt}},
		Stream:   true,
	}
	resp, err := postJSON(ctx, p.client, p.baseURL+"/chat/completions", p.headers(), req)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("openai", resp)
	}

	out := make(chan Chunk)
	go func() {
		defer close(out)
		defer resp.Body.Close()

		type streamDelta struct {
			Choices []struct {
				Delta struct {
					Content string `json:"content"`
				} `json:"delta"`
			} `json:"choices"`
		}

		err := scanSSE(resp.Body, func(data string) bool {
			if data == "[DONE]" {
				return false
			}
			var delta streamDelta
			if json.Unmarshal([]byte(data), &delta) != nil {
				return true
			}
			if len(delta.Choices) == 0 || delta.Choices[0].Delta.Content == "" {
				return true
			}
			select {
			case out <- Chunk{Text: delta.Choices[0].Delta.Content}:
				return true
			case <-ctx.Done():
				return false
			}
		})
		if err != nil {
			select {
			case out <- Chunk{Err: fmt.Errorf("openai stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// Turn implements tool.Caller using OpenAI function calling.
func (p *openaiProvider) Turn(ctx context.Context, tr *tool.Transcript, defs []tool.Definition) (*tool.TurnResult, error) {
	var messages []oaMessage
	if tr.System != "" {
		messages = append(messages, oaMessage{Role: "system", Content: tr.System})
	}
	messages = append(messages, oaMessage{Role: "user", Content: tr.Prompt})

	for _, step := range tr.Steps {
		assistant := oaMessage{Role: "assistant", Content: step.Text}
		for _, call := range step.Calls {
			args, err := json.Marshal(call.Args)
			if err != nil {
				return nil, fmt.Errorf("encode tool arguments for %s: %w", call.Name, err)
			}
			assistant.ToolCalls = append(assistant.ToolCalls, oaToolCall{
				ID:   call.ID,
				Type: "function",
				Function: oaFunctionCall{
					Name:      call.Name,
					Arguments: string(args),
				},
			})
		}
		messages = append(messages, assistant)
		for _, res := range step.Results {
			messages = append(messages, oaMessage{
				Role:       "tool",
				Content:    res.Content,
				ToolCallID: res.CallID,
			})
		}
	}

	req := oaRequest{
		Model:    p.model,
		Messages: messages,
		Tools:    openaiToolDefs(defs),
	}
	resp, err := postJSON(ctx, p.client, p.baseURL+"/chat/completions", p.headers(), req)
	if err != nil {
		return nil, fmt.Errorf("openai request: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, statusError("openai", resp)
	}
	defer resp.Body.Close()

	var parsed oaResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("openai response: %w", err)
	}
	if len(parsed.Choices) == 0 {
		return nil, fmt.Errorf("openai response: no choices")
	}

	msg := parsed.Choices[0].Message
	result := &tool.TurnResult{Text: msg.Content}
	for _, tc := range msg.ToolCalls {
		var args map[string]any
		if tc.Function.Arguments != "" {
			if err := json.Unmarshal([]byte(tc.Function.Arguments), &args); err != nil {
				args = map[string]any{}
			}
		}
		result.Calls = append(result.Calls, tool.Call{
			ID:   tc.ID,
			Name: tc.Function.Name,
			Args: args,
		})
	}
	return result, nil
}

func openaiToolDefs(defs []tool.Definition) []oaTool {
	out := make([]oaTool, 0, len(defs))
	for _, d := range defs {
		out = append(out, oaTool{
			Type: "function",
			Function: oaFunction{
				Name:        d.Name,
				Description: d.Description,
				Parameters: map[string]any{
					"type":       "object",
					"properties": d.Parameters,
					"required":   d.Required,
				},
			},
		})
	}
	return out
}
