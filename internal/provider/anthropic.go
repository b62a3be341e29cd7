package provider

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/bedrock"
	"github.com/anthropics/anthropic-sdk-go/option"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"

	"github.com/professai/aitril/internal/config"
	"github.com/professai/aitril/internal/tool"
)

const anthropicMaxTokens = 4096

// anthropicProvider talks to the Anthropic API, directly or via AWS Bedrock.
type anthropicProvider struct {
	client anthropic.Client
	model  anthropic.Model
}

func newAnthropic(cfg config.ProviderConfig) (Provider, error) {
	var opts []option.RequestOption

	if cfg.UseBedrock {
		var loadOpts []func(*awsconfig.LoadOptions) error
		if cfg.AWSRegion != "" {
			loadOpts = append(loadOpts, awsconfig.WithRegion(cfg.AWSRegion))
		}
		if cfg.AWSProfile != "" {
			loadOpts = append(loadOpts, awsconfig.WithSharedConfigProfile(cfg.AWSProfile))
		}
		opts = append(opts, bedrock.WithLoadDefaultConfig(context.Background(), loadOpts...))
	} else {
		key, err := resolveKey(cfg, "ANTHROPIC_API_KEY", "Anthropic")
		if err != nil {
			return nil, err
		}
		opts = append(opts, option.WithAPIKey(key))
	}

	model := anthropic.Model(resolveModel(cfg, "ANTHROPIC_MODEL", string(anthropic.ModelClaudeSonnet4_20250514)))
	if cfg.UseBedrock {
		model = translateModelForBedrock(model)
	}

	return &anthropicProvider{
		client: anthropic.NewClient(opts...),
		model:  model,
	}, nil
}

// translateModelForBedrock converts standard model names to Bedrock
// cross-region inference profile format.
func translateModelForBedrock(model anthropic.Model) anthropic.Model {
	bedrockModels := map[anthropic.Model]string{
		anthropic.ModelClaudeSonnet4_20250514:  "us.anthropic.claude-sonnet-4-20250514-v1:0",
		anthropic.ModelClaude3_7SonnetLatest:   "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
		anthropic.ModelClaude3_5HaikuLatest:    "us.anthropic.claude-3-5-haiku-20241022-v1:0",
		anthropic.ModelClaude3_7Sonnet20250219: "us.anthropic.claude-3-7-sonnet-20250219-v1:0",
		anthropic.ModelClaude3_5Haiku20241022:  "us.anthropic.claude-3-5-haiku-20241022-v1:0",
	}
	if bm, ok := bedrockModels[model]; ok {
		return anthropic.Model(bm)
	}
	return model
}

func (p *anthropicProvider) Name() string        { return NameAnthropic }
func (p *anthropicProvider) DisplayName() string { return displayNames[NameAnthropic] }

func (p *anthropicProvider) Ask(ctx context.Context, prompt string) (string, error) {
	resp, err := p.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		return "", fmt.Errorf("anthropic request: %w", err)
	}

	var text string
	for _, block := range resp.Content {
		if variant, ok := block.AsAny().(anthropic.TextBlock); ok {
			text += variant.Text
		}
	}
	return text, nil
}

func (p *anthropicProvider) AskStream(ctx context.Context, prompt string) (<-chan Chunk, error) {
	stream := p.client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: anthropicMaxTokens,
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})

	out := make(chan Chunk)
	go func() {
		defer close(out)
		for stream.Next() {
			event := stream.Current()
			if variant, ok := event.AsAny().(anthropic.ContentBlockDeltaEvent); ok {
				if delta, ok := variant.Delta.AsAny().(anthropic.TextDelta); ok && delta.Text != "" {
					select {
					case out <- Chunk{Text: delta.Text}:
					case <-ctx.Done():
						return
					}
				}
			}
		}
		if err := stream.Err(); err != nil {
			select {
			case out <- Chunk{Err: fmt.Errorf("anthropic stream: %w", err)}:
			case <-ctx.Done():
			}
		}
	}()
	return out, nil
}

// Turn implements tool.Caller. It replays the transcript as an Anthropic
// message history and returns the assistant's text and tool calls for one
// exchange.
func (p *anthropicProvider) Turn(ctx context.Context, tr *tool.Transcript, defs []tool.Definition) (*tool.TurnResult, error) {
	messages := []anthropic.MessageParam{
		anthropic.NewUserMessage(anthropic.NewTextBlock(tr.Prompt)),
	}
	for _, step := range tr.Steps {
		var assistantBlocks []anthropic.ContentBlockParamUnion
		if step.Text != "" {
			assistantBlocks = append(assistantBlocks, anthropic.NewTextBlock(step.Text))
		}
		for _, call := range step.Calls {
			input, err := json.Marshal(call.Args)
			if err != nil {
				return nil, fmt.Errorf("encode tool input for %s: %w", call.Name, err)
			}
			assistantBlocks = append(assistantBlocks,
				anthropic.NewToolUseBlock(call.ID, json.RawMessage(input), call.Name))
		}
		messages = append(messages, anthropic.NewAssistantMessage(assistantBlocks...))

		var resultBlocks []anthropic.ContentBlockParamUnion
		for _, res := range step.Results {
			resultBlocks = append(resultBlocks,
				anthropic.NewToolResultBlock(res.CallID, res.Content, res.IsError))
		}
		if len(resultBlocks) > 0 {
			messages = append(messages, anthropic.NewUserMessage(resultBlocks...))
		}
	}

	params := anthropic.MessageNewParams{
		Model:     p.model,
		MaxTokens: anthropicMaxTokens,
		Messages:  messages,
		Tools:     anthropicToolDefs(defs),
	}
	if tr.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: tr.System}}
	}

	resp, err := p.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic request: %w", err)
	}

	result := &tool.TurnResult{}
	for _, block := range resp.Content {
		switch variant := block.AsAny().(type) {
		case anthropic.TextBlock:
			result.Text += variant.Text
		case anthropic.ToolUseBlock:
			var args map[string]any
			if len(variant.Input) > 0 {
				if err := json.Unmarshal(variant.Input, &args); err != nil {
					args = map[string]any{}
				}
			}
			result.Calls = append(result.Calls, tool.Call{
				ID:   variant.ID,
				Name: variant.Name,
				Args: args,
			})
		}
	}
	return result, nil
}

func anthropicToolDefs(defs []tool.Definition) []anthropic.ToolUnionParam {
	out := make([]anthropic.ToolUnionParam, 0, len(defs))
	for _, d := range defs {
		out = append(out, anthropic.ToolUnionParam{
			OfTool: &anthropic.ToolParam{
				Name:        d.Name,
				Description: anthropic.String(d.Description),
				InputSchema: anthropic.ToolInputSchemaParam{
					Properties: d.Parameters,
					Required:   d.Required,
				},
			},
		})
	}
	return out
}
