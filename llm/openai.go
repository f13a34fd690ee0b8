package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/packages/param"
)

// OpenAI serves the OpenAI Chat Completions API through the official SDK.
// With a custom base URL it also covers OpenAI-compatible runtimes (ollama,
// local gateways).
type OpenAI struct {
	client      openai.Client
	name        string
	model       string
	maxTokens   int
	temperature float64
}

// NewOpenAI creates the OpenAI adapter.
func NewOpenAI(apiKey, model string, opts Options) *OpenAI {
	var reqOpts []option.RequestOption
	if apiKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(apiKey))
	}
	if opts.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(opts.BaseURL))
	}
	name := "openai"
	if opts.Provider == "ollama" {
		name = "ollama"
	}
	if model == "" {
		model = string(openai.ChatModelGPT4o)
	}
	return &OpenAI{
		client:      openai.NewClient(reqOpts...),
		name:        name,
		model:       model,
		maxTokens:   maxOutputFor(model, opts.MaxOutputTokens),
		temperature: opts.Temperature,
	}
}

func (c *OpenAI) Name() string { return c.name }

func (c *OpenAI) Chat(ctx context.Context, systemPrompt string, history []Message, tools []ToolDefinition) (*Response, error) {
	oaiTools := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, t := range tools {
		oaiTools[i] = openai.ChatCompletionFunctionTool(openai.FunctionDefinitionParam{
			Name:        t.Name,
			Description: openai.String(t.Description),
			Parameters:  openai.FunctionParameters(t.Parameters),
		})
	}

	oaiMsgs := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
	}
	for _, m := range history {
		switch m.Role {
		case RoleUser:
			oaiMsgs = append(oaiMsgs, openai.UserMessage(m.Content))
		case RoleTool:
			if m.ToolResult == nil {
				continue
			}
			oaiMsgs = append(oaiMsgs, openai.ToolMessage(m.ToolResult.Content, m.ToolResult.ToolCallID))
		case RoleAssistant:
			if len(m.ToolCalls) == 0 {
				oaiMsgs = append(oaiMsgs, openai.AssistantMessage(m.Content))
				continue
			}
			toolCalls := make([]openai.ChatCompletionMessageToolCallUnionParam, len(m.ToolCalls))
			for j, tc := range m.ToolCalls {
				argsJSON, _ := json.Marshal(tc.Arguments)
				toolCalls[j] = openai.ChatCompletionMessageToolCallUnionParam{
					OfFunction: &openai.ChatCompletionMessageFunctionToolCallParam{
						ID: tc.ID,
						Function: openai.ChatCompletionMessageFunctionToolCallFunctionParam{
							Name:      tc.Name,
							Arguments: string(argsJSON),
						},
					},
				}
			}
			oaiMsgs = append(oaiMsgs, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Content: openai.ChatCompletionAssistantMessageParamContentUnion{
						OfString: param.NewOpt(m.Content),
					},
					ToolCalls: toolCalls,
				},
			})
		}
	}

	params := openai.ChatCompletionNewParams{
		Model:               openai.ChatModel(c.model),
		Messages:            oaiMsgs,
		Tools:               oaiTools,
		MaxCompletionTokens: openai.Int(int64(c.maxTokens)),
	}
	if c.temperature > 0 {
		params.Temperature = openai.Float(c.temperature)
	}

	resp, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, c.normalizeError(err)
	}

	if len(resp.Choices) == 0 {
		return &Response{Model: c.model}, nil
	}

	choice := resp.Choices[0]
	result := &Response{
		Text:  choice.Message.Content,
		Model: c.model,
		Usage: Usage{
			InputTokens:  int(resp.Usage.PromptTokens),
			OutputTokens: int(resp.Usage.CompletionTokens),
		},
	}
	for _, tc := range choice.Message.ToolCalls {
		ftc := tc.AsFunction()
		args := map[string]any{}
		_ = json.Unmarshal([]byte(ftc.Function.Arguments), &args)
		id := ftc.ID
		if id == "" {
			// Some compatible runtimes omit call IDs; synthesize a stable one
			// so the tool-result round trip stays correlated.
			id = "call_" + uuid.New().String()[:8]
		}
		result.ToolCalls = append(result.ToolCalls, ToolCall{
			ID:        id,
			Name:      ftc.Function.Name,
			Arguments: args,
		})
	}
	return result, nil
}

// normalizeError maps SDK failures into the taxonomy.
func (c *OpenAI) normalizeError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return ErrorFromStatus(c.name, apiErr.StatusCode, fmt.Sprintf("%s chat: %s", c.name, apiErr.Message), nil)
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return &TimeoutError{BaseError: BaseError{Message: c.name + " chat", Cause: err}}
	}
	return &NetworkError{BaseError: BaseError{Message: c.name + " chat", Cause: err}}
}
