package llm

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/google/uuid"
	"github.com/teilomillet/gollm"
)

// Gollm is the catch-all adapter for vendors without a native adapter here
// (gemini, groq, mistral, ...). It drives them through the gollm library and
// normalizes the result into the common Response shape.
type Gollm struct {
	provider string
	model    string
	llm      gollm.LLM
}

// NewGollm creates a gollm-backed adapter for the given vendor.
func NewGollm(provider, model string, opts Options) (*Gollm, error) {
	gollmOpts := []gollm.ConfigOption{
		gollm.SetProvider(provider),
		gollm.SetModel(model),
		gollm.SetMaxTokens(maxOutputFor(model, opts.MaxOutputTokens)),
		gollm.SetTemperature(opts.Temperature),
		gollm.SetMaxRetries(0), // retry policy belongs to the orchestration loop
		gollm.SetLogLevel(gollm.LogLevelWarn),
	}
	if opts.APIKey != "" {
		gollmOpts = append(gollmOpts, gollm.SetAPIKey(opts.APIKey))
	}

	inner, err := gollm.NewLLM(gollmOpts...)
	if err != nil {
		return nil, &ConfigError{BaseError: BaseError{Message: "creating " + provider + " client", Cause: err}}
	}
	return &Gollm{provider: provider, model: model, llm: inner}, nil
}

func (c *Gollm) Name() string { return c.provider }

func (c *Gollm) Chat(ctx context.Context, systemPrompt string, history []Message, tools []ToolDefinition) (*Response, error) {
	prompt := c.buildPrompt(systemPrompt, history, tools)

	text, err := c.llm.Generate(ctx, prompt)
	if err != nil {
		return nil, c.normalizeError(err)
	}

	result := &Response{Model: c.model}
	calls := parseEmbeddedToolCalls(text)
	if len(calls) > 0 {
		result.ToolCalls = calls
		result.Text = stripToolCallJSON(text)
	} else {
		result.Text = text
	}
	return result, nil
}

// buildPrompt flattens the shared history into gollm's single-prompt shape.
// gollm has no native multi-turn tool protocol, so assistant context and tool
// results are rendered as labeled lines.
func (c *Gollm) buildPrompt(systemPrompt string, history []Message, tools []ToolDefinition) *gollm.Prompt {
	var parts []string
	for _, m := range history {
		switch m.Role {
		case RoleUser:
			parts = append(parts, m.Content)
		case RoleAssistant:
			if m.Content != "" {
				parts = append(parts, "[Assistant]: "+m.Content)
			}
		case RoleTool:
			if m.ToolResult == nil {
				continue
			}
			prefix := "[Tool Result]"
			if !m.ToolResult.Success {
				prefix = "[Tool Error]"
			}
			parts = append(parts, prefix+" "+m.ToolResult.Name+": "+m.ToolResult.Content)
		}
	}
	promptText := strings.Join(parts, "\n")

	promptOpts := []gollm.PromptOption{}
	if systemPrompt != "" {
		promptOpts = append(promptOpts, gollm.WithSystemPrompt(systemPrompt, gollm.CacheTypeEphemeral))
	}
	if len(tools) > 0 {
		gollmTools := make([]gollm.Tool, 0, len(tools))
		for _, t := range tools {
			gollmTools = append(gollmTools, gollm.Tool{
				Type: "function",
				Function: gollm.Function{
					Name:        t.Name,
					Description: t.Description,
					Parameters:  t.Parameters,
				},
			})
		}
		promptOpts = append(promptOpts, gollm.WithTools(gollmTools))
		promptOpts = append(promptOpts, gollm.WithToolChoice("auto"))
	}

	return gollm.NewPrompt(promptText, promptOpts...)
}

// parseEmbeddedToolCalls recovers tool calls that gollm returns inline as
// JSON in the generated text.
func parseEmbeddedToolCalls(text string) []ToolCall {
	start := strings.Index(text, `[{"name"`)
	if start == -1 {
		return nil
	}

	var raw []struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	}
	if err := json.Unmarshal([]byte(text[start:]), &raw); err != nil {
		return nil
	}

	var calls []ToolCall
	for _, rc := range raw {
		args := map[string]any{}
		_ = json.Unmarshal(rc.Arguments, &args)
		calls = append(calls, ToolCall{
			ID:        "call_" + uuid.New().String()[:8],
			Name:      rc.Name,
			Arguments: args,
		})
	}
	return calls
}

func stripToolCallJSON(text string) string {
	if idx := strings.Index(text, `[{"name"`); idx != -1 {
		return strings.TrimSpace(text[:idx])
	}
	return text
}

// normalizeError classifies gollm failures by message content, since gollm
// does not expose structured status codes.
func (c *Gollm) normalizeError(err error) error {
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "401") || strings.Contains(lower, "unauthorized") || strings.Contains(lower, "invalid api key"):
		return ErrorFromStatus(c.provider, 401, msg, nil)
	case strings.Contains(lower, "403") || strings.Contains(lower, "forbidden"):
		return ErrorFromStatus(c.provider, 403, msg, nil)
	case strings.Contains(lower, "404") || strings.Contains(lower, "not found"):
		return ErrorFromStatus(c.provider, 404, msg, nil)
	case strings.Contains(lower, "429") || strings.Contains(lower, "rate limit"):
		return ErrorFromStatus(c.provider, 429, msg, nil)
	case strings.Contains(lower, "context length") || strings.Contains(lower, "too many tokens"):
		return ErrorFromStatus(c.provider, 413, msg, nil)
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline"):
		return &TimeoutError{BaseError: BaseError{Message: msg, Cause: err}}
	case strings.Contains(lower, "500") || strings.Contains(lower, "internal server"):
		return ErrorFromStatus(c.provider, 500, msg, nil)
	default:
		return &ProviderError{
			BaseError: BaseError{Message: msg, Cause: err},
			Provider:  c.provider,
			Retryable: true,
		}
	}
}
