package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
)

const defaultAnthropicURL = "https://api.anthropic.com/v1/messages"

// Anthropic talks to the Anthropic Messages API directly.
type Anthropic struct {
	apiKey      string
	model       string
	baseURL     string
	maxTokens   int
	temperature float64
	http        *http.Client
}

// NewAnthropic creates the Anthropic adapter.
func NewAnthropic(apiKey, model string, opts Options) *Anthropic {
	url := opts.BaseURL
	if url == "" {
		url = defaultAnthropicURL
	}
	return &Anthropic{
		apiKey:      apiKey,
		model:       model,
		baseURL:     url,
		maxTokens:   maxOutputFor(model, opts.MaxOutputTokens),
		temperature: opts.Temperature,
		http:        &http.Client{},
	}
}

func (c *Anthropic) Name() string { return "anthropic" }

// Wire types for the Messages API.

type anthRequest struct {
	Model       string        `json:"model"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature *float64      `json:"temperature,omitempty"`
	System      string        `json:"system,omitempty"`
	Messages    []anthMessage `json:"messages"`
	Tools       []anthTool    `json:"tools,omitempty"`
}

type anthMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []anthBlock
}

type anthBlock struct {
	Type      string          `json:"type"`
	Text      string          `json:"text,omitempty"`
	ID        string          `json:"id,omitempty"`
	Name      string          `json:"name,omitempty"`
	Input     json.RawMessage `json:"input,omitempty"`
	ToolUseID string          `json:"tool_use_id,omitempty"`
	Content   string          `json:"content,omitempty"`
	IsError   bool            `json:"is_error,omitempty"`
}

type anthTool struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	InputSchema map[string]any `json:"input_schema"`
}

type anthResponse struct {
	Content []anthBlock `json:"content"`
	Usage   struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

func (c *Anthropic) Chat(ctx context.Context, systemPrompt string, history []Message, tools []ToolDefinition) (*Response, error) {
	reqBody := anthRequest{
		Model:     c.model,
		MaxTokens: c.maxTokens,
		System:    systemPrompt,
		Messages:  encodeAnthropicHistory(history),
		Tools:     encodeAnthropicTools(tools),
	}
	if c.temperature > 0 {
		t := c.temperature
		reqBody.Temperature = &t
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, &BadRequestError{ProviderError: ProviderError{
			BaseError: BaseError{Message: "marshaling request", Cause: err}, Provider: "anthropic",
		}}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, &NetworkError{BaseError: BaseError{Message: "creating request", Cause: err}}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("anthropic-version", "2023-06-01")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, &TimeoutError{BaseError: BaseError{Message: "anthropic request", Cause: ctx.Err()}}
		}
		return nil, &NetworkError{BaseError: BaseError{Message: "anthropic request", Cause: err}}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{BaseError: BaseError{Message: "reading response", Cause: err}}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, c.statusError(resp, respBody)
	}

	var parsed anthResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, &ServerError{ProviderError: ProviderError{
			BaseError:  BaseError{Message: "malformed response body", Cause: err},
			Provider:   "anthropic",
			StatusCode: resp.StatusCode,
			Retryable:  true,
		}}
	}

	result := &Response{
		Model: c.model,
		Usage: Usage{InputTokens: parsed.Usage.InputTokens, OutputTokens: parsed.Usage.OutputTokens},
	}
	for _, block := range parsed.Content {
		switch block.Type {
		case "text":
			result.Text += block.Text
		case "tool_use":
			args := map[string]any{}
			_ = json.Unmarshal(block.Input, &args)
			result.ToolCalls = append(result.ToolCalls, ToolCall{
				ID:        block.ID,
				Name:      block.Name,
				Arguments: args,
			})
		}
	}
	return result, nil
}

// statusError maps an error response into the taxonomy, preferring the
// structured message from the body when it parses.
func (c *Anthropic) statusError(resp *http.Response, body []byte) error {
	message := fmt.Sprintf("anthropic: %s", resp.Status)
	var parsed anthResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Error != nil {
		message = fmt.Sprintf("anthropic: %s: %s", parsed.Error.Type, parsed.Error.Message)
	}

	var retryAfter *float64
	if ra := resp.Header.Get("Retry-After"); ra != "" {
		if secs, err := strconv.ParseFloat(ra, 64); err == nil {
			retryAfter = &secs
		}
	}
	return ErrorFromStatus("anthropic", resp.StatusCode, message, retryAfter)
}

func encodeAnthropicTools(tools []ToolDefinition) []anthTool {
	out := make([]anthTool, len(tools))
	for i, t := range tools {
		schema := map[string]any{"type": "object"}
		if props, ok := t.Parameters["properties"]; ok {
			schema["properties"] = props
		}
		if req, ok := t.Parameters["required"]; ok {
			schema["required"] = req
		}
		out[i] = anthTool{Name: t.Name, Description: t.Description, InputSchema: schema}
	}
	return out
}

func encodeAnthropicHistory(history []Message) []anthMessage {
	var msgs []anthMessage
	for i := 0; i < len(history); i++ {
		m := history[i]
		switch m.Role {
		case RoleUser:
			msgs = append(msgs, anthMessage{Role: "user", Content: m.Content})
		case RoleTool:
			// The API requires every tool_use in an assistant turn to be
			// answered in the single next user message, so a whole batch of
			// results collapses into one message.
			var blocks []anthBlock
			for ; i < len(history) && history[i].Role == RoleTool; i++ {
				r := history[i].ToolResult
				if r == nil {
					continue
				}
				blocks = append(blocks, anthBlock{
					Type:      "tool_result",
					ToolUseID: r.ToolCallID,
					Content:   r.Content,
					IsError:   !r.Success,
				})
			}
			i--
			if len(blocks) > 0 {
				msgs = append(msgs, anthMessage{Role: "user", Content: blocks})
			}
		case RoleAssistant:
			if len(m.ToolCalls) == 0 {
				msgs = append(msgs, anthMessage{Role: "assistant", Content: m.Content})
				continue
			}
			var blocks []anthBlock
			if m.Content != "" {
				blocks = append(blocks, anthBlock{Type: "text", Text: m.Content})
			}
			for _, tc := range m.ToolCalls {
				input, _ := json.Marshal(tc.Arguments)
				blocks = append(blocks, anthBlock{
					Type:  "tool_use",
					ID:    tc.ID,
					Name:  tc.Name,
					Input: input,
				})
			}
			msgs = append(msgs, anthMessage{Role: "assistant", Content: blocks})
		}
	}
	return msgs
}
