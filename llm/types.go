// Package llm provides a provider-agnostic model client layer. Each supported
// vendor gets one adapter that normalizes its wire protocol into a common
// Response shape and translates the shared conversation history into the
// vendor's expected turn structure.
package llm

import "context"

// Role identifies who produced a message in a conversation.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one turn of conversation history. Messages are append-only:
// once a turn is folded into history it is never mutated.
type Message struct {
	Role       Role        `json:"role"`
	Content    string      `json:"content,omitempty"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolResult *ToolResult `json:"tool_result,omitempty"`
}

// ToolCall is a model-issued request for a side effect. The ID is opaque,
// unique within a single model response, and stable across the round trip
// from assistant turn to tool-result turn.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"`
}

// ToolResult is the outcome of executing one ToolCall. Side-effect facts are
// carried as typed fields (AffectedPath, BuildTriggered) rather than being
// recovered by parsing the human-readable Content.
type ToolResult struct {
	ToolCallID     string `json:"tool_call_id"`
	Name           string `json:"name"`
	Content        string `json:"content"`
	Success        bool   `json:"success"`
	Error          string `json:"error,omitempty"`
	AffectedPath   string `json:"affected_path,omitempty"`
	BuildTriggered bool   `json:"build_triggered,omitempty"`
}

// ToolDefinition describes a tool to the model: name, description and a JSON
// Schema for its parameters. Definitions are immutable after construction.
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"`
}

// ResponseKind discriminates the two non-error response shapes.
type ResponseKind string

const (
	ResponseText      ResponseKind = "text"
	ResponseToolCalls ResponseKind = "tool_calls"
)

// Usage tracks token consumption for one provider call.
type Usage struct {
	InputTokens  int `json:"input_tokens"`
	OutputTokens int `json:"output_tokens"`
}

// Response is the normalized result of one provider call. A response either
// terminates the conversation (text only) or requests side effects
// (tool calls, possibly with accompanying text). Failures never appear here;
// adapters surface them as typed errors from the errors taxonomy.
type Response struct {
	Text      string     `json:"text,omitempty"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
	Model     string     `json:"model,omitempty"`
	Usage     Usage      `json:"usage"`
}

// Kind reports whether the response is terminal text or a tool-call request.
func (r *Response) Kind() ResponseKind {
	if len(r.ToolCalls) > 0 {
		return ResponseToolCalls
	}
	return ResponseText
}

// Provider is the vendor adapter contract. Implementations are stateless
// between calls (configuration only, no conversational state), never retry,
// and never let a vendor failure escape un-normalized: every error returned
// belongs to this package's taxonomy.
type Provider interface {
	Name() string
	Chat(ctx context.Context, systemPrompt string, history []Message, tools []ToolDefinition) (*Response, error)
}

// UserMessage creates a user turn.
func UserMessage(text string) Message {
	return Message{Role: RoleUser, Content: text}
}

// AssistantMessage creates a plain assistant turn.
func AssistantMessage(text string) Message {
	return Message{Role: RoleAssistant, Content: text}
}

// AssistantToolCallMessage creates an assistant turn carrying tool calls and
// any accompanying text.
func AssistantToolCallMessage(text string, calls []ToolCall) Message {
	return Message{Role: RoleAssistant, Content: text, ToolCalls: calls}
}

// ToolResultMessage creates a tool turn carrying exactly one result.
func ToolResultMessage(result ToolResult) Message {
	r := result
	return Message{Role: RoleTool, Content: result.Content, ToolResult: &r}
}
