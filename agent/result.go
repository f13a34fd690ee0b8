package agent

import "github.com/forgeloop/forgeloop/llm"

// State describes how a conversation turn concluded.
type State int

const (
	// StateDone means the model produced a final answer within budget.
	StateDone State = iota
	// StateCancelled means the caller cancelled mid-turn; completed work is
	// still reported.
	StateCancelled
	// StateErrored means the provider failed repeatedly or the turn could
	// not be driven to completion.
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateDone:
		return "done"
	case StateCancelled:
		return "cancelled"
	case StateErrored:
		return "errored"
	default:
		return "unknown"
	}
}

// Result is the outcome of one Chat call. It is always well formed: even an
// errored or cancelled turn reports the work that completed before stopping.
type Result struct {
	// Response is the user-facing final text.
	Response string
	// ToolCalls holds every tool invocation issued during the turn, across
	// all iterations, in issue order.
	ToolCalls []llm.ToolCall
	// ToolResults holds every tool outcome, across all iterations, in
	// execution order. Pairs with ToolCalls by ToolCallID.
	ToolResults []llm.ToolResult
	// ModifiedFiles lists the distinct project paths changed this turn.
	ModifiedFiles []string
	// BuildTriggered reports whether the app was (re)started this turn.
	BuildTriggered bool
	// Errors collects non-fatal problems: failed tool calls and recovered
	// provider errors.
	Errors []string
	// State tells the caller how the turn ended.
	State State
}
