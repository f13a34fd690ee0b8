// Package agent drives the multi-turn conversation loop: it sends the
// history to a model provider, executes the tool calls the model returns
// against a sandbox session, folds the results back into the history, and
// repeats until the model answers in plain text or a budget runs out.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/forgeloop/forgeloop/llm"
	"github.com/forgeloop/forgeloop/sandbox"
)

// Config bounds a conversation turn. Zero values fall back to the defaults
// below, except the timeouts, where zero disables the limit.
type Config struct {
	// MaxIterations caps provider round-trips per Chat call.
	MaxIterations int
	// MaxConsecutiveErrors aborts the turn after this many provider
	// failures in a row.
	MaxConsecutiveErrors int
	// ProviderTimeout bounds a single provider invocation. Zero means no
	// timeout.
	ProviderTimeout time.Duration
	// ToolTimeout bounds one tool batch. Zero means no timeout.
	ToolTimeout time.Duration
	// RetryBaseDelay seeds the backoff between provider retries. Zero
	// disables waiting, which tests rely on.
	RetryBaseDelay time.Duration
	// SystemPrompt overrides the built-in system prompt when set.
	SystemPrompt string
}

const (
	defaultMaxIterations        = 20
	defaultMaxConsecutiveErrors = 3
	defaultProviderTimeout      = 120 * time.Second
	defaultToolTimeout          = 60 * time.Second
)

// DefaultConfig returns the standard turn budgets.
func DefaultConfig() Config {
	return Config{
		MaxIterations:        defaultMaxIterations,
		MaxConsecutiveErrors: defaultMaxConsecutiveErrors,
		ProviderTimeout:      defaultProviderTimeout,
		ToolTimeout:          defaultToolTimeout,
		RetryBaseDelay:       time.Second,
	}
}

// Service owns one conversation: the provider, the sandbox session the
// tools act on, and the accumulated history. A Service is safe for
// concurrent Cancel but Chat calls must not overlap; Chat serializes them.
type Service struct {
	provider llm.Provider
	session  sandbox.Session
	cfg      Config
	logger   *slog.Logger

	mu      sync.Mutex
	history []llm.Message

	cancelled atomic.Bool

	// OnToolCall, when set, observes each tool call before it runs.
	OnToolCall func(call llm.ToolCall)
	// OnToolResult, when set, observes each tool result as it lands.
	OnToolResult func(result llm.ToolResult)
}

// NewService builds a conversation service. A nil provider is allowed; the
// service reports unconfigured and Chat fails fast.
func NewService(provider llm.Provider, session sandbox.Session, cfg Config, logger *slog.Logger) *Service {
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = defaultMaxIterations
	}
	if cfg.MaxConsecutiveErrors <= 0 {
		cfg.MaxConsecutiveErrors = defaultMaxConsecutiveErrors
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		provider: provider,
		session:  session,
		cfg:      cfg,
		logger:   logger,
	}
}

// IsConfigured reports whether a provider is attached.
func (s *Service) IsConfigured() bool { return s.provider != nil }

// ProviderName returns the attached provider's name, or "" when
// unconfigured.
func (s *Service) ProviderName() string {
	if s.provider == nil {
		return ""
	}
	return s.provider.Name()
}

// Cancel requests that the in-flight turn stop at the next checkpoint.
// Completed tool results are still folded into the history and reported.
func (s *Service) Cancel() { s.cancelled.Store(true) }

// Reset clears the conversation history and any pending cancellation.
func (s *Service) Reset() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
	s.cancelled.Store(false)
}

// History returns a copy of the conversation so far.
func (s *Service) History() []llm.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]llm.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Chat runs one conversation turn to completion and always returns a well
// formed Result; the error is non-nil only when no provider is configured.
func (s *Service) Chat(ctx context.Context, message string) (*Result, error) {
	if s.provider == nil {
		return nil, &llm.ConfigError{BaseError: llm.BaseError{Message: "no model provider configured"}}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled.Store(false)

	s.history = append(s.history, llm.UserMessage(message))

	res := &Result{State: StateDone}
	systemPrompt := s.cfg.SystemPrompt
	if systemPrompt == "" {
		systemPrompt = BuildSystemPrompt(s.session)
	}
	tools := Definitions()

	iteration := 0
	consecutiveErrors := 0
	for {
		iteration++
		if s.cancelled.Load() || ctx.Err() != nil {
			return s.conclude(res, StateCancelled, "The request was cancelled."), nil
		}
		if iteration > s.cfg.MaxIterations {
			note := fmt.Sprintf("stopped after %d iterations without a final answer", s.cfg.MaxIterations)
			res.Errors = append(res.Errors, note)
			res.Response = finalResponse(fmt.Sprintf("I ran out of steps before finishing (stopped after %d iterations).", s.cfg.MaxIterations), res)
			res.State = StateDone
			return res, nil
		}

		resp, err := s.invokeProvider(ctx, systemPrompt, tools)
		if err != nil {
			consecutiveErrors++
			res.Errors = append(res.Errors, err.Error())
			s.logger.Warn("provider call failed",
				"provider", s.provider.Name(),
				"attempt", consecutiveErrors,
				"error", err)
			if !llm.IsRetryable(err) {
				res.Response = finalResponse("The model provider rejected the request: "+err.Error(), res)
				res.State = StateErrored
				return res, nil
			}
			if consecutiveErrors >= s.cfg.MaxConsecutiveErrors {
				res.Response = finalResponse(fmt.Sprintf("The model provider failed %d times in a row; giving up. Last error: %s", consecutiveErrors, err.Error()), res)
				res.State = StateErrored
				return res, nil
			}
			delay := backoffDelay(err, consecutiveErrors-1, s.cfg.RetryBaseDelay)
			if werr := sleepBackoff(ctx, delay); werr != nil {
				return s.conclude(res, StateCancelled, "The request was cancelled."), nil
			}
			continue
		}
		consecutiveErrors = 0

		if resp.Kind() == llm.ResponseText {
			s.history = append(s.history, llm.AssistantMessage(resp.Text))
			res.Response = finalResponse(resp.Text, res)
			res.State = StateDone
			return res, nil
		}

		s.history = append(s.history, llm.AssistantToolCallMessage(resp.Text, resp.ToolCalls))
		res.ToolCalls = append(res.ToolCalls, resp.ToolCalls...)
		if s.OnToolCall != nil {
			for _, call := range resp.ToolCalls {
				s.OnToolCall(call)
			}
		}

		results := ExecuteBatch(ctx, resp.ToolCalls, s.session, s.cfg.ToolTimeout)
		s.foldBatch(res, results)

		if s.cancelled.Load() || ctx.Err() != nil {
			return s.conclude(res, StateCancelled, "The request was cancelled."), nil
		}
	}
}

// invokeProvider runs one provider call under the configured timeout.
func (s *Service) invokeProvider(ctx context.Context, systemPrompt string, tools []llm.ToolDefinition) (*llm.Response, error) {
	if s.cfg.ProviderTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		defer cancel()
	}
	return s.provider.Chat(ctx, systemPrompt, s.history, tools)
}

// foldBatch records a completed tool batch into both the history and the
// turn result.
func (s *Service) foldBatch(res *Result, results []llm.ToolResult) {
	for i := range results {
		r := results[i]
		r.Content = truncateToolOutput(r.Content, r.Name)
		s.history = append(s.history, llm.ToolResultMessage(r))

		res.ToolResults = append(res.ToolResults, r)
		if !r.Success {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: %s", r.Name, r.Error))
		}
		if s.OnToolResult != nil {
			s.OnToolResult(r)
		}
	}
	for _, p := range ModifiedFiles(results) {
		res.ModifiedFiles = appendUnique(res.ModifiedFiles, p)
	}
	if BuildTriggered(results) {
		res.BuildTriggered = true
	}
}

func (s *Service) conclude(res *Result, state State, text string) *Result {
	res.State = state
	res.Response = finalResponse(text, res)
	return res
}

func appendUnique(paths []string, p string) []string {
	for _, existing := range paths {
		if existing == p {
			return paths
		}
	}
	return append(paths, p)
}
