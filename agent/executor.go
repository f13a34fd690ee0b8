package agent

import (
	"context"
	"fmt"
	"path"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/forgeloop/forgeloop/llm"
	"github.com/forgeloop/forgeloop/sandbox"
)

// ExecuteBatch runs every tool call from one model turn against the session
// and returns one result per call, in call order. Calls run concurrently,
// except that mutating calls targeting the same path execute sequentially in
// caller order. A failed call never aborts its siblings; the whole batch
// always completes with len(results) == len(calls).
func ExecuteBatch(ctx context.Context, calls []llm.ToolCall, sess sandbox.Session, timeout time.Duration) []llm.ToolResult {
	results := make([]llm.ToolResult, len(calls))
	if len(calls) == 0 {
		return results
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, group := range batchGroups(calls) {
		group := group
		g.Go(func() error {
			for _, idx := range group {
				results[idx] = runOne(ctx, calls[idx], sess)
			}
			return nil
		})
	}
	g.Wait() // workers never return errors; failures land in results
	return results
}

// batchGroups partitions call indexes into execution groups. Mutating calls
// that clean to the same path share a group and keep caller order; every
// other call gets its own group.
func batchGroups(calls []llm.ToolCall) [][]int {
	var groups [][]int
	byPath := map[string]int{}
	for i, call := range calls {
		kind, known := KindForName(call.Name)
		if known && kind.mutatesPath() {
			if p, ok := optionalStringArg(call.Arguments, "path"); ok && p != "" {
				key := path.Clean(p)
				if gi, seen := byPath[key]; seen {
					groups[gi] = append(groups[gi], i)
					continue
				}
				byPath[key] = len(groups)
			}
		}
		groups = append(groups, []int{i})
	}
	return groups
}

// runOne dispatches a single call, converting panics and cancellation into
// failed results so the batch invariant holds.
func runOne(ctx context.Context, call llm.ToolCall, sess sandbox.Session) (result llm.ToolResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failedResult(call, fmt.Errorf("tool panicked: %v", r))
		}
	}()

	if err := ctx.Err(); err != nil {
		return failedResult(call, fmt.Errorf("tool call aborted: %w", err))
	}

	kind, ok := KindForName(call.Name)
	if !ok {
		return failedResult(call, fmt.Errorf("unknown tool: %s", call.Name))
	}
	return handle(ctx, kind, call, sess)
}

// ModifiedFiles collects the distinct paths successfully changed by a batch,
// in first-modified order.
func ModifiedFiles(results []llm.ToolResult) []string {
	var paths []string
	seen := map[string]bool{}
	for _, r := range results {
		if !r.Success || r.AffectedPath == "" {
			continue
		}
		if !seen[r.AffectedPath] {
			seen[r.AffectedPath] = true
			paths = append(paths, r.AffectedPath)
		}
	}
	return paths
}

// BuildTriggered reports whether any successful call in the batch started
// the app.
func BuildTriggered(results []llm.ToolResult) bool {
	for _, r := range results {
		if r.Success && r.BuildTriggered {
			return true
		}
	}
	return false
}
