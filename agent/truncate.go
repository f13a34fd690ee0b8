package agent

import (
	"fmt"
	"strings"
)

// truncationMode specifies how oversized tool output is cut.
type truncationMode int

const (
	truncateHeadTail truncationMode = iota
	truncateTail
)

// Per-tool character limits for output fed back to the model. Anything not
// listed falls back to defaultCharLimit.
var toolCharLimits = map[string]int{
	"read_file":   50000,
	"run_command": 30000,
	"get_logs":    30000,
	"list_files":  20000,
	"write_file":  1000,
}

var toolTruncationModes = map[string]truncationMode{
	"read_file":   truncateHeadTail,
	"run_command": truncateHeadTail,
	"get_logs":    truncateTail,
	"list_files":  truncateTail,
	"write_file":  truncateTail,
}

// Line caps applied after character truncation, for readability.
var toolLineLimits = map[string]int{
	"run_command": 256,
	"get_logs":    400,
	"list_files":  500,
}

const defaultCharLimit = 30000

// truncateToolOutput caps one tool result's content before it enters the
// conversation history. Logs keep their tail (recent errors matter most);
// files and command output keep head and tail.
func truncateToolOutput(output, toolName string) string {
	if maxLines, ok := toolLineLimits[toolName]; ok {
		output = truncateLines(output, maxLines)
	}

	maxChars, ok := toolCharLimits[toolName]
	if !ok {
		maxChars = defaultCharLimit
	}
	if len(output) <= maxChars {
		return output
	}

	mode := toolTruncationModes[toolName]
	removed := len(output) - maxChars
	switch mode {
	case truncateTail:
		return fmt.Sprintf("[output truncated: first %d characters removed]\n\n", removed) +
			output[len(output)-maxChars:]
	default:
		half := maxChars / 2
		return output[:half] +
			fmt.Sprintf("\n\n[output truncated: %d characters removed from the middle; re-run with narrower parameters to see more]\n\n", removed) +
			output[len(output)-half:]
	}
}

// truncateLines caps output at maxLines using a head/tail split.
func truncateLines(output string, maxLines int) string {
	lines := strings.Split(output, "\n")
	if len(lines) <= maxLines {
		return output
	}
	head := maxLines / 2
	tail := maxLines - head
	omitted := len(lines) - head - tail
	return strings.Join(lines[:head], "\n") +
		fmt.Sprintf("\n[... %d lines omitted ...]\n", omitted) +
		strings.Join(lines[len(lines)-tail:], "\n")
}
