package agent

import (
	"fmt"
	"strings"
)

// sideEffectSummary renders a short human-readable account of what a turn
// changed. Empty when nothing happened.
func sideEffectSummary(res *Result) string {
	var parts []string
	if len(res.ModifiedFiles) > 0 {
		if len(res.ModifiedFiles) == 1 {
			parts = append(parts, "Modified "+res.ModifiedFiles[0])
		} else {
			parts = append(parts, fmt.Sprintf("Modified %d files: %s",
				len(res.ModifiedFiles), strings.Join(res.ModifiedFiles, ", ")))
		}
	}
	if res.BuildTriggered {
		parts = append(parts, "Restarted the app")
	}
	if failed := failedToolCalls(res); failed > 0 {
		parts = append(parts, fmt.Sprintf("%d tool call(s) failed", failed))
	}
	return strings.Join(parts, ". ")
}

// failedToolCalls counts failed tool results; provider errors recorded in
// res.Errors are not tool failures and never appear in the summary.
func failedToolCalls(res *Result) int {
	n := 0
	for _, r := range res.ToolResults {
		if !r.Success {
			n++
		}
	}
	return n
}

// finalResponse combines the model's closing text with the side-effect
// summary. The summary is appended when side effects occurred, and stands
// alone when the model produced no text.
func finalResponse(text string, res *Result) string {
	summary := sideEffectSummary(res)
	text = strings.TrimSpace(text)
	switch {
	case text == "" && summary == "":
		return "Done."
	case text == "":
		return summary
	case summary == "":
		return text
	default:
		return text + "\n\n" + summary
	}
}
