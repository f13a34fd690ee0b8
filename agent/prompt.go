package agent

import (
	"strings"

	"github.com/forgeloop/forgeloop/sandbox"
)

const basePrompt = `You are an expert software engineer working on a live project inside a build sandbox.

You make changes by calling tools: write, read, and delete project files, list the tree, run commands, and start or stop the app's dev process. After meaningful changes, start the app and check its logs to verify the project still builds and runs.

Guidelines:
- Always write complete file contents; write_file replaces the whole file.
- Keep changes minimal and focused on the user's request.
- When the logs show errors, fix them before answering.
- When the task is complete, reply with a short plain-text summary instead of calling more tools.`

// BuildSystemPrompt assembles the system prompt for a turn: the base
// instructions plus a snapshot of the current project tree so the model
// starts oriented.
func BuildSystemPrompt(sess sandbox.Session) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	paths, err := sess.ListFiles("")
	if err != nil || len(paths) == 0 {
		return b.String()
	}

	b.WriteString("\n\nCurrent project files:\n")
	for _, p := range paths {
		b.WriteString("- ")
		b.WriteString(p)
		b.WriteString("\n")
	}
	if sess.IsRunning() {
		b.WriteString("\nThe app's dev process is currently running.")
	}
	return strings.TrimRight(b.String(), "\n")
}
