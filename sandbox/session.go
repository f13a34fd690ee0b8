// Package sandbox defines the capability contract the agent core requires
// from a build sandbox, and a local implementation of it. The core consumes a
// Session by handle and never owns its lifecycle; callers create one, pass it
// into the orchestration loop, and tear it down themselves.
package sandbox

import "context"

// ExecResult holds the outcome of a command run inside the sandbox.
type ExecResult struct {
	ExitCode int    `json:"exit_code"`
	Output   string `json:"output"`
}

// Session is the narrow operation set the agent core may invoke. The sandbox
// keeps a locally mirrored path-to-content map alongside the real filesystem;
// mutating operations commit the mirror only after the external write
// succeeds, so the two views never diverge on failure.
type Session interface {
	// File operations.
	WriteFile(path, content string) error
	ReadFile(path string) (string, error)
	DeleteFile(path string) error
	ListFiles(dir string) ([]string, error)

	// Process and build operations.
	RunCommand(ctx context.Context, command string, args []string) (*ExecResult, error)
	Start(ctx context.Context, files map[string]string, installDeps bool) error
	Stop() error
	IsRunning() bool

	// Observability.
	Logs() []string
	ClearLogs()
	WriteTerminal(text string)

	// Local mirror accessors.
	Files() map[string]string
	SetFiles(files map[string]string)
	UpdateFile(path, content string)
}
