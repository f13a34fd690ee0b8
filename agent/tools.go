package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/forgeloop/forgeloop/llm"
	"github.com/forgeloop/forgeloop/sandbox"
)

// ToolKind enumerates every tool the model may call. The set is closed:
// dispatch and definitions both switch exhaustively on it, so adding or
// removing a tool is a compile-time-checked change.
type ToolKind int

const (
	ToolWriteFile ToolKind = iota
	ToolReadFile
	ToolDeleteFile
	ToolListFiles
	ToolRunCommand
	ToolStartApp
	ToolStopApp
	ToolGetLogs
	ToolClearLogs
	toolKindCount // sentinel, keep last
)

// Name returns the wire name of the tool.
func (k ToolKind) Name() string {
	switch k {
	case ToolWriteFile:
		return "write_file"
	case ToolReadFile:
		return "read_file"
	case ToolDeleteFile:
		return "delete_file"
	case ToolListFiles:
		return "list_files"
	case ToolRunCommand:
		return "run_command"
	case ToolStartApp:
		return "start_app"
	case ToolStopApp:
		return "stop_app"
	case ToolGetLogs:
		return "get_logs"
	case ToolClearLogs:
		return "clear_logs"
	default:
		return fmt.Sprintf("unknown(%d)", int(k))
	}
}

// KindForName resolves a wire name back to its kind.
func KindForName(name string) (ToolKind, bool) {
	for k := ToolKind(0); k < toolKindCount; k++ {
		if k.Name() == name {
			return k, true
		}
	}
	return 0, false
}

// mutatesPath reports whether the tool changes a single file path; the
// executor serializes same-path calls within a batch using this.
func (k ToolKind) mutatesPath() bool {
	return k == ToolWriteFile || k == ToolDeleteFile
}

// Definitions returns the immutable tool catalogue sent to the model.
func Definitions() []llm.ToolDefinition {
	defs := make([]llm.ToolDefinition, 0, int(toolKindCount))
	for k := ToolKind(0); k < toolKindCount; k++ {
		defs = append(defs, definition(k))
	}
	return defs
}

func definition(k ToolKind) llm.ToolDefinition {
	switch k {
	case ToolWriteFile:
		return llm.ToolDefinition{
			Name:        k.Name(),
			Description: "Create or overwrite a file in the project with the given content. Parent directories are created as needed.",
			Parameters: objReq(map[string]any{
				"path":    prop("string", "Project-relative file path, e.g. 'src/App.tsx'"),
				"content": prop("string", "The full file content to write"),
			}, "path", "content"),
		}
	case ToolReadFile:
		return llm.ToolDefinition{
			Name:        k.Name(),
			Description: "Read the current content of a project file.",
			Parameters: objReq(map[string]any{
				"path": prop("string", "Project-relative file path"),
			}, "path"),
		}
	case ToolDeleteFile:
		return llm.ToolDefinition{
			Name:        k.Name(),
			Description: "Delete a file from the project.",
			Parameters: objReq(map[string]any{
				"path": prop("string", "Project-relative file path"),
			}, "path"),
		}
	case ToolListFiles:
		return llm.ToolDefinition{
			Name:        k.Name(),
			Description: "List project files, optionally below a directory.",
			Parameters: obj(map[string]any{
				"directory": prop("string", "Directory to list; the project root when omitted"),
			}),
		}
	case ToolRunCommand:
		return llm.ToolDefinition{
			Name:        k.Name(),
			Description: "Run a command in the project directory and return its output and exit code. Use for dependency installs, codegen, and one-off checks; prefer short-running commands.",
			Parameters: objReq(map[string]any{
				"command": prop("string", "The executable to run, e.g. 'npm'"),
				"args":    map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": "Command arguments"},
			}, "command"),
		}
	case ToolStartApp:
		return llm.ToolDefinition{
			Name:        k.Name(),
			Description: "Build and start the app's dev process with the current project files. Restarts it if already running.",
			Parameters: obj(map[string]any{
				"install_dependencies": prop("boolean", "Run the dependency install step before starting"),
			}),
		}
	case ToolStopApp:
		return llm.ToolDefinition{
			Name:        k.Name(),
			Description: "Stop the running dev process.",
			Parameters:  obj(nil),
		}
	case ToolGetLogs:
		return llm.ToolDefinition{
			Name:        k.Name(),
			Description: "Read the dev process output captured since the logs were last cleared. Use this to diagnose build and runtime errors.",
			Parameters:  obj(nil),
		}
	case ToolClearLogs:
		return llm.ToolDefinition{
			Name:        k.Name(),
			Description: "Clear the captured dev process output.",
			Parameters:  obj(nil),
		}
	default:
		panic("unreachable: tool kind without definition")
	}
}

// handle executes one tool call against the session. It never returns an
// error: every failure becomes a failed ToolResult.
func handle(ctx context.Context, k ToolKind, call llm.ToolCall, sess sandbox.Session) llm.ToolResult {
	ok := func(content string) llm.ToolResult {
		return llm.ToolResult{ToolCallID: call.ID, Name: call.Name, Content: content, Success: true}
	}

	switch k {
	case ToolWriteFile:
		path, perr := stringArg(call.Arguments, "path")
		content, cerr := presentStringArg(call.Arguments, "content")
		if perr != nil {
			return failedResult(call, perr)
		}
		if cerr != nil {
			return failedResult(call, cerr)
		}
		if err := sess.WriteFile(path, content); err != nil {
			return failedResult(call, err)
		}
		r := ok(fmt.Sprintf("Wrote %d bytes to %s", len(content), path))
		r.AffectedPath = path
		return r

	case ToolReadFile:
		path, err := stringArg(call.Arguments, "path")
		if err != nil {
			return failedResult(call, err)
		}
		content, err := sess.ReadFile(path)
		if err != nil {
			return failedResult(call, err)
		}
		return ok(content)

	case ToolDeleteFile:
		path, err := stringArg(call.Arguments, "path")
		if err != nil {
			return failedResult(call, err)
		}
		if err := sess.DeleteFile(path); err != nil {
			return failedResult(call, err)
		}
		r := ok("Deleted " + path)
		r.AffectedPath = path
		return r

	case ToolListFiles:
		dir, _ := optionalStringArg(call.Arguments, "directory")
		paths, err := sess.ListFiles(dir)
		if err != nil {
			return failedResult(call, err)
		}
		if len(paths) == 0 {
			return ok("(no files)")
		}
		return ok(strings.Join(paths, "\n"))

	case ToolRunCommand:
		command, err := stringArg(call.Arguments, "command")
		if err != nil {
			return failedResult(call, err)
		}
		args := stringSliceArg(call.Arguments, "args")
		res, err := sess.RunCommand(ctx, command, args)
		if err != nil {
			return failedResult(call, err)
		}
		content := fmt.Sprintf("exit code %d\n%s", res.ExitCode, res.Output)
		if res.ExitCode != 0 {
			r := failedResult(call, fmt.Errorf("%s exited with code %d", command, res.ExitCode))
			r.Content = content
			return r
		}
		return ok(content)

	case ToolStartApp:
		install := boolArg(call.Arguments, "install_dependencies")
		if err := sess.Start(ctx, sess.Files(), install); err != nil {
			return failedResult(call, err)
		}
		r := ok("App started")
		r.BuildTriggered = true
		return r

	case ToolStopApp:
		if err := sess.Stop(); err != nil {
			return failedResult(call, err)
		}
		return ok("App stopped")

	case ToolGetLogs:
		lines := sess.Logs()
		if len(lines) == 0 {
			return ok("(no log output)")
		}
		return ok(strings.Join(lines, "\n"))

	case ToolClearLogs:
		sess.ClearLogs()
		return ok("Logs cleared")

	default:
		return failedResult(call, fmt.Errorf("unknown tool: %s", call.Name))
	}
}

func failedResult(call llm.ToolCall, err error) llm.ToolResult {
	return llm.ToolResult{
		ToolCallID: call.ID,
		Name:       call.Name,
		Content:    "Error: " + err.Error(),
		Success:    false,
		Error:      err.Error(),
	}
}

// Argument extraction. Models send JSON, so numbers arrive as float64 and
// arrays as []any.

func stringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", fmt.Errorf("argument %q must be a non-empty string", key)
	}
	return s, nil
}

// presentStringArg requires the argument to exist and be a string; unlike
// stringArg it accepts the empty string, which is valid file content.
func presentStringArg(args map[string]any, key string) (string, error) {
	v, ok := args[key]
	if !ok {
		return "", fmt.Errorf("missing required argument %q", key)
	}
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("argument %q must be a string", key)
	}
	return s, nil
}

func optionalStringArg(args map[string]any, key string) (string, bool) {
	v, ok := args[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

func stringSliceArg(args map[string]any, key string) []string {
	v, ok := args[key]
	if !ok {
		return nil
	}
	arr, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range arr {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

func boolArg(args map[string]any, key string) bool {
	v, ok := args[key]
	if !ok {
		return false
	}
	b, _ := v.(bool)
	return b
}

// JSON Schema construction helpers.

func prop(typ, desc string) map[string]any {
	return map[string]any{"type": typ, "description": desc}
}

func obj(properties map[string]any) map[string]any {
	if properties == nil {
		properties = map[string]any{}
	}
	return map[string]any{
		"type":       "object",
		"properties": properties,
	}
}

func objReq(properties map[string]any, required ...string) map[string]any {
	s := obj(properties)
	s["required"] = required
	return s
}
