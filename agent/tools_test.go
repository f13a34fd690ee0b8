package agent

import (
	"context"
	"strings"
	"testing"

	"github.com/forgeloop/forgeloop/llm"
	"github.com/forgeloop/forgeloop/sandbox"
)

func TestToolKindNamesRoundTrip(t *testing.T) {
	for k := ToolKind(0); k < toolKindCount; k++ {
		got, ok := KindForName(k.Name())
		if !ok {
			t.Errorf("KindForName(%q) not found", k.Name())
			continue
		}
		if got != k {
			t.Errorf("KindForName(%q) = %v, want %v", k.Name(), got, k)
		}
	}
	if _, ok := KindForName("not_a_tool"); ok {
		t.Error("KindForName accepted an unknown name")
	}
}

func TestDefinitionsCoverEveryKind(t *testing.T) {
	defs := Definitions()
	if len(defs) != int(toolKindCount) {
		t.Fatalf("got %d definitions for %d kinds", len(defs), toolKindCount)
	}
	seen := map[string]bool{}
	for _, d := range defs {
		if d.Name == "" || d.Description == "" {
			t.Errorf("definition %+v incomplete", d)
		}
		if seen[d.Name] {
			t.Errorf("duplicate tool name %q", d.Name)
		}
		seen[d.Name] = true
		if d.Parameters["type"] != "object" {
			t.Errorf("%s: parameters not an object schema", d.Name)
		}
	}
}

func TestHandleWriteFile(t *testing.T) {
	sess := newFakeSession()
	call := writeCall("t1", "notes.md", "hello")

	r := handle(context.Background(), ToolWriteFile, call, sess)
	if !r.Success {
		t.Fatalf("write failed: %+v", r)
	}
	if r.AffectedPath != "notes.md" {
		t.Errorf("AffectedPath = %q", r.AffectedPath)
	}
	if content, _ := sess.ReadFile("notes.md"); content != "hello" {
		t.Errorf("content = %q", content)
	}
}

func TestHandleWriteFileEmptyContent(t *testing.T) {
	sess := newFakeSession()
	sess.files["notes.md"] = "old content"
	call := writeCall("t1", "notes.md", "")

	r := handle(context.Background(), ToolWriteFile, call, sess)
	if !r.Success {
		t.Fatalf("blanking a file failed: %+v", r)
	}
	if r.AffectedPath != "notes.md" {
		t.Errorf("AffectedPath = %q", r.AffectedPath)
	}
	if content, _ := sess.ReadFile("notes.md"); content != "" {
		t.Errorf("content = %q, want empty", content)
	}
}

func TestHandleWriteFileMissingArgs(t *testing.T) {
	sess := newFakeSession()
	call := llm.ToolCall{ID: "t1", Name: "write_file", Arguments: map[string]any{"path": "a.txt"}}

	r := handle(context.Background(), ToolWriteFile, call, sess)
	if r.Success {
		t.Fatal("write without content succeeded")
	}
	if !strings.Contains(r.Error, "content") {
		t.Errorf("Error = %q, want missing-argument mention", r.Error)
	}
	if r.AffectedPath != "" {
		t.Errorf("failed write reported AffectedPath %q", r.AffectedPath)
	}
}

func TestHandleRunCommandNonZeroExit(t *testing.T) {
	sess := newFakeSession()
	sess.runStub = func(command string, args []string) (*sandbox.ExecResult, error) {
		return &sandbox.ExecResult{ExitCode: 2, Output: "lint errors"}, nil
	}
	call := llm.ToolCall{ID: "t1", Name: "run_command", Arguments: map[string]any{"command": "npm", "args": []any{"run", "lint"}}}

	r := handle(context.Background(), ToolRunCommand, call, sess)
	if r.Success {
		t.Fatal("non-zero exit reported success")
	}
	if !strings.Contains(r.Content, "lint errors") {
		t.Errorf("Content = %q, output must be preserved", r.Content)
	}
	if !strings.Contains(r.Content, "exit code 2") {
		t.Errorf("Content = %q, want exit code", r.Content)
	}
}

func TestHandleStartAppSetsBuildTriggered(t *testing.T) {
	sess := newFakeSession()
	call := llm.ToolCall{ID: "t1", Name: "start_app", Arguments: map[string]any{"install_dependencies": true}}

	r := handle(context.Background(), ToolStartApp, call, sess)
	if !r.Success || !r.BuildTriggered {
		t.Errorf("result = %+v, want successful build", r)
	}
	if !sess.IsRunning() {
		t.Error("session not running after start_app")
	}
}

func TestHandleGetAndClearLogs(t *testing.T) {
	sess := newFakeSession()
	sess.logs = []string{"compiled", "listening on :3000"}

	r := handle(context.Background(), ToolGetLogs, llm.ToolCall{ID: "t1", Name: "get_logs"}, sess)
	if !r.Success || !strings.Contains(r.Content, "listening") {
		t.Errorf("get_logs = %+v", r)
	}

	handle(context.Background(), ToolClearLogs, llm.ToolCall{ID: "t2", Name: "clear_logs"}, sess)
	r = handle(context.Background(), ToolGetLogs, llm.ToolCall{ID: "t3", Name: "get_logs"}, sess)
	if r.Content != "(no log output)" {
		t.Errorf("after clear, get_logs = %q", r.Content)
	}
}

func TestHandleListFiles(t *testing.T) {
	sess := newFakeSession()
	sess.files = map[string]string{"src/a.ts": "1", "src/b.ts": "2", "README.md": "3"}

	r := handle(context.Background(), ToolListFiles, llm.ToolCall{ID: "t1", Name: "list_files", Arguments: map[string]any{"directory": "src"}}, sess)
	if !r.Success {
		t.Fatalf("list_files failed: %+v", r)
	}
	if r.Content != "src/a.ts\nsrc/b.ts" {
		t.Errorf("Content = %q", r.Content)
	}
}

func TestStringSliceArg(t *testing.T) {
	args := map[string]any{"args": []any{"install", "--save-dev", 42}}
	got := stringSliceArg(args, "args")
	if len(got) != 2 || got[0] != "install" || got[1] != "--save-dev" {
		t.Errorf("stringSliceArg = %v", got)
	}
	if stringSliceArg(map[string]any{}, "args") != nil {
		t.Error("missing key should yield nil")
	}
}
