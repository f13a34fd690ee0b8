package agent

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/forgeloop/forgeloop/llm"
	"github.com/forgeloop/forgeloop/sandbox"
)

// fakeSession is an in-memory sandbox.Session for tests. Operations can be
// made to fail per path, and every mutation is journaled for order checks.
type fakeSession struct {
	mu      sync.Mutex
	files   map[string]string
	logs    []string
	running bool

	failWrites map[string]error
	runStub    func(command string, args []string) (*sandbox.ExecResult, error)
	startErr   error

	journal []string
}

func newFakeSession() *fakeSession {
	return &fakeSession{files: map[string]string{}, failWrites: map[string]error{}}
}

func (f *fakeSession) record(entry string) {
	f.journal = append(f.journal, entry)
}

func (f *fakeSession) WriteFile(path, content string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err, ok := f.failWrites[path]; ok {
		f.record("write-fail " + path)
		return err
	}
	f.files[path] = content
	f.record("write " + path)
	return nil
}

func (f *fakeSession) ReadFile(path string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	content, ok := f.files[path]
	if !ok {
		return "", fmt.Errorf("file not found: %s", path)
	}
	return content, nil
}

func (f *fakeSession) DeleteFile(path string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.files[path]; !ok {
		return fmt.Errorf("file not found: %s", path)
	}
	delete(f.files, path)
	f.record("delete " + path)
	return nil
}

func (f *fakeSession) ListFiles(dir string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var paths []string
	for p := range f.files {
		if dir == "" || strings.HasPrefix(p, dir+"/") {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	return paths, nil
}

func (f *fakeSession) RunCommand(ctx context.Context, command string, args []string) (*sandbox.ExecResult, error) {
	if f.runStub != nil {
		return f.runStub(command, args)
	}
	return &sandbox.ExecResult{ExitCode: 0, Output: "ok"}, nil
}

func (f *fakeSession) Start(ctx context.Context, files map[string]string, installDeps bool) error {
	if f.startErr != nil {
		return f.startErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = true
	f.record("start")
	return nil
}

func (f *fakeSession) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.running = false
	return nil
}

func (f *fakeSession) IsRunning() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeSession) Logs() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.logs...)
}

func (f *fakeSession) ClearLogs() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = nil
}

func (f *fakeSession) WriteTerminal(text string) {}

func (f *fakeSession) Files() map[string]string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for k, v := range f.files {
		out[k] = v
	}
	return out
}

func (f *fakeSession) SetFiles(files map[string]string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files = files
}

func (f *fakeSession) UpdateFile(path, content string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.files[path] = content
}

// scriptedProvider replays a fixed sequence of responses and errors, one per
// Chat invocation, and records every history it was handed.
type scriptedProvider struct {
	mu        sync.Mutex
	steps     []scriptStep
	calls     int
	histories [][]llm.Message

	// onCall, when set, runs during each invocation with its 1-based number.
	onCall func(n int)
}

type scriptStep struct {
	resp *llm.Response
	err  error
}

func textStep(text string) scriptStep {
	return scriptStep{resp: &llm.Response{Text: text}}
}

func toolStep(text string, calls ...llm.ToolCall) scriptStep {
	return scriptStep{resp: &llm.Response{Text: text, ToolCalls: calls}}
}

func errStep(err error) scriptStep {
	return scriptStep{err: err}
}

func (p *scriptedProvider) Name() string { return "scripted" }

func (p *scriptedProvider) Chat(ctx context.Context, systemPrompt string, history []llm.Message, tools []llm.ToolDefinition) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.histories = append(p.histories, append([]llm.Message(nil), history...))
	if p.calls >= len(p.steps) {
		return nil, fmt.Errorf("scripted provider exhausted after %d calls", p.calls)
	}
	step := p.steps[p.calls]
	p.calls++
	if p.onCall != nil {
		p.onCall(p.calls)
	}
	return step.resp, step.err
}

func (p *scriptedProvider) callCount() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.calls
}

func newTestService(p llm.Provider, sess sandbox.Session) *Service {
	cfg := DefaultConfig()
	cfg.RetryBaseDelay = 0
	return NewService(p, sess, cfg, nil)
}

func writeCall(id, path, content string) llm.ToolCall {
	return llm.ToolCall{ID: id, Name: "write_file", Arguments: map[string]any{"path": path, "content": content}}
}
