package sandbox

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"syscall"
)

const maxLogLines = 2000

// sensitiveEnvSuffixes are case-insensitive suffixes for environment
// variables that are never forwarded into sandbox commands.
var sensitiveEnvSuffixes = []string{
	"_API_KEY",
	"_SECRET",
	"_TOKEN",
	"_PASSWORD",
	"_CREDENTIAL",
}

// safeEnvVars are always forwarded regardless of filtering.
var safeEnvVars = map[string]bool{
	"PATH": true, "HOME": true, "USER": true, "SHELL": true,
	"LANG": true, "TERM": true, "TMPDIR": true,
	"NODE_ENV": true, "NVM_DIR": true,
}

// LocalSession runs the sandbox against a local working directory. The dev
// process started by Start streams its output into an in-memory log buffer.
type LocalSession struct {
	root         string
	startCommand string
	installCmd   string
	logger       *slog.Logger

	mu      sync.Mutex
	files   map[string]string
	logs    []string
	proc    *exec.Cmd
	stdin   io.WriteCloser
	running bool
}

// LocalOption configures a LocalSession.
type LocalOption func(*LocalSession)

// WithStartCommand sets the shell command Start runs (default "npm run dev").
func WithStartCommand(cmd string) LocalOption {
	return func(s *LocalSession) { s.startCommand = cmd }
}

// WithInstallCommand sets the dependency install command (default "npm install").
func WithInstallCommand(cmd string) LocalOption {
	return func(s *LocalSession) { s.installCmd = cmd }
}

// WithLogger sets the slog logger (default slog.Default).
func WithLogger(l *slog.Logger) LocalOption {
	return func(s *LocalSession) { s.logger = l }
}

// NewLocal creates a LocalSession rooted at dir, creating it if needed.
func NewLocal(dir string, opts ...LocalOption) (*LocalSession, error) {
	if dir == "" {
		var err error
		dir, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("sandbox: resolving working directory: %w", err)
		}
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("sandbox: creating root %s: %w", dir, err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("sandbox: resolving root %s: %w", dir, err)
	}
	s := &LocalSession{
		root:         abs,
		startCommand: "npm run dev",
		installCmd:   "npm install",
		logger:       slog.Default(),
		files:        make(map[string]string),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the session's working directory.
func (s *LocalSession) Root() string { return s.root }

// resolve maps a sandbox-relative path onto the filesystem, rejecting paths
// that escape the root.
func (s *LocalSession) resolve(path string) (string, error) {
	if filepath.IsAbs(path) {
		return "", fmt.Errorf("path %q must be relative to the sandbox root", path)
	}
	cleaned := filepath.Clean(path)
	if cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes the sandbox root", path)
	}
	return filepath.Join(s.root, cleaned), nil
}

// rel converts path into the canonical mirror key.
func rel(path string) string {
	return strings.TrimPrefix(filepath.Clean("/"+path), "/")
}

func (s *LocalSession) WriteFile(path, content string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return fmt.Errorf("creating directory for %s: %w", path, err)
	}
	// External write first; the mirror commits only on success.
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	s.mu.Lock()
	s.files[rel(path)] = content
	s.mu.Unlock()
	return nil
}

func (s *LocalSession) ReadFile(path string) (string, error) {
	full, err := s.resolve(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(full)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(data), nil
}

func (s *LocalSession) DeleteFile(path string) error {
	full, err := s.resolve(path)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil {
		return fmt.Errorf("deleting %s: %w", path, err)
	}
	s.mu.Lock()
	delete(s.files, rel(path))
	s.mu.Unlock()
	return nil
}

func (s *LocalSession) ListFiles(dir string) ([]string, error) {
	full, err := s.resolve(dir)
	if err != nil {
		return nil, err
	}
	var paths []string
	err = filepath.WalkDir(full, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == "node_modules" || d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		r, err := filepath.Rel(s.root, p)
		if err != nil {
			return err
		}
		paths = append(paths, r)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *LocalSession) RunCommand(ctx context.Context, command string, args []string) (*ExecResult, error) {
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = s.root
	cmd.Env = filterEnvironment()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	var out bytes.Buffer
	cmd.Stdout = &out
	cmd.Stderr = &out

	s.logger.Debug("sandbox command", "command", command, "args", args)
	err := cmd.Run()
	result := &ExecResult{Output: out.String()}
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			result.ExitCode = exitErr.ExitCode()
			return result, nil
		}
		if ctx.Err() != nil {
			result.ExitCode = -1
			return result, ctx.Err()
		}
		return nil, fmt.Errorf("running %s: %w", command, err)
	}
	return result, nil
}

// Start writes the file snapshot to disk, optionally installs dependencies,
// and launches the dev process in the background. An already running process
// is stopped first.
func (s *LocalSession) Start(ctx context.Context, files map[string]string, installDeps bool) error {
	if s.IsRunning() {
		if err := s.Stop(); err != nil {
			return err
		}
	}

	for path, content := range files {
		if err := s.WriteFile(path, content); err != nil {
			return err
		}
	}

	if installDeps {
		parts := strings.Fields(s.installCmd)
		res, err := s.RunCommand(ctx, parts[0], parts[1:])
		if err != nil {
			return fmt.Errorf("installing dependencies: %w", err)
		}
		if res.ExitCode != 0 {
			return fmt.Errorf("installing dependencies: exit %d: %s", res.ExitCode, tail(res.Output, 500))
		}
	}

	parts := strings.Fields(s.startCommand)
	cmd := exec.Command(parts[0], parts[1:]...)
	cmd.Dir = s.root
	cmd.Env = filterEnvironment()
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("starting %s: %w", s.startCommand, err)
	}
	cmd.Stderr = cmd.Stdout
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("starting %s: %w", s.startCommand, err)
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting %s: %w", s.startCommand, err)
	}

	s.mu.Lock()
	s.proc = cmd
	s.stdin = stdin
	s.running = true
	s.mu.Unlock()

	go s.pump(stdout)
	go func() {
		_ = cmd.Wait()
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	s.logger.Info("sandbox process started", "command", s.startCommand)
	return nil
}

// pump feeds process output into the log buffer line by line.
func (s *LocalSession) pump(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		s.appendLog(scanner.Text())
	}
}

func (s *LocalSession) appendLog(line string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = append(s.logs, line)
	if len(s.logs) > maxLogLines {
		s.logs = s.logs[len(s.logs)-maxLogLines:]
	}
}

func (s *LocalSession) Stop() error {
	s.mu.Lock()
	proc := s.proc
	s.proc = nil
	s.stdin = nil
	s.running = false
	s.mu.Unlock()

	if proc == nil || proc.Process == nil {
		return nil
	}
	// Kill the whole process group so dev-server children die too.
	if err := syscall.Kill(-proc.Process.Pid, syscall.SIGKILL); err != nil && err != syscall.ESRCH {
		return fmt.Errorf("stopping sandbox process: %w", err)
	}
	s.logger.Info("sandbox process stopped")
	return nil
}

func (s *LocalSession) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *LocalSession) Logs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.logs))
	copy(out, s.logs)
	return out
}

func (s *LocalSession) ClearLogs() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.logs = s.logs[:0]
}

// WriteTerminal echoes text to the dev process stdin when one is attached,
// and into the log buffer otherwise.
func (s *LocalSession) WriteTerminal(text string) {
	s.mu.Lock()
	stdin := s.stdin
	s.mu.Unlock()
	if stdin != nil {
		if _, err := io.WriteString(stdin, text); err == nil {
			return
		}
	}
	s.appendLog(strings.TrimRight(text, "\n"))
}

func (s *LocalSession) Files() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(map[string]string, len(s.files))
	for k, v := range s.files {
		out[k] = v
	}
	return out
}

func (s *LocalSession) SetFiles(files map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files = make(map[string]string, len(files))
	for k, v := range files {
		s.files[rel(k)] = v
	}
}

func (s *LocalSession) UpdateFile(path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.files[rel(path)] = content
}

func isSensitiveEnvVar(name string) bool {
	upper := strings.ToUpper(name)
	for _, suffix := range sensitiveEnvSuffixes {
		if strings.HasSuffix(upper, suffix) {
			return true
		}
	}
	return false
}

func filterEnvironment() []string {
	var filtered []string
	for _, env := range os.Environ() {
		name, _, ok := strings.Cut(env, "=")
		if !ok {
			continue
		}
		if safeEnvVars[name] || !isSensitiveEnvVar(name) {
			filtered = append(filtered, env)
		}
	}
	return filtered
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[len(s)-n:]
}
