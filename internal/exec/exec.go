// Package exec abstracts external command execution behind a small interface
// so git-backed code can be tested without a real repository.
package exec

import (
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"
)

// CommandExecutor runs external commands in a working directory.
type CommandExecutor interface {
	// Run executes a command and returns stdout and stderr separately.
	Run(ctx context.Context, dir, name string, args ...string) (stdout, stderr []byte, err error)
	// Output executes a command and returns its stdout.
	Output(ctx context.Context, dir, name string, args ...string) ([]byte, error)
	// CombinedOutput executes a command and returns interleaved stdout and stderr.
	CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// RealExecutor executes commands with os/exec.
type RealExecutor struct{}

// NewRealExecutor returns an executor backed by the real OS.
func NewRealExecutor() *RealExecutor {
	return &RealExecutor{}
}

func (e *RealExecutor) Run(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}

func (e *RealExecutor) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.Output()
}

func (e *RealExecutor) CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir
	return cmd.CombinedOutput()
}

// MockResponse is a canned result for a mocked command.
type MockResponse struct {
	Stdout []byte
	Stderr []byte
	Err    error
}

// Call records one command invocation seen by a MockExecutor.
type Call struct {
	Dir  string
	Name string
	Args []string
}

type prefixRule struct {
	name   string
	prefix []string
	resp   MockResponse
}

// MockExecutor returns canned responses matched by command name and argument
// prefix. Unmatched commands return the default response (success, no output,
// unless a different default was provided).
type MockExecutor struct {
	mu    sync.Mutex
	rules []prefixRule
	def   MockResponse
	calls []Call
}

// NewMockExecutor creates a MockExecutor. A nil defaultResponse means
// unmatched commands succeed with empty output.
func NewMockExecutor(defaultResponse *MockResponse) *MockExecutor {
	m := &MockExecutor{}
	if defaultResponse != nil {
		m.def = *defaultResponse
	}
	return m
}

// AddPrefixMatch registers a response for commands whose name matches exactly
// and whose arguments start with the given prefix. Rules are checked in
// registration order; the first match wins.
func (m *MockExecutor) AddPrefixMatch(name string, argsPrefix []string, resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rules = append(m.rules, prefixRule{name: name, prefix: argsPrefix, resp: resp})
}

// Calls returns a copy of all recorded invocations.
func (m *MockExecutor) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Call, len(m.calls))
	copy(out, m.calls)
	return out
}

// CallLog returns recorded invocations as "name arg arg ..." strings, which
// keeps test assertions readable.
func (m *MockExecutor) CallLog() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		out = append(out, strings.Join(append([]string{c.Name}, c.Args...), " "))
	}
	return out
}

func (m *MockExecutor) respond(dir, name string, args []string) MockResponse {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, Call{Dir: dir, Name: name, Args: append([]string(nil), args...)})

	for _, r := range m.rules {
		if r.name != name || len(args) < len(r.prefix) {
			continue
		}
		matched := true
		for i, p := range r.prefix {
			if args[i] != p {
				matched = false
				break
			}
		}
		if matched {
			return r.resp
		}
	}
	return m.def
}

func (m *MockExecutor) Run(ctx context.Context, dir, name string, args ...string) ([]byte, []byte, error) {
	resp := m.respond(dir, name, args)
	return resp.Stdout, resp.Stderr, resp.Err
}

func (m *MockExecutor) Output(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	resp := m.respond(dir, name, args)
	if resp.Err != nil {
		return nil, resp.Err
	}
	return resp.Stdout, nil
}

func (m *MockExecutor) CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	resp := m.respond(dir, name, args)
	combined := append(append([]byte(nil), resp.Stdout...), resp.Stderr...)
	if resp.Err != nil {
		return combined, resp.Err
	}
	return combined, nil
}
