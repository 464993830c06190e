package hooks

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	groveerrors "github.com/zhubert/grove/internal/errors"
	"github.com/zhubert/grove/internal/template"
)

func newTestRunner(t *testing.T, timeout time.Duration) (*Runner, string) {
	t.Helper()
	dir := t.TempDir()
	tctx := template.Context{
		Branch:       "feature/login",
		BranchSlug:   "feature-login",
		WorktreePath: dir,
		RepoName:     "grove",
		PortMappings: map[string]int{"web": 10000},
	}
	return NewRunner(tctx, dir, timeout), dir
}

func TestRun_CapturesOutput(t *testing.T) {
	runner, _ := newTestRunner(t, 0)

	report, err := runner.Run(context.Background(), "post_create", []string{"echo hello"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(report.Results))
	}

	res := report.Results[0]
	if !res.Success {
		t.Error("expected success")
	}
	if res.ExitCode != 0 {
		t.Errorf("ExitCode = %d, want 0", res.ExitCode)
	}
	if !strings.Contains(res.Stdout, "hello") {
		t.Errorf("Stdout = %q, want it to contain %q", res.Stdout, "hello")
	}
}

func TestRun_EmptyCommandList(t *testing.T) {
	runner, _ := newTestRunner(t, 0)

	report, err := runner.Run(context.Background(), "post_setup", nil)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if len(report.Results) != 0 {
		t.Errorf("expected no results, got %d", len(report.Results))
	}
}

func TestRun_FailFast(t *testing.T) {
	runner, dir := newTestRunner(t, 0)
	marker := filepath.Join(dir, "marker")

	report, err := runner.Run(context.Background(), "post_create", []string{
		"exit 1",
		"touch " + marker,
	})
	if err == nil {
		t.Fatal("expected error from failing hook")
	}
	if groveerrors.GetKind(err) != groveerrors.KindHook {
		t.Errorf("kind = %v, want KindHook", groveerrors.GetKind(err))
	}
	if len(report.Results) != 1 {
		t.Fatalf("expected 1 result before abort, got %d", len(report.Results))
	}
	if report.Results[0].ExitCode != 1 {
		t.Errorf("ExitCode = %d, want 1", report.Results[0].ExitCode)
	}
	if _, statErr := os.Stat(marker); !os.IsNotExist(statErr) {
		t.Error("second command ran after failure")
	}
}

func TestRun_ErrorMessageUsesStderr(t *testing.T) {
	runner, _ := newTestRunner(t, 0)

	_, err := runner.Run(context.Background(), "pre_remove", []string{"echo broken pipe >&2; exit 3"})
	if err == nil {
		t.Fatal("expected error")
	}
	msg := err.Error()
	if !strings.Contains(msg, "pre_remove hook failed") {
		t.Errorf("error = %q, want event name in message", msg)
	}
	if !strings.Contains(msg, "broken pipe") {
		t.Errorf("error = %q, want stderr in message", msg)
	}
}

func TestRun_ErrorMessageFallsBackToExitCode(t *testing.T) {
	runner, _ := newTestRunner(t, 0)

	_, err := runner.Run(context.Background(), "post_create", []string{"exit 7"})
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "exit code 7") {
		t.Errorf("error = %q, want exit code fallback", err.Error())
	}
}

func TestRun_Timeout(t *testing.T) {
	runner, _ := newTestRunner(t, 100*time.Millisecond)

	start := time.Now()
	report, err := runner.Run(context.Background(), "post_create", []string{"sleep 5"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Errorf("hook ran for %s, timeout did not take effect", elapsed)
	}

	res := report.Results[0]
	if !res.TimedOut {
		t.Error("expected TimedOut")
	}
	if res.Success {
		t.Error("timed out hook reported success")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error = %q, want timeout diagnostic", err.Error())
	}
}

func TestRun_InjectsEnvironment(t *testing.T) {
	runner, dir := newTestRunner(t, 0)
	out := filepath.Join(dir, "env.txt")

	_, err := runner.Run(context.Background(), "post_create", []string{
		`printf "%s %s %s" "$GROVE_BRANCH" "$GROVE_REPO_NAME" "$GROVE_PORT_WEB" > ` + out,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if got, want := string(data), "feature/login grove 10000"; got != want {
		t.Errorf("environment = %q, want %q", got, want)
	}
}

func TestRun_SubstitutesVariables(t *testing.T) {
	runner, dir := newTestRunner(t, 0)
	out := filepath.Join(dir, "slug.txt")

	report, err := runner.Run(context.Background(), "post_setup", []string{
		"printf %s {{BRANCH_SLUG}} > " + out,
	})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if !strings.Contains(report.Results[0].Command, "feature-login") {
		t.Errorf("recorded command = %q, want substituted text", report.Results[0].Command)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("reading output: %v", err)
	}
	if string(data) != "feature-login" {
		t.Errorf("substituted output = %q, want %q", string(data), "feature-login")
	}
}

func TestRun_CommandsRunInWorktree(t *testing.T) {
	runner, dir := newTestRunner(t, 0)

	report, err := runner.Run(context.Background(), "post_create", []string{"pwd"})
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	got := strings.TrimSpace(report.Results[0].Stdout)
	resolved, _ := filepath.EvalSymlinks(dir)
	if got != dir && got != resolved {
		t.Errorf("pwd = %q, want %q", got, dir)
	}
}

func TestNewRunner_Defaults(t *testing.T) {
	tctx := template.Context{WorktreePath: "/tmp/somewhere"}
	runner := NewRunner(tctx, "", 0)

	if runner.dir != "/tmp/somewhere" {
		t.Errorf("dir = %q, want worktree path fallback", runner.dir)
	}
	if runner.timeout != DefaultTimeout {
		t.Errorf("timeout = %s, want %s", runner.timeout, DefaultTimeout)
	}
}

func TestResult_FailureMessagePrecedence(t *testing.T) {
	tests := []struct {
		name   string
		result Result
		want   string
	}{
		{"launch error wins", Result{Err: "fork failed", Stderr: "noise", ExitCode: 1}, "fork failed"},
		{"stderr next", Result{Stderr: " boom \n", ExitCode: 2}, "boom"},
		{"exit code last", Result{ExitCode: 9}, "exit code 9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.result.failureMessage(); got != tt.want {
				t.Errorf("failureMessage() = %q, want %q", got, tt.want)
			}
		})
	}
}
