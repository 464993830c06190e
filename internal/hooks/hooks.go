// Package hooks executes user-defined shell commands at environment lifecycle
// points (post_create, post_setup, pre_remove, post_remove).
//
// Commands run sequentially through `sh -c` in a fixed working directory with
// a wall-clock timeout, after {{NAME}} substitution. Every template variable
// is also exported to the command's environment under a GROVE_ prefix. The
// first failure aborts the remaining commands of the run.
package hooks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	groveerrors "github.com/zhubert/grove/internal/errors"
	"github.com/zhubert/grove/internal/logger"
	"github.com/zhubert/grove/internal/template"
)

// DefaultTimeout bounds each hook command unless the config overrides it.
const DefaultTimeout = 300 * time.Second

// EnvPrefix is prepended to every template variable exported to hook
// environments (GROVE_BRANCH, GROVE_WORKTREE_PATH, ...).
const EnvPrefix = "GROVE_"

// Result captures one hook command execution.
type Result struct {
	Command  string // command text after {{NAME}} substitution
	Success  bool
	Stdout   string
	Stderr   string
	ExitCode int // -1 when the process did not exit on its own
	TimedOut bool
	Err      string // launch or timeout diagnostic, empty for plain nonzero exits
}

// failureMessage renders the diagnostic attached to a hook failure:
// the launch/timeout error if any, else captured stderr, else the exit code.
func (r Result) failureMessage() string {
	if r.Err != "" {
		return r.Err
	}
	if msg := strings.TrimSpace(r.Stderr); msg != "" {
		return msg
	}
	return fmt.Sprintf("exit code %d", r.ExitCode)
}

// RunReport aggregates the results of one lifecycle event.
type RunReport struct {
	Event   string
	Results []Result
}

// Runner executes the hook commands of lifecycle events for one environment.
type Runner struct {
	tctx    template.Context
	dir     string
	timeout time.Duration
	log     *slog.Logger
}

// NewRunner returns a Runner that executes commands in dir with the given
// per-command timeout. A zero timeout means DefaultTimeout; an empty dir
// falls back to the context's worktree path.
func NewRunner(tctx template.Context, dir string, timeout time.Duration) *Runner {
	if dir == "" {
		dir = tctx.WorktreePath
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Runner{
		tctx:    tctx,
		dir:     dir,
		timeout: timeout,
		log:     logger.ComponentLogger("hooks"),
	}
}

// Run executes every command of a lifecycle event in order, fail-fast.
// The report covers everything that ran, including the failing command.
// A non-nil error is a hook-kind error carrying the substituted command text
// and its diagnostic; remaining commands are not attempted.
func (r *Runner) Run(ctx context.Context, event string, commands []string) (RunReport, error) {
	report := RunReport{Event: event}

	if len(commands) == 0 {
		r.log.Debug("No hooks to run", "event", event)
		return report, nil
	}

	r.log.Info("Running hooks", "event", event, "count", len(commands), "dir", r.dir)
	env := r.environment()

	for _, command := range commands {
		result := r.runCommand(ctx, command, env)
		report.Results = append(report.Results, result)

		if !result.Success {
			return report, groveerrors.HookFailed(event, result.Command, result.failureMessage())
		}
	}

	r.log.Info("All hooks completed", "event", event)
	return report, nil
}

// environment merges the process environment with the GROVE_* variables.
func (r *Runner) environment() []string {
	env := os.Environ()
	for name, value := range r.tctx.Vars() {
		env = append(env, EnvPrefix+name+"="+value)
	}
	return env
}

func (r *Runner) runCommand(parent context.Context, command string, env []string) Result {
	substituted := template.Expand(command, r.tctx)
	r.log.Debug("Executing hook", "command", substituted)

	ctx, cancel := context.WithTimeout(parent, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "sh", "-c", substituted)
	cmd.Dir = r.dir
	cmd.Env = env

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	// Own process group so a timeout kills the shell and everything it
	// spawned, not just the shell itself.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Cancel = func() error {
		return syscall.Kill(-cmd.Process.Pid, syscall.SIGKILL)
	}

	err := cmd.Run()

	result := Result{
		Command:  substituted,
		Stdout:   stdout.String(),
		Stderr:   stderr.String(),
		ExitCode: -1,
	}

	if err == nil {
		result.Success = true
		result.ExitCode = 0
		return result
	}

	var exitErr *exec.ExitError
	switch {
	case ctx.Err() == context.DeadlineExceeded:
		result.TimedOut = true
		result.Err = fmt.Sprintf("command timed out after %s", r.timeout)
		r.log.Error("Hook timed out", "command", substituted, "timeout", r.timeout)
	case errors.As(err, &exitErr):
		result.ExitCode = exitErr.ExitCode()
		r.log.Warn("Hook failed", "command", substituted, "exitCode", result.ExitCode, "stderr", strings.TrimSpace(result.Stderr))
	default:
		result.Err = err.Error()
		r.log.Error("Hook could not run", "command", substituted, "error", err)
	}

	return result
}
