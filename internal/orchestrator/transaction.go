package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	groveerrors "github.com/zhubert/grove/internal/errors"
	"github.com/zhubert/grove/internal/hooks"
	"github.com/zhubert/grove/internal/template"
)

// ProgressFunc receives operation lifecycle events so callers can render
// progress without the orchestrator knowing about terminals.
type ProgressFunc func(operationName, phase string)

// Progress phases reported through ProgressFunc.
const (
	PhaseStarting    = "starting"
	PhaseCompleted   = "completed"
	PhaseFailed      = "failed"
	PhaseSkipped     = "skipped"
	PhaseRollingBack = "rolling_back"
	PhaseWarning     = "warning"
)

// Transaction executes an ordered list of operations, stopping at the first
// failure and rolling back the reversible operations that completed before
// it, in reverse order.
type Transaction struct {
	VCS         VCS
	Store       StateStore
	Context     template.Context
	RepoRoot    string
	HookTimeout time.Duration
	Substitute  bool
	DryRun      bool
	Progress    ProgressFunc

	log *slog.Logger
}

// TxResult is the outcome of a transaction run. Completed counts operations
// that finished before any failure; rollback errors are diagnostics, not
// failures of the transaction itself.
type TxResult struct {
	Success        bool
	Err            error
	RollbackErrors []string
	Completed      int
}

// Execute runs the operations in order. A dry run marks every operation
// Skipped and executes nothing.
func (t *Transaction) Execute(ctx context.Context, ops []*Operation) TxResult {
	if t.DryRun {
		for _, op := range ops {
			op.Status = StatusSkipped
			t.report(op.Name, PhaseSkipped)
		}
		return TxResult{Success: true}
	}

	var completed []*Operation
	for _, op := range ops {
		op.Status = StatusInProgress
		t.report(op.Name, PhaseStarting)

		if err := t.execute(ctx, op); err != nil {
			op.Status = StatusFailed
			t.report(op.Name, PhaseFailed)
			t.logf().Error("Operation failed", "operation", op.Name, "error", err)

			rollbackErrs := t.rollback(ctx, completed)
			return TxResult{
				Err:            err,
				RollbackErrors: rollbackErrs,
				Completed:      len(completed),
			}
		}

		op.Status = StatusCompleted
		completed = append(completed, op)
		t.report(op.Name, PhaseCompleted)
	}

	return TxResult{Success: true, Completed: len(completed)}
}

func (t *Transaction) execute(ctx context.Context, op *Operation) error {
	switch op.Kind {
	case KindCreateEnvironment:
		if err := t.VCS.CreateWorktree(ctx, op.Path, op.Branch, op.Base, op.CreateBranch); err != nil {
			return err
		}
		return t.copyEnvironmentFiles(op)
	case KindPersistState:
		return t.Store.Add(op.ID, op.Record)
	case KindRunHooks:
		runner := hooks.NewRunner(t.Context, op.Dir, t.HookTimeout)
		_, err := runner.Run(ctx, op.Event, op.Commands)
		return err
	default:
		return groveerrors.E(groveerrors.Op("orchestrator.execute"), groveerrors.KindUnknown,
			fmt.Sprintf("unknown operation kind %q", op.Kind))
	}
}

// rollback undoes completed reversible operations in reverse order. Errors
// are collected rather than returned: a failed rollback step must not stop
// the remaining steps from being attempted.
func (t *Transaction) rollback(ctx context.Context, completed []*Operation) []string {
	var errs []string
	for i := len(completed) - 1; i >= 0; i-- {
		op := completed[i]
		if !op.Reversible {
			continue
		}

		t.report(op.Name, PhaseRollingBack)
		if err := t.rollbackOp(ctx, op); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", op.Name, err))
			t.logf().Error("Rollback failed", "operation", op.Name, "error", err)
			continue
		}
		op.Status = StatusRolledBack
	}
	return errs
}

func (t *Transaction) rollbackOp(ctx context.Context, op *Operation) error {
	switch op.Kind {
	case KindCreateEnvironment:
		if _, err := os.Stat(op.Path); os.IsNotExist(err) {
			return nil
		}
		return t.VCS.RemoveWorktree(ctx, op.Path, true)
	case KindPersistState:
		_, err := t.Store.Remove(op.ID)
		return err
	default:
		return groveerrors.E(groveerrors.Op("orchestrator.rollback"), groveerrors.KindUnknown,
			fmt.Sprintf("operation %q cannot be rolled back", op.Name))
	}
}

// copyEnvironmentFiles copies the configured environment files from the repo
// root into the new worktree. Missing sources are skipped; a file that exists
// but cannot be copied fails the operation.
func (t *Transaction) copyEnvironmentFiles(op *Operation) error {
	for _, name := range op.CopyFiles {
		src := filepath.Join(t.RepoRoot, name)

		info, err := os.Stat(src)
		if os.IsNotExist(err) {
			t.logf().Debug("Environment file not present, skipping", "file", name)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to copy %s: %w", name, err)
		}

		data, err := os.ReadFile(src)
		if err != nil {
			return fmt.Errorf("failed to copy %s: %w", name, err)
		}

		if t.Substitute {
			data = []byte(template.Expand(string(data), t.Context))
		}

		dst := filepath.Join(op.Path, name)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return fmt.Errorf("failed to copy %s: %w", name, err)
		}
		if err := os.WriteFile(dst, data, info.Mode().Perm()); err != nil {
			return fmt.Errorf("failed to copy %s: %w", name, err)
		}

		t.logf().Debug("Copied environment file", "file", name, "dest", dst)
	}
	return nil
}

func (t *Transaction) report(name, phase string) {
	if t.Progress != nil {
		t.Progress(name, phase)
	}
}

func (t *Transaction) logf() *slog.Logger {
	if t.log != nil {
		return t.log
	}
	return slog.Default()
}
