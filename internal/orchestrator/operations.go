package orchestrator

import (
	"fmt"

	"github.com/zhubert/grove/internal/state"
)

// Status tracks an operation through its lifecycle inside a transaction.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusRolledBack Status = "rolled_back"
	StatusSkipped    Status = "skipped"
)

// Kind selects which behavior an Operation carries. The set is closed:
// the transaction dispatches on it and rejects anything else.
type Kind string

const (
	KindCreateEnvironment Kind = "create-environment"
	KindPersistState      Kind = "persist-state"
	KindRunHooks          Kind = "run-hooks"
)

// Operation is one step of a transaction. Kind determines which of the
// variant fields are meaningful. Reversible declares whether rollback can
// undo the step once it has completed.
type Operation struct {
	Kind       Kind
	Name       string
	Reversible bool
	Status     Status

	// create-environment
	Path         string
	Branch       string
	Base         string
	CreateBranch bool
	CopyFiles    []string

	// persist-state
	ID     string
	Record state.Environment

	// run-hooks
	Event    string
	Commands []string
	Dir      string
}

// NewCreateEnvironment returns the operation that creates the worktree and
// copies environment files into it.
func NewCreateEnvironment(path, branch, base string, createBranch bool, copyFiles []string) *Operation {
	return &Operation{
		Kind:         KindCreateEnvironment,
		Name:         fmt.Sprintf("Create worktree at %s", path),
		Reversible:   true,
		Status:       StatusPending,
		Path:         path,
		Branch:       branch,
		Base:         base,
		CreateBranch: createBranch,
		CopyFiles:    copyFiles,
	}
}

// NewPersistState returns the operation that records the environment in the
// state file.
func NewPersistState(id string, record state.Environment) *Operation {
	return &Operation{
		Kind:       KindPersistState,
		Name:       fmt.Sprintf("Update state for %s", id),
		Reversible: true,
		Status:     StatusPending,
		ID:         id,
		Record:     record,
	}
}

// NewRunHooks returns the operation that runs the commands configured for a
// hook event. Hooks have side effects grove cannot see, so the operation is
// never reversible.
func NewRunHooks(event string, commands []string, dir string) *Operation {
	return &Operation{
		Kind:     KindRunHooks,
		Name:     fmt.Sprintf("Run %s hooks", event),
		Status:   StatusPending,
		Event:    event,
		Commands: commands,
		Dir:      dir,
	}
}
