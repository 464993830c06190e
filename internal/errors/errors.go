// Package errors provides structured error types for grove.
// These errors provide context about what operation failed and where.
package errors

import (
	"errors"
	"fmt"
)

// Op describes an operation, usually as "package.Function".
type Op string

// Kind categorizes the type of error.
type Kind int

const (
	KindUnknown Kind = iota
	KindNotFound
	KindInvalid
	KindConfig
	KindState
	KindGit
	KindHook
	KindExists
	KindPathConflict
	KindDirty
	KindRoot
	KindPort
	KindEditor
	KindTimeout
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindInvalid:
		return "invalid"
	case KindConfig:
		return "configuration error"
	case KindState:
		return "state error"
	case KindGit:
		return "git error"
	case KindHook:
		return "hook failure"
	case KindExists:
		return "already exists"
	case KindPathConflict:
		return "path conflict"
	case KindDirty:
		return "dirty worktree"
	case KindRoot:
		return "root detection failure"
	case KindPort:
		return "port allocation error"
	case KindEditor:
		return "editor error"
	case KindTimeout:
		return "timeout"
	default:
		return "unknown error"
	}
}

// Error is the structured error type for grove.
type Error struct {
	Op      Op     // Operation that failed
	Kind    Kind   // Category of error
	Err     error  // Underlying error
	Context string // Additional context
}

// Error returns the error message.
func (e *Error) Error() string {
	if e.Context != "" {
		return fmt.Sprintf("%s: %s: %s", e.Op, e.Context, e.Err)
	}
	if e.Op != "" {
		return fmt.Sprintf("%s: %s", e.Op, e.Err)
	}
	return e.Err.Error()
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// E creates a new Error. Arguments can be:
// - Op: the operation name
// - Kind: the error kind
// - string: context message
// - error: the underlying error
func E(args ...interface{}) error {
	e := &Error{}
	for _, arg := range args {
		switch a := arg.(type) {
		case Op:
			e.Op = a
		case Kind:
			e.Kind = a
		case string:
			e.Context = a
		case error:
			e.Err = a
		}
	}
	if e.Err == nil {
		e.Err = errors.New(e.Context)
		e.Context = ""
	}
	return e
}

// Is reports whether err is of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// GetKind returns the Kind of an error.
func GetKind(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Environment errors
func EnvironmentExists(branch, path string) error {
	return E(Op("env.Create"), KindExists, fmt.Sprintf("worktree already exists for branch %q at %s", branch, path))
}

func EnvironmentNotFound(branch string) error {
	return E(Op("env.Find"), KindNotFound, fmt.Sprintf("worktree not found for branch %q", branch))
}

func PathConflict(path string) error {
	return E(Op("env.Create"), KindPathConflict, fmt.Sprintf("path already exists: %s", path))
}

func DirtyWorktree(path string) error {
	return E(Op("env.Remove"), KindDirty, fmt.Sprintf("worktree at %s has uncommitted changes, use --force to remove anyway", path))
}

// Hook errors
func HookFailed(event, command, diagnostic string) error {
	return E(Op("hooks.Run"), KindHook, fmt.Sprintf("%s hook failed: %s\n%s", event, command, diagnostic))
}

// Config errors
func ConfigLoadFailed(path string, err error) error {
	return E(Op("config.Load"), KindConfig, fmt.Sprintf("failed to load config from %s", path), err)
}

func ConfigInvalid(reason string) error {
	return E(Op("config.Validate"), KindInvalid, reason)
}

// State errors
func StateLoadFailed(path string, err error) error {
	return E(Op("state.Load"), KindState, fmt.Sprintf("failed to load state from %s", path), err)
}

func StateSaveFailed(path string, err error) error {
	return E(Op("state.Save"), KindState, fmt.Sprintf("failed to save state to %s", path), err)
}

// Git errors
func RootDetectionFailed(err error) error {
	return E(Op("git.FindRoot"), KindRoot, "not in a git repository", err)
}

// Port errors
func NoAvailablePort(base, max int) error {
	return E(Op("ports.Allocate"), KindPort, fmt.Sprintf("no available port in range %d-%d", base, max))
}

// Editor errors
func EditorNotFound() error {
	return E(Op("editor.Resolve"), KindEditor, "no editor available, set editor.command in .grove.yaml or $VISUAL/$EDITOR")
}

func EditorLaunchFailed(command string, err error) error {
	return E(Op("editor.Open"), KindEditor, fmt.Sprintf("failed to launch editor %q", command), err)
}
