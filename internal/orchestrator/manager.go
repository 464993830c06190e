// Package orchestrator coordinates the multi-step lifecycle of grove
// environments. Creation runs as a transaction of discrete operations with
// rollback on failure; removal runs as an ordered sequence whose later steps
// degrade to warnings instead of aborting.
package orchestrator

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/zhubert/grove/internal/config"
	groveerrors "github.com/zhubert/grove/internal/errors"
	"github.com/zhubert/grove/internal/git"
	"github.com/zhubert/grove/internal/hooks"
	"github.com/zhubert/grove/internal/logger"
	"github.com/zhubert/grove/internal/ports"
	"github.com/zhubert/grove/internal/state"
	"github.com/zhubert/grove/internal/template"
)

// VCS is the version control surface the orchestrator depends on.
// *git.Client implements it.
type VCS interface {
	CreateWorktree(ctx context.Context, path, branch, base string, createBranch bool) error
	RemoveWorktree(ctx context.Context, path string, force bool) error
	BranchExists(ctx context.Context, branch string) bool
	IsDirty(ctx context.Context, path string) (bool, error)
	DeleteBranch(ctx context.Context, branch string, force bool) error
	RepoName(ctx context.Context) string
}

// StateStore is the persistence surface the orchestrator depends on.
// *state.State implements it.
type StateStore interface {
	Get(id string) (state.Environment, bool)
	List() []state.Record
	Ports() []int
	Add(id string, env state.Environment) error
	Remove(id string) (bool, error)
}

// WorktreeStatus classifies the on-disk condition of an environment.
type WorktreeStatus string

const (
	WorktreeOK       WorktreeStatus = "ok"
	WorktreeModified WorktreeStatus = "modified"
	WorktreeMissing  WorktreeStatus = "missing"
)

// Manager drives environment creation and removal. All collaborators are
// supplied at construction.
type Manager struct {
	root     string
	cfg      *config.Config
	vcs      VCS
	store    StateStore
	progress ProgressFunc
	log      *slog.Logger
}

// New returns a Manager rooted at the repository root.
func New(root string, cfg *config.Config, vcs VCS, store StateStore) *Manager {
	return &Manager{
		root:  root,
		cfg:   cfg,
		vcs:   vcs,
		store: store,
		log:   logger.ComponentLogger("orchestrator"),
	}
}

// SetProgress registers a sink for operation progress events.
func (m *Manager) SetProgress(fn ProgressFunc) {
	m.progress = fn
}

// CreateOptions controls a create run.
type CreateOptions struct {
	Branch    string
	Base      string
	SkipEnv   bool
	SkipPorts bool
	SkipHooks bool
	DryRun    bool
}

// RemoveOptions controls a remove run.
type RemoveOptions struct {
	Branch     string
	Force      bool
	KeepBranch bool
	SkipHooks  bool
}

// Result is the outcome of a create or remove run. RollbackErrors carries
// diagnostics from rollback steps that themselves failed; those environments
// may need manual cleanup.
type Result struct {
	Success        bool
	Record         state.Record
	Err            error
	RolledBack     bool
	RollbackErrors []string
}

func failure(err error) Result {
	return Result{Err: err}
}

// Create builds a new environment for the branch: worktree, copied
// environment files, allocated ports, hooks, and a state entry. On failure
// every completed reversible step is rolled back.
func (m *Manager) Create(ctx context.Context, opts CreateOptions) Result {
	runID := uuid.New().String()[:8]
	log := logger.WithRun(runID)
	log.Info("Creating environment", "branch", opts.Branch, "dry_run", opts.DryRun)

	id := git.Slug(opts.Branch)

	if existing, ok := m.store.Get(id); ok {
		return failure(groveerrors.EnvironmentExists(opts.Branch, existing.Path))
	}

	createBranch := !m.vcs.BranchExists(ctx, opts.Branch)
	base := ""
	if createBranch {
		base = opts.Base
	} else if opts.Base != "" {
		log.Warn("Base ignored, branch already exists", "branch", opts.Branch, "base", opts.Base)
	}

	repoName := m.vcs.RepoName(ctx)
	path := m.resolvePath(repoName, opts.Branch, id)

	if !opts.DryRun {
		if _, err := os.Stat(path); err == nil {
			return failure(groveerrors.PathConflict(path))
		}
	}

	portMappings := map[string]int{}
	if !opts.SkipPorts {
		var err error
		portMappings, err = ports.Allocate(m.cfg.Ports.Names, m.cfg.Ports.BasePort, m.cfg.Ports.MaxPort, m.store.Ports())
		if err != nil {
			return failure(err)
		}
	}

	tctx := template.Context{
		Branch:          opts.Branch,
		BranchSlug:      id,
		WorktreePath:    path,
		RepoName:        repoName,
		PortMappings:    portMappings,
		CustomVariables: m.cfg.Environment.Substitutions.CustomVariables,
	}

	env := state.Environment{
		Path:         path,
		Branch:       opts.Branch,
		CreatedAt:    time.Now().UTC(),
		PortMappings: portMappings,
	}

	var copyFiles []string
	if !opts.SkipEnv {
		copyFiles = m.cfg.Environment.CopyFiles
	}

	ops := []*Operation{
		NewCreateEnvironment(path, opts.Branch, base, createBranch, copyFiles),
	}
	if !opts.SkipHooks {
		ops = append(ops, NewRunHooks(config.EventPostCreate, m.cfg.HookCommands(config.EventPostCreate), path))
	}
	ops = append(ops, NewPersistState(id, env))
	if !opts.SkipHooks {
		ops = append(ops, NewRunHooks(config.EventPostSetup, m.cfg.HookCommands(config.EventPostSetup), path))
	}

	txn := &Transaction{
		VCS:         m.vcs,
		Store:       m.store,
		Context:     tctx,
		RepoRoot:    m.root,
		HookTimeout: m.cfg.HookTimeout(),
		Substitute:  m.cfg.SubstitutionsEnabled(),
		DryRun:      opts.DryRun,
		Progress:    m.progress,
		log:         log,
	}
	txr := txn.Execute(ctx, ops)

	res := Result{
		Success:        txr.Success,
		Record:         state.Record{ID: id, Environment: env},
		Err:            txr.Err,
		RollbackErrors: txr.RollbackErrors,
	}
	if !txr.Success {
		res.RolledBack = len(txr.RollbackErrors) > 0 || txr.Completed > 0
		log.Error("Create failed", "branch", opts.Branch, "error", txr.Err, "rolled_back", res.RolledBack)
		return res
	}

	log.Info("Environment created", "id", id, "path", path)
	return res
}

// Remove tears down the environment for the branch. The worktree removal and
// state update must succeed; branch deletion and post_remove hooks are best
// effort and degrade to progress warnings.
func (m *Manager) Remove(ctx context.Context, opts RemoveOptions) Result {
	runID := uuid.New().String()[:8]
	log := logger.WithRun(runID)
	log.Info("Removing environment", "branch", opts.Branch, "force", opts.Force)

	id, env, ok := m.findRecord(opts.Branch)
	if !ok {
		return failure(groveerrors.EnvironmentNotFound(opts.Branch))
	}

	pathExists := true
	if _, err := os.Stat(env.Path); err != nil {
		pathExists = false
	}

	if pathExists && !opts.Force {
		dirty, err := m.vcs.IsDirty(ctx, env.Path)
		if err == nil && dirty {
			return failure(groveerrors.DirtyWorktree(env.Path))
		}
	}

	tctx := template.Context{
		Branch:          env.Branch,
		BranchSlug:      id,
		WorktreePath:    env.Path,
		RepoName:        m.vcs.RepoName(ctx),
		PortMappings:    env.PortMappings,
		CustomVariables: m.cfg.Environment.Substitutions.CustomVariables,
	}

	if !opts.SkipHooks {
		hookDir := env.Path
		if !pathExists {
			hookDir = m.root
		}
		name := fmt.Sprintf("Run %s hooks", config.EventPreRemove)
		m.report(name, PhaseStarting)
		runner := hooks.NewRunner(tctx, hookDir, m.cfg.HookTimeout())
		if _, err := runner.Run(ctx, config.EventPreRemove, m.cfg.HookCommands(config.EventPreRemove)); err != nil {
			m.report(name, PhaseFailed)
			log.Error("Remove aborted by pre_remove hooks", "branch", env.Branch, "error", err)
			return failure(err)
		}
		m.report(name, PhaseCompleted)
	}

	if pathExists {
		name := fmt.Sprintf("Remove worktree at %s", env.Path)
		m.report(name, PhaseStarting)
		if err := m.vcs.RemoveWorktree(ctx, env.Path, opts.Force); err != nil {
			m.report(name, PhaseFailed)
			log.Error("Worktree removal failed", "path", env.Path, "error", err)
			return failure(err)
		}
		m.report(name, PhaseCompleted)
	}

	stateName := fmt.Sprintf("Update state for %s", id)
	m.report(stateName, PhaseStarting)
	if _, err := m.store.Remove(id); err != nil {
		m.report(stateName, PhaseFailed)
		return failure(err)
	}
	m.report(stateName, PhaseCompleted)

	if !opts.KeepBranch {
		name := fmt.Sprintf("Delete branch %s", env.Branch)
		m.report(name, PhaseStarting)
		if err := m.vcs.DeleteBranch(ctx, env.Branch, opts.Force); err != nil {
			log.Warn("Branch not deleted", "branch", env.Branch, "error", err)
			m.report(name, PhaseSkipped)
		} else {
			m.report(name, PhaseCompleted)
		}
	}

	if !opts.SkipHooks {
		name := fmt.Sprintf("Run %s hooks", config.EventPostRemove)
		m.report(name, PhaseStarting)
		runner := hooks.NewRunner(tctx, m.root, m.cfg.HookTimeout())
		if _, err := runner.Run(ctx, config.EventPostRemove, m.cfg.HookCommands(config.EventPostRemove)); err != nil {
			log.Warn("post_remove hooks failed", "branch", env.Branch, "error", err)
			m.report(name, PhaseWarning)
		} else {
			m.report(name, PhaseCompleted)
		}
	}

	log.Info("Environment removed", "id", id, "branch", env.Branch)
	return Result{
		Success: true,
		Record:  state.Record{ID: id, Environment: env},
	}
}

// List returns every tracked environment sorted by id.
func (m *Manager) List() []state.Record {
	return m.store.List()
}

// Status reports the on-disk condition of one environment. A worktree whose
// path is gone, or that git can no longer query, is Missing.
func (m *Manager) Status(ctx context.Context, env state.Environment) WorktreeStatus {
	if _, err := os.Stat(env.Path); err != nil {
		return WorktreeMissing
	}
	dirty, err := m.vcs.IsDirty(ctx, env.Path)
	if err != nil {
		return WorktreeMissing
	}
	if dirty {
		return WorktreeModified
	}
	return WorktreeOK
}

// Get returns the tracked environment for a branch, matching by slug first
// and then by exact branch name.
func (m *Manager) Get(branch string) (state.Record, bool) {
	id, env, ok := m.findRecord(branch)
	if !ok {
		return state.Record{}, false
	}
	return state.Record{ID: id, Environment: env}, true
}

func (m *Manager) findRecord(branch string) (string, state.Environment, bool) {
	id := git.Slug(branch)
	if env, ok := m.store.Get(id); ok {
		return id, env, true
	}
	for _, rec := range m.store.List() {
		if rec.Branch == branch {
			return rec.ID, rec.Environment, true
		}
	}
	return "", state.Environment{}, false
}

// resolvePath expands the configured path templates and anchors the result
// at the repository root when it is not already absolute.
func (m *Manager) resolvePath(repoName, branch, slug string) string {
	tctx := template.Context{RepoName: repoName, Branch: branch, BranchSlug: slug}
	base := template.ExpandPath(m.cfg.WorktreeBasePath, tctx)
	name := template.ExpandPath(m.cfg.WorktreeNaming, tctx)

	path := filepath.Join(base, name)
	if !filepath.IsAbs(path) {
		path = filepath.Join(m.root, path)
	}
	return filepath.Clean(path)
}

func (m *Manager) report(name, phase string) {
	if m.progress != nil {
		m.progress(name, phase)
	}
}
