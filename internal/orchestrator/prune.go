package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/zhubert/grove/internal/logger"
	"github.com/zhubert/grove/internal/state"
	"github.com/zhubert/grove/internal/template"
)

// PruneReport lists what FindOrphans discovered: state entries whose
// worktree directory is gone, and directories under the worktree base path
// that no environment claims.
type PruneReport struct {
	StaleEntries []state.Record
	OrphanDirs   []string
}

// Empty reports whether there is nothing to prune.
func (r PruneReport) Empty() bool {
	return len(r.StaleEntries) == 0 && len(r.OrphanDirs) == 0
}

// PruneResult is the outcome of a prune run. Errors carries per-item
// diagnostics; a failed item is left in place.
type PruneResult struct {
	RemovedEntries int
	RemovedDirs    int
	Errors         []string
}

// FindOrphans inspects state and disk without changing either. Orphan
// directory scanning is skipped when the base path template varies per
// branch, since there is no single directory to scan.
func (m *Manager) FindOrphans(ctx context.Context) PruneReport {
	var report PruneReport

	known := map[string]bool{}
	for _, rec := range m.store.List() {
		known[filepath.Clean(rec.Path)] = true
		if _, err := os.Stat(rec.Path); err != nil {
			report.StaleEntries = append(report.StaleEntries, rec)
		}
	}

	baseDir, ok := m.worktreeBaseDir(ctx)
	if !ok {
		return report
	}
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return report
	}
	for _, entry := range entries {
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(baseDir, entry.Name())
		if !known[dir] {
			report.OrphanDirs = append(report.OrphanDirs, dir)
		}
	}
	return report
}

// Prune removes everything FindOrphans reports. Stale entries leave the
// state file, releasing their ports; orphaned directories are removed
// through the VCS so git's worktree bookkeeping stays consistent.
func (m *Manager) Prune(ctx context.Context) PruneResult {
	runID := uuid.New().String()[:8]
	log := logger.WithRun(runID)

	report := m.FindOrphans(ctx)
	var res PruneResult

	for _, rec := range report.StaleEntries {
		if _, err := m.store.Remove(rec.ID); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("state entry %s: %v", rec.ID, err))
			continue
		}
		log.Info("Pruned stale state entry", "id", rec.ID, "path", rec.Path)
		res.RemovedEntries++
	}

	for _, dir := range report.OrphanDirs {
		if err := m.vcs.RemoveWorktree(ctx, dir, true); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("worktree %s: %v", dir, err))
			continue
		}
		log.Info("Pruned orphaned worktree", "dir", dir)
		res.RemovedDirs++
	}

	return res
}

// worktreeBaseDir resolves the configured base path for orphan scanning.
// The repository root itself is never scanned; flagging source directories
// as orphans would be worse than missing a leftover.
func (m *Manager) worktreeBaseDir(ctx context.Context) (string, bool) {
	if strings.Contains(m.cfg.WorktreeBasePath, "{branch") {
		return "", false
	}
	tctx := template.Context{RepoName: m.vcs.RepoName(ctx)}
	base := template.ExpandPath(m.cfg.WorktreeBasePath, tctx)
	if !filepath.IsAbs(base) {
		base = filepath.Join(m.root, base)
	}
	base = filepath.Clean(base)
	if base == filepath.Clean(m.root) {
		return "", false
	}
	return base, true
}
