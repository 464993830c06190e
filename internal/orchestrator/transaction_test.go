package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	groveerrors "github.com/zhubert/grove/internal/errors"
	"github.com/zhubert/grove/internal/state"
	"github.com/zhubert/grove/internal/template"
)

// fakeVCS records every mutating call in a journal shared with fakeStore so
// tests can assert cross-collaborator ordering. CreateWorktree and
// RemoveWorktree actually create and delete the directory to mirror git.
type fakeVCS struct {
	journal  *[]string
	branches map[string]bool
	dirty    map[string]bool
	dirtyErr error
	repoName string

	createErr error
	removeErr error
	deleteErr error
}

func (f *fakeVCS) CreateWorktree(_ context.Context, path, branch, base string, createBranch bool) error {
	*f.journal = append(*f.journal, fmt.Sprintf("create-worktree %s branch=%s base=%s new=%t", path, branch, base, createBranch))
	if f.createErr != nil {
		return f.createErr
	}
	return os.MkdirAll(path, 0o755)
}

func (f *fakeVCS) RemoveWorktree(_ context.Context, path string, force bool) error {
	*f.journal = append(*f.journal, fmt.Sprintf("remove-worktree %s force=%t", path, force))
	if f.removeErr != nil {
		return f.removeErr
	}
	return os.RemoveAll(path)
}

func (f *fakeVCS) BranchExists(_ context.Context, branch string) bool {
	return f.branches[branch]
}

func (f *fakeVCS) IsDirty(_ context.Context, path string) (bool, error) {
	if f.dirtyErr != nil {
		return false, f.dirtyErr
	}
	return f.dirty[path], nil
}

func (f *fakeVCS) DeleteBranch(_ context.Context, branch string, force bool) error {
	*f.journal = append(*f.journal, fmt.Sprintf("delete-branch %s force=%t", branch, force))
	return f.deleteErr
}

func (f *fakeVCS) RepoName(_ context.Context) string {
	if f.repoName == "" {
		return "demo"
	}
	return f.repoName
}

type fakeStore struct {
	journal *[]string
	envs    map[string]state.Environment

	addErr    error
	removeErr error
}

func (f *fakeStore) Get(id string) (state.Environment, bool) {
	env, ok := f.envs[id]
	return env, ok
}

func (f *fakeStore) List() []state.Record {
	var records []state.Record
	for id, env := range f.envs {
		records = append(records, state.Record{ID: id, Environment: env})
	}
	slices.SortFunc(records, func(a, b state.Record) int {
		return strings.Compare(a.ID, b.ID)
	})
	return records
}

func (f *fakeStore) Ports() []int { return nil }

func (f *fakeStore) Add(id string, env state.Environment) error {
	*f.journal = append(*f.journal, "state-add "+id)
	if f.addErr != nil {
		return f.addErr
	}
	f.envs[id] = env
	return nil
}

func (f *fakeStore) Remove(id string) (bool, error) {
	*f.journal = append(*f.journal, "state-remove "+id)
	if f.removeErr != nil {
		return false, f.removeErr
	}
	_, ok := f.envs[id]
	delete(f.envs, id)
	return ok, nil
}

func newFakes() (*fakeVCS, *fakeStore, *[]string) {
	journal := &[]string{}
	fv := &fakeVCS{journal: journal, branches: map[string]bool{}, dirty: map[string]bool{}}
	fs := &fakeStore{journal: journal, envs: map[string]state.Environment{}}
	return fv, fs, journal
}

func newTestTransaction(fv *fakeVCS, fs *fakeStore, root string) *Transaction {
	return &Transaction{
		VCS:   fv,
		Store: fs,
		Context: template.Context{
			Branch:     "feature/login",
			BranchSlug: "feature-login",
			RepoName:   "demo",
		},
		RepoRoot:    root,
		HookTimeout: 30 * time.Second,
		Substitute:  true,
	}
}

func TestTransaction_ExecutesInOrder(t *testing.T) {
	fv, fs, journal := newFakes()
	root := t.TempDir()
	wt := filepath.Join(root, "wt")
	txn := newTestTransaction(fv, fs, root)

	ops := []*Operation{
		NewCreateEnvironment(wt, "feature/login", "", true, nil),
		NewRunHooks("post_create", []string{"true"}, wt),
		NewPersistState("feature-login", state.Environment{Path: wt, Branch: "feature/login"}),
	}

	res := txn.Execute(context.Background(), ops)
	if !res.Success {
		t.Fatalf("Execute failed: %v", res.Err)
	}
	if res.Completed != 3 {
		t.Errorf("Completed = %d, want 3", res.Completed)
	}

	want := []string{
		fmt.Sprintf("create-worktree %s branch=feature/login base= new=true", wt),
		"state-add feature-login",
	}
	if !slices.Equal(*journal, want) {
		t.Errorf("journal = %v, want %v", *journal, want)
	}

	for _, op := range ops {
		if op.Status != StatusCompleted {
			t.Errorf("operation %q status = %s, want %s", op.Name, op.Status, StatusCompleted)
		}
	}
}

func TestTransaction_DryRunExecutesNothing(t *testing.T) {
	fv, fs, journal := newFakes()
	root := t.TempDir()
	wt := filepath.Join(root, "wt")
	txn := newTestTransaction(fv, fs, root)
	txn.DryRun = true

	ops := []*Operation{
		NewCreateEnvironment(wt, "feature/login", "", true, nil),
		NewPersistState("feature-login", state.Environment{Path: wt}),
	}

	res := txn.Execute(context.Background(), ops)
	if !res.Success {
		t.Fatalf("Execute failed: %v", res.Err)
	}
	if len(*journal) != 0 {
		t.Errorf("journal = %v, want empty", *journal)
	}
	if _, err := os.Stat(wt); !os.IsNotExist(err) {
		t.Error("dry run created the worktree directory")
	}
	for _, op := range ops {
		if op.Status != StatusSkipped {
			t.Errorf("operation %q status = %s, want %s", op.Name, op.Status, StatusSkipped)
		}
	}
}

func TestTransaction_RollsBackCompletedInReverse(t *testing.T) {
	fv, fs, journal := newFakes()
	root := t.TempDir()
	wt := filepath.Join(root, "wt")
	txn := newTestTransaction(fv, fs, root)

	ops := []*Operation{
		NewCreateEnvironment(wt, "feature/login", "", true, nil),
		NewPersistState("feature-login", state.Environment{Path: wt, Branch: "feature/login"}),
		NewRunHooks("post_setup", []string{"exit 1"}, wt),
	}

	res := txn.Execute(context.Background(), ops)
	if res.Success {
		t.Fatal("Execute succeeded, want hook failure")
	}
	if groveerrors.GetKind(res.Err) != groveerrors.KindHook {
		t.Errorf("error kind = %v, want KindHook", groveerrors.GetKind(res.Err))
	}
	if res.Completed != 2 {
		t.Errorf("Completed = %d, want 2", res.Completed)
	}
	if len(res.RollbackErrors) != 0 {
		t.Errorf("RollbackErrors = %v, want none", res.RollbackErrors)
	}

	want := []string{
		fmt.Sprintf("create-worktree %s branch=feature/login base= new=true", wt),
		"state-add feature-login",
		"state-remove feature-login",
		fmt.Sprintf("remove-worktree %s force=true", wt),
	}
	if !slices.Equal(*journal, want) {
		t.Errorf("journal = %v, want %v", *journal, want)
	}

	if ops[0].Status != StatusRolledBack {
		t.Errorf("create status = %s, want %s", ops[0].Status, StatusRolledBack)
	}
	if ops[1].Status != StatusRolledBack {
		t.Errorf("persist status = %s, want %s", ops[1].Status, StatusRolledBack)
	}
	if ops[2].Status != StatusFailed {
		t.Errorf("hook status = %s, want %s", ops[2].Status, StatusFailed)
	}
	if _, err := os.Stat(wt); !os.IsNotExist(err) {
		t.Error("worktree directory survived rollback")
	}
	if _, ok := fs.envs["feature-login"]; ok {
		t.Error("state entry survived rollback")
	}
}

func TestTransaction_NonReversibleNeverRolledBack(t *testing.T) {
	fv, fs, journal := newFakes()
	fs.addErr = fmt.Errorf("disk full")
	root := t.TempDir()
	txn := newTestTransaction(fv, fs, root)

	ops := []*Operation{
		NewRunHooks("post_create", []string{"true"}, root),
		NewPersistState("feature-login", state.Environment{}),
	}

	res := txn.Execute(context.Background(), ops)
	if res.Success {
		t.Fatal("Execute succeeded, want state failure")
	}

	// The completed hook operation must stay Completed: there is nothing to
	// undo for it.
	if ops[0].Status != StatusCompleted {
		t.Errorf("hook status = %s, want %s", ops[0].Status, StatusCompleted)
	}
	if ops[1].Status != StatusFailed {
		t.Errorf("persist status = %s, want %s", ops[1].Status, StatusFailed)
	}
	want := []string{"state-add feature-login"}
	if !slices.Equal(*journal, want) {
		t.Errorf("journal = %v, want %v", *journal, want)
	}
}

func TestTransaction_RollbackErrorsAreCollected(t *testing.T) {
	fv, fs, journal := newFakes()
	fs.removeErr = fmt.Errorf("state file locked")
	root := t.TempDir()
	wt := filepath.Join(root, "wt")
	txn := newTestTransaction(fv, fs, root)

	ops := []*Operation{
		NewCreateEnvironment(wt, "feature/login", "", true, nil),
		NewPersistState("feature-login", state.Environment{Path: wt}),
		NewRunHooks("post_setup", []string{"exit 1"}, wt),
	}

	res := txn.Execute(context.Background(), ops)
	if res.Success {
		t.Fatal("Execute succeeded, want hook failure")
	}
	if len(res.RollbackErrors) != 1 {
		t.Fatalf("RollbackErrors = %v, want one entry", res.RollbackErrors)
	}
	if !strings.Contains(res.RollbackErrors[0], "Update state for feature-login") {
		t.Errorf("rollback error %q does not name the operation", res.RollbackErrors[0])
	}

	// The failed state rollback must not stop the worktree rollback.
	if !slices.Contains(*journal, fmt.Sprintf("remove-worktree %s force=true", wt)) {
		t.Errorf("journal = %v, missing worktree rollback", *journal)
	}
	if ops[0].Status != StatusRolledBack {
		t.Errorf("create status = %s, want %s", ops[0].Status, StatusRolledBack)
	}
	if ops[1].Status != StatusCompleted {
		t.Errorf("persist status = %s, want %s after failed rollback", ops[1].Status, StatusCompleted)
	}
}

func TestTransaction_ProgressPhases(t *testing.T) {
	fv, fs, _ := newFakes()
	root := t.TempDir()
	wt := filepath.Join(root, "wt")
	txn := newTestTransaction(fv, fs, root)

	var events []string
	txn.Progress = func(name, phase string) {
		events = append(events, name+"|"+phase)
	}

	ops := []*Operation{
		NewCreateEnvironment(wt, "feature/login", "", true, nil),
		NewRunHooks("post_create", []string{"exit 1"}, wt),
	}
	txn.Execute(context.Background(), ops)

	createName := fmt.Sprintf("Create worktree at %s", wt)
	want := []string{
		createName + "|" + PhaseStarting,
		createName + "|" + PhaseCompleted,
		"Run post_create hooks|" + PhaseStarting,
		"Run post_create hooks|" + PhaseFailed,
		createName + "|" + PhaseRollingBack,
	}
	if !slices.Equal(events, want) {
		t.Errorf("progress events = %v, want %v", events, want)
	}
}

func TestTransaction_CopiesEnvironmentFiles(t *testing.T) {
	fv, fs, _ := newFakes()
	root := t.TempDir()
	wt := filepath.Join(root, "wt")

	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("API_PORT={{PORT_WEB}}\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	txn := newTestTransaction(fv, fs, root)
	txn.Context.PortMappings = map[string]int{"web": 10123}

	ops := []*Operation{
		NewCreateEnvironment(wt, "feature/login", "", true, []string{".env", "missing.txt"}),
	}
	res := txn.Execute(context.Background(), ops)
	if !res.Success {
		t.Fatalf("Execute failed: %v", res.Err)
	}

	data, err := os.ReadFile(filepath.Join(wt, ".env"))
	if err != nil {
		t.Fatalf("copied env file missing: %v", err)
	}
	if got := string(data); got != "API_PORT=10123\n" {
		t.Errorf("env file content = %q, want substituted port", got)
	}

	info, err := os.Stat(filepath.Join(wt, ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("copied file mode = %v, want 0600", info.Mode().Perm())
	}

	if _, err := os.Stat(filepath.Join(wt, "missing.txt")); !os.IsNotExist(err) {
		t.Error("missing source produced a destination file")
	}
}

func TestTransaction_SubstitutionDisabled(t *testing.T) {
	fv, fs, _ := newFakes()
	root := t.TempDir()
	wt := filepath.Join(root, "wt")

	if err := os.WriteFile(filepath.Join(root, ".env"), []byte("API_PORT={{PORT_WEB}}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	txn := newTestTransaction(fv, fs, root)
	txn.Substitute = false
	txn.Context.PortMappings = map[string]int{"web": 10123}

	ops := []*Operation{
		NewCreateEnvironment(wt, "feature/login", "", true, []string{".env"}),
	}
	if res := txn.Execute(context.Background(), ops); !res.Success {
		t.Fatalf("Execute failed: %v", res.Err)
	}

	data, err := os.ReadFile(filepath.Join(wt, ".env"))
	if err != nil {
		t.Fatal(err)
	}
	if got := string(data); got != "API_PORT={{PORT_WEB}}\n" {
		t.Errorf("env file content = %q, want placeholders untouched", got)
	}
}

func TestTransaction_CopyFailureFailsOperation(t *testing.T) {
	fv, fs, _ := newFakes()
	root := t.TempDir()
	wt := filepath.Join(root, "wt")

	// A directory source cannot be read as a file.
	if err := os.MkdirAll(filepath.Join(root, "config"), 0o755); err != nil {
		t.Fatal(err)
	}

	txn := newTestTransaction(fv, fs, root)
	ops := []*Operation{
		NewCreateEnvironment(wt, "feature/login", "", true, []string{"config"}),
	}

	res := txn.Execute(context.Background(), ops)
	if res.Success {
		t.Fatal("Execute succeeded, want copy failure")
	}
	if res.Completed != 0 {
		t.Errorf("Completed = %d, want 0", res.Completed)
	}
	if ops[0].Status != StatusFailed {
		t.Errorf("create status = %s, want %s", ops[0].Status, StatusFailed)
	}
}

func TestTransaction_UnknownKindRejected(t *testing.T) {
	fv, fs, _ := newFakes()
	txn := newTestTransaction(fv, fs, t.TempDir())

	ops := []*Operation{{Kind: Kind("bogus"), Name: "Bogus"}}
	res := txn.Execute(context.Background(), ops)
	if res.Success {
		t.Fatal("Execute succeeded with unknown operation kind")
	}
	if !strings.Contains(res.Err.Error(), "unknown operation kind") {
		t.Errorf("error = %v, want unknown kind message", res.Err)
	}
}
