package cmd

import (
	"bytes"
	"strings"
	"testing"

	"github.com/zhubert/grove/internal/orchestrator"
)

func TestVerboseFlagExists(t *testing.T) {
	flag := rootCmd.PersistentFlags().Lookup("verbose")
	if flag == nil {
		t.Fatal("--verbose flag not found")
	}
	if flag.DefValue != "false" {
		t.Errorf("--verbose default = %q, want %q", flag.DefValue, "false")
	}
	if flag.Shorthand != "v" {
		t.Errorf("--verbose shorthand = %q, want %q", flag.Shorthand, "v")
	}
}

func TestInitConfig_Verbose(t *testing.T) {
	// Save and restore package state
	orig := verboseMode
	defer func() { verboseMode = orig }()

	verboseMode = true

	// Should not panic
	initConfig()
}

func TestVersionTemplate_WithCommit(t *testing.T) {
	origVersion, origCommit, origDate := version, commit, date
	defer func() { version, commit, date = origVersion, origCommit, origDate }()

	SetVersionInfo("1.2.0", "abc1234", "2026-08-25")
	got := versionTemplate()
	if !strings.Contains(got, "grove 1.2.0") {
		t.Errorf("versionTemplate() = %q, want it to contain %q", got, "grove 1.2.0")
	}
	if !strings.Contains(got, "commit: abc1234") {
		t.Errorf("versionTemplate() = %q, want it to contain the commit", got)
	}
	if !strings.Contains(got, "built:  2026-08-25") {
		t.Errorf("versionTemplate() = %q, want it to contain the build date", got)
	}
}

func TestVersionTemplate_DevBuild(t *testing.T) {
	origVersion, origCommit, origDate := version, commit, date
	defer func() { version, commit, date = origVersion, origCommit, origDate }()

	SetVersionInfo("dev", "none", "unknown")
	if got := versionTemplate(); got != "grove dev\n" {
		t.Errorf("versionTemplate() = %q, want %q", got, "grove dev\n")
	}
}

func TestProgressPrinter(t *testing.T) {
	var buf bytes.Buffer
	fn := progressPrinter(&buf)

	fn("Create worktree", orchestrator.PhaseStarting)
	fn("Create worktree", orchestrator.PhaseCompleted)
	fn("Run post_create hooks", orchestrator.PhaseFailed)
	fn("Update state", orchestrator.PhaseSkipped)
	fn("Create worktree", orchestrator.PhaseRollingBack)
	fn("Run post_remove hooks", orchestrator.PhaseWarning)

	want := "  ✓ Create worktree\n" +
		"  ✗ Run post_create hooks\n" +
		"  - Update state (skipped)\n" +
		"  ↩ Create worktree\n" +
		"  ! Run post_remove hooks (warning)\n"
	if buf.String() != want {
		t.Errorf("progress output = %q, want %q", buf.String(), want)
	}
}
