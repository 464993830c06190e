package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/zhubert/grove/internal/config"
	"github.com/zhubert/grove/internal/git"
	"github.com/zhubert/grove/internal/logger"
	"github.com/zhubert/grove/internal/orchestrator"
	"github.com/zhubert/grove/internal/state"
)

var (
	verboseMode           bool
	version, commit, date string
)

// SetVersionInfo sets version information from ldflags
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var rootCmd = &cobra.Command{
	Use:   "grove",
	Short: "Parallel development environments on git worktrees",
	Long: `Grove manages parallel development environments built on git worktrees.
Each environment gets its own worktree, copied environment files, allocated
ports, and lifecycle hooks, so several branches can run side by side without
stepping on each other.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().BoolVarP(&verboseMode, "verbose", "v", false, "Enable debug logging")
}

func initConfig() {
	logger.SetDebug(verboseMode)
}

// Execute runs the root command
func Execute() error {
	// Set version dynamically
	rootCmd.Version = version
	rootCmd.SetVersionTemplate(versionTemplate())
	defer logger.Close()
	return rootCmd.Execute()
}

func versionTemplate() string {
	if commit != "none" && commit != "" {
		return fmt.Sprintf("grove %s\n  commit: %s\n  built:  %s\n", version, commit, date)
	}
	return fmt.Sprintf("grove %s\n", version)
}

// newManager wires the collaborators every environment command needs: repo
// root discovery, merged config, the state store, and the git-backed manager.
func newManager(ctx context.Context) (*orchestrator.Manager, *config.Config, *git.Client, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, nil, nil, fmt.Errorf("cannot determine working directory: %w", err)
	}
	root, err := git.FindRoot(ctx, wd)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := config.LoadAndMerge(root)
	if err != nil {
		return nil, nil, nil, err
	}
	st, err := state.Load(root)
	if err != nil {
		return nil, nil, nil, err
	}
	client := git.NewClient(root)
	return orchestrator.New(root, cfg, client, st), cfg, client, nil
}

// progressPrinter renders orchestrator progress events as console lines.
// Starting is silent so each operation prints exactly one line.
func progressPrinter(out io.Writer) orchestrator.ProgressFunc {
	return func(name, phase string) {
		switch phase {
		case orchestrator.PhaseCompleted:
			fmt.Fprintf(out, "  ✓ %s\n", name)
		case orchestrator.PhaseFailed:
			fmt.Fprintf(out, "  ✗ %s\n", name)
		case orchestrator.PhaseSkipped:
			fmt.Fprintf(out, "  - %s (skipped)\n", name)
		case orchestrator.PhaseRollingBack:
			fmt.Fprintf(out, "  ↩ %s\n", name)
		case orchestrator.PhaseWarning:
			fmt.Fprintf(out, "  ! %s (warning)\n", name)
		}
	}
}
