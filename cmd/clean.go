package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var cleanSkipConfirm bool

var cleanCmd = &cobra.Command{
	Use:   "clean",
	Short: "Remove stale state entries and orphaned worktrees",
	Long: `Reconciles grove's state with the filesystem. State entries whose worktree
directory no longer exists are dropped, releasing their ports, and
directories under the worktree base path that no environment claims are
removed.

It will prompt for confirmation before proceeding unless the --yes flag is used.`,
	Args: cobra.NoArgs,
	RunE: runClean,
}

func init() {
	cleanCmd.Flags().BoolVarP(&cleanSkipConfirm, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(cleanCmd)
}

func runClean(cmd *cobra.Command, args []string) error {
	return runCleanWithReader(os.Stdin)
}

// runCleanWithReader allows injecting a reader for testing
func runCleanWithReader(input io.Reader) error {
	ctx := context.Background()

	mgr, _, _, err := newManager(ctx)
	if err != nil {
		return err
	}

	report := mgr.FindOrphans(ctx)
	if report.Empty() {
		fmt.Println("Nothing to clean.")
		return nil
	}

	fmt.Println("This will clean:")
	if len(report.StaleEntries) > 0 {
		fmt.Printf("  - %d stale environment(s)\n", len(report.StaleEntries))
		for _, rec := range report.StaleEntries {
			fmt.Printf("      %s (worktree gone from %s)\n", rec.Branch, rec.Path)
		}
	}
	if len(report.OrphanDirs) > 0 {
		fmt.Printf("  - %d orphaned worktree(s)\n", len(report.OrphanDirs))
		for _, dir := range report.OrphanDirs {
			fmt.Printf("      %s\n", dir)
		}
	}

	if !cleanSkipConfirm {
		if !confirm(input, "Continue?") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	res := mgr.Prune(ctx)
	for _, msg := range res.Errors {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", msg)
	}
	if res.RemovedEntries == 0 && res.RemovedDirs == 0 {
		return nil
	}

	fmt.Println()
	fmt.Println("Cleaned:")
	if res.RemovedEntries > 0 {
		fmt.Printf("  - %d stale environment(s) dropped\n", res.RemovedEntries)
	}
	if res.RemovedDirs > 0 {
		fmt.Printf("  - %d orphaned worktree(s) removed\n", res.RemovedDirs)
	}
	return nil
}
