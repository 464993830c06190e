package cmd

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	groveerrors "github.com/zhubert/grove/internal/errors"
	"github.com/zhubert/grove/internal/notification"
	"github.com/zhubert/grove/internal/orchestrator"
)

var (
	removeForce       bool
	removeKeepBranch  bool
	removeNoHooks     bool
	removeSkipConfirm bool
)

var removeCmd = &cobra.Command{
	Use:     "remove <branch>",
	Aliases: []string{"rm"},
	Short:   "Remove a worktree environment",
	Long: `Removes the worktree for the branch, releases its ports, and deletes the
branch unless --keep-branch is set. The pre_remove hook runs first and can
abort the removal; post_remove failures are reported as warnings.

Worktrees with uncommitted changes are not removed unless --force is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runRemove,
}

func init() {
	removeCmd.Flags().BoolVarP(&removeForce, "force", "f", false, "Remove even if the worktree has uncommitted changes")
	removeCmd.Flags().BoolVar(&removeKeepBranch, "keep-branch", false, "Keep the branch after removing the worktree")
	removeCmd.Flags().BoolVar(&removeNoHooks, "no-hooks", false, "Skip lifecycle hooks")
	removeCmd.Flags().BoolVarP(&removeSkipConfirm, "yes", "y", false, "Skip confirmation prompt")
	rootCmd.AddCommand(removeCmd)
}

func runRemove(cmd *cobra.Command, args []string) error {
	return runRemoveWithReader(os.Stdin, args[0])
}

// runRemoveWithReader allows injecting a reader for testing
func runRemoveWithReader(input io.Reader, branch string) error {
	ctx := context.Background()

	mgr, cfg, _, err := newManager(ctx)
	if err != nil {
		return err
	}

	rec, ok := mgr.Get(branch)
	if !ok {
		return groveerrors.EnvironmentNotFound(branch)
	}

	if !removeSkipConfirm {
		fmt.Printf("This will remove the worktree at %s\n", rec.Path)
		if !removeKeepBranch {
			fmt.Printf("and delete the branch %s\n", rec.Branch)
		}
		if !confirm(input, "Continue?") {
			fmt.Println("Aborted.")
			return nil
		}
	}

	mgr.SetProgress(progressPrinter(os.Stdout))
	res := mgr.Remove(ctx, orchestrator.RemoveOptions{
		Branch:     branch,
		Force:      removeForce,
		KeepBranch: removeKeepBranch,
		SkipHooks:  removeNoHooks,
	})
	if !res.Success {
		return res.Err
	}

	fmt.Printf("\nRemoved %s\n", rec.Branch)
	if cfg.NotificationsEnabled() {
		notification.EnvironmentRemoved(rec.Branch)
	}
	return nil
}

// confirm prompts the user for y/n confirmation
func confirm(input io.Reader, prompt string) bool {
	reader := bufio.NewReader(input)
	fmt.Printf("%s [y/N]: ", prompt)
	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	response = strings.ToLower(strings.TrimSpace(response))
	return response == "y" || response == "yes"
}
