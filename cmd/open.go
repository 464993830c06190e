package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/zhubert/grove/internal/editor"
	groveerrors "github.com/zhubert/grove/internal/errors"
	"github.com/zhubert/grove/internal/orchestrator"
)

var (
	openEditorFlag  string
	openListEditors bool
)

var openCmd = &cobra.Command{
	Use:   "open [branch]",
	Short: "Open an environment in your editor",
	Long: `Opens the worktree for the branch in your editor. Without a branch, the
repository root itself is opened.

The editor comes from --editor, then the editor.command config key, then
$VISUAL and $EDITOR, then the first known editor found on PATH.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runOpen,
}

func init() {
	openCmd.Flags().StringVarP(&openEditorFlag, "editor", "e", "", "Editor command to use")
	openCmd.Flags().BoolVar(&openListEditors, "list-editors", false, "List detected editors and exit")
	rootCmd.AddCommand(openCmd)
}

func runOpen(cmd *cobra.Command, args []string) error {
	if openListEditors {
		detected := editor.Detect()
		if len(detected) == 0 {
			fmt.Println("No known editors found on PATH.")
			return nil
		}
		fmt.Println("Detected editors:")
		for _, ed := range detected {
			fmt.Printf("  %-14s %s\n", ed.Name, ed.Command)
		}
		return nil
	}

	ctx := context.Background()

	mgr, cfg, client, err := newManager(ctx)
	if err != nil {
		return err
	}

	path := client.Root()
	label := "repository root"
	if len(args) == 1 {
		rec, ok := mgr.Get(args[0])
		if !ok {
			return groveerrors.EnvironmentNotFound(args[0])
		}
		if mgr.Status(ctx, rec.Environment) == orchestrator.WorktreeMissing {
			return fmt.Errorf("worktree for %s is missing at %s; run 'grove remove %s' to clean up",
				rec.Branch, rec.Path, rec.Branch)
		}
		path = rec.Path
		label = rec.Branch
	}

	configured := cfg.Editor.Command
	if openEditorFlag != "" {
		configured = openEditorFlag
	}
	command, err := editor.Resolve(configured)
	if err != nil {
		return err
	}
	if err := editor.Open(command, path); err != nil {
		return err
	}
	fmt.Printf("Opened %s in %s\n", label, command)
	return nil
}
