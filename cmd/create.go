package cmd

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
	"github.com/zhubert/grove/internal/editor"
	"github.com/zhubert/grove/internal/notification"
	"github.com/zhubert/grove/internal/orchestrator"
)

var (
	createBase    string
	createNoEnv   bool
	createNoPorts bool
	createNoHooks bool
	createDryRun  bool
	createOpen    bool
	createNoOpen  bool
)

var createCmd = &cobra.Command{
	Use:   "create <branch>",
	Short: "Create a worktree environment for a branch",
	Long: `Creates a git worktree for the branch, copies configured environment files
into it, allocates ports for the configured service names, and runs the
post_create and post_setup hooks.

If any step fails, completed steps are rolled back so no half-built
environment is left behind. Missing branches are created from the base
branch given with --base, or from the current HEAD.`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

func init() {
	createCmd.Flags().StringVarP(&createBase, "base", "b", "", "Base branch when creating a new branch")
	createCmd.Flags().BoolVar(&createNoEnv, "no-env", false, "Skip copying environment files")
	createCmd.Flags().BoolVar(&createNoPorts, "no-ports", false, "Skip port allocation")
	createCmd.Flags().BoolVar(&createNoHooks, "no-hooks", false, "Skip lifecycle hooks")
	createCmd.Flags().BoolVar(&createDryRun, "dry-run", false, "Show what would happen without changing anything")
	createCmd.Flags().BoolVarP(&createOpen, "open", "o", false, "Open the new environment in your editor")
	createCmd.Flags().BoolVar(&createNoOpen, "no-open", false, "Do not open an editor even if auto_open is configured")
	rootCmd.AddCommand(createCmd)
}

func runCreate(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	branch := args[0]

	mgr, cfg, _, err := newManager(ctx)
	if err != nil {
		return err
	}
	mgr.SetProgress(progressPrinter(os.Stdout))

	if createDryRun {
		fmt.Printf("Dry run for %s:\n", branch)
	} else {
		fmt.Printf("Creating environment for %s:\n", branch)
	}

	res := mgr.Create(ctx, orchestrator.CreateOptions{
		Branch:    branch,
		Base:      createBase,
		SkipEnv:   createNoEnv,
		SkipPorts: createNoPorts,
		SkipHooks: createNoHooks,
		DryRun:    createDryRun,
	})
	if !res.Success {
		if res.RolledBack {
			fmt.Fprintln(os.Stderr, "Rolled back partial changes.")
		}
		for _, msg := range res.RollbackErrors {
			fmt.Fprintf(os.Stderr, "Warning: rollback: %s\n", msg)
		}
		return res.Err
	}

	if createDryRun {
		fmt.Printf("\nWould create %s at %s\n", branch, res.Record.Path)
		printPorts(res.Record.PortMappings)
		return nil
	}

	fmt.Printf("\nEnvironment ready at %s\n", res.Record.Path)
	printPorts(res.Record.PortMappings)

	if cfg.NotificationsEnabled() {
		notification.EnvironmentCreated(branch)
	}

	// An environment that exists but did not open is a success with a
	// warning, not a failure.
	if shouldOpen(cfg.AutoOpen()) {
		command, err := editor.Resolve(cfg.Editor.Command)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			return nil
		}
		if err := editor.Open(command, res.Record.Path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
			return nil
		}
		fmt.Printf("Opened in %s\n", command)
	}
	return nil
}

// shouldOpen decides whether to launch an editor after create. --no-open
// always wins, then --open, then the configured auto_open default.
func shouldOpen(autoOpen bool) bool {
	if createNoOpen {
		return false
	}
	return createOpen || autoOpen
}

func printPorts(ports map[string]int) {
	if len(ports) == 0 {
		return
	}
	names := make([]string, 0, len(ports))
	for name := range ports {
		names = append(names, name)
	}
	sort.Strings(names)
	fmt.Println("Ports:")
	for _, name := range names {
		fmt.Printf("  %s: %d\n", name, ports[name])
	}
}
