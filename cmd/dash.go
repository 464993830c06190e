package cmd

import (
	"context"

	"github.com/spf13/cobra"
	"github.com/zhubert/grove/internal/dash"
)

var dashCmd = &cobra.Command{
	Use:   "dash",
	Short: "Interactive dashboard of environments",
	Long: `Opens a full-screen dashboard showing every environment with its status
and ports. Select an environment and press enter to open it in your editor.`,
	Args: cobra.NoArgs,
	RunE: runDash,
}

func init() {
	rootCmd.AddCommand(dashCmd)
}

func runDash(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	mgr, cfg, client, err := newManager(ctx)
	if err != nil {
		return err
	}
	return dash.Run(mgr, cfg, client.RepoName(ctx))
}
