package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"github.com/zhubert/grove/internal/orchestrator"
)

var listJSON bool

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List worktree environments",
	Args:    cobra.NoArgs,
	RunE:    runList,
}

func init() {
	listCmd.Flags().BoolVar(&listJSON, "json", false, "Output as JSON")
	rootCmd.AddCommand(listCmd)
}

type listEntry struct {
	ID        string         `json:"id"`
	Branch    string         `json:"branch"`
	Path      string         `json:"path"`
	Status    string         `json:"status"`
	CreatedAt time.Time      `json:"created_at"`
	Ports     map[string]int `json:"ports,omitempty"`
}

var (
	listHeaderStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#6B7280"))
	listStatusStyles = map[string]lipgloss.Style{
		string(orchestrator.WorktreeOK):       lipgloss.NewStyle().Foreground(lipgloss.Color("#10B981")),
		string(orchestrator.WorktreeModified): lipgloss.NewStyle().Foreground(lipgloss.Color("#F59E0B")),
		string(orchestrator.WorktreeMissing):  lipgloss.NewStyle().Foreground(lipgloss.Color("#EF4444")),
	}
)

func runList(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	mgr, _, _, err := newManager(ctx)
	if err != nil {
		return err
	}

	records := mgr.List()
	entries := make([]listEntry, 0, len(records))
	for _, rec := range records {
		entries = append(entries, listEntry{
			ID:        rec.ID,
			Branch:    rec.Branch,
			Path:      rec.Path,
			Status:    string(mgr.Status(ctx, rec.Environment)),
			CreatedAt: rec.CreatedAt,
			Ports:     rec.PortMappings,
		})
	}

	if listJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("cannot render environments as JSON: %w", err)
		}
		fmt.Println(string(data))
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No environments. Run 'grove create <branch>' to get started.")
		return nil
	}

	fmt.Print(renderList(entries))
	return nil
}

// renderList lays the environments out as aligned columns. Text is padded
// before styling so ANSI sequences never skew the alignment.
func renderList(entries []listEntry) string {
	branchWidth, statusWidth, portsWidth := len("BRANCH"), len("STATUS"), len("PORTS")
	rows := make([][4]string, 0, len(entries))
	for _, e := range entries {
		row := [4]string{e.Branch, e.Status, portList(e.Ports), formatAge(e.CreatedAt)}
		if len(row[0]) > branchWidth {
			branchWidth = len(row[0])
		}
		if len(row[1]) > statusWidth {
			statusWidth = len(row[1])
		}
		if len(row[2]) > portsWidth {
			portsWidth = len(row[2])
		}
		rows = append(rows, row)
	}

	var b strings.Builder
	header := fmt.Sprintf("%-*s  %-*s  %-*s  %s",
		branchWidth, "BRANCH", statusWidth, "STATUS", portsWidth, "PORTS", "CREATED")
	b.WriteString(listHeaderStyle.Render(header))
	b.WriteString("\n")
	for _, row := range rows {
		status := fmt.Sprintf("%-*s", statusWidth, row[1])
		if style, ok := listStatusStyles[row[1]]; ok {
			status = style.Render(status)
		}
		fmt.Fprintf(&b, "%-*s  %s  %-*s  %s\n",
			branchWidth, row[0], status, portsWidth, row[2], row[3])
	}
	return b.String()
}

func portList(ports map[string]int) string {
	if len(ports) == 0 {
		return "-"
	}
	names := make([]string, 0, len(ports))
	for name := range ports {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s:%d", name, ports[name]))
	}
	return strings.Join(parts, " ")
}

func formatAge(t time.Time) string {
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
