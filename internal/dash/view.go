package dash

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/lipgloss"

	"github.com/zhubert/grove/internal/orchestrator"
)

var (
	colorPrimary = lipgloss.Color("#7C3AED")
	colorMuted   = lipgloss.Color("#6B7280")
	colorText    = lipgloss.Color("#F9FAFB")
	colorSuccess = lipgloss.Color("#10B981")
	colorWarning = lipgloss.Color("#F59E0B")
	colorError   = lipgloss.Color("#EF4444")

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Background(colorPrimary).
			Padding(0, 1)

	repoStyle = lipgloss.NewStyle().
			Foreground(colorMuted).
			Italic(true)

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	portStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	noticeStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	helpKeyStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	helpDescStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	statusStyles = map[orchestrator.WorktreeStatus]lipgloss.Style{
		orchestrator.WorktreeOK:       lipgloss.NewStyle().Foreground(colorSuccess),
		orchestrator.WorktreeModified: lipgloss.NewStyle().Foreground(colorWarning),
		orchestrator.WorktreeMissing:  lipgloss.NewStyle().Foreground(colorError),
	}
)

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return ""
	}

	var b strings.Builder
	b.WriteString(headerStyle.Render("grove"))
	if m.repoName != "" {
		b.WriteString(" " + repoStyle.Render(m.repoName))
	}
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString("  " + m.spinner.View() + " Loading environments...\n")
	case len(m.items) == 0:
		b.WriteString("  No environments. Run 'grove create <branch>' to get started.\n")
	default:
		idWidth, branchWidth := m.columnWidths()
		for i, it := range m.items {
			b.WriteString(m.renderRow(it, i == m.cursor, idWidth, branchWidth))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	if m.errMsg != "" {
		b.WriteString("  " + errorStyle.Render(m.errMsg) + "\n")
	} else if m.notice != "" {
		b.WriteString("  " + noticeStyle.Render(m.notice) + "\n")
	}

	b.WriteString("\n" + m.renderHelp() + "\n")
	return b.String()
}

func (m Model) columnWidths() (int, int) {
	idWidth, branchWidth := 0, 0
	for _, it := range m.items {
		if len(it.record.ID) > idWidth {
			idWidth = len(it.record.ID)
		}
		if len(it.record.Branch) > branchWidth {
			branchWidth = len(it.record.Branch)
		}
	}
	return idWidth, branchWidth
}

// renderRow pads columns before styling so ANSI sequences never skew the
// alignment.
func (m Model) renderRow(it item, selected bool, idWidth, branchWidth int) string {
	marker := "  "
	id := fmt.Sprintf("%-*s", idWidth, it.record.ID)
	branch := fmt.Sprintf("%-*s", branchWidth, it.record.Branch)
	status := fmt.Sprintf("%-8s", string(it.status))

	if style, ok := statusStyles[it.status]; ok {
		status = style.Render(status)
	}
	if selected {
		marker = selectedStyle.Render("▸ ")
		id = selectedStyle.Render(id)
	}

	row := fmt.Sprintf("  %s%s  %s  %s", marker, id, branch, status)
	if ports := portSummary(it.record.PortMappings); ports != "" {
		row += "  " + portStyle.Render(ports)
	}
	return row
}

// portSummary formats port mappings as "name:port" pairs sorted by name.
func portSummary(mappings map[string]int) string {
	if len(mappings) == 0 {
		return ""
	}
	names := make([]string, 0, len(mappings))
	for name := range mappings {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, fmt.Sprintf("%s:%d", name, mappings[name]))
	}
	return strings.Join(pairs, " ")
}

func (m Model) renderHelp() string {
	bindings := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Open, m.keys.Refresh, m.keys.Quit}
	parts := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		parts = append(parts, helpKeyStyle.Render(h.Key)+" "+helpDescStyle.Render(h.Desc))
	}
	return "  " + strings.Join(parts, helpDescStyle.Render(" · "))
}
