// Package dash renders a live overview of grove environments: a full-screen
// list with branch, on-disk status, and allocated ports, plus keys to open
// an environment in the editor.
package dash

import (
	"context"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zhubert/grove/internal/config"
	"github.com/zhubert/grove/internal/editor"
	"github.com/zhubert/grove/internal/orchestrator"
	"github.com/zhubert/grove/internal/state"
)

// Provider supplies the environment data the dashboard renders.
// *orchestrator.Manager implements it.
type Provider interface {
	List() []state.Record
	Status(ctx context.Context, env state.Environment) orchestrator.WorktreeStatus
}

// item is one rendered row: a tracked environment plus its queried status.
type item struct {
	record state.Record
	status orchestrator.WorktreeStatus
}

type environmentsLoadedMsg struct {
	items []item
}

type editorOpenedMsg struct {
	branch string
	err    error
}

// Model is the top-level bubbletea model for the dashboard.
type Model struct {
	provider Provider
	cfg      *config.Config
	repoName string
	keys     KeyMap

	width  int
	height int
	ready  bool

	items   []item
	cursor  int
	loading bool
	spinner spinner.Model

	notice string
	errMsg string
}

// NewModel creates a dashboard over the given environment provider.
func NewModel(provider Provider, cfg *config.Config, repoName string) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = spinnerStyle

	return Model{
		provider: provider,
		cfg:      cfg,
		repoName: repoName,
		keys:     DefaultKeyMap,
		loading:  true,
		spinner:  sp,
	}
}

// Init implements tea.Model. Kicks off the first environment load.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, loadEnvironments(m.provider))
}

// loadEnvironments returns a tea.Cmd that lists environments and queries
// each one's on-disk status.
func loadEnvironments(provider Provider) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		records := provider.List()
		items := make([]item, 0, len(records))
		for _, rec := range records {
			items = append(items, item{
				record: rec,
				status: provider.Status(ctx, rec.Environment),
			})
		}
		return environmentsLoadedMsg{items: items}
	}
}

// openEditor returns a tea.Cmd that launches the configured editor on the
// environment's worktree path.
func openEditor(cfg *config.Config, branch, path string) tea.Cmd {
	return func() tea.Msg {
		command, err := editor.Resolve(cfg.Editor.Command)
		if err != nil {
			return editorOpenedMsg{branch: branch, err: err}
		}
		return editorOpenedMsg{branch: branch, err: editor.Open(command, path)}
	}
}

// Update implements tea.Model.
func (m Model) Update(message tea.Msg) (tea.Model, tea.Cmd) {
	switch message := message.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(message, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(message, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}

		case key.Matches(message, m.keys.Down):
			if m.cursor < len(m.items)-1 {
				m.cursor++
			}

		case key.Matches(message, m.keys.Refresh):
			m.loading = true
			m.errMsg = ""
			m.notice = ""
			return m, tea.Batch(m.spinner.Tick, loadEnvironments(m.provider))

		case key.Matches(message, m.keys.Open):
			if m.cursor < len(m.items) {
				selected := m.items[m.cursor]
				if selected.status == orchestrator.WorktreeMissing {
					m.errMsg = "worktree is missing on disk"
					return m, nil
				}
				return m, openEditor(m.cfg, selected.record.Branch, selected.record.Path)
			}
		}

	case tea.WindowSizeMsg:
		m.width = message.Width
		m.height = message.Height
		m.ready = true

	case environmentsLoadedMsg:
		m.items = message.items
		m.loading = false
		if m.cursor >= len(m.items) {
			m.cursor = len(m.items) - 1
		}
		if m.cursor < 0 {
			m.cursor = 0
		}

	case editorOpenedMsg:
		if message.err != nil {
			m.errMsg = message.err.Error()
		} else {
			m.notice = "Opened " + message.branch + " in editor"
		}

	case spinner.TickMsg:
		if m.loading {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(message)
			return m, cmd
		}
	}

	return m, nil
}

// Run starts the dashboard in the alternate screen.
func Run(provider Provider, cfg *config.Config, repoName string) error {
	program := tea.NewProgram(NewModel(provider, cfg, repoName), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
