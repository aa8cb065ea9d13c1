// Package inspector is the interactive terminal UI for browsing a reldb
// data directory: a line-oriented pipeline editor that builds an ra.View
// step by step (see pipeline.go) and a results table, in place of the SQL
// REPL the teacher built on top of its own query engine.
package inspector

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"reldb/pkg/database"
	"reldb/pkg/metrics"
	"reldb/pkg/ra/script"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// result is the inspector's equivalent of a query result: either a result
// table (from running a pipeline) or a plain message (from a sidebar
// command like show-tables/show-stats).
type result struct {
	columns      []string
	rows         [][]string
	message      string
	rowsAffected int
}

// Model is the inspector's top-level Bubble Tea model.
type Model struct {
	db           *database.Database
	pipelineEdit textarea.Model
	resultView   viewport.Model
	resultTable  table.Model
	spinner      spinner.Model
	help         help.Model

	width     int
	height    int
	executing bool
	showHelp  bool

	lastResult   result
	lastError    error
	lastDuration time.Duration

	keys keyMap
}

// NewModel builds an inspector over an already-open database.
func NewModel(db *database.Database) Model {
	ta := textarea.New()
	ta.Placeholder = "prepare orders\nselect status eq shipped\nproject id,status"
	ta.CharLimit = 5000
	ta.ShowLineNumbers = true
	ta.SetHeight(6)
	ta.Focus()

	ta.FocusedStyle.CursorLine = lipgloss.NewStyle().Background(bgLight)
	ta.FocusedStyle.Placeholder = lipgloss.NewStyle().Foreground(textMuted)
	ta.FocusedStyle.Text = lipgloss.NewStyle().Foreground(textPrimary)
	ta.FocusedStyle.LineNumber = lipgloss.NewStyle().Foreground(textMuted)

	vp := viewport.New(80, 10)
	vp.Style = resultStyle

	t := table.New(
		table.WithColumns([]table.Column{{Title: "Results", Width: 80}}),
		table.WithRows([]table.Row{}),
		table.WithFocused(false),
		table.WithHeight(10),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(primaryColor).
		BorderBottom(true).
		Bold(true).
		Foreground(primaryColor)
	s.Selected = s.Selected.
		Foreground(bgDark).
		Background(secondaryColor).
		Bold(false)
	t.SetStyles(s)

	sp := spinner.New()
	sp.Spinner = spinner.Points
	sp.Style = lipgloss.NewStyle().Foreground(primaryColor)

	return Model{
		db:           db,
		pipelineEdit: ta,
		resultView:   vp,
		resultTable:  t,
		spinner:      sp,
		help:         help.New(),
		keys:         keys,
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, textarea.Blink)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()

	case tea.KeyMsg:
		if m.executing {
			return m, nil
		}

		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Execute):
			text := m.pipelineEdit.Value()
			if strings.TrimSpace(text) != "" {
				m.executing = true
				return m, m.runPipeline(text)
			}

		case key.Matches(msg, m.keys.Clear):
			m.pipelineEdit.SetValue("")
			m.lastResult = result{}
			m.lastError = nil

		case key.Matches(msg, m.keys.ShowTables):
			return m, m.showTables()

		case key.Matches(msg, m.keys.ShowStats):
			return m, m.showStats()

		case key.Matches(msg, m.keys.Help):
			m.showHelp = !m.showHelp
		}

	case pipelineResultMsg:
		m.executing = false
		m.lastResult = msg.result
		m.lastError = msg.err
		m.lastDuration = msg.duration
		if msg.err == nil {
			m.updateResultDisplay()
		}

	case spinner.TickMsg:
		if m.executing {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}
	}

	if !m.executing {
		var cmd tea.Cmd
		m.pipelineEdit, cmd = m.pipelineEdit.Update(msg)
		cmds = append(cmds, cmd)

		m.resultView, cmd = m.resultView.Update(msg)
		cmds = append(cmds, cmd)

		m.resultTable, cmd = m.resultTable.Update(msg)
		cmds = append(cmds, cmd)
	}

	return m, tea.Batch(cmds...)
}

func (m Model) View() string {
	var sections []string

	sections = append(sections, m.renderHeader())
	sections = append(sections, m.renderPipelineEditor())

	switch {
	case m.executing:
		sections = append(sections, m.renderExecuting())
	case m.lastError != nil:
		sections = append(sections, m.renderError())
	case len(m.lastResult.rows) > 0:
		sections = append(sections, m.renderResultTable())
	case m.lastResult.message != "":
		sections = append(sections, m.renderMessage())
	}

	sections = append(sections, m.renderStatusBar())

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	}

	return appStyle.Render(strings.Join(sections, "\n"))
}

func (m Model) renderHelp() string {
	helpText := m.help.FullHelpView([][]key.Binding{
		{m.keys.Execute, m.keys.Clear, m.keys.ShowTables, m.keys.ShowStats, m.keys.Help, m.keys.Quit},
	})
	return lipgloss.NewStyle().
		Border(lipgloss.DoubleBorder()).
		BorderForeground(primaryColor).
		Padding(1, 2).
		Background(bgMedium).
		Render(helpText)
}

func (m Model) renderHeader() string {
	names := m.db.TableNames()

	title := titleStyle.Render("reldb inspector")
	badge := dbBadgeStyle.Render(fmt.Sprintf("dir %s", m.db.Dir()))
	tables := lipgloss.NewStyle().
		Foreground(textSecondary).
		Render(fmt.Sprintf("Tables: %d", len(names)))

	header := lipgloss.JoinHorizontal(lipgloss.Left, title, "  ", badge, "  ", tables)

	separatorWidth := m.width - 4
	if separatorWidth < 0 {
		separatorWidth = 0
	}
	sep := lipgloss.NewStyle().Foreground(bgLight).Render(strings.Repeat("─", separatorWidth))

	return header + "\n" + sep
}

func (m Model) renderPipelineEditor() string {
	label := lipgloss.NewStyle().Foreground(primaryColor).Bold(true).Render("Pipeline")
	editor := editorStyle.Render(m.pipelineEdit.View())
	return fmt.Sprintf("%s\n%s", label, editor)
}

func (m Model) renderExecuting() string {
	content := lipgloss.JoinHorizontal(lipgloss.Left, m.spinner.View(), " running pipeline...")
	return lipgloss.NewStyle().Foreground(primaryColor).Padding(1, 0).Render(content)
}

func (m Model) renderError() string {
	icon := errorStyle.Render(" ⚠ ERROR ")
	message := lipgloss.NewStyle().Foreground(errorColor).Render(m.lastError.Error())
	content := fmt.Sprintf("%s %s", icon, message)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(errorColor).
		Padding(0, 1).
		Render(content)
}

func (m Model) renderResultTable() string {
	columns := make([]table.Column, len(m.lastResult.columns))
	for i, col := range m.lastResult.columns {
		columns[i] = table.Column{Title: col, Width: m.calculateColumnWidth(col, i)}
	}

	rows := make([]table.Row, len(m.lastResult.rows))
	for i, row := range m.lastResult.rows {
		rows[i] = table.Row(row)
	}

	m.resultTable.SetColumns(columns)
	m.resultTable.SetRows(rows)

	header := lipgloss.NewStyle().
		Foreground(accentColor).
		Bold(true).
		Render(fmt.Sprintf("✓ %d rows in %v", len(rows), m.lastDuration))

	return fmt.Sprintf("%s\n%s", header, m.resultTable.View())
}

func (m Model) renderMessage() string {
	icon := successStyle.Render(" ✓ ")
	message := m.lastResult.message
	if m.lastResult.rowsAffected > 0 {
		message = fmt.Sprintf("%s (rows: %d)", message, m.lastResult.rowsAffected)
	}
	return lipgloss.NewStyle().Foreground(accentColor).Padding(1, 0).Render(fmt.Sprintf("%s %s", icon, message))
}

func (m Model) renderStatusBar() string {
	status := "● ready"
	timer := ""
	if m.lastDuration > 0 {
		timer = fmt.Sprintf(" | last run: %v", m.lastDuration)
	}
	helpHint := " | ctrl+h for help"
	content := lipgloss.NewStyle().Foreground(accentColor).Render(status) +
		lipgloss.NewStyle().Foreground(textMuted).Render(timer+helpHint)
	return statusBarStyle.Width(m.width - 4).Render(content)
}

func (m Model) calculateColumnWidth(columnName string, index int) int {
	const maxWidth, minWidth = 30, 10
	width := len(columnName) + 2
	for _, row := range m.lastResult.rows {
		if index < len(row) && len(row[index])+2 > width {
			width = len(row[index]) + 2
		}
	}
	if width < minWidth {
		width = minWidth
	} else if width > maxWidth {
		width = maxWidth
	}
	return width
}

func (m *Model) updateLayout() {
	editorHeight := 6
	resultHeight := m.height - editorHeight - 10

	m.pipelineEdit.SetWidth(m.width - 6)
	m.resultView.Width = m.width - 6
	m.resultView.Height = resultHeight
	m.resultTable.SetHeight(resultHeight)
}

func (m *Model) updateResultDisplay() {
	if len(m.lastResult.rows) > 0 {
		m.resultTable.Focus()
	}
}

type pipelineResultMsg struct {
	result   result
	err      error
	duration time.Duration
}

func (m Model) runPipeline(text string) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()

		steps, err := parsePipeline(text)
		if err != nil {
			return pipelineResultMsg{err: err, duration: time.Since(start)}
		}

		v, err := script.Run(m.db, steps)
		if err != nil {
			return pipelineResultMsg{err: err, duration: time.Since(start)}
		}

		aliases := v.Aliases()
		sort.Strings(aliases)

		n := v.NumberOfRows()
		rows := make([][]string, n)
		for i := 0; i < n; i++ {
			row, err := v.ReadRow(i)
			if err != nil {
				return pipelineResultMsg{err: err, duration: time.Since(start)}
			}
			line := make([]string, len(aliases))
			for j, a := range aliases {
				line[j] = strings.TrimSpace(row[a])
			}
			rows[i] = line
		}

		return pipelineResultMsg{
			result:   result{columns: aliases, rows: rows},
			duration: time.Since(start),
		}
	}
}

func (m Model) showTables() tea.Cmd {
	return func() tea.Msg {
		names := m.db.TableNames()
		sort.Strings(names)

		rows := make([][]string, len(names))
		for i, name := range names {
			t, err := m.db.Table(name)
			if err != nil {
				rows[i] = []string{name, "?"}
				continue
			}
			n, _ := t.NumberOfRows()
			rows[i] = []string{name, fmt.Sprintf("%d", n)}
		}

		return pipelineResultMsg{
			result: result{columns: []string{"table", "rows"}, rows: rows, message: "tables"},
		}
	}
}

func (m Model) showStats() tea.Cmd {
	return func() tea.Msg {
		snap := metrics.Current()
		rows := [][]string{
			{"rows inserted", fmt.Sprintf("%d", snap.RowsInserted)},
			{"rows updated", fmt.Sprintf("%d", snap.RowsUpdated)},
			{"rows deleted", fmt.Sprintf("%d", snap.RowsDeleted)},
			{"trigger fires", fmt.Sprintf("%d", snap.TriggerFires)},
			{"lock conflicts", fmt.Sprintf("%d", snap.LockConflicts)},
			{"rollbacks", fmt.Sprintf("%d", snap.Rollbacks)},
		}
		return pipelineResultMsg{
			result: result{columns: []string{"metric", "value"}, rows: rows, message: "process counters"},
		}
	}
}
