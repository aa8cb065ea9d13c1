// Command logreader pages through one table's .log audit trail: append-only
// lines of "<unix_seconds>\t<Kind>\t<details>" written by pkg/table's
// appendLog. Adapted from the teacher's pkg/debug/logreader, which browsed
// its write-ahead log in the same list/detail shape; this engine's log is
// not consulted for recovery (spec.md §1), so there is no LSN chain or
// before/after image to show, only a flat audit history.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"reldb/pkg/debug/ui"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type keyMap struct {
	ui.CommonKeyMap
}

var keys = keyMap{CommonKeyMap: ui.CommonKeys}

// entry is one parsed audit log line.
type entry struct {
	at      time.Time
	kind    string
	details string
}

type model struct {
	logPath    string
	entries    []entry
	cursor     int
	selected   *entry
	detailMode bool
	viewport   viewport.Model
	width      int
	height     int
	err        error
}

func initialModel(logPath string) model {
	return model{logPath: logPath}
}

func (m model) Init() tea.Cmd {
	return loadEntries(m.logPath)
}

type entriesLoadedMsg struct {
	entries []entry
	err     error
}

func loadEntries(logPath string) tea.Cmd {
	return func() tea.Msg {
		f, err := os.Open(logPath)
		if err != nil {
			return entriesLoadedMsg{err: err}
		}
		defer f.Close()

		var entries []entry
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			parts := strings.SplitN(scanner.Text(), "\t", 3)
			if len(parts) != 3 {
				continue
			}
			sec, err := strconv.ParseInt(parts[0], 10, 64)
			if err != nil {
				continue
			}
			entries = append(entries, entry{
				at:      time.Unix(sec, 0),
				kind:    parts[1],
				details: parts[2],
			})
		}
		if err := scanner.Err(); err != nil {
			return entriesLoadedMsg{err: err}
		}

		return entriesLoadedMsg{entries: entries}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case entriesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.entries = msg.entries
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport = viewport.New(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		if m.detailMode {
			switch {
			case key.Matches(msg, keys.Back):
				m.detailMode = false
				return m, nil
			case key.Matches(msg, keys.Quit):
				return m, tea.Quit
			}
		} else {
			switch {
			case key.Matches(msg, keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, keys.Up):
				if m.cursor > 0 {
					m.cursor--
				}
			case key.Matches(msg, keys.Down):
				if m.cursor < len(m.entries)-1 {
					m.cursor++
				}
			case key.Matches(msg, keys.Select):
				if m.cursor < len(m.entries) {
					m.selected = &m.entries[m.cursor]
					m.detailMode = true
					m.viewport.SetContent(m.renderDetailView())
				}
			}
		}
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m model) View() string {
	if m.err != nil {
		return ui.ErrorStyle.Render(fmt.Sprintf("Error: %v\n\nPress q to quit.", m.err))
	}

	if len(m.entries) == 0 {
		return "Loading audit log...\n"
	}

	var b strings.Builder
	b.WriteString(ui.RenderTitle("▤", "Table Audit Log Viewer") + "\n\n")

	if m.detailMode {
		b.WriteString(m.viewport.View())
		b.WriteString("\n\n")
		b.WriteString(ui.HelpStyle.Render("Press esc to go back | q to quit"))
	} else {
		b.WriteString(m.renderListView())
	}

	b.WriteString("\n" + m.renderStatusBar())
	return b.String()
}

func (m model) renderListView() string {
	var b strings.Builder
	b.WriteString(ui.RenderHeaderWithCount("Entries", len(m.entries)) + "\n\n")

	visibleStart := max(0, m.cursor-10)
	visibleEnd := min(len(m.entries), visibleStart+20)
	for i := visibleStart; i < visibleEnd; i++ {
		line := m.formatEntryLine(m.entries[i], i)
		if i == m.cursor {
			line = ui.SelectedItemStyle.Render("▶ " + line)
		} else {
			line = ui.ItemStyle.Render("  " + line)
		}
		b.WriteString(line + "\n")
	}

	b.WriteString("\n")
	b.WriteString(ui.HelpStyle.Render("↑/↓: navigate | enter: view details | q: quit"))
	return b.String()
}

func (m model) formatEntryLine(e entry, index int) string {
	kindStr := m.colorizeKind(e.kind)
	timeStr := lipgloss.NewStyle().Foreground(ui.MutedColor).Render(e.at.Format("15:04:05"))
	details := ui.TruncateString(e.details, 40)
	return fmt.Sprintf("[%4d] %s │ %s │ %s", index+1, kindStr, timeStr, details)
}

func (m model) colorizeKind(kind string) string {
	var color lipgloss.Color
	switch kind {
	case "Insert":
		color = lipgloss.Color(ui.SuccessColor.Dark)
	case "Update":
		color = lipgloss.Color(ui.WarningColor.Dark)
	case "Delete":
		color = lipgloss.Color(ui.ErrorColor.Dark)
	case "AddColumn", "DeleteColumn":
		color = lipgloss.Color(ui.SecondaryColor.Dark)
	default:
		color = lipgloss.Color(ui.MutedColor.Dark)
	}
	return lipgloss.NewStyle().Foreground(color).Bold(true).Render(fmt.Sprintf("%-12s", kind))
}

func (m model) renderDetailView() string {
	if m.selected == nil {
		return "No entry selected"
	}

	var b strings.Builder
	e := m.selected

	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(ui.PrimaryColor).Render("Entry Details") + "\n\n")
	b.WriteString(m.renderKeyValue("Kind", e.kind))
	b.WriteString(m.renderKeyValue("Time", e.at.Format("2006-01-02 15:04:05")))
	b.WriteString(m.renderKeyValue("Details", e.details))

	return ui.DetailStyle.Render(b.String())
}

func (m model) renderKeyValue(key, value string) string {
	return fmt.Sprintf("%s %s\n", ui.LabelStyle.Render(key+":"), ui.ValueStyle.Render(value))
}

func (m model) renderStatusBar() string {
	position := fmt.Sprintf("%d/%d", m.cursor+1, len(m.entries))
	if m.detailMode {
		return ui.RenderStatusBar(fmt.Sprintf(" Detail View | Position: %s ", position))
	}
	return ui.RenderStatusBar(fmt.Sprintf(" List View | Position: %s | %s ", position, m.logPath))
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: logreader <path-to-table.log>")
		os.Exit(1)
	}

	p := tea.NewProgram(initialModel(os.Args[1]), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
