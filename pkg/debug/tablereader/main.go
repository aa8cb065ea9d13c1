// Command tablereader is an interactive browser over a reldb data
// directory: pick a table, page through its rows, see the ~del column and
// raw fixed-width padding exactly as stored. Adapted from the teacher's
// pkg/debug/heapreader, which did the same job for its paged heap files.
package main

import (
	"fmt"
	"os"
	"strings"

	"reldb/pkg/database"
	"reldb/pkg/debug/ui"
	"reldb/pkg/table"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

type keyMap struct {
	ui.CommonKeyMap
}

var keys = keyMap{CommonKeyMap: ui.CommonKeys}

type tableInfo struct {
	name    string
	columns []string
	widths  map[string]int
}

type model struct {
	dataDir       string
	db            *database.Database
	currentView   string // "loading", "menu", "table_data"
	cursor        int
	tables        []tableInfo
	selected      *tableInfo
	columnHeaders []string
	rows          [][]string
	deleted       []bool
	rowCursor     int
	scrollOffset  int
	viewport      viewport.Model
	width, height int
	err           error
}

func initialModel(dataDir string) model {
	return model{dataDir: dataDir, currentView: "loading"}
}

func (m model) Init() tea.Cmd {
	return openDatabase(m.dataDir)
}

type dbOpenedMsg struct {
	db     *database.Database
	tables []tableInfo
	err    error
}

func openDatabase(dataDir string) tea.Cmd {
	return func() tea.Msg {
		db, err := database.Open(dataDir)
		if err != nil {
			return dbOpenedMsg{err: err}
		}

		var infos []tableInfo
		for _, name := range db.TableNames() {
			t, err := db.Table(name)
			if err != nil {
				continue
			}
			widths := make(map[string]int, len(t.Order))
			for _, c := range t.Order {
				widths[c] = t.Columns[c].Length
			}
			infos = append(infos, tableInfo{name: name, columns: t.Order, widths: widths})
		}

		return dbOpenedMsg{db: db, tables: infos}
	}
}

type tableDataMsg struct {
	headers []string
	rows    [][]string
	deleted []bool
	err     error
}

func loadTableData(db *database.Database, info *tableInfo) tea.Cmd {
	return func() tea.Msg {
		t, err := db.Table(info.name)
		if err != nil {
			return tableDataMsg{err: err}
		}

		n, err := t.NumberOfRows()
		if err != nil {
			return tableDataMsg{err: err}
		}

		headers := append([]string(nil), t.Order...)
		var rows [][]string
		var deleted []bool
		for i := 0; i < n; i++ {
			row, err := t.ReadRow(i)
			if err != nil {
				continue
			}
			isDel := strings.TrimSpace(row[table.DeletedColumnName]) == table.DeletedTombstone
			line := make([]string, len(headers))
			for j, c := range headers {
				line[j] = row[c]
			}
			rows = append(rows, line)
			deleted = append(deleted, isDel)
		}

		return tableDataMsg{headers: headers, rows: rows, deleted: deleted}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case dbOpenedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, tea.Quit
		}
		m.db = msg.db
		m.tables = msg.tables
		if len(m.tables) == 0 {
			m.currentView = "no_tables"
		} else {
			m.currentView = "menu"
		}
		return m, nil

	case tableDataMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.columnHeaders = msg.headers
		m.rows = msg.rows
		m.deleted = msg.deleted
		m.rowCursor = 0
		m.currentView = "table_data"
		return m, nil

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport = viewport.New(msg.Width-4, msg.Height-10)
		return m, nil

	case tea.KeyMsg:
		switch m.currentView {
		case "menu":
			switch {
			case key.Matches(msg, keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, keys.Up):
				if m.cursor > 0 {
					m.cursor--
				}
			case key.Matches(msg, keys.Down):
				if m.cursor < len(m.tables)-1 {
					m.cursor++
				}
			case key.Matches(msg, keys.Select):
				if m.cursor < len(m.tables) {
					m.selected = &m.tables[m.cursor]
					return m, loadTableData(m.db, m.selected)
				}
			}
		case "table_data":
			switch {
			case key.Matches(msg, keys.Quit):
				return m, tea.Quit
			case key.Matches(msg, keys.Back):
				m.currentView = "menu"
				m.rows = nil
				m.columnHeaders = nil
				m.selected = nil
				return m, nil
			case key.Matches(msg, keys.Up):
				if m.rowCursor > 0 {
					m.rowCursor--
				}
			case key.Matches(msg, keys.Down):
				if m.rowCursor < len(m.rows)-1 {
					m.rowCursor++
				}
			case key.Matches(msg, keys.Left):
				if m.scrollOffset > 0 {
					m.scrollOffset--
				}
			case key.Matches(msg, keys.Right):
				m.scrollOffset++
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

	var b strings.Builder
	b.WriteString(ui.RenderTitle("▤", "Table Reader") + "\n\n")

	switch m.currentView {
	case "loading":
		b.WriteString("Opening database...\n")
	case "no_tables":
		b.WriteString("No tables found in this data directory.\n\n")
		b.WriteString(ui.HelpStyle.Render("Press q to quit"))
	case "menu":
		b.WriteString(m.renderMenu())
	case "table_data":
		b.WriteString(m.renderTableData())
	}

	b.WriteString("\n" + m.renderStatusBar())
	return b.String()
}

func (m model) renderMenu() string {
	var b strings.Builder
	b.WriteString(ui.RenderHeaderWithCount("Tables", len(m.tables)) + "\n\n")

	for i, t := range m.tables {
		line := fmt.Sprintf("%s (%d columns)", t.name, len(t.columns))
		if i == m.cursor {
			b.WriteString(ui.SelectedItemStyle.Render("▶ "+line) + "\n")
		} else {
			b.WriteString(ui.ItemStyle.Render("  "+line) + "\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(ui.HelpStyle.Render("↑/↓: navigate | enter: open table | q: quit"))
	return b.String()
}

func (m model) renderTableData() string {
	if len(m.rows) == 0 {
		return "No rows in this table.\n\n" + ui.HelpStyle.Render("Press esc to go back | q to quit")
	}

	var b strings.Builder
	b.WriteString(ui.RenderHeaderWithCount(m.selected.name, len(m.rows)) + "\n\n")

	colWidths := make([]int, len(m.columnHeaders))
	for i, h := range m.columnHeaders {
		colWidths[i] = len(h)
	}
	for _, row := range m.rows {
		for i, cell := range row {
			if len(cell) > colWidths[i] {
				colWidths[i] = len(cell)
			}
		}
	}

	maxColWidth := 24
	visibleCols := make([]int, 0)
	for i := range m.columnHeaders {
		if i >= m.scrollOffset && len(visibleCols) < 8 {
			if colWidths[i] > maxColWidth {
				colWidths[i] = maxColWidth
			}
			visibleCols = append(visibleCols, i)
		}
	}

	headers := make([]string, len(visibleCols))
	for i, c := range visibleCols {
		headers[i] = m.columnHeaders[c]
	}
	widths := make([]int, len(visibleCols))
	for i, c := range visibleCols {
		widths[i] = colWidths[c]
	}

	visibleStart := max(0, m.rowCursor-10)
	visibleEnd := min(len(m.rows), visibleStart+20)

	var data [][]string
	for i := visibleStart; i < visibleEnd; i++ {
		row := make([]string, len(visibleCols))
		for j, c := range visibleCols {
			cell := m.rows[i][c]
			if m.deleted[i] {
				cell = "†" + strings.TrimSpace(cell)
			}
			row[j] = ui.TruncateString(cell, widths[j])
		}
		data = append(data, row)
	}

	b.WriteString(ui.RenderTable(headers, data, widths, m.rowCursor-visibleStart))
	b.WriteString("\n")
	b.WriteString(ui.HelpStyle.Render("↑/↓: navigate rows | ←/→: scroll columns | † marks a tombstoned row | esc: back | q: quit"))
	return b.String()
}

func (m model) renderStatusBar() string {
	switch m.currentView {
	case "menu":
		return ui.RenderStatusBar(fmt.Sprintf(" Menu | Data Directory: %s | Tables: %d ", m.dataDir, len(m.tables)))
	case "table_data":
		if m.selected != nil {
			return ui.RenderStatusBar(fmt.Sprintf(" %s | Row: %d/%d ", m.selected.name, m.rowCursor+1, len(m.rows)))
		}
	}
	return ui.RenderStatusBar(" Loading... ")
}

func main() {
	if len(os.Args) < 2 {
		fmt.Println("Usage: tablereader <data-directory>")
		os.Exit(1)
	}

	p := tea.NewProgram(initialModel(os.Args[1]), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
