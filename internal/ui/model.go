package ui

import (
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	"github.com/fsnotify/fsnotify"

	"sysdeck/internal/catalog"
	"sysdeck/internal/term"
)

// mode selects which surface owns the keyboard.
type mode int

const (
	modePicker mode = iota
	modeConfirm
	modeTerminal
)

// Model is the dashboard's bubbletea model: a tool picker with a markdown
// detail pane, an inline confirm step for destructive tools, and an embedded
// terminal that hands the screen to the selected tool.
type Model struct {
	width  int
	height int

	cat         catalog.Catalog
	catalogPath string

	mode     mode
	tools    table.Model
	filter   textinput.Model
	filtered []catalog.Tool
	desc     viewport.Model

	selected catalog.Tool

	session    *term.Session
	termOut    string
	termExited bool
	exitCode   int

	watcher *fsnotify.Watcher
	watchCh chan struct{}

	status string
	err    error
}

// InitialModel builds the picker over the given catalog. catalogPath is
// watched for live reloads; it may point at a file that does not exist yet.
func InitialModel(cat catalog.Catalog, catalogPath string) Model {
	ti := textinput.New()
	ti.Placeholder = "filter tools"
	ti.Prompt = "/ "
	ti.CharLimit = 64

	cols := []table.Column{
		{Title: "Tool", Width: 16},
		{Title: "Category", Width: 10},
		{Title: " ", Width: 2},
	}
	tb := table.New(
		table.WithColumns(cols),
		table.WithFocused(true),
		table.WithHeight(10),
	)

	m := Model{
		cat:         cat,
		catalogPath: catalogPath,
		tools:       tb,
		filter:      ti,
		desc:        viewport.New(40, 10),
	}
	m.applyFilter()
	return m
}

// applyFilter rebuilds the table rows from the current filter query and
// keeps the selection on a valid row.
func (m *Model) applyFilter() {
	m.filtered = m.cat.Filter(m.filter.Value())
	rows := make([]table.Row, 0, len(m.filtered))
	for _, t := range m.filtered {
		mark := " "
		if t.Destructive {
			mark = "!"
		}
		rows = append(rows, table.Row{t.Name, t.Category, mark})
	}
	m.tools.SetRows(rows)
	if m.tools.Cursor() >= len(rows) {
		m.tools.SetCursor(0)
	}
}

// current returns the tool under the table cursor.
func (m *Model) current() (catalog.Tool, bool) {
	i := m.tools.Cursor()
	if i < 0 || i >= len(m.filtered) {
		return catalog.Tool{}, false
	}
	return m.filtered[i], true
}
