package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	appver "sysdeck/internal/version"
)

const pickerLeftWidth = 34

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)

	statusStyle = lipgloss.NewStyle().Faint(true).Padding(0, 1)

	warnStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			Padding(1, 3).
			Bold(true)

	exitBarStyle = lipgloss.NewStyle().Reverse(true).Padding(0, 1)
)

// layout resizes the picker panes to the current window.
func (m *Model) layout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	bodyH := m.height - 4 // title, filter, status, spacing
	if bodyH < 4 {
		bodyH = 4
	}
	m.tools.SetHeight(bodyH - 2)
	descW := m.width - pickerLeftWidth - 6
	if descW < 20 {
		descW = 20
	}
	m.desc.Width = descW
	m.desc.Height = bodyH - 2
}

// termSize returns the cell size the embedded terminal should use,
// reserving one row for the status line.
func (m *Model) termSize() (cols, rows int) {
	cols, rows = m.width, m.height-1
	if cols < 2 {
		cols = 80
	}
	if rows < 2 {
		rows = 24
	}
	return cols, rows
}

func (m Model) View() string {
	switch m.mode {
	case modeTerminal:
		return m.viewTerminal()
	case modeConfirm:
		return m.viewConfirm()
	default:
		return m.viewPicker()
	}
}

func (m Model) viewPicker() string {
	title := titleStyle.Render("sysdeck") +
		statusStyle.Render("v"+appver.AppVersion+" · install & repair tools")

	left := paneStyle.Render(m.tools.View())
	right := paneStyle.Width(m.desc.Width + 2).Render(m.desc.View())
	body := lipgloss.JoinHorizontal(lipgloss.Top, left, right)

	filter := m.filter.View()
	if !m.filter.Focused() && m.filter.Value() == "" {
		filter = statusStyle.Render("press / to filter · enter to launch · q to quit")
	}

	status := m.status
	if m.err != nil && status == "" {
		status = m.err.Error()
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		title,
		body,
		filter,
		statusStyle.Render(status),
	)
}

func (m Model) viewConfirm() string {
	box := warnStyle.Render(fmt.Sprintf(
		"%q makes destructive changes.\n\nRun it?  [y]es  [n]o",
		m.selected.Name,
	))
	if m.width > 0 && m.height > 0 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, box)
	}
	return box
}

func (m Model) viewTerminal() string {
	bar := exitBarStyle.Render(fmt.Sprintf(" %s · running ", m.selected.Name))
	if m.termExited {
		bar = exitBarStyle.Render(fmt.Sprintf(
			" %s exited with code %d · press any key ", m.selected.Name, m.exitCode))
	}
	return m.termOut + "\n" + bar
}
