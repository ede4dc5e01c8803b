package ui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"sysdeck/internal/system"
)

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{startWatchCmd(m.catalogPath)}
	if t, ok := m.current(); ok {
		cmds = append(cmds, renderDescCmd(t, m.desc.Width))
	}
	return tea.Batch(cmds...)
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.layout()
		if m.mode == modeTerminal && m.session != nil {
			cols, rows := m.termSize()
			if err := m.session.Resize(cols, rows); err != nil {
				system.Logger.Warn("resize failed", "err", err)
			}
		}
		if t, ok := m.current(); ok {
			return m, renderDescCmd(t, m.desc.Width)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.mode {
		case modeTerminal:
			return m.updateTerminalKey(msg)
		case modeConfirm:
			return m.updateConfirmKey(msg)
		default:
			return m.updatePickerKey(msg)
		}

	case descRenderedMsg:
		if t, ok := m.current(); ok && t.Name == msg.name {
			m.desc.SetContent(msg.body)
			m.desc.GotoTop()
		}
		return m, nil

	case toolStartedMsg:
		m.session = msg.s
		m.mode = modeTerminal
		m.termExited = false
		m.termOut = ""
		m.status = ""
		system.Logger.Info("tool started", "tool", m.selected.Name, "pid", msg.s.Pid())
		return m, termTickCmd()

	case toolErrMsg:
		m.err = msg.err
		m.status = msg.err.Error()
		m.mode = modePicker
		system.Logger.Error("tool failed to start", "tool", m.selected.Name, "err", msg.err)
		return m, nil

	case termTickMsg:
		if m.mode != modeTerminal || m.session == nil {
			return m, nil
		}
		m.termOut = m.session.Render()
		if !m.session.IsRunning() && !m.termExited {
			m.termExited = true
			m.exitCode = m.session.ExitCode()
			// One more drain so the tail of the output is on screen.
			m.termOut = m.session.Render()
			system.Logger.Info("tool exited", "tool", m.selected.Name, "code", m.exitCode)
			return m, nil
		}
		if m.termExited {
			return m, nil
		}
		return m, termTickCmd()

	case watchStartedMsg:
		m.watcher = msg.w
		m.watchCh = msg.ch
		return m, watchSubscribeCmd(m.watchCh)

	case catalogChangedMsg:
		return m, tea.Batch(reloadCatalogCmd(m.catalogPath), watchSubscribeCmd(m.watchCh))

	case catalogReloadedMsg:
		if msg.err != nil {
			m.status = "catalog reload failed: " + msg.err.Error()
			return m, nil
		}
		m.cat = msg.cat
		m.applyFilter()
		m.status = fmt.Sprintf("catalog reloaded (%d tools)", len(m.cat.Tools))
		if t, ok := m.current(); ok {
			return m, renderDescCmd(t, m.desc.Width)
		}
		return m, nil
	}

	return m, nil
}

func (m Model) updatePickerKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.filter.Focused() {
		switch k.String() {
		case "enter", "esc":
			m.filter.Blur()
			return m, nil
		case "ctrl+c":
			return m.quit()
		}
		var cmd tea.Cmd
		m.filter, cmd = m.filter.Update(k)
		m.applyFilter()
		cmds := []tea.Cmd{cmd}
		if t, ok := m.current(); ok {
			cmds = append(cmds, renderDescCmd(t, m.desc.Width))
		}
		return m, tea.Batch(cmds...)
	}

	switch k.String() {
	case "q", "ctrl+c":
		return m.quit()
	case "/":
		m.filter.Focus()
		return m, nil
	case "enter":
		t, ok := m.current()
		if !ok {
			return m, nil
		}
		m.selected = t
		if t.Destructive {
			m.mode = modeConfirm
			return m, nil
		}
		cols, rows := m.termSize()
		return m, spawnToolCmd(t, cols, rows)
	}

	before := m.tools.Cursor()
	var cmd tea.Cmd
	m.tools, cmd = m.tools.Update(k)
	if m.tools.Cursor() != before {
		if t, ok := m.current(); ok {
			return m, tea.Batch(cmd, renderDescCmd(t, m.desc.Width))
		}
	}
	return m, cmd
}

func (m Model) updateConfirmKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "y", "enter":
		m.mode = modePicker
		cols, rows := m.termSize()
		return m, spawnToolCmd(m.selected, cols, rows)
	case "n", "esc", "q":
		m.mode = modePicker
		m.status = "cancelled"
		return m, nil
	case "ctrl+c":
		return m.quit()
	}
	return m, nil
}

func (m Model) updateTerminalKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.termExited {
		// Any key returns to the picker.
		m.closeSession()
		m.mode = modePicker
		m.status = fmt.Sprintf("%s exited with code %d", m.selected.Name, m.exitCode)
		return m, nil
	}
	// The child owns the keyboard, modifiers included.
	return m, sendKeyCmd(m.session, k)
}

// quit tears everything down. Child cleanup is also guaranteed by the
// process guard in app, this just makes the common path immediate.
func (m Model) quit() (tea.Model, tea.Cmd) {
	m.closeSession()
	if m.watcher != nil {
		_ = m.watcher.Close()
	}
	return m, tea.Quit
}

func (m *Model) closeSession() {
	if m.session != nil {
		m.session.Close()
		m.session = nil
	}
}
