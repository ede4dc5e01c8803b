package ui

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"sysdeck/internal/catalog"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEscape}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestFilterNarrowsRows(t *testing.T) {
	m := InitialModel(catalog.Default(), "")
	total := len(m.filtered)
	m.filter.SetValue("htop")
	m.applyFilter()
	if len(m.filtered) == 0 || len(m.filtered) >= total {
		t.Fatalf("filtered = %d of %d", len(m.filtered), total)
	}
	if m.filtered[0].Name != "htop" {
		t.Fatalf("best match = %q", m.filtered[0].Name)
	}
	m.filter.SetValue("")
	m.applyFilter()
	if len(m.filtered) != total {
		t.Fatalf("reset filter kept %d of %d", len(m.filtered), total)
	}
}

func TestDestructiveToolRequiresConfirm(t *testing.T) {
	m := InitialModel(catalog.Default(), "")
	// First row of the default catalog is cfdisk (category disk, destructive).
	if m.filtered[0].Name != "cfdisk" || !m.filtered[0].Destructive {
		t.Fatalf("unexpected first row: %+v", m.filtered[0])
	}
	next, cmd := m.Update(keyMsg("enter"))
	m = next.(Model)
	if m.mode != modeConfirm {
		t.Fatalf("mode = %d, want confirm", m.mode)
	}
	if cmd != nil {
		t.Fatal("tool spawned before confirmation")
	}
	next, _ = m.Update(keyMsg("n"))
	m = next.(Model)
	if m.mode != modePicker {
		t.Fatalf("mode after decline = %d, want picker", m.mode)
	}
}

func TestConfirmAcceptSpawns(t *testing.T) {
	m := InitialModel(catalog.Default(), "")
	m.selected = m.filtered[0]
	m.mode = modeConfirm
	next, cmd := m.Update(keyMsg("y"))
	m = next.(Model)
	if cmd == nil {
		t.Fatal("accept produced no spawn command")
	}
	if m.mode != modePicker {
		t.Fatalf("mode = %d", m.mode)
	}
}

func TestTerminalExitAnyKeyReturns(t *testing.T) {
	m := InitialModel(catalog.Default(), "")
	m.mode = modeTerminal
	m.termExited = true
	m.exitCode = 0
	m.selected = m.filtered[0]
	next, _ := m.Update(keyMsg("x"))
	m = next.(Model)
	if m.mode != modePicker {
		t.Fatalf("mode = %d, want picker after exit key", m.mode)
	}
	if m.status == "" {
		t.Fatal("no exit status reported")
	}
}

func TestCatalogReloadRefreshesRows(t *testing.T) {
	m := InitialModel(catalog.Default(), "")
	small := catalog.Catalog{Tools: []catalog.Tool{{Name: "only", Command: "true", Category: "system"}}}
	next, _ := m.Update(catalogReloadedMsg{cat: small})
	m = next.(Model)
	if len(m.filtered) != 1 || m.filtered[0].Name != "only" {
		t.Fatalf("rows after reload = %+v", m.filtered)
	}
}
