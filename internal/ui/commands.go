package ui

import (
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/fsnotify/fsnotify"

	"sysdeck/internal/catalog"
	"sysdeck/internal/term"
)

type (
	descRenderedMsg struct {
		name string
		body string
	}
	toolStartedMsg struct{ s *term.Session }
	toolErrMsg     struct{ err error }
	termTickMsg    struct{}

	watchStartedMsg struct {
		w  *fsnotify.Watcher
		ch chan struct{}
	}
	catalogChangedMsg  struct{}
	catalogReloadedMsg struct {
		cat catalog.Catalog
		err error
	}
)

// renderDescCmd renders a tool's markdown description off the update loop.
func renderDescCmd(t catalog.Tool, width int) tea.Cmd {
	return func() tea.Msg {
		if width <= 0 {
			width = 60
		}
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
		if err != nil {
			return descRenderedMsg{name: t.Name, body: t.Description}
		}
		out, err := r.Render("# " + t.Name + "\n\n" + t.Description)
		if err != nil {
			return descRenderedMsg{name: t.Name, body: t.Description}
		}
		return descRenderedMsg{name: t.Name, body: out}
	}
}

// spawnToolCmd starts the tool on a fresh PTY session sized to the embedded
// terminal area.
func spawnToolCmd(t catalog.Tool, cols, rows int) tea.Cmd {
	return func() tea.Msg {
		if cols < 2 || rows < 2 {
			cols, rows = 80, 24
		}
		s := term.NewSession(cols, rows)
		if err := s.SpawnCommand(t.Command, t.Args...); err != nil {
			return toolErrMsg{err: err}
		}
		return toolStartedMsg{s: s}
	}
}

// sendKeyCmd forwards a key press to the child off the update loop so a
// full PTY buffer cannot stall the UI.
func sendKeyCmd(s *term.Session, k tea.KeyMsg) tea.Cmd {
	return func() tea.Msg {
		_ = s.SendKey(k)
		return nil
	}
}

// termTickCmd drives the embedded terminal redraw (~20fps).
func termTickCmd() tea.Cmd {
	return tea.Tick(50*time.Millisecond, func(time.Time) tea.Msg { return termTickMsg{} })
}

// startWatchCmd watches the catalog file's directory and coalesces change
// events onto a single-slot channel.
func startWatchCmd(path string) tea.Cmd {
	return func() tea.Msg {
		if path == "" {
			return nil
		}
		w, err := fsnotify.NewWatcher()
		if err != nil {
			return nil
		}
		// Watch the directory: editors replace files, which drops a watch
		// on the file itself.
		_ = w.Add(filepath.Dir(path))
		ch := make(chan struct{}, 1)
		go func() {
			for {
				select {
				case ev, ok := <-w.Events:
					if !ok {
						return
					}
					if ev.Name != path {
						continue
					}
					select {
					case ch <- struct{}{}:
					default:
					}
				case _, ok := <-w.Errors:
					if !ok {
						return
					}
				}
			}
		}()
		return watchStartedMsg{w: w, ch: ch}
	}
}

func watchSubscribeCmd(ch <-chan struct{}) tea.Cmd {
	return func() tea.Msg {
		if ch == nil {
			return nil
		}
		<-ch
		// Let the editor finish writing before reloading.
		time.Sleep(120 * time.Millisecond)
		return catalogChangedMsg{}
	}
}

func reloadCatalogCmd(path string) tea.Cmd {
	return func() tea.Msg {
		cat, err := catalog.LoadFile(path)
		return catalogReloadedMsg{cat: cat, err: err}
	}
}
