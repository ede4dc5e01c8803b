package term

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"sysdeck/internal/vterm"
)

// cellStyle captures the attributes that matter for run grouping. Adjacent
// cells with the same cellStyle are painted in one lipgloss call.
type cellStyle struct {
	fg, bg    vterm.Color
	bold      bool
	italic    bool
	underline bool
	inverse   bool
}

func styleOf(c vterm.Cell) cellStyle {
	return cellStyle{
		fg:        c.FG,
		bg:        c.BG,
		bold:      c.Bold,
		italic:    c.Italic,
		underline: c.Underline,
		inverse:   c.Inverse,
	}
}

func (cs cellStyle) plain() bool {
	return cs == cellStyle{}
}

func lipglossColor(c vterm.Color) lipgloss.TerminalColor {
	switch c.Mode {
	case vterm.ColorIndexed:
		return lipgloss.Color(strconv.Itoa(int(c.Index)))
	case vterm.ColorRGB:
		return lipgloss.Color(fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B))
	default:
		return lipgloss.NoColor{}
	}
}

func (cs cellStyle) lipgloss() lipgloss.Style {
	st := lipgloss.NewStyle()
	if cs.fg.Mode != vterm.ColorDefault {
		st = st.Foreground(lipglossColor(cs.fg))
	}
	if cs.bg.Mode != vterm.ColorDefault {
		st = st.Background(lipglossColor(cs.bg))
	}
	if cs.bold {
		st = st.Bold(true)
	}
	if cs.italic {
		st = st.Italic(true)
	}
	if cs.underline {
		st = st.Underline(true)
	}
	if cs.inverse {
		st = st.Reverse(true)
	}
	return st
}

// RenderScreen turns a screen snapshot into styled terminal text, one line
// per row. The cursor cell is overlaid in inverse video when showCursor is
// set, the way a real terminal marks a block cursor.
func RenderScreen(scr *vterm.Screen, showCursor bool) string {
	curRow, curCol := scr.Cursor()
	var out strings.Builder
	for row := 0; row < scr.Rows(); row++ {
		if row > 0 {
			out.WriteByte('\n')
		}
		var run strings.Builder
		var runStyle cellStyle
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if runStyle.plain() {
				out.WriteString(run.String())
			} else {
				out.WriteString(runStyle.lipgloss().Render(run.String()))
			}
			run.Reset()
		}
		for col := 0; col < scr.Cols(); {
			cell, _ := scr.Cell(row, col)
			content := cell.Content
			if content == "" {
				content = " "
			}
			st := styleOf(cell)
			if showCursor && row == curRow && col == curCol {
				st.inverse = !st.inverse
			}
			if st != runStyle {
				flush()
				runStyle = st
			}
			run.WriteString(content)
			if w := runewidth.StringWidth(content); w > 1 {
				// Skip the spacer cell behind a wide grapheme.
				col += w
			} else {
				col++
			}
		}
		flush()
	}
	return out.String()
}

// Render drains pending child output and paints the current screen with the
// cursor shown while the child is still attached.
func (s *Session) Render() string {
	s.ProcessOutput()
	s.mu.Lock()
	running := s.running
	s.mu.Unlock()
	return RenderScreen(s.emu.Screen(), running)
}
