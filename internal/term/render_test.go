package term

import (
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/muesli/termenv"

	"sysdeck/internal/vterm"
)

func TestMain(m *testing.M) {
	// Force a real color profile so styled runs render escape sequences
	// even without a TTY attached to the test process.
	lipgloss.SetColorProfile(termenv.TrueColor)
	m.Run()
}

func TestRenderScreenPlainText(t *testing.T) {
	e := vterm.New(2, 10, 0)
	e.Process([]byte("hi"))
	out := RenderScreen(e.Screen(), false)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("line count = %d, want 2", len(lines))
	}
	if got := strings.TrimRight(ansi.Strip(lines[0]), " "); got != "hi" {
		t.Fatalf("line 0 = %q, want %q", got, "hi")
	}
	if strings.Contains(out, "\x1b[") {
		t.Fatalf("plain screen rendered escapes: %q", out)
	}
}

func TestRenderScreenStyledRun(t *testing.T) {
	e := vterm.New(1, 10, 0)
	e.Process([]byte("\x1b[1;31mab\x1b[0mcd"))
	out := RenderScreen(e.Screen(), false)
	if !strings.Contains(out, "\x1b[") {
		t.Fatalf("styled cells rendered no escapes: %q", out)
	}
	if got := strings.TrimRight(ansi.Strip(out), " "); got != "abcd" {
		t.Fatalf("stripped = %q, want %q", got, "abcd")
	}
}

func TestRenderScreenCursorOverlay(t *testing.T) {
	e := vterm.New(1, 10, 0)
	e.Process([]byte("ab"))
	with := RenderScreen(e.Screen(), true)
	without := RenderScreen(e.Screen(), false)
	if with == without {
		t.Fatal("cursor overlay changed nothing")
	}
	if !strings.Contains(with, "\x1b[7m") {
		t.Fatalf("no inverse-video sequence in %q", with)
	}
	if strings.Contains(without, "\x1b[") {
		t.Fatalf("hidden cursor still styled: %q", without)
	}
}

func TestRenderScreenWideRune(t *testing.T) {
	e := vterm.New(1, 6, 0)
	e.Process([]byte("日x"))
	out := ansi.Strip(RenderScreen(e.Screen(), false))
	if got := strings.TrimRight(out, " "); got != "日x" {
		t.Fatalf("wide rune row = %q, want %q", got, "日x")
	}
}
