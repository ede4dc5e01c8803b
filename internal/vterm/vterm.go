// Package vterm implements a small in-memory terminal emulator. It decodes a
// raw byte stream (including ANSI escape and control sequences) into a styled
// character grid that a renderer can paint, without performing any I/O of its
// own. It understands enough of the classic VT/xterm protocol to display
// common full-screen command-line tools: cursor movement, line and screen
// clearing, and SGR color/attribute selection. Anything it does not
// understand is consumed silently; Process never fails on any input.
package vterm

import (
	"unicode/utf8"

	runewidth "github.com/mattn/go-runewidth"
)

// ColorMode discriminates the three color encodings a cell can carry.
type ColorMode uint8

const (
	// ColorDefault is the terminal's default foreground or background.
	ColorDefault ColorMode = iota
	// ColorIndexed is a palette color (0-255).
	ColorIndexed
	// ColorRGB is a 24-bit truecolor value.
	ColorRGB
)

// Color is a terminal color in one of three modes. The zero value is the
// default color.
type Color struct {
	Mode    ColorMode
	Index   uint8
	R, G, B uint8
}

// IndexedColor returns a palette color.
func IndexedColor(n uint8) Color { return Color{Mode: ColorIndexed, Index: n} }

// RGBColor returns a 24-bit color.
func RGBColor(r, g, b uint8) Color { return Color{Mode: ColorRGB, R: r, G: g, B: b} }

// Cell is one grid position. Content holds the grapheme written there; the
// empty string means a blank cell (renderers paint it as a space). The zero
// value is a blank, unstyled cell.
type Cell struct {
	Content   string
	FG, BG    Color
	Bold      bool
	Italic    bool
	Underline bool
	Inverse   bool
}

// Blank reports whether the cell has no visible content.
func (c Cell) Blank() bool { return c.Content == "" || c.Content == " " }

type parseState int

const (
	stGround parseState = iota
	stEscape
	stCSI
	stOSC
	stCharset
)

// Emulator owns one screen buffer and the decoder state machine feeding it.
// It is not safe for concurrent use; the owning session serializes access.
type Emulator struct {
	rows, cols int
	grid       [][]Cell
	curRow     int
	curCol     int

	// pen is the active SGR state applied to subsequently written cells.
	pen Cell

	// wrapNext defers wrapping until the next printed character, matching
	// hardware terminals: writing into the last column leaves the cursor
	// there so a following CR/LF does not produce a spurious blank line.
	wrapNext bool

	state    parseState
	params   []int
	curParam int
	hasParam bool
	private  bool
	inter    bool
	oscEsc   bool

	// pending holds a trailing incomplete UTF-8 sequence between Process
	// calls so multi-byte runes split across PTY reads decode correctly.
	pending []byte

	scrollback    [][]Cell
	maxScrollback int
}

// New creates an emulator with the given grid size and scrollback cap.
// Sizes below 1 are clamped to 1.
func New(rows, cols, scrollback int) *Emulator {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	if scrollback < 0 {
		scrollback = 0
	}
	e := &Emulator{
		rows:          rows,
		cols:          cols,
		maxScrollback: scrollback,
		params:        make([]int, 0, 8),
	}
	e.grid = blankGrid(rows, cols)
	return e
}

func blankGrid(rows, cols int) [][]Cell {
	g := make([][]Cell, rows)
	for i := range g {
		g[i] = make([]Cell, cols)
	}
	return g
}

// Process feeds raw output bytes into the decoder. It accepts arbitrary,
// possibly malformed input: unknown or truncated sequences are consumed
// without effect. Calling it with an empty slice is a no-op.
func (e *Emulator) Process(p []byte) {
	if len(p) == 0 && len(e.pending) == 0 {
		return
	}
	data := p
	if len(e.pending) > 0 {
		data = append(e.pending, p...)
		e.pending = nil
	}

	for i := 0; i < len(data); {
		b := data[i]
		switch e.state {
		case stGround:
			switch {
			case b == 0x1b:
				e.state = stEscape
				i++
			case b == '\n' || b == 0x0b || b == 0x0c:
				e.lineFeed()
				i++
			case b == '\r':
				e.curCol = 0
				e.wrapNext = false
				i++
			case b == 0x08:
				if e.curCol > 0 {
					e.curCol--
				}
				e.wrapNext = false
				i++
			case b == '\t':
				e.curCol = (e.curCol/8 + 1) * 8
				if e.curCol >= e.cols {
					e.curCol = e.cols - 1
				}
				i++
			case b < 0x20 || b == 0x7f:
				// Unhandled C0 controls (BEL, SO/SI, ...) are dropped.
				i++
			default:
				r, size := utf8.DecodeRune(data[i:])
				if r == utf8.RuneError && size == 1 {
					if !utf8.FullRune(data[i:]) && len(data)-i < utf8.UTFMax {
						// Incomplete trailing rune; keep for the next chunk.
						e.pending = append(e.pending, data[i:]...)
						return
					}
					// Invalid byte; drop it.
					i++
					continue
				}
				e.print(r)
				i += size
			}
		case stEscape:
			e.stepEscape(b)
			i++
		case stCSI:
			e.stepCSI(b)
			i++
		case stOSC:
			e.stepOSC(b)
			i++
		case stCharset:
			// The byte selects a character set; we only consume it.
			e.state = stGround
			i++
		}
	}
}

func (e *Emulator) stepEscape(b byte) {
	switch b {
	case '[':
		e.state = stCSI
		e.params = e.params[:0]
		e.curParam = 0
		e.hasParam = false
		e.private = false
		e.inter = false
	case ']', 'P', 'X', '^', '_':
		// OSC and the other string sequences are discarded up to their
		// terminator.
		e.state = stOSC
		e.oscEsc = false
	case '(', ')', '*', '+':
		e.state = stCharset
	default:
		// Single-character escapes (RIS, DECSC, keypad modes, ...) are
		// consumed without effect.
		e.state = stGround
	}
}

func (e *Emulator) stepCSI(b byte) {
	switch {
	case b >= '0' && b <= '9':
		e.hasParam = true
		if e.curParam < 1<<20 {
			e.curParam = e.curParam*10 + int(b-'0')
		}
	case b == ';' || b == ':':
		e.pushParam()
	case b == '?' || b == '>' || b == '<' || b == '=':
		e.private = true
	case b >= 0x20 && b <= 0x2f:
		e.inter = true
	case b >= 0x40 && b <= 0x7e:
		if e.hasParam || len(e.params) > 0 {
			e.pushParam()
		}
		if !e.private && !e.inter {
			e.dispatchCSI(b)
		}
		e.state = stGround
	case b == 0x1b:
		e.state = stEscape
	case b < 0x20:
		// C0 inside a sequence: ignore and keep collecting.
	default:
		// Malformed; abandon the sequence.
		e.state = stGround
	}
}

func (e *Emulator) stepOSC(b byte) {
	switch {
	case b == 0x07:
		e.state = stGround
	case e.oscEsc && b == '\\':
		e.state = stGround
	case b == 0x1b:
		e.oscEsc = true
	default:
		e.oscEsc = false
	}
}

func (e *Emulator) pushParam() {
	e.params = append(e.params, e.curParam)
	e.curParam = 0
	e.hasParam = false
}

// param returns the i-th numeric parameter, treating 0 and absent as def.
func (e *Emulator) param(i, def int) int {
	if i < len(e.params) && e.params[i] > 0 {
		return e.params[i]
	}
	return def
}

func (e *Emulator) dispatchCSI(final byte) {
	switch final {
	case 'A':
		e.moveCursor(e.curRow-e.param(0, 1), e.curCol)
	case 'B':
		e.moveCursor(e.curRow+e.param(0, 1), e.curCol)
	case 'C':
		e.moveCursor(e.curRow, e.curCol+e.param(0, 1))
	case 'D':
		e.moveCursor(e.curRow, e.curCol-e.param(0, 1))
	case 'E':
		e.moveCursor(e.curRow+e.param(0, 1), 0)
	case 'F':
		e.moveCursor(e.curRow-e.param(0, 1), 0)
	case 'G', '`':
		e.moveCursor(e.curRow, e.param(0, 1)-1)
	case 'd':
		e.moveCursor(e.param(0, 1)-1, e.curCol)
	case 'H', 'f':
		e.moveCursor(e.param(0, 1)-1, e.param(1, 1)-1)
	case 'J':
		e.eraseScreen(e.rawParam(0))
	case 'K':
		e.eraseLine(e.rawParam(0))
	case 'm':
		e.applySGR()
	default:
		// Scroll regions, insert/delete, mode sets and the rest of the CSI
		// space are consumed without effect.
	}
}

// rawParam returns the i-th parameter without the zero-means-default rule
// (erase selectors distinguish 0, 1 and 2).
func (e *Emulator) rawParam(i int) int {
	if i < len(e.params) {
		return e.params[i]
	}
	return 0
}

func (e *Emulator) moveCursor(row, col int) {
	if row < 0 {
		row = 0
	}
	if row >= e.rows {
		row = e.rows - 1
	}
	if col < 0 {
		col = 0
	}
	if col >= e.cols {
		col = e.cols - 1
	}
	e.curRow, e.curCol = row, col
	e.wrapNext = false
}

func (e *Emulator) eraseScreen(sel int) {
	switch sel {
	case 0:
		e.clearCells(e.curRow, e.curCol, e.curRow, e.cols-1)
		for r := e.curRow + 1; r < e.rows; r++ {
			e.clearCells(r, 0, r, e.cols-1)
		}
	case 1:
		for r := 0; r < e.curRow; r++ {
			e.clearCells(r, 0, r, e.cols-1)
		}
		e.clearCells(e.curRow, 0, e.curRow, e.curCol)
	case 2, 3:
		for r := 0; r < e.rows; r++ {
			e.clearCells(r, 0, r, e.cols-1)
		}
	}
}

func (e *Emulator) eraseLine(sel int) {
	switch sel {
	case 0:
		e.clearCells(e.curRow, e.curCol, e.curRow, e.cols-1)
	case 1:
		e.clearCells(e.curRow, 0, e.curRow, e.curCol)
	case 2:
		e.clearCells(e.curRow, 0, e.curRow, e.cols-1)
	}
}

func (e *Emulator) clearCells(row, fromCol, toRow, toCol int) {
	for r := row; r <= toRow && r < e.rows; r++ {
		for c := fromCol; c <= toCol && c < e.cols; c++ {
			e.grid[r][c] = Cell{}
		}
	}
}

func (e *Emulator) applySGR() {
	params := e.params
	if len(params) == 0 {
		params = []int{0}
	}
	for i := 0; i < len(params); i++ {
		switch p := params[i]; {
		case p == 0:
			e.pen = Cell{}
		case p == 1:
			e.pen.Bold = true
		case p == 3:
			e.pen.Italic = true
		case p == 4:
			e.pen.Underline = true
		case p == 7:
			e.pen.Inverse = true
		case p == 22:
			e.pen.Bold = false
		case p == 23:
			e.pen.Italic = false
		case p == 24:
			e.pen.Underline = false
		case p == 27:
			e.pen.Inverse = false
		case p >= 30 && p <= 37:
			e.pen.FG = IndexedColor(uint8(p - 30))
		case p == 38:
			col, skip := extendedColor(params[i+1:])
			e.pen.FG = col
			i += skip
		case p == 39:
			e.pen.FG = Color{}
		case p >= 40 && p <= 47:
			e.pen.BG = IndexedColor(uint8(p - 40))
		case p == 48:
			col, skip := extendedColor(params[i+1:])
			e.pen.BG = col
			i += skip
		case p == 49:
			e.pen.BG = Color{}
		case p >= 90 && p <= 97:
			e.pen.FG = IndexedColor(uint8(p - 90 + 8))
		case p >= 100 && p <= 107:
			e.pen.BG = IndexedColor(uint8(p - 100 + 8))
		}
	}
}

// extendedColor decodes the tail of a 38/48 SGR parameter: 5;n for indexed,
// 2;r;g;b for truecolor. It returns the color and how many parameters were
// consumed; malformed tails yield the default color.
func extendedColor(rest []int) (Color, int) {
	if len(rest) >= 2 && rest[0] == 5 {
		n := rest[1]
		if n < 0 || n > 255 {
			return Color{}, 2
		}
		return IndexedColor(uint8(n)), 2
	}
	if len(rest) >= 4 && rest[0] == 2 {
		clamp := func(v int) uint8 {
			if v < 0 {
				return 0
			}
			if v > 255 {
				return 255
			}
			return uint8(v)
		}
		return RGBColor(clamp(rest[1]), clamp(rest[2]), clamp(rest[3])), 4
	}
	// Consume everything so a malformed extension cannot be misread as
	// further attributes.
	return Color{}, len(rest)
}

func (e *Emulator) print(r rune) {
	w := runewidth.RuneWidth(r)
	if w == 0 {
		// Combining mark: attach to the previously written cell.
		if e.curCol > 0 {
			prev := &e.grid[e.curRow][e.curCol-1]
			if prev.Content != "" {
				prev.Content += string(r)
			}
		}
		return
	}
	if e.wrapNext || e.curCol+w > e.cols {
		e.curCol = 0
		e.wrapNext = false
		e.lineFeed()
	}
	cell := e.pen
	cell.Content = string(r)
	e.grid[e.curRow][e.curCol] = cell
	if w == 2 && e.curCol+1 < e.cols {
		spacer := e.pen
		spacer.Content = ""
		e.grid[e.curRow][e.curCol+1] = spacer
	}
	e.curCol += w
	if e.curCol >= e.cols {
		e.curCol = e.cols - 1
		e.wrapNext = true
	}
}

func (e *Emulator) lineFeed() {
	if e.curRow < e.rows-1 {
		e.curRow++
		return
	}
	// Scroll up: the top row moves into scrollback, a blank row enters at
	// the bottom.
	top := e.grid[0]
	if e.maxScrollback > 0 {
		e.scrollback = append(e.scrollback, top)
		if len(e.scrollback) > e.maxScrollback {
			e.scrollback = e.scrollback[len(e.scrollback)-e.maxScrollback:]
		}
	}
	copy(e.grid, e.grid[1:])
	e.grid[e.rows-1] = make([]Cell, e.cols)
}

// SetSize resizes the grid. Content within the overlapping region is kept;
// everything outside the new bounds is discarded. The cursor is clamped into
// the new grid. Safe for both grow and shrink.
func (e *Emulator) SetSize(rows, cols int) {
	if rows < 1 {
		rows = 1
	}
	if cols < 1 {
		cols = 1
	}
	if rows == e.rows && cols == e.cols {
		return
	}
	next := blankGrid(rows, cols)
	for r := 0; r < rows && r < e.rows; r++ {
		copy(next[r], e.grid[r])
	}
	e.grid = next
	e.rows, e.cols = rows, cols
	e.moveCursor(e.curRow, e.curCol)
}

// Size returns the current grid dimensions.
func (e *Emulator) Size() (rows, cols int) { return e.rows, e.cols }

// ScrollbackLen returns the number of rows currently held in scrollback.
func (e *Emulator) ScrollbackLen() int { return len(e.scrollback) }

// Screen is a read-only snapshot of the visible grid and cursor, decoupled
// from subsequent emulator mutation.
type Screen struct {
	rows, cols     int
	cells          [][]Cell
	curRow, curCol int
}

// Screen returns a snapshot of the current grid state.
func (e *Emulator) Screen() *Screen {
	cells := make([][]Cell, e.rows)
	for r := range cells {
		cells[r] = make([]Cell, e.cols)
		copy(cells[r], e.grid[r])
	}
	return &Screen{
		rows:   e.rows,
		cols:   e.cols,
		cells:  cells,
		curRow: e.curRow,
		curCol: e.curCol,
	}
}

// Rows returns the snapshot's row count.
func (s *Screen) Rows() int { return s.rows }

// Cols returns the snapshot's column count.
func (s *Screen) Cols() int { return s.cols }

// Cell returns the cell at (row, col) and whether the position is in bounds.
func (s *Screen) Cell(row, col int) (Cell, bool) {
	if row < 0 || row >= s.rows || col < 0 || col >= s.cols {
		return Cell{}, false
	}
	return s.cells[row][col], true
}

// Cursor returns the cursor position. It is always within
// [0,rows) x [0,cols).
func (s *Screen) Cursor() (row, col int) { return s.curRow, s.curCol }
