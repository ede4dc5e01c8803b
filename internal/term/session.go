package term

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/creack/pty"
	"golang.org/x/sys/unix"

	"sysdeck/internal/proc"
	"sysdeck/internal/system"
	"sysdeck/internal/vterm"
)

// Sentinel errors for the session lifecycle. Callers match them with
// errors.Is; the wrapped error carries the OS detail.
var (
	ErrAllocate   = errors.New("pty allocation failed")
	ErrSpawn      = errors.New("spawn failed")
	ErrNotRunning = errors.New("no running child")
)

const readChunk = 4096

// Session runs one interactive child on a pseudo-terminal and feeds its
// output through a terminal emulator. At most one child per session; spawn
// a new session for the next tool.
type Session struct {
	mu   sync.Mutex
	emu  *vterm.Emulator
	cols int
	rows int

	ptmx    *os.File
	cmd     *exec.Cmd
	out     []byte
	running bool
	exit    *int
}

// NewSession creates a session with an emulator of the given size and no
// child attached yet.
func NewSession(cols, rows int) *Session {
	return &Session{
		emu:  vterm.New(rows, cols, 1000),
		cols: cols,
		rows: rows,
	}
}

// SpawnCommand starts name with args on a fresh PTY sized to the session.
// The child becomes its own session and process-group leader with the PTY
// as controlling terminal, so signalling its group reaches descendants too.
// On failure the session is left unchanged and can spawn again.
func (s *Session) SpawnCommand(name string, args ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return fmt.Errorf("session already has a child (pid %d)", s.cmd.Process.Pid)
	}

	ptmx, tty, err := pty.Open()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrAllocate, err)
	}
	_ = pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(s.cols), Rows: uint16(s.rows)})

	cmd := exec.Command(name, args...)
	cmd.Stdin = tty
	cmd.Stdout = tty
	cmd.Stderr = tty
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid:  true,
		Setctty: true,
	}
	cmd.Env = append(os.Environ(),
		"TERM=xterm-256color",
		"COLORTERM=truecolor",
	)

	if err := cmd.Start(); err != nil {
		_ = tty.Close()
		_ = ptmx.Close()
		return fmt.Errorf("%w: %s: %v", ErrSpawn, name, err)
	}
	// The child holds its own copy of the slave side.
	_ = tty.Close()

	s.ptmx = ptmx
	s.cmd = cmd
	s.running = true
	s.exit = nil
	s.out = nil
	proc.Global().Register(cmd.Process.Pid)
	system.Logger.Debug("spawned child on pty", "cmd", name, "pid", cmd.Process.Pid)

	go s.readLoop(ptmx)
	return nil
}

// readLoop moves PTY output into the session buffer until the device
// reaches EOF. Linux reports a closed slave side as EIO; both end the loop.
func (s *Session) readLoop(ptmx *os.File) {
	buf := make([]byte, readChunk)
	for {
		n, err := ptmx.Read(buf)
		if n > 0 {
			s.mu.Lock()
			s.out = append(s.out, buf[:n]...)
			s.mu.Unlock()
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, unix.EIO) && !errors.Is(err, os.ErrClosed) {
				system.Logger.Warn("pty read failed", "err", err)
			}
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		}
	}
}

// ProcessOutput drains buffered child output into the emulator. Cheap when
// nothing arrived since the last call.
func (s *Session) ProcessOutput() {
	s.mu.Lock()
	pending := s.out
	s.out = nil
	s.mu.Unlock()
	if len(pending) > 0 {
		s.emu.Process(pending)
	}
}

// SendInput writes raw bytes to the child's terminal.
func (s *Session) SendInput(data []byte) error {
	s.mu.Lock()
	ptmx := s.ptmx
	running := s.running
	s.mu.Unlock()
	if !running || ptmx == nil {
		return ErrNotRunning
	}
	if _, err := ptmx.Write(data); err != nil {
		return fmt.Errorf("write to pty: %w", err)
	}
	return nil
}

// SendKey encodes a key press and forwards it to the child. Keys with no
// encoding are dropped silently.
func (s *Session) SendKey(k tea.KeyMsg) error {
	b := KeyBytes(k)
	if len(b) == 0 {
		return nil
	}
	return s.SendInput(b)
}

// IsRunning reports whether the child is still alive, reaping it and
// capturing its exit status when it has finished.
func (s *Session) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return false
	}
	if !s.running && s.exit != nil {
		return false
	}
	pid := s.cmd.Process.Pid
	var ws unix.WaitStatus
	wpid, err := unix.Wait4(pid, &ws, unix.WNOHANG, nil)
	if err == nil && wpid == pid && (ws.Exited() || ws.Signaled()) {
		code := ws.ExitStatus()
		if ws.Signaled() {
			code = 128 + int(ws.Signal())
		}
		s.exit = &code
		s.running = false
		proc.Global().Unregister(pid)
		return false
	}
	if err != nil {
		// Someone else reaped it (e.g. the registry sweep).
		s.running = false
		proc.Global().Unregister(pid)
		return false
	}
	return true
}

// Resize changes both the emulator grid and the underlying terminal device,
// so full-screen children reflow on SIGWINCH.
func (s *Session) Resize(cols, rows int) error {
	if cols < 1 || rows < 1 {
		return fmt.Errorf("invalid size %dx%d", cols, rows)
	}
	s.mu.Lock()
	s.cols, s.rows = cols, rows
	ptmx := s.ptmx
	s.mu.Unlock()
	s.emu.SetSize(rows, cols)
	if ptmx == nil {
		return nil
	}
	if err := pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)}); err != nil {
		return fmt.Errorf("resize pty: %w", err)
	}
	return nil
}

// Kill force-terminates the child's process group. Best effort and
// idempotent; exit status still arrives through IsRunning.
func (s *Session) Kill() {
	s.mu.Lock()
	cmd := s.cmd
	s.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return
	}
	pid := cmd.Process.Pid
	if err := unix.Kill(-pid, unix.SIGKILL); err != nil {
		_ = unix.Kill(pid, unix.SIGKILL)
	}
}

// Close kills any remaining child and releases the PTY master.
func (s *Session) Close() {
	s.Kill()
	s.mu.Lock()
	ptmx := s.ptmx
	s.ptmx = nil
	s.mu.Unlock()
	if ptmx != nil {
		_ = ptmx.Close()
	}
}

// ExitCode returns the child's exit code once it has been reaped, or -1
// while it is running or was never spawned.
func (s *Session) ExitCode() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.exit == nil {
		return -1
	}
	return *s.exit
}

// Pid returns the child PID, or 0 when nothing was spawned.
func (s *Session) Pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

// Screen exposes the emulator's current snapshot.
func (s *Session) Screen() *vterm.Screen {
	return s.emu.Screen()
}
