package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"strconv"
	"time"

	"github.com/creack/pty"
	"github.com/gorilla/websocket"

	"sysdeck/internal/proc"
	"sysdeck/internal/system"
)

// wsUpgrader upgrades HTTP connections to WebSocket.
var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	// Allow all origins for local dev; the server typically binds to localhost.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// terminalWSHandler launches a shell in a PTY and bridges it over WebSocket.
// The shell's PID goes into the process registry, so the exit sweep covers
// remote sessions exactly like the TUI's embedded terminal.
//
// Client protocol:
// - Send plain text messages as input to the shell.
// - Control messages are JSON: {"type":"resize","cols":<int>,"rows":<int>}.
// - Server sends PTY output as text messages.
func terminalWSHandler(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, fmt.Sprintf("upgrade failed: %v", err), http.StatusBadRequest)
		return
	}
	defer conn.Close()

	sh, shArgs := defaultShell()
	cmd := exec.Command(sh, shArgs...)
	cmd.Env = append(os.Environ(), "TERM=xterm-256color", "COLORTERM=truecolor")

	// pty.Start gives the child its own session and controlling terminal,
	// so group signals from the registry sweep reach its descendants.
	ptmx, err := pty.Start(cmd)
	if err != nil {
		_ = conn.WriteMessage(websocket.TextMessage, []byte("failed to start shell: "+err.Error()))
		return
	}
	pid := cmd.Process.Pid
	proc.Global().Register(pid)
	system.Logger.Info("webui shell started", "pid", pid)
	defer func() {
		_ = ptmx.Close() // Best-effort close; will end the child
		_ = cmd.Process.Kill()
		_ = cmd.Wait()
		proc.Global().Unregister(pid)
	}()

	// Optional initial size from query
	if cols, _ := strconv.Atoi(r.URL.Query().Get("cols")); cols > 0 {
		if rows, _ := strconv.Atoi(r.URL.Query().Get("rows")); rows > 0 {
			_ = pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(cols), Rows: uint16(rows)})
		}
	}

	// Writer: PTY -> WS
	go func() {
		buf := make([]byte, 4096)
		for {
			n, readErr := ptmx.Read(buf)
			if n > 0 {
				_ = conn.WriteMessage(websocket.TextMessage, buf[:n])
			}
			if readErr != nil {
				if !errors.Is(readErr, io.EOF) {
					_ = conn.WriteMessage(websocket.TextMessage, []byte("\r\n[pty closed]\r\n"))
				}
				time.Sleep(50 * time.Millisecond)
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "pty closed"))
				_ = conn.Close()
				return
			}
		}
	}()

	// Reader: WS -> PTY
	type controlMsg struct {
		Type string `json:"type"`
		Cols int    `json:"cols"`
		Rows int    `json:"rows"`
		Data string `json:"data"`
	}

	for {
		mt, data, err := conn.ReadMessage()
		if err != nil {
			// client closed
			return
		}
		switch mt {
		case websocket.TextMessage, websocket.BinaryMessage:
			// Try JSON first for control frames
			var cm controlMsg
			if json.Unmarshal(data, &cm) == nil && cm.Type != "" {
				if cm.Type == "resize" && cm.Cols > 0 && cm.Rows > 0 {
					_ = pty.Setsize(ptmx, &pty.Winsize{Cols: uint16(cm.Cols), Rows: uint16(cm.Rows)})
					continue
				}
				if cm.Type == "input" && cm.Data != "" {
					_, _ = ptmx.Write([]byte(cm.Data))
					continue
				}
			}
			// Treat as raw input
			if len(data) > 0 {
				_, _ = ptmx.Write(data)
			}
		case websocket.CloseMessage:
			return
		}
	}
}

// defaultShell returns the shell to bridge, respecting $SHELL.
func defaultShell() (string, []string) {
	if sh := os.Getenv("SHELL"); sh != "" {
		return sh, []string{"-l"}
	}
	if _, err := os.Stat("/bin/bash"); err == nil {
		return "/bin/bash", []string{"-l"}
	}
	return "/bin/sh", []string{"-l"}
}
