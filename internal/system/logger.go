package system

import (
	"fmt"
	"os"
	"path/filepath"

	clog "github.com/charmbracelet/log"
)

// Logger is the shared application logger for CLI output.
// It prints to stderr with timestamps enabled for better UX.
var Logger = clog.NewWithOptions(os.Stderr, clog.Options{
	ReportTimestamp: true,
})

// UseLogFile redirects Logger to append to path, creating parent
// directories as needed. The TUI calls this before taking over the
// terminal so log lines do not bleed into the alternate screen. The
// returned func closes the file.
func UseLogFile(path string) (func(), error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}
	Logger.SetOutput(f)
	return func() {
		Logger.SetOutput(os.Stderr)
		_ = f.Close()
	}, nil
}
