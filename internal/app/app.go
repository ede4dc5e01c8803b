package app

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"sysdeck/internal/catalog"
	"sysdeck/internal/config"
	"sysdeck/internal/proc"
	"sysdeck/internal/system"
	"sysdeck/internal/ui"
)

// Start runs the TUI program and returns any error. Every child spawned
// while it runs is swept on the way out: the deferred guard covers normal
// returns and panics, the interrupt hook covers SIGINT/SIGTERM.
func Start() error {
	proc.InstallInterruptHook()
	guard := proc.NewGuard()
	defer guard.Release()

	if p, err := config.LogPath(); err == nil {
		if closeLog, err := system.UseLogFile(p); err == nil {
			defer closeLog()
		}
	}

	cat, err := catalog.Load()
	if err != nil {
		system.Logger.Warn("using built-in catalog", "err", err)
	}
	catPath, _ := config.CatalogPath()

	if _, err := tea.NewProgram(ui.InitialModel(cat, catPath), tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run tui: %w", err)
	}
	return nil
}

// Main is a helper to use as entry-point from cmd.
func Main() {
	if err := Start(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}
