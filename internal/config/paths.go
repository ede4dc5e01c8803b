package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// Dir returns the sysdeck config directory under the user config base.
// On Linux, this typically resolves to $XDG_CONFIG_HOME/sysdeck.
// Falls back to HOME when UserConfigDir is unavailable.
func Dir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil || strings.TrimSpace(base) == "" {
		if home, herr := os.UserHomeDir(); herr == nil {
			base = home
		} else {
			return "", errors.New("cannot determine config directory")
		}
	}
	return filepath.Join(base, "sysdeck"), nil
}

// CatalogPath returns the path of the maintenance-tool catalog file.
func CatalogPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "tools.toml"), nil
}

// LogPath returns the file the TUI logs to, keeping log lines off the
// alternate screen.
func LogPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "sysdeck.log"), nil
}
