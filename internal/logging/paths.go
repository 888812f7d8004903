package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.empdex/logs/).
// Falls back to temp directory if home directory is unavailable.
func DefaultLogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".empdex", "logs")
	}
	return filepath.Join(home, ".empdex", "logs")
}

// DefaultLogPath returns the default log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "empdex.log")
}

// EnsureLogDir creates the directory for the given log path if it
// doesn't exist. An empty path falls back to the default directory.
func EnsureLogDir(logPath string) error {
	dir := DefaultLogDir()
	if logPath != "" {
		dir = filepath.Dir(logPath)
	}
	return os.MkdirAll(dir, 0o755)
}
