package logging

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	appDirName  = ".devseek"
	logFileName = "server.log"
)

// DefaultLogDir returns the default log directory (~/.devseek/logs/).
// Falls back to the temp directory if the home directory is unavailable.
func DefaultLogDir() string {
	base, err := os.UserHomeDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, appDirName, "logs")
}

// DefaultLogPath returns the default server log path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), logFileName)
}

// FindLogFile resolves the log file to view. An explicit path takes
// precedence; otherwise the default server log is used.
func FindLogFile(explicit string) (string, error) {
	if explicit != "" {
		if _, err := os.Stat(explicit); err != nil {
			return "", fmt.Errorf("log file not found: %s", explicit)
		}
		return explicit, nil
	}

	path := DefaultLogPath()
	if _, err := os.Stat(path); err != nil {
		return "", fmt.Errorf("no log file found. The server may not have run with --debug yet.\nExpected at: %s\n\nTo generate logs:\n  devseek --debug serve", path)
	}
	return path, nil
}

// EnsureLogDir creates the log directory if it doesn't exist.
func EnsureLogDir() error {
	return os.MkdirAll(DefaultLogDir(), 0o755)
}
