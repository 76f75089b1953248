package infra

import (
	"os"
	"path/filepath"
	"runtime"
)

const (
	AppName = "crypto-dash"
)

// GetWorkspaceDir returns the root directory for all runtime data.
// A local "_workspace" directory takes priority (portable/dev mode),
// otherwise the OS-standard data directory is used.
func GetWorkspaceDir() string {
	localDir := "_workspace"
	if _, err := os.Stat(localDir); err == nil {
		return localDir
	}

	var baseDir string
	switch runtime.GOOS {
	case "windows":
		baseDir = os.Getenv("LOCALAPPDATA")
		if baseDir == "" {
			baseDir = os.Getenv("APPDATA")
		}
	case "darwin":
		home, _ := os.UserHomeDir()
		baseDir = filepath.Join(home, "Library", "Application Support")
	default:
		// XDG_DATA_HOME or ~/.local/share
		baseDir = os.Getenv("XDG_DATA_HOME")
		if baseDir == "" {
			home, _ := os.UserHomeDir()
			baseDir = filepath.Join(home, ".local", "share")
		}
	}

	if baseDir == "" {
		return localDir
	}
	return filepath.Join(baseDir, AppName)
}

// DBPath returns the SQLite database file path
func DBPath() string {
	return filepath.Join(GetWorkspaceDir(), "data", "cryptodash.db")
}

// IconsDir returns the icon cache directory
func IconsDir() string {
	return filepath.Join(GetWorkspaceDir(), "assets", "icons")
}

// WatchlistDir returns the file-medium directory for the watchlist
func WatchlistDir() string {
	return filepath.Join(GetWorkspaceDir(), "watchlist")
}

// EnsureDir creates the directory if it doesn't exist
func EnsureDir(path string) error {
	return os.MkdirAll(path, 0755)
}
