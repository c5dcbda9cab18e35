package config

import (
	"os"
	"path/filepath"
)

// UserDir returns ~/.agent-tui, creating it (mode 0700) if missing.
func UserDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(home, ".agent-tui")
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}

// DefaultSocketPath returns the unix-domain socket path under the user dir.
func DefaultSocketPath() string {
	dir, err := UserDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "agent-tui.sock")
	}
	return filepath.Join(dir, "daemon.sock")
}

// DefaultConfigPath returns the path to the daemon's config.yaml.
func DefaultConfigPath() string {
	dir, err := UserDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}
