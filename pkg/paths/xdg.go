// Package paths provides XDG-compliant path resolution for vigil.
//
// Resolution order:
// 1. VIGIL_HOME (portable root) → $VIGIL_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/vigil
// 3. Platform defaults → ~/.config/vigil, ~/.local/state/vigil
package paths

import (
	"os"
	"path/filepath"
)

const appName = "vigil"

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv("VIGIL_HOME"); home != "" {
		return filepath.Join(home, "config")
	}
	if xdgConfigHome := os.Getenv("XDG_CONFIG_HOME"); xdgConfigHome != "" {
		return xdgConfigHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".config")
	}
	return ""
}

// getStateHome returns the base state home directory.
func getStateHome() string {
	if home := os.Getenv("VIGIL_HOME"); home != "" {
		return filepath.Join(home, "state")
	}
	if xdgStateHome := os.Getenv("XDG_STATE_HOME"); xdgStateHome != "" {
		return xdgStateHome
	}
	if homeDir, err := os.UserHomeDir(); err == nil {
		return filepath.Join(homeDir, ".local", "state")
	}
	return ""
}

// ConfigDir returns the vigil configuration directory.
// Used for vigil.yml and the default registry.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	if os.Getenv("VIGIL_HOME") != "" {
		return base
	}
	return filepath.Join(base, appName)
}

// StateDir returns the vigil state directory.
// Used for reports, the history index and logs.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	if os.Getenv("VIGIL_HOME") != "" {
		return base
	}
	return filepath.Join(base, appName)
}

// ReportsDir is the default location of persisted run reports.
func ReportsDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "reports")
}

// LogsDir is the default location of file log sinks.
func LogsDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// RegistryFile is the default project registry.
func RegistryFile() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "projects.json")
}

// FileboxDir is the default drop directory for filebox notifications.
func FileboxDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "inbox")
}

// EnsureDirs creates the vigil directories if they don't exist.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), StateDir(), ReportsDir(), LogsDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
