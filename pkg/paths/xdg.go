// Package paths provides XDG-compliant path resolution for agentwatch.
//
// Resolution order:
// 1. AGENTWATCH_HOME (portable root) → $AGENTWATCH_HOME/{config,state}
// 2. XDG env vars → $XDG_*_HOME/agentwatch
// 3. Platform defaults → ~/.config/agentwatch, ~/.local/state/agentwatch
package paths

import (
	"os"
	"path/filepath"
)

const appName = "agentwatch"

// getConfigHome returns the base config home directory.
func getConfigHome() string {
	if home := os.Getenv("AGENTWATCH_HOME"); home != "" {
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
	if home := os.Getenv("AGENTWATCH_HOME"); home != "" {
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

// ConfigDir returns the configuration directory holding the global agentwatch.yml.
func ConfigDir() string {
	base := getConfigHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// StateDir returns the directory for runtime state such as the pid file.
func StateDir() string {
	base := getStateHome()
	if base == "" {
		return ""
	}
	return filepath.Join(base, appName)
}

// LogDir returns the default directory for file log sinks.
func LogDir() string {
	state := StateDir()
	if state == "" {
		return ""
	}
	return filepath.Join(state, "logs")
}

// PidFilePath returns the path to the server PID file.
func PidFilePath() string {
	return filepath.Join(StateDir(), appName+".pid")
}

// AddrFilePath returns the file the running server records its listen address in,
// so `agentwatch send` and `agentwatch watch` can find it.
func AddrFilePath() string {
	return filepath.Join(StateDir(), appName+".addr")
}

// EnsureDirs creates the agentwatch directories if they don't exist.
func EnsureDirs() error {
	for _, dir := range []string{ConfigDir(), StateDir(), LogDir()} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}
