// Package process holds the few process-table helpers the serve/stop/status
// commands need.
package process

import (
	"fmt"
	"os"
	"syscall"
)

// IsProcessAlive reports whether a process with the given PID exists.
// Signal 0 probes for existence without delivering anything; EPERM still
// means the process is there, just owned by someone else.
func IsProcessAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return false
	}

	err = proc.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}

// Terminate asks the process to shut down gracefully with SIGTERM.
func Terminate(pid int) error {
	if !IsProcessAlive(pid) {
		return fmt.Errorf("process %d is not running", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("failed to send stop signal to %d: %w", pid, err)
	}
	return nil
}
