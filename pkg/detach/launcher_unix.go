//go:build !windows

package detach

import (
	"os"
	"os/exec"
	"syscall"
)

func setDetached(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}

func processAlive(pid int) bool {
	process, err := os.FindProcess(pid)
	if err != nil {
		return false
	}
	// Signal 0 probes existence; EPERM means alive but owned by another user.
	err = process.Signal(syscall.Signal(0))
	return err == nil || os.IsPermission(err)
}
