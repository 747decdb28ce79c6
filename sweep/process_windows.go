//go:build windows

package sweep

import (
	"os"
	"os/exec"
	"syscall"
)

// Windows has no process groups to signal; only the trainer itself is stopped.
func setProcessGroup(*exec.Cmd) {}

func signalGroup(p *os.Process, sig syscall.Signal) error {
	if sig == syscall.SIGKILL {
		return p.Kill()
	}
	return p.Signal(sig)
}
