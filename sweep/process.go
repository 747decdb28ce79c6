package sweep

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
	"syscall"
	"time"

	"github.com/YuminosukeSato/mltrack/pkg/errors"
)

// waitDelay bounds how long Wait keeps copying output after the process exited. Worker
// processes forked by a trainer may hold the output pipes open long after it is gone.
const waitDelay = time.Second

// Process is a running training subprocess. Kill and Wait may be called concurrently from
// different goroutines.
//
// The process leads its own process group, and Kill and Terminate signal the whole group.
type Process struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// StartProcess launches name with args, without a shell.
func StartProcess(name string, args []string, stdout, stderr io.Writer) (*Process, error) {
	cmd := exec.Command(name, args...)
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	cmd.WaitDelay = waitDelay
	setProcessGroup(cmd)
	if err := cmd.Start(); err != nil {
		return nil, errors.Wrapf(err, "start %s", name)
	}

	p := &Process{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		if errors.Is(err, exec.ErrWaitDelay) {
			// exited cleanly; only the output copy was cut short
			err = nil
		}
		p.err = err
		close(p.done)
	}()
	return p, nil
}

// PID returns the process id.
func (p *Process) PID() int {
	return p.cmd.Process.Pid
}

// Command returns the command line, for logs.
func (p *Process) Command() string {
	return strings.Join(p.cmd.Args, " ")
}

// Kill terminates the process forcefully. Killing a process that has already exited is a
// no-op.
func (p *Process) Kill() error {
	return p.signal(syscall.SIGKILL)
}

// Terminate asks the process to exit.
func (p *Process) Terminate() error {
	return p.signal(syscall.SIGTERM)
}

func (p *Process) signal(sig syscall.Signal) error {
	if p.Exited() {
		return nil
	}
	err := signalGroup(p.cmd.Process, sig)
	if err == nil || errors.Is(err, os.ErrProcessDone) {
		return nil
	}
	return errors.Wrapf(err, "signal %d", p.PID())
}

// Done is closed once the process has exited and been reaped.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Exited reports whether the process has exited.
func (p *Process) Exited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the process exits or ctx is done. It returns the exit error, which is
// nil for a zero exit status, or ctx.Err() if the process is still running. Wait can be
// called any number of times.
func (p *Process) Wait(ctx context.Context) error {
	select {
	case <-p.done:
		return p.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// ExitCode returns the exit status, or -1 if the process has not exited or was killed by
// a signal.
func (p *Process) ExitCode() int {
	if !p.Exited() {
		return -1
	}
	return p.cmd.ProcessState.ExitCode()
}
