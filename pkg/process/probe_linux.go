//go:build linux

package process

import (
	"errors"

	"golang.org/x/sys/unix"
)

var waitidFunc = unix.Waitid

// probe peeks at the child with waitid(WNOWAIT): an exited child is
// reported but stays a zombie, so a later wait still gets its status.
func (posixBackend) probe(p sysProc) (RunState, error) {
	if p.pid <= 0 {
		return StateError, ErrInvalidHandle
	}

	for {
		var info unix.Siginfo
		err := waitidFunc(unix.P_PID, p.pid, &info, unix.WEXITED|unix.WNOHANG|unix.WNOWAIT, nil)
		switch {
		case err == nil:
			if info.Signo == int32(unix.SIGCHLD) {
				return StateExited, nil
			}
			return StateRunning, nil
		case errors.Is(err, unix.EINTR):
			continue
		case errors.Is(err, unix.ECHILD):
			// Not our child (or already reaped elsewhere).
			return ProbePID(p.pid)
		default:
			return StateError, &ProbeError{PID: p.pid, Err: err}
		}
	}
}
