//go:build unix

package process

import (
	"errors"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// sysProc is a POSIX process identity: the PID is the whole handle.
type sysProc struct {
	pid int
}

// Seams for tests.
var (
	forkExecFunc = syscall.ForkExec
	wait4Func    = unix.Wait4
	killFunc     = unix.Kill
)

type posixBackend struct{}

func newBackend() backend { return posixBackend{} }

// start forks and execs argv[0]. The Go runtime reports an exec failure
// from inside the child over a close-on-exec pipe and reaps that child, so
// both stages surface here as errors.
func (posixBackend) start(argv []string) (sysProc, error) {
	attr := &syscall.ProcAttr{
		Env:   os.Environ(),
		Files: []uintptr{os.Stdin.Fd(), os.Stdout.Fd(), os.Stderr.Fd()},
	}
	pid, err := forkExecFunc(argv[0], argv, attr)
	if err != nil {
		return sysProc{}, &ExecError{Path: argv[0], Stage: classifyStartError(err), Err: err}
	}
	return sysProc{pid: pid}, nil
}

// classifyStartError separates fork failures from exec failures. fork only
// fails for lack of resources, so those errnos map to StageCreate and
// everything else came back from execve. ENOMEM, EMFILE and ENFILE are
// ambiguous: execve can return them too, and ForkExec reports both paths
// the same way (pid 0, the child already reaped). They stay StageCreate:
// in either case no child survives and retrying may succeed.
func classifyStartError(err error) ExecStage {
	for _, errno := range []error{unix.EAGAIN, unix.ENOMEM, unix.ENOSYS, unix.EMFILE, unix.ENFILE} {
		if errors.Is(err, errno) {
			return StageCreate
		}
	}
	return StageExec
}

func (posixBackend) wait(p sysProc) (int, error) {
	if p.pid <= 0 {
		return ExitCodeAbnormal, ErrInvalidHandle
	}

	var ws unix.WaitStatus
	for {
		_, err := wait4Func(p.pid, &ws, 0, nil)
		if err == nil {
			break
		}
		if errors.Is(err, unix.EINTR) {
			continue
		}
		if errors.Is(err, unix.ECHILD) {
			// Someone else collected the status. If the PID is gone too,
			// the child is finished and there is nothing left to report.
			if kerr := killFunc(p.pid, 0); errors.Is(kerr, unix.ESRCH) {
				return ExitCodeUnknownReaped, nil
			}
		}
		return ExitCodeAbnormal, &WaitError{PID: p.pid, Err: err}
	}
	return exitCodeOf(ws), nil
}

func exitCodeOf(ws unix.WaitStatus) int {
	if ws.Exited() {
		return ws.ExitStatus()
	}
	return ExitCodeAbnormal
}

// release is a no-op: a PID holds no OS resource.
func (posixBackend) release(sysProc) error { return nil }

// ProbePID reports whether pid refers to an existing process, using
// kill(pid, 0). A zombie still counts as existing.
func ProbePID(pid int) (RunState, error) {
	if pid <= 0 {
		return StateError, ErrInvalidHandle
	}
	err := killFunc(pid, 0)
	switch {
	case err == nil:
		return StateRunning, nil
	case errors.Is(err, unix.ESRCH):
		return StateExited, nil
	default:
		return StateError, &ProbeError{PID: pid, Err: err}
	}
}
