//go:build windows

package process

import (
	"errors"
	"unsafe"

	"golang.org/x/sys/windows"
)

// sysProc is a Windows process identity: a kernel handle plus its PID.
type sysProc struct {
	pid int
	h   windows.Handle
}

type windowsBackend struct{}

func newBackend() backend { return windowsBackend{} }

func (windowsBackend) start(argv []string) (sysProc, error) {
	cmdline, err := windows.UTF16PtrFromString(windows.ComposeCommandLine(argv))
	if err != nil {
		return sysProc{}, ErrInvalidInput
	}

	var si windows.StartupInfo
	si.Cb = uint32(unsafe.Sizeof(si))
	var pi windows.ProcessInformation

	err = windows.CreateProcess(
		nil,     // module name comes from the command line
		cmdline, // command line
		nil,     // process handle not inheritable
		nil,     // thread handle not inheritable
		false,   // no handle inheritance
		0,       // no creation flags
		nil,     // parent's environment
		nil,     // parent's directory
		&si,
		&pi,
	)
	if err != nil {
		return sysProc{}, &ExecError{Path: argv[0], Stage: classifyStartError(err), Err: err}
	}

	// The primary thread handle is never used.
	_ = windows.CloseHandle(pi.Thread)

	return sysProc{pid: int(pi.ProcessId), h: pi.Process}, nil
}

// classifyStartError separates "the program cannot run" from "no process
// could be created". CreateProcess does both in one call.
func classifyStartError(err error) ExecStage {
	for _, errno := range []error{
		windows.ERROR_FILE_NOT_FOUND,
		windows.ERROR_PATH_NOT_FOUND,
		windows.ERROR_ACCESS_DENIED,
		windows.ERROR_BAD_EXE_FORMAT,
	} {
		if errors.Is(err, errno) {
			return StageExec
		}
	}
	return StageCreate
}

func (windowsBackend) wait(p sysProc) (int, error) {
	if p.h == 0 || p.h == windows.InvalidHandle {
		return ExitCodeAbnormal, ErrInvalidHandle
	}

	ev, err := windows.WaitForSingleObject(p.h, windows.INFINITE)
	if ev == windows.WAIT_FAILED {
		return ExitCodeAbnormal, &WaitError{PID: p.pid, Err: err}
	}

	var code uint32
	if err := windows.GetExitCodeProcess(p.h, &code); err != nil {
		// The process is gone; only its code is lost.
		return ExitCodeAbnormal, nil
	}
	return int(int32(code)), nil
}

func (windowsBackend) probe(p sysProc) (RunState, error) {
	if p.h == 0 || p.h == windows.InvalidHandle {
		return StateError, ErrInvalidHandle
	}
	return probeHandle(p.pid, p.h)
}

func (windowsBackend) release(p sysProc) error {
	if p.h == 0 || p.h == windows.InvalidHandle {
		return nil
	}
	return windows.CloseHandle(p.h)
}

// probeHandle uses a zero-timeout wait rather than GetExitCodeProcess, so
// a child that legitimately exits with 259 (STILL_ACTIVE) is not mistaken
// for a live one.
func probeHandle(pid int, h windows.Handle) (RunState, error) {
	ev, err := windows.WaitForSingleObject(h, 0)
	switch ev {
	case uint32(windows.WAIT_TIMEOUT):
		return StateRunning, nil
	case windows.WAIT_OBJECT_0:
		return StateExited, nil
	default:
		return StateError, &ProbeError{PID: pid, Err: err}
	}
}

// ProbePID reports whether pid refers to a live process.
func ProbePID(pid int) (RunState, error) {
	if pid <= 0 {
		return StateError, ErrInvalidHandle
	}
	h, err := windows.OpenProcess(windows.SYNCHRONIZE|windows.PROCESS_QUERY_LIMITED_INFORMATION, false, uint32(pid))
	if err != nil {
		if errors.Is(err, windows.ERROR_INVALID_PARAMETER) {
			return StateExited, nil
		}
		return StateError, &ProbeError{PID: pid, Err: err}
	}
	defer windows.CloseHandle(h)
	return probeHandle(pid, h)
}
