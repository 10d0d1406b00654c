package process

import (
	"sync"

	"github.com/sunlightlinux/procshim/pkg/logging"
)

type handleState uint8

const (
	stateUnreaped handleState = iota
	stateReaped
	stateReleased
)

// Handle is a caller-owned reference to a child process created by Start.
// A nil *Handle is the invalid handle; all methods accept it.
//
// The handle remembers whether it has already reaped its child, so a
// second Wait returns the cached exit code instead of asking the OS about
// a PID that may since have been reused.
type Handle struct {
	proc sysProc
	path string
	log  *logging.Logger

	// waitMu serialises reapers; mu guards the fields below.
	waitMu sync.Mutex
	mu     sync.Mutex

	state    handleState
	exitCode int
}

// PID returns the OS process identifier, or 0 for the invalid handle.
func (h *Handle) PID() int {
	if h == nil {
		return 0
	}
	return h.proc.pid
}

// Path returns the program path the handle was started with.
func (h *Handle) Path() string {
	if h == nil {
		return ""
	}
	return h.path
}

func (h *Handle) snapshot() (handleState, int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state, h.exitCode
}

// Wait blocks until the process terminates and returns its exit code.
// A child killed by a signal reports ExitCodeAbnormal. Calling Wait on an
// already reaped handle returns the cached code.
func (h *Handle) Wait() (int, error) {
	if h == nil {
		return ExitCodeAbnormal, ErrInvalidHandle
	}

	h.waitMu.Lock()
	defer h.waitMu.Unlock()

	switch state, code := h.snapshot(); state {
	case stateReleased:
		h.log.Error("Wait on released handle")
		return ExitCodeAbnormal, ErrInvalidHandle
	case stateReaped:
		return code, nil
	}

	code, err := sys.wait(h.proc)
	if err != nil {
		h.log.Error("%v", err)
		return ExitCodeAbnormal, err
	}

	h.mu.Lock()
	if h.state == stateUnreaped {
		h.state = stateReaped
	}
	h.exitCode = code
	h.mu.Unlock()

	h.log.ProcessExited(code)
	return code, nil
}

// IsRunning probes the process without consuming its exit status, so a
// later Wait still returns the real code.
func (h *Handle) IsRunning() (RunState, error) {
	if h == nil {
		return StateError, ErrInvalidHandle
	}

	switch state, _ := h.snapshot(); state {
	case stateReleased:
		return StateError, ErrInvalidHandle
	case stateReaped:
		return StateExited, nil
	}

	st, err := sys.probe(h.proc)
	if err != nil {
		h.log.Warn("%v", err)
		return StateError, err
	}
	return st, nil
}

// Release frees the resources held by the handle. It neither terminates
// nor reaps the process. Releasing nil or an already released handle is a
// no-op.
func (h *Handle) Release() {
	if h == nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state == stateReleased {
		return
	}
	if err := sys.release(h.proc); err != nil {
		h.log.Warn("Releasing handle: %v", err)
	}
	h.state = stateReleased
}
