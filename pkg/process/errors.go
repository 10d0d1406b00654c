package process

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidInput is returned by Start for an empty program path or
	// arguments containing NUL bytes.
	ErrInvalidInput = errors.New("invalid program path or arguments")

	// ErrCreationFailed matches every ExecError.
	ErrCreationFailed = errors.New("process creation failed")

	// ErrInvalidHandle is returned for nil or released handles.
	ErrInvalidHandle = errors.New("invalid process handle")

	// ErrWaitFailed matches every WaitError.
	ErrWaitFailed = errors.New("wait for process failed")

	// ErrProbeFailed matches every ProbeError.
	ErrProbeFailed = errors.New("process probe failed")

	// ErrPollTimeout is returned by Poll when the child outlives the poll.
	ErrPollTimeout = errors.New("process still running")
)

// WaitError reports a failed blocking wait.
type WaitError struct {
	PID int
	Err error
}

func (e *WaitError) Error() string {
	return fmt.Sprintf("waiting for process %d: %v", e.PID, e.Err)
}

func (e *WaitError) Unwrap() error { return e.Err }

func (e *WaitError) Is(target error) bool { return target == ErrWaitFailed }

// ProbeError reports an existence probe that failed for a reason other
// than "no such process".
type ProbeError struct {
	PID int
	Err error
}

func (e *ProbeError) Error() string {
	return fmt.Sprintf("checking process %d: %v", e.PID, e.Err)
}

func (e *ProbeError) Unwrap() error { return e.Err }

func (e *ProbeError) Is(target error) bool { return target == ErrProbeFailed }
