// Package process launches, probes and reaps child processes behind one
// handle type. The POSIX backend uses fork/exec, wait4 and kill(pid, 0);
// the Windows backend uses CreateProcess and WaitForSingleObject.
package process

import (
	"errors"
	"fmt"
)

// Exit codes reported when the real status is not available.
const (
	// ExitCodeAbnormal is reported for a child killed by a signal or
	// otherwise terminated without a normal exit status.
	ExitCodeAbnormal = -1

	// ExitCodeUnknownReaped is reported when the child was already reaped
	// outside this handle and its status is gone.
	ExitCodeUnknownReaped = 0
)

// ExecStage identifies the stage at which process creation failed.
type ExecStage uint8

const (
	// StageCreate: the OS refused to create a process at all.
	StageCreate ExecStage = iota
	// StageExec: a process was created but the program could not run.
	StageExec
)

func (s ExecStage) String() string {
	descriptions := []string{
		"creating process",
		"executing program",
	}
	if int(s) < len(descriptions) {
		return descriptions[s]
	}
	return fmt.Sprintf("ExecStage(%d)", s)
}

// ExecError represents a failure to start a child process.
type ExecError struct {
	Path  string
	Stage ExecStage
	Err   error
}

func (e *ExecError) Error() string {
	return fmt.Sprintf("start %s: failed while %s: %v", e.Path, e.Stage, e.Err)
}

func (e *ExecError) Unwrap() error { return e.Err }

// Is reports ErrCreationFailed for every stage.
func (e *ExecError) Is(target error) bool { return target == ErrCreationFailed }

// NeverStarted reports whether no process was ever created.
func (e *ExecError) NeverStarted() bool { return e.Stage == StageCreate }

// RunState is the result of a non-consuming liveness probe.
type RunState int

const (
	StateError RunState = iota - 1
	StateExited
	StateRunning
)

func (s RunState) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateExited:
		return "exited"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("RunState(%d)", int(s))
	}
}

// IsStageExec reports whether err is an ExecError raised after the
// process had been created.
func IsStageExec(err error) bool {
	var execErr *ExecError
	return errors.As(err, &execErr) && execErr.Stage == StageExec
}
