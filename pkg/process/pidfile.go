package process

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
)

// probePIDFunc is swapped in tests.
var probePIDFunc = ProbePID

// WritePIDFile records pid in path, one decimal number and a newline.
func WritePIDFile(path string, pid int) error {
	if pid <= 0 {
		return fmt.Errorf("invalid PID value: %d", pid)
	}
	if err := os.WriteFile(path, []byte(strconv.Itoa(pid)+"\n"), 0o644); err != nil {
		return fmt.Errorf("writing PID file: %w", err)
	}
	return nil
}

// ReadPIDFile reads a process ID from the given file path.
// It validates that the PID is a positive integer and probes whether the
// process is still alive. A process we may not signal counts as alive.
func ReadPIDFile(path string) (int, RunState, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, StateError, fmt.Errorf("reading PID file: %w", err)
	}

	content := strings.TrimSpace(string(data))
	if content == "" {
		return 0, StateError, errors.New("PID file is empty")
	}

	// PID file may contain PID on first line followed by other data
	if idx := strings.IndexByte(content, '\n'); idx >= 0 {
		content = content[:idx]
	}

	pid, err := strconv.Atoi(strings.TrimSpace(content))
	if err != nil {
		return 0, StateError, fmt.Errorf("invalid PID in file: %w", err)
	}

	if pid <= 0 {
		return 0, StateError, fmt.Errorf("invalid PID value: %d", pid)
	}

	state, err := probePIDFunc(pid)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return pid, StateRunning, nil
		}
		return pid, StateError, err
	}
	return pid, state, nil
}
