//go:build windows

package process

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sys/windows"
)

// reapOutOfBand waits for pid through a fresh handle; Windows keeps no
// zombie, so this only ensures the child is finished.
func reapOutOfBand(t *testing.T, pid int) {
	t.Helper()
	h, err := windows.OpenProcess(windows.SYNCHRONIZE, false, uint32(pid))
	if err != nil {
		return
	}
	defer windows.CloseHandle(h)
	_, err = windows.WaitForSingleObject(h, windows.INFINITE)
	require.NoError(t, err)
}

func TestClassifyStartError(t *testing.T) {
	assert.Equal(t, StageExec, classifyStartError(windows.ERROR_FILE_NOT_FOUND))
	assert.Equal(t, StageExec, classifyStartError(windows.ERROR_BAD_EXE_FORMAT))
	assert.Equal(t, StageCreate, classifyStartError(windows.ERROR_NOT_ENOUGH_MEMORY))
}

func TestProbePIDWindows(t *testing.T) {
	h := startChild(t, 300, 0)

	state, err := ProbePID(h.PID())
	require.NoError(t, err)
	assert.Equal(t, StateRunning, state)

	_, err = h.Wait()
	require.NoError(t, err)
}
