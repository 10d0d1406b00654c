package harness

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sunlightlinux/procshim/internal/testutil"
	"github.com/sunlightlinux/procshim/pkg/console"
	"github.com/sunlightlinux/procshim/pkg/logging"
)

var childPath string

func TestMain(m *testing.M) {
	path, cleanup := testutil.MustBuildChild()
	childPath = path

	code := m.Run()
	cleanup()
	os.Exit(code)
}

func newRunner(t *testing.T, child string) (*Runner, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	var out, errw bytes.Buffer
	return &Runner{
		ChildPath:      child,
		MissingProgram: filepath.Join(t.TempDir(), "unknown_program"),
		PollInterval:   400 * time.Millisecond,
		PollCount:      5,
		Console:        console.Plain(&out, &errw),
		Log:            logging.NewWithOutput(&bytes.Buffer{}, logging.LevelError),
	}, &out, &errw
}

func TestRunAllPhases(t *testing.T) {
	r, out, errw := newRunner(t, childPath)

	report := r.Run(context.Background(), []int{1, 2, 3, 4, 5})
	require.Len(t, report.Phases, 5)

	for i, p := range report.Phases {
		assert.Equal(t, i+1, p.Number)
		assert.Equal(t, PhaseName(i+1), p.Name)
		assert.Equal(t, StatusOK, p.Status, "phase %d: %s", p.Number, p.Detail)
	}
	assert.False(t, report.Failed())
	assert.Equal(t, "exit code 17", report.Phases[1].Detail)
	assert.Equal(t, "exit codes 1 2 3", report.Phases[3].Detail)
	assert.GreaterOrEqual(t, report.Phases[3].Duration, 2*time.Second)

	assert.Contains(t, out.String(), "[PHASE-3] [1] Process is still running")
	assert.Contains(t, out.String(), "Diagnostics finished")
	assert.Empty(t, errw.String())
}

func TestRunSelectedPhases(t *testing.T) {
	r, _, _ := newRunner(t, childPath)

	report := r.Run(context.Background(), []int{5, 9})
	require.Len(t, report.Phases, 1)
	assert.Equal(t, 5, report.Phases[0].Number)
	assert.Equal(t, StatusOK, report.Phases[0].Status)
	assert.Contains(t, report.Phases[0].Detail, "unknown_program")
}

func TestRunMissingChildFails(t *testing.T) {
	r, _, errw := newRunner(t, filepath.Join(t.TempDir(), "no-such-child"))

	report := r.Run(context.Background(), []int{1, 4})
	require.Len(t, report.Phases, 2)
	assert.Equal(t, StatusFail, report.Phases[0].Status)
	assert.Equal(t, StatusFail, report.Phases[1].Status)
	assert.True(t, report.Failed())
	assert.Contains(t, errw.String(), "Failed to start process")
}

func TestRunStopsOnCancelledContext(t *testing.T) {
	r, out, _ := newRunner(t, childPath)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report := r.Run(ctx, []int{1, 2})
	assert.Empty(t, report.Phases)
	assert.Contains(t, out.String(), "Diagnostics interrupted")
}

func TestPhaseName(t *testing.T) {
	assert.Equal(t, "basic execution", PhaseName(1))
	assert.Equal(t, "error handling", PhaseName(5))
	assert.Empty(t, PhaseName(0))
	assert.Empty(t, PhaseName(6))
}
