// Package harness runs the phased process diagnostics against the test
// child program and collects a report.
package harness

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/sunlightlinux/procshim/pkg/console"
	"github.com/sunlightlinux/procshim/pkg/logging"
	"github.com/sunlightlinux/procshim/pkg/process"
)

// Status is the outcome of a single phase.
type Status string

const (
	StatusOK   Status = "ok"
	StatusWarn Status = "warn"
	StatusFail Status = "fail"
)

// PhaseResult describes one finished phase.
type PhaseResult struct {
	Number   int           `json:"number" yaml:"number"`
	Name     string        `json:"name" yaml:"name"`
	Status   Status        `json:"status" yaml:"status"`
	Detail   string        `json:"detail,omitempty" yaml:"detail,omitempty"`
	Duration time.Duration `json:"-" yaml:"-"`
}

// Runner executes harness phases. ChildPath and MissingProgram are
// required; zero poll settings fall back to 800ms and 5 probes.
type Runner struct {
	ChildPath      string
	MissingProgram string
	PollInterval   time.Duration
	PollCount      int

	Console *console.Console
	Log     *logging.Logger
}

type phase struct {
	name string
	run  func(r *Runner, ctx context.Context, tag string) (Status, string)
}

var phases = []phase{
	{"basic execution", (*Runner).basicExecution},
	{"argument passing", (*Runner).argumentExecution},
	{"runtime status", (*Runner).runtimeStatus},
	{"parallel execution", (*Runner).parallelExecution},
	{"error handling", (*Runner).errorHandling},
}

// PhaseName returns the name of phase n (1-based), or "" if out of range.
func PhaseName(n int) string {
	if n < 1 || n > len(phases) {
		return ""
	}
	return phases[n-1].name
}

// Run executes the selected phases in the given order. Unknown phase
// numbers are skipped. A cancelled context stops before the next phase.
func (r *Runner) Run(ctx context.Context, selected []int) *Report {
	if r.Console == nil {
		r.Console = console.Plain(io.Discard, io.Discard)
	}
	report := &Report{Child: r.ChildPath}

	c := r.Console
	c.Flow("========================================")
	c.Flow(" Process management diagnostics")
	c.Flow("========================================")
	c.Flow("Using test child: %s", r.ChildPath)

	for _, n := range selected {
		if n < 1 || n > len(phases) {
			continue
		}
		if err := ctx.Err(); err != nil {
			c.Warn("Diagnostics interrupted: %v", err)
			break
		}
		p := phases[n-1]
		tag := "[PHASE-" + strconv.Itoa(n) + "]"

		c.Flow("\n%s %s", tag, p.name)
		started := time.Now()
		status, detail := p.run(r, ctx, tag)
		report.Phases = append(report.Phases, PhaseResult{
			Number:   n,
			Name:     p.name,
			Status:   status,
			Detail:   detail,
			Duration: time.Since(started),
		})
		r.Log.Debug("phase %d finished: %s (%s)", n, status, detail)
	}

	c.Flow("\n========================================")
	if report.Failed() {
		c.Err(" Diagnostics finished with failures")
	} else {
		c.OK(" Diagnostics finished")
	}
	c.Flow("========================================")
	return report
}

func (r *Runner) start(args ...string) (*process.Handle, error) {
	return process.Start(r.Log, r.ChildPath, args)
}

func (r *Runner) basicExecution(_ context.Context, tag string) (Status, string) {
	h, err := r.start()
	if err != nil {
		r.Console.Err("%s Failed to start process: %v", tag, err)
		return StatusFail, err.Error()
	}
	defer h.Release()

	r.Console.Dim("%s Process %d started, waiting for it", tag, h.PID())
	code, err := h.Wait()
	if err != nil {
		r.Console.Err("%s Waiting failed: %v", tag, err)
		return StatusFail, err.Error()
	}
	r.Console.OK("%s Process exited with code %d", tag, code)
	return StatusOK, fmt.Sprintf("exit code %d", code)
}

func (r *Runner) argumentExecution(_ context.Context, tag string) (Status, string) {
	const want = 17
	h, err := r.start("--sleep", "1000", "--exit-code", strconv.Itoa(want))
	if err != nil {
		r.Console.Err("%s Failed to start process: %v", tag, err)
		return StatusFail, err.Error()
	}
	defer h.Release()

	r.Console.Dim("%s Custom arguments passed", tag)
	code, err := h.Wait()
	if err != nil {
		r.Console.Err("%s Waiting failed: %v", tag, err)
		return StatusFail, err.Error()
	}
	r.Console.Flow("%s Process exited with code %d", tag, code)
	if code != want {
		r.Console.Warn("%s Expected code %d, got %d", tag, want, code)
		return StatusWarn, fmt.Sprintf("expected exit code %d, got %d", want, code)
	}
	r.Console.OK("%s Exit code is correct", tag)
	return StatusOK, fmt.Sprintf("exit code %d", code)
}

func (r *Runner) runtimeStatus(ctx context.Context, tag string) (Status, string) {
	h, err := r.start("--sleep", "3000")
	if err != nil {
		r.Console.Err("%s Failed to start process: %v", tag, err)
		return StatusFail, err.Error()
	}
	defer h.Release()

	interval := r.PollInterval
	if interval <= 0 {
		interval = 800 * time.Millisecond
	}
	count := r.PollCount
	if count <= 0 {
		count = 5
	}

	status := StatusOK
	_, err = process.Poll(ctx, h, process.PollOptions{
		MinInterval: interval,
		MaxInterval: interval,
		MaxPolls:    count,
		OnPoll: func(n int, state process.RunState) {
			switch state {
			case process.StateRunning:
				r.Console.Dim("%s [%d] Process is still running", tag, n)
			case process.StateExited:
				r.Console.OK("%s [%d] Process has exited", tag, n)
			default:
				r.Console.Warn("%s [%d] Could not check process state", tag, n)
			}
		},
	})
	if err != nil && !errors.Is(err, process.ErrPollTimeout) {
		status = StatusWarn
	}

	// Poll already reaped the child when it saw the exit; Wait then
	// returns the cached code.
	code, werr := h.Wait()
	if werr != nil {
		r.Console.Err("%s Waiting failed: %v", tag, werr)
		return StatusFail, werr.Error()
	}
	r.Console.Flow("%s Final exit code: %d", tag, code)
	if status == StatusWarn {
		return status, fmt.Sprintf("state check failed: %v; exit code %d", err, code)
	}
	return status, fmt.Sprintf("exit code %d", code)
}

func (r *Runner) parallelExecution(_ context.Context, tag string) (Status, string) {
	workers := []struct{ sleep, code int }{
		{1000, 1},
		{2000, 2},
		{1500, 3},
	}
	r.Console.Dim("%s Starting %d worker processes", tag, len(workers))

	handles := make([]*process.Handle, len(workers))
	for i, w := range workers {
		h, err := r.start("--sleep", strconv.Itoa(w.sleep), "--exit-code", strconv.Itoa(w.code))
		if err != nil {
			r.Console.Err("%s Failed to start process %d: %v", tag, i+1, err)
			continue
		}
		handles[i] = h
	}

	codes := make([]int, len(workers))
	waitErrs := make([]error, len(workers))
	var g errgroup.Group
	for i, h := range handles {
		if h == nil {
			continue
		}
		g.Go(func() error {
			defer h.Release()
			codes[i], waitErrs[i] = h.Wait()
			return nil
		})
	}
	_ = g.Wait()

	status := StatusOK
	var problems []string
	for i, w := range workers {
		switch {
		case handles[i] == nil:
			status = StatusFail
			problems = append(problems, fmt.Sprintf("process %d did not start", i+1))
		case waitErrs[i] != nil:
			status = StatusFail
			r.Console.Err("%s Waiting for process %d failed: %v", tag, i+1, waitErrs[i])
			problems = append(problems, fmt.Sprintf("process %d: %v", i+1, waitErrs[i]))
		case codes[i] != w.code:
			if status == StatusOK {
				status = StatusWarn
			}
			r.Console.Warn("%s Process %d exited with code %d, expected %d", tag, i+1, codes[i], w.code)
			problems = append(problems, fmt.Sprintf("process %d exit code %d, expected %d", i+1, codes[i], w.code))
		default:
			r.Console.OK("%s Process %d exited with code %d", tag, i+1, codes[i])
		}
	}
	r.Console.Flow("%s All processes finished", tag)

	if len(problems) > 0 {
		return status, strings.Join(problems, "; ")
	}
	return status, fmt.Sprintf("exit codes %d %d %d", codes[0], codes[1], codes[2])
}

func (r *Runner) errorHandling(_ context.Context, tag string) (Status, string) {
	h, err := process.Start(r.Log, r.MissingProgram, nil)
	if err != nil {
		var execErr *process.ExecError
		if errors.As(err, &execErr) {
			r.Console.OK("%s Failure reported correctly (%s)", tag, execErr.Stage)
			return StatusOK, err.Error()
		}
		r.Console.Warn("%s Unexpected error kind: %v", tag, err)
		return StatusWarn, err.Error()
	}
	defer h.Release()

	r.Console.Dim("%s Process started, expecting it to fail", tag)
	code, err := h.Wait()
	if err == nil && code != 0 {
		r.Console.OK("%s Child exited with failure (%d)", tag, code)
		return StatusOK, fmt.Sprintf("exit code %d", code)
	}
	r.Console.Warn("%s Unexpected child result", tag)
	return StatusWarn, "missing program started and exited cleanly"
}
