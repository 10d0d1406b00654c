package cli

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/sunlightlinux/procshim/internal/util"
	"github.com/sunlightlinux/procshim/pkg/process"
)

// Exit statuses of spawn that do not come from the child.
const (
	exitAbnormal = 255
	exitTimedOut = 124
)

func newSpawnCmd(opts *options) *cobra.Command {
	var (
		timeout string
		pidFile string
	)

	cmd := &cobra.Command{
		Use:   "spawn [flags] PROGRAM [ARGS...]",
		Short: "Start a program, wait for it and exit with its exit code",
		Long: `Start PROGRAM in the background and wait for it to finish.
procshim exits with the program's exit code, or 255 when the program was
killed by a signal or its status is unknown. With --timeout, procshim
stops waiting after the given duration and exits with 124; the program
keeps running.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			var limit time.Duration
			if timeout != "" {
				if limit, err = util.ParseDuration(timeout); err != nil {
					return fmt.Errorf("invalid --timeout: %w", err)
				}
			}
			log := newLogger(cmd, cfg)

			h, err := process.Start(log, args[0], args[1:])
			if err != nil {
				return err
			}
			defer h.Release()

			if pidFile != "" {
				if err := process.WritePIDFile(pidFile, h.PID()); err != nil {
					return err
				}
				defer os.Remove(pidFile)
			}

			var code int
			if limit > 0 {
				code, err = process.Poll(cmd.Context(), h, process.PollOptions{Timeout: limit})
			} else {
				code, err = h.Wait()
			}
			switch {
			case errors.Is(err, process.ErrPollTimeout):
				return &exitCodeError{code: exitTimedOut, err: fmt.Errorf("%s (pid %d) still running: %w", args[0], h.PID(), err)}
			case err != nil:
				return err
			}

			return childExitError(code)
		},
	}

	// Everything after PROGRAM belongs to the program.
	cmd.Flags().SetInterspersed(false)
	cmd.Flags().StringVar(&timeout, "timeout", "", "Stop waiting after this duration (e.g. 30s, 1.5)")
	cmd.Flags().StringVar(&pidFile, "pid-file", "", "Write the child's PID to this file while it runs")
	return cmd
}

// childExitError maps a child's exit code to spawn's own exit status.
// Negative codes (signals, unknown status, NTSTATUS values) become 255.
func childExitError(code int) error {
	switch {
	case code == 0:
		return nil
	case code < 0:
		return &exitCodeError{code: exitAbnormal}
	default:
		return &exitCodeError{code: code}
	}
}
