package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunlightlinux/procshim/pkg/config"
	"github.com/sunlightlinux/procshim/pkg/harness"
)

func newRunCmd(opts *options) *cobra.Command {
	defaults := config.Defaults()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the process diagnostics against the test child",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			child, err := cfg.ChildPath()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			progress := out
			if cfg.Report != config.ReportText {
				// Keep stdout parseable.
				progress = cmd.ErrOrStderr()
			}

			runner := &harness.Runner{
				ChildPath:      child,
				MissingProgram: cfg.MissingProgram,
				PollInterval:   cfg.PollInterval,
				PollCount:      cfg.PollCount,
				Console:        newConsole(progress, cmd.ErrOrStderr(), cfg),
				Log:            newLogger(cmd, cfg),
			}
			report := runner.Run(cmd.Context(), cfg.SelectedPhases())

			if cfg.Report == config.ReportText {
				fmt.Fprintln(out)
			}
			if err := report.Write(out, cfg.Report); err != nil {
				return err
			}
			if report.Failed() {
				return &exitCodeError{code: 1, err: fmt.Errorf("%d of %d phases failed", report.Counts()[harness.StatusFail], len(report.Phases))}
			}
			return nil
		},
	}

	cmd.Flags().String("bin-dir", "", "Directory containing the testchild binary (default: procshim's directory)")
	cmd.Flags().String("child", "", "Explicit path to the test child")
	cmd.Flags().IntSlice("phase", nil, "Phases to run (1-5, repeatable or comma-separated; default all)")
	cmd.Flags().String("report", defaults.Report, "Report format (text, yaml, json)")
	cmd.Flags().Duration("poll-interval", defaults.PollInterval, "Interval between state checks in the status phase")
	cmd.Flags().Int("poll-count", defaults.PollCount, "Number of state checks in the status phase")
	cmd.Flags().String("missing-program", defaults.MissingProgram, "Program path the error handling phase expects not to exist")
	return cmd
}
