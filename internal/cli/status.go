package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sunlightlinux/procshim/internal/util"
	"github.com/sunlightlinux/procshim/pkg/process"
)

// exitNotRunning follows the LSB status convention.
const exitNotRunning = 3

func newStatusCmd(opts *options) *cobra.Command {
	var pidFile string

	cmd := &cobra.Command{
		Use:   "status [PID]",
		Short: "Report whether a process is running",
		Long: `Probe a process by PID or through a PID file. Exits 0 when the process
is running and 3 when it is not.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}

			var (
				pid   int
				state process.RunState
			)
			switch {
			case pidFile != "" && len(args) > 0:
				return fmt.Errorf("give either a PID or --pid-file, not both")
			case pidFile != "":
				pid, state, err = process.ReadPIDFile(pidFile)
			case len(args) == 1:
				pid, err = util.ParsePID(args[0])
				if err == nil {
					state, err = process.ProbePID(pid)
				}
			default:
				return fmt.Errorf("a PID or --pid-file is required")
			}
			if err != nil {
				return err
			}

			c := newConsole(cmd.OutOrStdout(), cmd.ErrOrStderr(), cfg)
			if state == process.StateRunning {
				c.OK("%d: %s", pid, state)
				return nil
			}
			c.Warn("%d: %s", pid, state)
			return &exitCodeError{code: exitNotRunning}
		},
	}

	cmd.Flags().StringVar(&pidFile, "pid-file", "", "Read the PID from this file")
	return cmd
}
