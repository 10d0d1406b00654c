// testchild is a toy program for exercising procshim. It prints its
// arguments, waits, and exits with the requested code.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/urfave/cli/v3"

	"github.com/sunlightlinux/procshim/pkg/console"
)

const (
	defaultSleepMS  = 2000
	defaultExitCode = 0
)

func main() {
	code, err := run(context.Background(), os.Args, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	os.Exit(code)
}

// run executes the child with args and returns the exit code it should end with.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) (int, error) {
	exitCode := defaultExitCode
	app := newApp(stdout, stderr, args, &exitCode)
	if err := app.Run(ctx, args); err != nil {
		return 0, err
	}
	return exitCode, nil
}

func newApp(stdout, stderr io.Writer, argv []string, exitCode *int) *cli.Command {
	return &cli.Command{
		Name:      "testchild",
		Usage:     "Toy child process for procshim diagnostics",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "sleep", Value: defaultSleepMS, Usage: "milliseconds to wait before exiting"},
			&cli.IntFlag{Name: "exit-code", Value: defaultExitCode, Usage: "exit code to return"},
			&cli.BoolFlag{Name: "error", Usage: "print a simulated diagnostic to stderr"},
			&cli.BoolFlag{Name: "quiet", Aliases: []string{"q"}, Usage: "print nothing except --error diagnostics"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			out := stdout
			if cmd.Bool("quiet") {
				out = io.Discard
			}
			c := console.New(out, stderr, console.ColorAuto)

			sleep := time.Duration(int(cmd.Int("sleep"))) * time.Millisecond
			*exitCode = int(cmd.Int("exit-code"))

			c.Flow(" TEST PROGRAM STARTED")
			c.Flow("----------------------------------------")
			c.Flow("Started with %d arguments", len(argv))
			for i, a := range argv {
				c.Dim("  arg[%d] = %s", i, a)
			}
			if cmd.Bool("error") {
				c.Err("[DIAG] Simulated error message")
			}
			c.Flow("Waiting %d ms, then exiting with code %d", sleep.Milliseconds(), *exitCode)

			if sleep > 0 {
				select {
				case <-time.After(sleep):
				case <-ctx.Done():
					return ctx.Err()
				}
			}

			c.OK("Program finished")
			return nil
		},
	}
}
