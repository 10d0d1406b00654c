// Package cli implements the procshim command line.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/sunlightlinux/procshim/pkg/config"
	"github.com/sunlightlinux/procshim/pkg/console"
	"github.com/sunlightlinux/procshim/pkg/logging"
)

const version = "0.1.0"

// Flag names mapped to configuration keys. Only flags set on the command
// line override the file and environment.
var configFlags = map[string]string{
	"log-level":       "log_level",
	"color":           "color",
	"bin-dir":         "bin_dir",
	"child":           "child",
	"phase":           "phases",
	"report":          "report",
	"poll-interval":   "poll_interval",
	"poll-count":      "poll_count",
	"missing-program": "missing_program",
}

type options struct {
	configPath string
}

func NewRootCmd() *cobra.Command {
	root, _ := newRootCommand()
	return root
}

func newRootCommand() (*cobra.Command, *options) {
	opts := &options{}
	defaults := config.Defaults()

	root := &cobra.Command{
		Use:     "procshim",
		Short:   "Start, wait for and probe child processes",
		Version: version,
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "", "Path to a TOML configuration file")
	root.PersistentFlags().String("log-level", defaults.LogLevel, "Log level (debug, info, notice, warn, error, silent)")
	root.PersistentFlags().String("color", defaults.Color, "Colored output (auto, always, never)")

	root.AddCommand(newRunCmd(opts))
	root.AddCommand(newSpawnCmd(opts))
	root.AddCommand(newStatusCmd(opts))
	root.AddCommand(newManCmd())

	root.SilenceUsage = true
	root.SilenceErrors = true

	return root, opts
}

// Execute runs the CLI entrypoint and exits the process.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := NewRootCmd().ExecuteContext(ctx)
	stop()
	os.Exit(exitCode(err, os.Stderr))
}

// exitCodeError carries a specific process exit status out of a command.
// A nil err exits silently.
type exitCodeError struct {
	code int
	err  error
}

func (e *exitCodeError) Error() string {
	if e.err != nil {
		return e.err.Error()
	}
	return fmt.Sprintf("exit status %d", e.code)
}

func (e *exitCodeError) Unwrap() error { return e.err }

func exitCode(err error, stderr io.Writer) int {
	if err == nil {
		return 0
	}
	var ec *exitCodeError
	if errors.As(err, &ec) {
		if ec.err != nil {
			fmt.Fprintln(stderr, ec.err)
		}
		return ec.code
	}
	fmt.Fprintln(stderr, err)
	return 1
}

// load resolves the configuration for cmd, applying changed flags last.
func (o *options) load(cmd *cobra.Command) (*config.Harness, error) {
	overrides, err := flagOverrides(cmd.Flags())
	if err != nil {
		return nil, err
	}
	return config.Load(o.configPath, overrides)
}

func flagOverrides(flags *pflag.FlagSet) (map[string]any, error) {
	overrides := make(map[string]any)
	for name, key := range configFlags {
		f := flags.Lookup(name)
		if f == nil || !f.Changed {
			continue
		}
		var (
			value any
			err   error
		)
		switch f.Value.Type() {
		case "intSlice":
			value, err = flags.GetIntSlice(name)
		case "int":
			value, err = flags.GetInt(name)
		case "duration":
			value, err = flags.GetDuration(name)
		default:
			value = f.Value.String()
		}
		if err != nil {
			return nil, fmt.Errorf("flag --%s: %w", name, err)
		}
		overrides[key] = value
	}
	return overrides, nil
}

func newLogger(cmd *cobra.Command, cfg *config.Harness) *logging.Logger {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logging.LevelInfo
	}
	return logging.NewWithOutput(cmd.ErrOrStderr(), level)
}

func newConsole(out, errw io.Writer, cfg *config.Harness) *console.Console {
	mode, err := console.ParseColorMode(cfg.Color)
	if err != nil {
		mode = console.ColorAuto
	}
	return console.New(out, errw, mode)
}
