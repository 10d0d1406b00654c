package process

import (
	"strings"

	"github.com/sunlightlinux/procshim/pkg/logging"
)

// backend is the platform half of the package. Exactly one implementation
// is compiled in, selected by build tags.
type backend interface {
	// start creates a process running argv[0] with argv as its argument vector.
	start(argv []string) (sysProc, error)
	// wait blocks until the process terminates and returns its exit code.
	wait(p sysProc) (int, error)
	// probe reports liveness without consuming the exit status.
	probe(p sysProc) (RunState, error)
	// release frees OS resources held by the handle itself.
	release(p sysProc) error
}

var sys backend = newBackend()

// Start launches programPath with args as a background child process.
// programPath is passed to the child as argument zero. On failure the
// returned handle is nil and the error is ErrInvalidInput or an
// *ExecError whose Stage tells whether a process was ever created.
//
// The caller owns the handle: it must Wait for the child and Release the
// handle when done.
func Start(log *logging.Logger, programPath string, args []string) (*Handle, error) {
	if programPath == "" {
		log.Error("Program path is empty")
		return nil, ErrInvalidInput
	}

	argv := make([]string, 0, len(args)+1)
	argv = append(argv, programPath)
	argv = append(argv, args...)
	for _, a := range argv {
		if strings.IndexByte(a, 0) >= 0 {
			log.Error("Argument %q contains a NUL byte", a)
			return nil, ErrInvalidInput
		}
	}

	log.Debug("Starting process: %s", strings.Join(argv, " "))

	p, err := sys.start(argv)
	if err != nil {
		log.ProcessFailed(programPath, err)
		return nil, err
	}

	log.ProcessStarted(p.pid, programPath)
	return &Handle{
		proc: p,
		path: programPath,
		log:  log.WithField("pid", p.pid),
	}, nil
}
