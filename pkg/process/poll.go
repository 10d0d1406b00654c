package process

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cenkalti/backoff/v5"
)

const (
	defaultMinPollInterval = 50 * time.Millisecond
	defaultMaxPollInterval = time.Second

	// Poll ends on ctx, Timeout or MaxPolls, never on backoff's clock.
	noElapsedLimit = time.Duration(math.MaxInt64)
)

var errStillRunning = errors.New("still running")

// PollOptions configures Poll.
type PollOptions struct {
	// MinInterval is the first delay between probes. Default 50ms.
	MinInterval time.Duration
	// MaxInterval caps the delay between probes. Default 1s.
	// Setting it equal to MinInterval gives a fixed schedule.
	MaxInterval time.Duration
	// Timeout bounds the whole poll. Zero means ctx alone decides.
	Timeout time.Duration
	// MaxPolls bounds the number of probes. Zero means no bound.
	MaxPolls int
	// OnPoll, if set, observes every probe.
	OnPoll func(n int, state RunState)
}

func (o PollOptions) withDefaults() PollOptions {
	if o.MinInterval <= 0 {
		o.MinInterval = defaultMinPollInterval
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = defaultMaxPollInterval
	}
	if o.MaxInterval < o.MinInterval {
		o.MaxInterval = o.MinInterval
	}
	return o
}

// Poll waits for h by repeatedly probing it with IsRunning, sleeping
// between probes. Once the child has exited it is reaped with Wait and
// its exit code returned. If the child outlives ctx, Timeout or MaxPolls,
// Poll returns ErrPollTimeout; the child keeps running and h stays valid.
func Poll(ctx context.Context, h *Handle, opts PollOptions) (int, error) {
	if h == nil {
		return ExitCodeAbnormal, ErrInvalidHandle
	}
	opts = opts.withDefaults()

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = opts.MinInterval
	b.MaxInterval = opts.MaxInterval
	b.RandomizationFactor = 0
	b.Reset()

	retryOpts := []backoff.RetryOption{
		backoff.WithBackOff(b),
		backoff.WithMaxElapsedTime(noElapsedLimit),
	}
	if opts.MaxPolls > 0 {
		retryOpts = append(retryOpts, backoff.WithMaxTries(uint(opts.MaxPolls)))
	}

	n := 0
	_, err := backoff.Retry(ctx, func() (RunState, error) {
		n++
		state, err := h.IsRunning()
		if opts.OnPoll != nil {
			opts.OnPoll(n, state)
		}
		switch {
		case err != nil:
			return state, backoff.Permanent(err)
		case state == StateRunning:
			return state, errStillRunning
		default:
			return state, nil
		}
	}, retryOpts...)

	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ExitCodeAbnormal, fmt.Errorf("%w after %d probes: %w", ErrPollTimeout, n, ctxErr)
		}
		if errors.Is(err, errStillRunning) {
			return ExitCodeAbnormal, fmt.Errorf("%w after %d probes", ErrPollTimeout, n)
		}
		return ExitCodeAbnormal, err
	}

	return h.Wait()
}
