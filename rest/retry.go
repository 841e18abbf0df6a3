// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package rest

import (
	"context"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/retry"
)

// RetrySpec bounds a caller-side retry policy around dispatcher calls.
// The dispatcher itself never retries.
type RetrySpec struct {
	// Attempts is the total number of tries, including the first.
	Attempts int

	// Delay is the pause between tries.
	Delay time.Duration

	// Clock times the delays.
	Clock clock.Clock
}

// Validate returns an error if the spec cannot drive a retry loop.
func (s RetrySpec) Validate() error {
	if s.Attempts < 1 {
		return errors.NotValidf("%d attempts", s.Attempts)
	}
	if s.Delay <= 0 {
		return errors.NotValidf("non-positive delay")
	}
	if s.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	return nil
}

// CallWithRetry runs f under the spec's policy. Only transport level
// failures are retried: an HTTP status, an encoding or decoding
// mismatch, or a cancellation will not change on a second attempt, so
// those are fatal.
func CallWithRetry(ctx context.Context, spec RetrySpec, f func() error) error {
	if err := spec.Validate(); err != nil {
		return errors.Trace(err)
	}
	err := retry.Call(retry.CallArgs{
		Func:     f,
		Attempts: spec.Attempts,
		Delay:    spec.Delay,
		Clock:    spec.Clock,
		Stop:     ctx.Done(),
		IsFatalError: func(err error) bool {
			return !errors.Is(err, ErrNetworkFailure)
		},
	})
	return errors.Trace(err)
}
