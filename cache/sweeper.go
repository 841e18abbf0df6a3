// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package cache

import (
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/catacomb"
)

// DefaultSweepInterval is how often the sweeper evicts expired entries
// when the caller does not say otherwise.
const DefaultSweepInterval = 5 * time.Minute

// Logger represents the methods the sweeper uses to log.
type Logger interface {
	Debugf(string, ...interface{})
}

// SweeperConfig holds what a sweeper needs to run.
type SweeperConfig struct {
	Store    *Store
	Clock    clock.Clock
	Logger   Logger
	Interval time.Duration
}

// Validate returns an error if the config cannot drive a sweeper.
func (config SweeperConfig) Validate() error {
	if config.Store == nil {
		return errors.NotValidf("nil Store")
	}
	if config.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if config.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	if config.Interval <= 0 {
		return errors.NotValidf("non-positive Interval")
	}
	return nil
}

// NewSweeper returns a worker that periodically evicts expired entries
// from the store, independent of reads, so memory stays bounded.
func NewSweeper(config SweeperConfig) (worker.Worker, error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	w := &sweeper{config: config}
	err := catacomb.Invoke(catacomb.Plan{
		Site: &w.catacomb,
		Work: w.loop,
	})
	return w, errors.Trace(err)
}

type sweeper struct {
	catacomb catacomb.Catacomb
	config   SweeperConfig
}

// Kill is part of the worker.Worker interface.
func (w *sweeper) Kill() {
	w.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (w *sweeper) Wait() error {
	return w.catacomb.Wait()
}

func (w *sweeper) loop() error {
	timer := w.config.Clock.NewTimer(w.config.Interval)
	defer timer.Stop()

	for {
		select {
		case <-w.catacomb.Dying():
			return w.catacomb.ErrDying()
		case <-timer.Chan():
			if evicted := w.config.Store.Sweep(); evicted > 0 {
				w.config.Logger.Debugf("evicted %d expired cache entries", evicted)
			}
			// Re-arm only after the sweep completes.
			timer.Reset(w.config.Interval)
		}
	}
}
