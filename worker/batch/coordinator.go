// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

// Package batch runs client-supplied work over a slice of items,
// concurrently and cancellably, returning one result per item in
// submission order.
package batch

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/juju/clock"
	"github.com/juju/collections/set"
	"github.com/juju/errors"
	"github.com/juju/worker/v4"
	"github.com/juju/worker/v4/catacomb"
)

const (
	// ErrCancelled marks a result whose task was stopped before it
	// published a value.
	ErrCancelled = errors.ConstError("task cancelled")

	// ErrStopped is returned by SubmitBatch when the coordinator is
	// killed while a batch is still in flight.
	ErrStopped = errors.ConstError("batch coordinator stopped")
)

// Logger represents the logging methods used by the coordinator.
type Logger interface {
	Debugf(string, ...interface{})
}

// Item is a single unit of batch work. An empty ID is assigned a fresh
// uuid on submission; supplying your own ID makes the item addressable
// by Cancel and replaceable by a later submission.
type Item[T any] struct {
	ID    string
	Value T
}

// Result reports the outcome of one item. Index is the item's position
// in the submitted slice. Exactly one of Value and Err is meaningful:
// a cancelled or failed item never carries a value.
type Result[R any] struct {
	Index int
	ID    string
	Value R
	Err   error
}

// WorkerFunc computes a single item's result. The context is cancelled
// when the item is cancelled or the coordinator stops; implementations
// that block must honour it.
type WorkerFunc[T, R any] func(ctx context.Context, value T) (R, error)

// Config holds the dependencies of a batch coordinator.
type Config[T, R any] struct {
	Worker WorkerFunc[T, R]
	Clock  clock.Clock
	Logger Logger
}

// Validate ensures that the config values are valid.
func (c Config[T, R]) Validate() error {
	if c.Worker == nil {
		return errors.NotValidf("nil Worker")
	}
	if c.Clock == nil {
		return errors.NotValidf("nil Clock")
	}
	if c.Logger == nil {
		return errors.NotValidf("nil Logger")
	}
	return nil
}

// Coordinator fans a batch of items out to per-item tasks and collects
// their results. Each task runs under an internal runner keyed by item
// id, so individual items can be cancelled or replaced while the rest
// of the batch proceeds.
type Coordinator[T, R any] struct {
	catacomb catacomb.Catacomb
	config   Config[T, R]
	runner   *worker.Runner

	mu   sync.Mutex
	live set.Strings
}

// NewCoordinator returns a coordinator running the supplied config's
// WorkerFunc. It is a worker.Worker; kill it to cancel everything.
func NewCoordinator[T, R any](config Config[T, R]) (*Coordinator[T, R], error) {
	if err := config.Validate(); err != nil {
		return nil, errors.Trace(err)
	}
	c := &Coordinator[T, R]{
		config: config,
		live:   set.NewStrings(),
		runner: worker.NewRunner(worker.RunnerParams{
			// A task failing is reported in its Result; it must never
			// be restarted or take the coordinator down.
			IsFatal: func(error) bool { return false },
			Clock:   config.Clock,
		}),
	}
	if err := catacomb.Invoke(catacomb.Plan{
		Site: &c.catacomb,
		Work: c.loop,
		Init: []worker.Worker{c.runner},
	}); err != nil {
		return nil, errors.Trace(err)
	}
	return c, nil
}

func (c *Coordinator[T, R]) loop() error {
	defer c.runner.Kill()

	<-c.catacomb.Dying()
	return c.catacomb.ErrDying()
}

// Kill is part of the worker.Worker interface.
func (c *Coordinator[T, R]) Kill() {
	c.catacomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (c *Coordinator[T, R]) Wait() error {
	return c.catacomb.Wait()
}

// SubmitBatch starts one task per item and blocks until every task has
// reported, returning the results sorted by submission index. The
// returned slice always has len(items) entries: a failed item carries
// its error, a cancelled one carries ErrCancelled. Submitting an id
// that is already in flight stops the old task before starting the
// new one.
func (c *Coordinator[T, R]) SubmitBatch(ctx context.Context, items []Item[T]) ([]Result[R], error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := make(chan Result[R], len(items))
	for i, item := range items {
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
		if err := c.startTask(i, item, results); err != nil {
			return nil, errors.Trace(err)
		}
	}

	collected := make([]Result[R], 0, len(items))
	for len(collected) < len(items) {
		select {
		case <-c.catacomb.Dying():
			return nil, ErrStopped
		case <-ctx.Done():
			return nil, errors.Trace(ctx.Err())
		case res := <-results:
			collected = append(collected, res)
		}
	}
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].Index < collected[j].Index
	})
	return collected, nil
}

func (c *Coordinator[T, R]) startTask(index int, item Item[T], results chan<- Result[R]) error {
	// Replace in place: the old task must be fully dead (and its
	// cancelled marker published) before the new one starts, so no two
	// tasks ever share an id.
	if err := c.runner.StopAndRemoveWorker(item.ID, c.catacomb.Dying()); err != nil && !errors.IsNotFound(err) {
		return errors.Annotatef(err, "replacing task %q", item.ID)
	}
	c.track(item.ID)
	if err := c.runner.StartWorker(item.ID, func() (worker.Worker, error) {
		return newTask(index, item, c.config.Worker, results, c.untrack), nil
	}); err != nil {
		c.untrack(item.ID)
		return errors.Annotatef(err, "starting task %q", item.ID)
	}
	c.config.Logger.Debugf("started task %q (index %d)", item.ID, index)
	return nil
}

// Cancel stops the task with the given id, if one is in flight. Its
// result is published as an ErrCancelled marker. Cancelling an unknown
// or already-finished id is not an error.
func (c *Coordinator[T, R]) Cancel(id string) error {
	c.config.Logger.Debugf("cancelling task %q", id)
	if err := c.runner.StopAndRemoveWorker(id, c.catacomb.Dying()); err != nil && !errors.IsNotFound(err) {
		return errors.Trace(err)
	}
	return nil
}

// CancelAll stops every in-flight task.
func (c *Coordinator[T, R]) CancelAll() error {
	for _, id := range c.ids() {
		if err := c.Cancel(id); err != nil {
			return errors.Trace(err)
		}
	}
	return nil
}

// Len reports the number of tasks currently in flight.
func (c *Coordinator[T, R]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live.Size()
}

func (c *Coordinator[T, R]) ids() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live.SortedValues()
}

func (c *Coordinator[T, R]) track(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live.Add(id)
}

func (c *Coordinator[T, R]) untrack(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.live.Remove(id)
}
