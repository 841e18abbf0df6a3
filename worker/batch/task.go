// Copyright 2026 Athena AI Ltd.
// Licensed under the AGPLv3, see LICENCE file for details.

package batch

import (
	"context"

	"gopkg.in/tomb.v2"
)

// task runs a single item's WorkerFunc under its own tomb so that it can
// be cancelled independently of its siblings. It always exits nil: an
// error from the underlying function is data published in the Result,
// not a lifecycle failure.
type task[T, R any] struct {
	tomb tomb.Tomb

	index   int
	item    Item[T]
	run     WorkerFunc[T, R]
	results chan<- Result[R]
	untrack func(id string)
}

func newTask[T, R any](index int, item Item[T], run WorkerFunc[T, R], results chan<- Result[R], untrack func(string)) *task[T, R] {
	t := &task[T, R]{
		index:   index,
		item:    item,
		run:     run,
		results: results,
		untrack: untrack,
	}
	t.tomb.Go(t.loop)
	return t
}

func (t *task[T, R]) loop() error {
	defer t.untrack(t.item.ID)

	value, err := t.run(t.tomb.Context(context.Background()), t.item.Value)

	res := Result[R]{Index: t.index, ID: t.item.ID, Value: value, Err: err}
	select {
	case <-t.tomb.Dying():
		// Cancelled before publication. The computed value must not
		// escape, so it is replaced wholesale by the marker result.
		res = Result[R]{Index: t.index, ID: t.item.ID, Err: ErrCancelled}
	default:
	}

	// The results channel is buffered to the batch size, so publishing
	// never blocks task death.
	t.results <- res
	return nil
}

// Kill is part of the worker.Worker interface.
func (t *task[T, R]) Kill() {
	t.tomb.Kill(nil)
}

// Wait is part of the worker.Worker interface.
func (t *task[T, R]) Wait() error {
	return t.tomb.Wait()
}
