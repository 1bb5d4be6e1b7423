package server

import (
	"golang.org/x/sync/errgroup"
)

// Dispatcher runs connection tasks on their own goroutines.
type Dispatcher interface {
	// Dispatch starts task. It may block until the dispatcher admits it.
	Dispatch(task func())

	// Wait blocks until every dispatched task has returned.
	Wait()
}

type groupDispatcher struct {
	g errgroup.Group
}

// Unbounded starts every task immediately.
func Unbounded() Dispatcher {
	return &groupDispatcher{}
}

// Limited runs at most n tasks at once; Dispatch blocks while n are running.
// n must be positive.
func Limited(n int) Dispatcher {
	d := &groupDispatcher{}
	d.g.SetLimit(n)
	return d
}

// NewDispatcher returns Limited(maxConns), or Unbounded when maxConns is not
// positive.
func NewDispatcher(maxConns int) Dispatcher {
	if maxConns <= 0 {
		return Unbounded()
	}
	return Limited(maxConns)
}

func (d *groupDispatcher) Dispatch(task func()) {
	d.g.Go(func() error {
		task()
		return nil
	})
}

func (d *groupDispatcher) Wait() {
	d.g.Wait()
}
