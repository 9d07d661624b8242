package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/pthm/toybox/internal/toy"
)

// Op names a controller operation in logs and errors.
type Op string

// Controller operations.
const (
	OpLoad   Op = "load"
	OpAdd    Op = "add"
	OpDelete Op = "delete"
	OpLike   Op = "like"
)

// Sentinel errors.
var (
	// ErrClosed is returned for operations started or completed after Close.
	ErrClosed = errors.New("app: closed")

	// ErrToyNotFound is returned by LikeToy when the id is not in the list.
	ErrToyNotFound = errors.New("app: toy not found")
)

// OpError records which operation failed and for which toy.
type OpError struct {
	Op  Op
	ID  toy.ID
	Err error
}

func (e *OpError) Error() string {
	if e.ID.IsZero() {
		return fmt.Sprintf("%s toy: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s toy %s: %v", e.Op, e.ID, e.Err)
}

func (e *OpError) Unwrap() error {
	return e.Err
}

// Task tracks one request issued by the App. It completes once the response
// has been reconciled into the state, or with the error that left the state
// untouched.
type Task struct {
	op   Op
	done chan struct{}
	err  error
}

func newTask(op Op) *Task {
	return &Task{op: op, done: make(chan struct{})}
}

func (t *Task) finish(err error) {
	t.err = err
	close(t.done)
}

// Op returns the operation this task runs.
func (t *Task) Op() Op {
	return t.op
}

// Done is closed when the task completes.
func (t *Task) Done() <-chan struct{} {
	return t.done
}

// Err returns the task's error, or nil while it is still running.
func (t *Task) Err() error {
	select {
	case <-t.done:
		return t.err
	default:
		return nil
	}
}

// Wait blocks until the task completes or ctx is done. A cancelled ctx only
// stops the wait; the request keeps its own lifecycle. A completed task
// reports its result even when ctx is already done.
func (t *Task) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	default:
	}
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
