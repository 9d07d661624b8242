// Package app implements the root controller of a toy inventory view.
//
// An App owns the authoritative in-memory toy list and the show-form flag for
// one mounted view (a browser session or a terminal). A single goroutine owns
// the State; operations are posted to it over a channel and backend requests
// run on their own goroutines, posting their reconciliation back to the loop
// when they complete:
//
//	a := app.New(client, app.WithLogger(logger))
//	defer a.Close()
//
//	task := a.LikeToy(id)
//	_ = task.Wait(ctx)
//	state := a.Snapshot()
//
// Failed requests leave the state untouched and are reported to the logger
// and the optional error handler. Nothing is retried.
//
// Close unmounts the view: in-flight requests are cancelled and responses that
// still arrive are discarded.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pthm/toybox/internal/logging"
	"github.com/pthm/toybox/internal/toy"
	"github.com/pthm/toybox/internal/toyapi"
)

// ErrorHandler receives every failed operation as an *OpError.
type ErrorHandler func(err error)

// Option configures an App.
type Option func(*App)

// WithLogger sets the structured logger failures are reported to.
func WithLogger(logger *slog.Logger) Option {
	return func(a *App) {
		a.logger = logging.OrNop(logger)
	}
}

// WithErrorHandler registers a callback for failed operations. It runs on
// the request's goroutine, never on the state loop.
func WithErrorHandler(h ErrorHandler) Option {
	return func(a *App) {
		a.onError = h
	}
}

// WithRequestTimeout bounds each backend request. Zero means no timeout.
func WithRequestTimeout(d time.Duration) Option {
	return func(a *App) {
		a.timeout = d
	}
}

// App is the root controller. Create it with New.
type App struct {
	api     toyapi.API
	logger  *slog.Logger
	onError ErrorHandler
	timeout time.Duration

	ctx       context.Context
	cancel    context.CancelFunc
	ops       chan func(*loop)
	done      chan struct{}
	closeOnce sync.Once
	subSeq    atomic.Uint64

	loaded *Task
	final  State // written by the loop before done is closed
}

// loop is the state owned by the App's goroutine.
type loop struct {
	state State
	subs  map[uint64]chan State
}

// commit installs next and notifies subscribers. Subscribers only ever see
// the latest state; an unread older state is replaced.
func (l *loop) commit(next State) {
	l.state = next
	for _, ch := range l.subs {
		select {
		case <-ch:
		default:
		}
		ch <- next.clone()
	}
}

// New mounts an App and issues the initial list request.
func New(api toyapi.API, opts ...Option) *App {
	ctx, cancel := context.WithCancel(context.Background())
	a := &App{
		api:    api,
		logger: logging.Nop(),
		ctx:    ctx,
		cancel: cancel,
		ops:    make(chan func(*loop)),
		done:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(a)
	}

	go a.run()

	a.loaded = newTask(OpLoad)
	a.request(a.loaded, toy.ID{}, func(ctx context.Context) (func(State) State, error) {
		toys, err := a.api.List(ctx)
		if err != nil {
			return nil, err
		}
		a.logger.Debug("toys loaded", "count", len(toys))
		return func(s State) State { return s.withToys(toys) }, nil
	})
	return a
}

func (a *App) run() {
	l := &loop{subs: make(map[uint64]chan State)}
	defer close(a.done)

	for {
		select {
		case fn := <-a.ops:
			fn(l)
		case <-a.ctx.Done():
			a.final = l.state
			for id, ch := range l.subs {
				close(ch)
				delete(l.subs, id)
			}
			return
		}
	}
}

// dispatch hands fn to the loop. It returns false once the App is closed, in
// which case fn never runs.
func (a *App) dispatch(fn func(*loop)) bool {
	select {
	case a.ops <- fn:
		return true
	case <-a.ctx.Done():
		return false
	}
}

// Loaded returns the task of the initial list request.
func (a *App) Loaded() *Task {
	return a.loaded
}

// Snapshot returns a copy of the current state. After Close it returns the
// state as it was when the App was closed.
func (a *App) Snapshot() State {
	reply := make(chan State, 1)
	if a.dispatch(func(l *loop) { reply <- l.state.clone() }) {
		return <-reply
	}
	<-a.done
	return a.final.clone()
}

// Subscribe returns a channel receiving the state after every change, starting
// with the current one. The channel is closed when cancel is called or the
// App is closed.
func (a *App) Subscribe() (<-chan State, func()) {
	id := a.subSeq.Add(1)
	ch := make(chan State, 1)

	if !a.dispatch(func(l *loop) {
		l.subs[id] = ch
		ch <- l.state.clone()
	}) {
		close(ch)
		return ch, func() {}
	}

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			a.dispatch(func(l *loop) {
				if c, ok := l.subs[id]; ok {
					delete(l.subs, id)
					close(c)
				}
			})
		})
	}
	return ch, cancel
}

// ToggleForm flips ShowForm and returns its new value.
func (a *App) ToggleForm() bool {
	reply := make(chan bool, 1)
	if a.dispatch(func(l *loop) {
		l.commit(l.state.withShowForm(!l.state.ShowForm))
		reply <- l.state.ShowForm
	}) {
		return <-reply
	}
	return a.Snapshot().ShowForm
}

// AddToy creates draft on the backend and appends the returned toy.
// The draft is sent as given.
func (a *App) AddToy(draft toy.Draft) *Task {
	task := newTask(OpAdd)
	a.request(task, toy.ID{}, func(ctx context.Context) (func(State) State, error) {
		created, err := a.api.Create(ctx, draft)
		if err != nil {
			return nil, err
		}
		a.logger.Info("toy created", "toy_id", created.ID.String(), "name", created.Name)
		return func(s State) State { return s.withAppended(created) }, nil
	})
	return task
}

// DeleteToy deletes the toy on the backend and, on success, removes it from
// the list whatever the response body held.
func (a *App) DeleteToy(id toy.ID) *Task {
	task := newTask(OpDelete)
	a.request(task, id, func(ctx context.Context) (func(State) State, error) {
		if err := a.api.Delete(ctx, id); err != nil {
			return nil, err
		}
		a.logger.Info("toy deleted", "toy_id", id.String())
		return func(s State) State { return s.withoutID(id) }, nil
	})
	return task
}

// LikeToy sends likes+1 for the toy and replaces the cached entry with the
// backend's full response. The toy is looked up once the initial load has
// completed; an id missing from the list then fails the task with
// ErrToyNotFound without issuing a request.
func (a *App) LikeToy(id toy.ID) *Task {
	task := newTask(OpLike)

	select {
	case <-a.loaded.Done():
		a.like(task, id)
	default:
		go func() {
			select {
			case <-a.loaded.Done():
				a.like(task, id)
			case <-a.ctx.Done():
				task.finish(&OpError{Op: OpLike, ID: id, Err: ErrClosed})
			}
		}()
	}
	return task
}

func (a *App) like(task *Task, id toy.ID) {
	if !a.dispatch(func(l *loop) {
		current, ok := l.state.Find(id)
		if !ok {
			go a.fail(task, id, ErrToyNotFound)
			return
		}
		likes := current.Likes + 1
		a.request(task, id, func(ctx context.Context) (func(State) State, error) {
			updated, err := a.api.UpdateLikes(ctx, id, likes)
			if err != nil {
				return nil, err
			}
			a.logger.Debug("toy liked", "toy_id", id.String(), "likes", updated.Likes)
			return func(s State) State { return s.withReplaced(id, updated) }, nil
		})
	}) {
		task.finish(&OpError{Op: OpLike, ID: id, Err: ErrClosed})
	}
}

// Close unmounts the App: pending requests are cancelled and late responses
// are dropped. It is safe to call more than once.
func (a *App) Close() {
	a.closeOnce.Do(func() {
		a.cancel()
		<-a.done
	})
}

// Done is closed once the App has been closed.
func (a *App) Done() <-chan struct{} {
	return a.done
}

// request runs call on its own goroutine and posts the resulting state update
// to the loop.
func (a *App) request(task *Task, id toy.ID, call func(ctx context.Context) (func(State) State, error)) {
	if a.ctx.Err() != nil {
		task.finish(&OpError{Op: task.op, ID: id, Err: ErrClosed})
		return
	}

	go func() {
		ctx, cancel := a.requestContext()
		defer cancel()

		apply, err := call(ctx)
		if err != nil {
			a.fail(task, id, err)
			return
		}

		if !a.dispatch(func(l *loop) {
			if a.ctx.Err() != nil {
				task.finish(&OpError{Op: task.op, ID: id, Err: ErrClosed})
				return
			}
			l.commit(apply(l.state))
			task.finish(nil)
		}) {
			a.logger.Debug("response discarded after close", "op", string(task.op), "toy_id", id.String())
			task.finish(&OpError{Op: task.op, ID: id, Err: ErrClosed})
		}
	}()
}

func (a *App) requestContext() (context.Context, context.CancelFunc) {
	if a.timeout > 0 {
		return context.WithTimeout(a.ctx, a.timeout)
	}
	return context.WithCancel(a.ctx)
}

// fail reports err and completes task without touching the state.
func (a *App) fail(task *Task, id toy.ID, err error) {
	opErr := &OpError{Op: task.op, ID: id, Err: err}

	switch {
	case a.ctx.Err() != nil && errors.Is(err, context.Canceled):
		a.logger.Debug("request cancelled by close", "op", string(task.op), "toy_id", id.String())
		opErr.Err = fmt.Errorf("%w: %w", ErrClosed, err)
		task.finish(opErr)
		return
	case errors.Is(err, ErrToyNotFound):
		a.logger.Warn("toy not in list", "op", string(task.op), "toy_id", id.String())
	default:
		a.logger.Error("toy request failed", "op", string(task.op), "toy_id", id.String(), "error", err)
	}

	if a.onError != nil {
		a.onError(opErr)
	}
	task.finish(opErr)
}
