package components

import (
	"context"
	"errors"
	"sync"

	"github.com/pthm/toybox/internal/app"
)

// pending holds the create tasks each App has not yet reported to the
// collection. The form answers without waiting on its task; the collection
// collects the outcome when it refreshes.
type pending struct {
	mu    sync.Mutex
	tasks map[*app.App][]*app.Task
}

func newPending() *pending {
	return &pending{tasks: make(map[*app.App][]*app.Task)}
}

// add records task for a. The entry is dropped once a is closed.
func (p *pending) add(a *app.App, task *app.Task) {
	p.mu.Lock()
	_, watched := p.tasks[a]
	p.tasks[a] = append(p.tasks[a], task)
	p.mu.Unlock()

	if !watched {
		go func() {
			<-a.Done()
			p.mu.Lock()
			delete(p.tasks, a)
			p.mu.Unlock()
		}()
	}
}

// settle waits for a's recorded tasks, bounded by ctx, and returns how many
// failed. Tasks still running when ctx ends stay recorded for the next call.
func (p *pending) settle(ctx context.Context, a *app.App) (failed int) {
	p.mu.Lock()
	tasks := p.tasks[a]
	if tasks != nil {
		p.tasks[a] = []*app.Task{}
	}
	p.mu.Unlock()

	var unfinished []*app.Task
	for _, task := range tasks {
		err := task.Wait(ctx)
		switch {
		case err == nil:
		case ctx.Err() != nil && !isDone(task):
			unfinished = append(unfinished, task)
		case errors.Is(err, app.ErrClosed):
		default:
			failed++
		}
	}

	if len(unfinished) > 0 {
		p.mu.Lock()
		if _, ok := p.tasks[a]; ok {
			p.tasks[a] = append(unfinished, p.tasks[a]...)
		}
		p.mu.Unlock()
	}
	return failed
}

// count returns how many tasks are recorded for a.
func (p *pending) count(a *app.App) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.tasks[a])
}

func isDone(task *app.Task) bool {
	select {
	case <-task.Done():
		return true
	default:
		return false
	}
}
