// Package worker runs background tasks on a fixed number of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/pders01/shelf/internal/bus"
	"github.com/pders01/shelf/internal/debuglog"
)

// DefaultSize is the number of tasks that may run at once.
const DefaultSize = 10

// ErrPoolClosed is returned by Submit after Shutdown.
var ErrPoolClosed = errors.New("worker pool closed")

// Task is a unit of background work. Errors are logged by the pool and
// otherwise ignored; a task reports anything the user should see itself.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

type funcTask struct {
	name string
	fn   func(ctx context.Context) error
}

func (t funcTask) Name() string                  { return t.name }
func (t funcTask) Run(ctx context.Context) error { return t.fn(ctx) }

// TaskFunc wraps fn as a Task.
func TaskFunc(name string, fn func(ctx context.Context) error) Task {
	return funcTask{name: name, fn: fn}
}

// PanicHandler is called with the task name and recovered value when a task
// panics. It runs on the worker goroutine.
type PanicHandler func(name string, value any)

type Option func(*Pool)

// WithPanicHandler sets the hook that observes recovered task panics.
func WithPanicHandler(h PanicHandler) Option {
	return func(p *Pool) { p.onPanic = h }
}

// Pool executes submitted tasks with at most Size running concurrently.
// Submit never blocks: excess tasks wait in an unbounded queue.
type Pool struct {
	size    int
	queue   *bus.Queue[Task]
	group   errgroup.Group
	onPanic PanicHandler

	dispatched chan struct{}
	once       sync.Once

	running  atomic.Int64
	finished atomic.Int64
}

// New starts a pool with size workers.
func New(size int, opts ...Option) (*Pool, error) {
	if size < 1 {
		return nil, fmt.Errorf("worker pool size must be positive, got %d", size)
	}

	p := &Pool{
		size:       size,
		queue:      bus.NewQueue[Task](),
		dispatched: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.group.SetLimit(size)

	go p.dispatch()
	return p, nil
}

// Submit enqueues t. It fails with ErrPoolClosed once Shutdown has begun.
func (p *Pool) Submit(t Task) error {
	if err := p.queue.Send(t); err != nil {
		return ErrPoolClosed
	}
	debuglog.WithFields(map[string]any{"task": t.Name()}).Debugf("task queued")
	return nil
}

// Shutdown stops accepting tasks and blocks until every queued and running
// task has returned. It is safe to call more than once.
func (p *Pool) Shutdown() {
	p.once.Do(func() {
		p.queue.Close()
		<-p.dispatched
		_ = p.group.Wait()
		debuglog.Infof("worker pool drained after %d tasks", p.finished.Load())
	})
}

// Size is the concurrency limit.
func (p *Pool) Size() int { return p.size }

// Running reports how many tasks are executing right now.
func (p *Pool) Running() int { return int(p.running.Load()) }

// Pending reports how many tasks are waiting for a free worker.
func (p *Pool) Pending() int { return p.queue.Len() }

func (p *Pool) dispatch() {
	defer close(p.dispatched)
	for {
		t, err := p.queue.Recv(context.Background())
		if err != nil {
			return
		}
		// Go blocks while size tasks are running.
		p.group.Go(func() error {
			p.execute(t)
			return nil
		})
	}
}

func (p *Pool) execute(t Task) {
	log := debuglog.WithFields(map[string]any{"task": t.Name()})

	p.running.Add(1)
	defer func() {
		p.running.Add(-1)
		p.finished.Add(1)
		if r := recover(); r != nil {
			log.Errorf("task panicked: %v\n%s", r, debug.Stack())
			if p.onPanic != nil {
				p.onPanic(t.Name(), r)
			}
		}
	}()

	log.Debugf("task started")
	// Submitted work is never cancelled.
	if err := t.Run(context.Background()); err != nil {
		log.Warnf("task failed: %v", err)
		return
	}
	log.Debugf("task finished")
}
