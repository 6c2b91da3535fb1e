package workpool

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/kbukum/poolstream/component"
	"github.com/kbukum/poolstream/errors"
	"github.com/kbukum/poolstream/logger"
	"github.com/kbukum/poolstream/observability"
)

// Pool is a fixed set of worker goroutines that run submitted tasks.
//
// Tasks are handed over an unbuffered channel, so a submission completes
// only once a worker has picked the task up. A Pool must be closed to
// release its goroutines, except for the one returned by Default.
type Pool struct {
	id      uuid.UUID
	name    string
	workers int

	tasks chan *task
	done  chan struct{}
	wg    sync.WaitGroup

	closeOnce  sync.Once
	persistent bool

	log     *logger.Logger
	metrics *observability.PoolMetrics
}

// task is one unit of work in flight between a submitter and a worker.
type task struct {
	ctx context.Context
	fn  func(context.Context) error

	err      error
	panicked bool
	panicVal any
	finished chan struct{}
}

func newTask(ctx context.Context, fn func(context.Context) error) *task {
	return &task{ctx: ctx, fn: fn, finished: make(chan struct{})}
}

// New creates a pool and starts its workers.
func New(cfg Config, opts ...Option) (*Pool, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = logger.Get("workpool")
	}

	p := &Pool{
		id:      uuid.New(),
		name:    cfg.Name,
		workers: cfg.Workers,
		tasks:   make(chan *task),
		done:    make(chan struct{}),
		log:     o.log.WithFields(logger.Fields(logger.FieldPool, cfg.Name)),
		metrics: o.metrics,
	}

	p.wg.Add(p.workers)
	for i := 0; i < p.workers; i++ {
		go p.work(i)
	}

	p.log.Debug("pool started", logger.Fields(
		logger.FieldPoolID, p.id.String(),
		"workers", p.workers,
	))
	return p, nil
}

// MustNew is like New but panics on an invalid configuration.
func MustNew(cfg Config, opts ...Option) *Pool {
	p, err := New(cfg, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

// ID returns the unique identifier assigned at creation.
func (p *Pool) ID() string { return p.id.String() }

// Name returns the configured pool name.
func (p *Pool) Name() string { return p.name }

// Size returns the number of worker goroutines.
func (p *Pool) Size() int { return p.workers }

func (p *Pool) String() string {
	return fmt.Sprintf("%s(%d workers)", p.name, p.workers)
}

// Contains reports whether ctx belongs to a task running on one of p's workers.
func (p *Pool) Contains(ctx context.Context) bool {
	return PoolFrom(ctx) == p
}

// Closed reports whether Close has been called.
func (p *Pool) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

func (p *Pool) work(id int) {
	defer p.wg.Done()
	for {
		select {
		case t := <-p.tasks:
			p.run(id, t)
		case <-p.done:
			return
		}
	}
}

func (p *Pool) run(id int, t *task) {
	ctx := withWorker(t.ctx, Worker{Pool: p, ID: id})
	start := time.Now()
	p.metrics.RecordTaskStart(ctx, p.name)

	defer func() {
		if r := recover(); r != nil {
			t.panicked = true
			t.panicVal = r
			p.log.WithContext(ctx).Warn("task panicked", logger.Fields(
				logger.FieldWorker, id,
				"panic", fmt.Sprint(r),
			))
		}
		p.metrics.RecordTaskEnd(ctx, p.name, time.Since(start), t.panicked)
		close(t.finished)
	}()

	t.err = t.fn(ctx)
}

// runInline executes t on the calling goroutine, capturing a panic the same
// way a worker would.
func (p *Pool) runInline(t *task) {
	p.metrics.RecordInline(t.ctx, p.name)
	defer func() {
		if r := recover(); r != nil {
			t.panicked = true
			t.panicVal = r
		}
		close(t.finished)
	}()
	t.err = t.fn(t.ctx)
}

// submit hands t to a worker, blocking until one accepts it.
func (p *Pool) submit(ctx context.Context, t *task) error {
	if p.Closed() {
		return errors.PoolClosed(p.name)
	}
	select {
	case p.tasks <- t:
		p.metrics.RecordSubmitted(ctx, p.name)
		return nil
	case <-p.done:
		return errors.PoolClosed(p.name)
	case <-ctx.Done():
		return ctx.Err()
	}
}

// offer hands t to a worker only if one is idle right now.
func (p *Pool) offer(ctx context.Context, t *task) bool {
	if p.Closed() {
		return false
	}
	select {
	case p.tasks <- t:
		p.metrics.RecordSubmitted(ctx, p.name)
		return true
	default:
		return false
	}
}

// Close stops the workers once their current tasks finish. Later
// submissions fail with POOL_CLOSED. Close must not be called from a task
// running on p. Closing the Default pool is a no-op.
func (p *Pool) Close() error {
	if p.persistent {
		return nil
	}
	p.closeOnce.Do(func() {
		close(p.done)
		p.wg.Wait()
		p.log.Debug("pool closed", logger.Fields(logger.FieldPoolID, p.id.String()))
	})
	return nil
}

// --- component.Component ---

var (
	_ component.Component   = (*Pool)(nil)
	_ component.Describable = (*Pool)(nil)
)

// Start is a no-op for a running pool; workers start in New. A closed pool
// cannot be restarted.
func (p *Pool) Start(_ context.Context) error {
	if p.Closed() {
		return errors.PoolClosed(p.name)
	}
	return nil
}

// Stop closes the pool, giving up waiting for in-flight tasks when ctx is done.
func (p *Pool) Stop(ctx context.Context) error {
	stopped := make(chan struct{})
	go func() {
		_ = p.Close()
		close(stopped)
	}()
	select {
	case <-stopped:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Health reports unhealthy once the pool has been closed.
func (p *Pool) Health(_ context.Context) component.Health {
	if p.Closed() {
		return component.Health{Name: p.name, Status: component.StatusUnhealthy, Message: "closed"}
	}
	return component.Health{Name: p.name, Status: component.StatusHealthy}
}

// Describe implements component.Describable.
func (p *Pool) Describe() component.Description {
	return component.Description{
		Name:    p.name,
		Type:    "workpool",
		Details: fmt.Sprintf("workers=%d id=%s", p.workers, p.id.String()),
	}
}
