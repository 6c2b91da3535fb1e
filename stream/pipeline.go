package stream

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/kbukum/poolstream/errors"
	"github.com/kbukum/poolstream/workpool"
)

const unknownSize = -1

// header is the state shared by every stage of one pipeline chain.
type header struct {
	parallel  atomic.Bool
	unordered atomic.Bool

	mu      sync.Mutex
	closers []func() error
	closed  bool
}

func (h *header) onClose(fn func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closers = append(h.closers, fn)
}

func (h *header) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closed
}

// close runs the registered handlers once, in registration order. Every
// handler runs even if an earlier one fails.
func (h *header) close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	closers := h.closers
	h.closers = nil
	h.mu.Unlock()

	var errs []error
	for _, fn := range closers {
		if err := fn(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// opener creates the task iterator of a stage for one traversal.
type opener[T any] func(ctx context.Context, ex *exec) Iterator[Task[T]]

// Pipeline is a lazy, single-use sequence of values. Nothing runs until a
// terminal operation such as ToSlice or ForEach is called.
//
// Every chaining call links the handle it is called on and returns a new
// one; a linked handle panics with STREAM_CONSUMED when chained again and
// returns STREAM_CONSUMED from terminal operations. Mode switches
// (Parallel, Sequential, Unordered) apply to the whole chain and return the
// same handle; the last switch before the terminal operation wins.
//
// A Pipeline is not safe for concurrent use.
type Pipeline[T any] struct {
	h      *header
	open   opener[T]
	size   int64
	linked atomic.Bool
}

func newPipeline[T any](size int64, open opener[T]) *Pipeline[T] {
	return &Pipeline[T]{h: &header{}, open: open, size: size}
}

// link marks p as used by a downstream stage and returns its opener.
func (p *Pipeline[T]) link() opener[T] {
	if p.linked.Swap(true) || p.h.isClosed() {
		panic(errors.Consumed())
	}
	return p.open
}

// consume marks p as used by a terminal operation.
func (p *Pipeline[T]) consume() (opener[T], error) {
	if p.linked.Swap(true) || p.h.isClosed() {
		return nil, errors.Consumed()
	}
	return p.open, nil
}

// then builds the next stage over p.
func then[T, U any](p *Pipeline[T], size int64, build func(up opener[T]) opener[U]) *Pipeline[U] {
	up := p.link()
	return &Pipeline[U]{h: p.h, open: build(up), size: size}
}

// stage appends a stateless per-batch transformation.
func stage[T, U any](p *Pipeline[T], size int64, fn func(context.Context, []T) ([]U, error)) *Pipeline[U] {
	return then(p, size, func(up opener[T]) opener[U] {
		return func(ctx context.Context, ex *exec) Iterator[Task[U]] {
			return &stageTasks[T, U]{source: up(ctx, ex), fn: fn}
		}
	})
}

// Parallel switches the chain to parallel evaluation.
func (p *Pipeline[T]) Parallel() *Pipeline[T] {
	p.h.parallel.Store(true)
	return p
}

// Sequential switches the chain to sequential evaluation on the caller's
// goroutine.
func (p *Pipeline[T]) Sequential() *Pipeline[T] {
	p.h.parallel.Store(false)
	return p
}

// Unordered drops the encounter-order constraint, letting FindFirst return
// any element in parallel mode.
func (p *Pipeline[T]) Unordered() *Pipeline[T] {
	p.h.unordered.Store(true)
	return p
}

// IsParallel reports whether a terminal operation would evaluate in parallel.
func (p *Pipeline[T]) IsParallel() bool {
	return p.h.parallel.Load()
}

// OnClose registers fn to run when the chain is closed.
func (p *Pipeline[T]) OnClose(fn func() error) *Pipeline[T] {
	if fn == nil {
		panic(errors.NilArgument("fn"))
	}
	if p.linked.Load() || p.h.isClosed() {
		panic(errors.Consumed())
	}
	p.h.onClose(fn)
	return p
}

// Close runs the chain's close handlers once. Handler errors are joined.
func (p *Pipeline[T]) Close() error {
	return p.h.close()
}

// --- Evaluation ---

const (
	// defaultBatch is the parallel batch size for sources of unknown size.
	defaultBatch = 64
	// maxBatch caps the batch size of sized sources.
	maxBatch = 1024
	// splitsPerWorker is how many batches a sized source is cut into per worker.
	splitsPerWorker = 4
)

// exec describes how one terminal operation evaluates its pipeline.
type exec struct {
	parallel bool
	ordered  bool
	pool     *workpool.Pool
	wave     int
}

var sequentialExec = &exec{ordered: true, wave: 1}

func (p *Pipeline[T]) newExec(ctx context.Context) *exec {
	ex := &exec{ordered: !p.h.unordered.Load(), wave: 1}
	if !p.h.parallel.Load() {
		return ex
	}
	pool := workpool.PoolFrom(ctx)
	if pool == nil {
		pool = workpool.Default()
	}
	ex.parallel = true
	ex.pool = pool
	ex.wave = max(1, pool.Size())
	return ex
}

// batchFor returns the batch size for a source of n elements.
func (ex *exec) batchFor(n int) int {
	if !ex.parallel || n <= 0 {
		return 1
	}
	splits := ex.wave * splitsPerWorker
	per := n / splits
	if n%splits != 0 {
		per++
	}
	return min(max(1, per), maxBatch)
}

// batch returns the batch size for a source of unknown size.
func (ex *exec) batch() int {
	if !ex.parallel {
		return 1
	}
	return defaultBatch
}

// run executes fns, concurrently on the pool in parallel mode.
func (ex *exec) run(ctx context.Context, fns []func(context.Context) error) error {
	if !ex.parallel || len(fns) < 2 {
		for _, fn := range fns {
			if err := fn(ctx); err != nil {
				return err
			}
		}
		return nil
	}
	return ex.pool.InvokeAll(ctx, fns...)
}

// pull reads up to one wave of tasks from src.
func pull[T any](ctx context.Context, ex *exec, src Iterator[Task[T]]) ([]Task[T], bool, error) {
	tasks := make([]Task[T], 0, ex.wave)
	for len(tasks) < ex.wave {
		t, ok, err := src.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			return tasks, true, nil
		}
		tasks = append(tasks, t)
	}
	return tasks, false, nil
}

// runWave runs every task of a wave and applies leaf to its batch. Results
// are returned in task order.
func runWave[T, A any](ctx context.Context, ex *exec, tasks []Task[T], leaf func(context.Context, []T) (A, error)) ([]A, error) {
	out := make([]A, len(tasks))
	fns := make([]func(context.Context) error, len(tasks))
	for i, t := range tasks {
		fns[i] = func(ctx context.Context) error {
			batch, err := t(ctx)
			if err != nil {
				return err
			}
			out[i], err = leaf(ctx, batch)
			return err
		}
	}
	if err := ex.run(ctx, fns); err != nil {
		return nil, err
	}
	return out, nil
}

// drive runs src wave by wave, handing every batch to visit. Once visit
// reports stop, no further wave is pulled.
func drive[T any](ctx context.Context, ex *exec, src Iterator[Task[T]], visit func(context.Context, []T) (bool, error)) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tasks, exhausted, err := pull(ctx, ex, src)
		if err != nil {
			return err
		}
		stops, err := runWave(ctx, ex, tasks, visit)
		if err != nil {
			return err
		}
		if exhausted {
			return nil
		}
		for _, stop := range stops {
			if stop {
				return nil
			}
		}
	}
}

// partials runs src to exhaustion and returns leaf's result for every
// batch in encounter order.
func partials[T, A any](ctx context.Context, ex *exec, src Iterator[Task[T]], leaf func(context.Context, []T) (A, error)) ([]A, error) {
	var out []A
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		tasks, exhausted, err := pull(ctx, ex, src)
		if err != nil {
			return nil, err
		}
		res, err := runWave(ctx, ex, tasks, leaf)
		if err != nil {
			return nil, err
		}
		out = append(out, res...)
		if exhausted {
			return out, nil
		}
	}
}

// evaluated computes the batches of src one wave at a time and hands them
// out in encounter order. Stateful stages read upstream through it.
type evaluated[T any] struct {
	ex        *exec
	source    Iterator[Task[T]]
	ready     [][]T
	exhausted bool
}

func evaluate[T any](ex *exec, src Iterator[Task[T]]) *evaluated[T] {
	return &evaluated[T]{ex: ex, source: src}
}

func (it *evaluated[T]) Next(ctx context.Context) ([]T, bool, error) {
	for len(it.ready) == 0 {
		if it.exhausted {
			return nil, false, nil
		}
		if err := ctx.Err(); err != nil {
			return nil, false, err
		}
		tasks, exhausted, err := pull(ctx, it.ex, it.source)
		if err != nil {
			return nil, false, err
		}
		batches, err := runWave(ctx, it.ex, tasks, func(_ context.Context, b []T) ([]T, error) {
			return b, nil
		})
		if err != nil {
			return nil, false, err
		}
		it.ready = batches
		it.exhausted = exhausted
	}
	batch := it.ready[0]
	it.ready[0] = nil
	it.ready = it.ready[1:]
	return batch, true, nil
}

func (it *evaluated[T]) Close() error { return it.source.Close() }
