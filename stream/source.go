package stream

import (
	"context"

	"github.com/kbukum/poolstream/errors"
)

// FromSlice creates a sized pipeline over items. The slice is read, never
// written.
func FromSlice[T any](items []T) *Pipeline[T] {
	return newPipeline(int64(len(items)), func(_ context.Context, ex *exec) Iterator[Task[T]] {
		return &chunkTasks[T]{items: items, size: ex.batchFor(len(items))}
	})
}

// Of creates a sized pipeline over the given values.
func Of[T any](items ...T) *Pipeline[T] {
	return FromSlice(items)
}

// Empty creates a pipeline with no elements.
func Empty[T any]() *Pipeline[T] {
	return newPipeline(0, func(context.Context, *exec) Iterator[Task[T]] {
		return emptyTasks[T]{}
	})
}

// From creates a pipeline that reads iter. The iterator is closed when the
// terminal operation finishes. Since an iterator can only be read once, so
// can the pipeline.
func From[T any](iter Iterator[T]) *Pipeline[T] {
	return newPipeline(unknownSize, func(_ context.Context, ex *exec) Iterator[Task[T]] {
		return &batchTasks[T]{source: iter, size: ex.batch()}
	})
}

// FromFunc creates a pipeline whose iterator is built by factory when the
// terminal operation starts, not before. Without the Ordered
// characteristic the pipeline starts unordered.
func FromFunc[T any](factory func() Iterator[T], ch Characteristics) *Pipeline[T] {
	p := newPipeline(unknownSize, func(_ context.Context, ex *exec) Iterator[Task[T]] {
		iter := factory()
		if iter == nil {
			return &failedTasks[T]{err: errors.NilArgument("iterator")}
		}
		return &batchTasks[T]{source: iter, size: ex.batch()}
	})
	if !ch.Has(Ordered) {
		p.h.unordered.Store(true)
	}
	return p
}

// Iterate creates an infinite ordered pipeline: seed, next(seed),
// next(next(seed)), and so on. Bound it with Limit or TakeWhile, or use a
// short-circuiting terminal.
func Iterate[T any](seed T, next func(T) T) *Pipeline[T] {
	return IterateWhile(seed, nil, next)
}

// IterateWhile is like Iterate but stops before the first value for which
// hasNext returns false. A nil hasNext never stops.
func IterateWhile[T any](seed T, hasNext func(T) bool, next func(T) T) *Pipeline[T] {
	return newPipeline(unknownSize, func(_ context.Context, ex *exec) Iterator[Task[T]] {
		return &batchTasks[T]{source: &iterateIter[T]{next: seed, hasNext: hasNext, step: next}, size: ex.batch()}
	})
}

// Generate creates an infinite unordered pipeline of supplier's values.
func Generate[T any](supplier func() T) *Pipeline[T] {
	p := newPipeline(unknownSize, func(_ context.Context, ex *exec) Iterator[Task[T]] {
		return &batchTasks[T]{source: generateIter[T](supplier), size: ex.batch()}
	})
	p.h.unordered.Store(true)
	return p
}

// Concat creates a pipeline of every element of a followed by every
// element of b. It is parallel if either input is, and closing it closes
// both inputs.
func Concat[T any](a, b *Pipeline[T]) *Pipeline[T] {
	openA, openB := a.link(), b.link()

	size := int64(unknownSize)
	if a.size >= 0 && b.size >= 0 {
		size = a.size + b.size
	}

	p := newPipeline(size, func(ctx context.Context, ex *exec) Iterator[Task[T]] {
		return &concatTasks[T]{
			first:      openA(ctx, ex),
			openSecond: func(ctx context.Context) Iterator[Task[T]] { return openB(ctx, ex) },
		}
	})
	p.h.parallel.Store(a.IsParallel() || b.IsParallel())
	p.h.unordered.Store(a.h.unordered.Load() || b.h.unordered.Load())
	p.h.onClose(a.h.close)
	p.h.onClose(b.h.close)
	return p
}

// Builder accumulates values for a sized pipeline.
type Builder[T any] struct {
	items []T
	built bool
}

// NewBuilder creates an empty Builder.
func NewBuilder[T any]() *Builder[T] {
	return &Builder[T]{}
}

// Add appends v. It panics once Build has been called.
func (b *Builder[T]) Add(v T) *Builder[T] {
	if b.built {
		panic(errors.New(errors.ErrCodeConsumed, "builder has already been built"))
	}
	b.items = append(b.items, v)
	return b
}

// Build returns a pipeline over the added values. It may be called once.
func (b *Builder[T]) Build() *Pipeline[T] {
	if b.built {
		panic(errors.New(errors.ErrCodeConsumed, "builder has already been built"))
	}
	b.built = true
	return FromSlice(b.items)
}

// --- Source iterators ---

type iterateIter[T any] struct {
	next    T
	started bool
	done    bool
	hasNext func(T) bool
	step    func(T) T
}

func (it *iterateIter[T]) Next(_ context.Context) (T, bool, error) {
	var zero T
	if it.done {
		return zero, false, nil
	}
	if it.started {
		it.next = it.step(it.next)
	}
	it.started = true
	if it.hasNext != nil && !it.hasNext(it.next) {
		it.done = true
		return zero, false, nil
	}
	return it.next, true, nil
}

func (it *iterateIter[T]) Close() error { return nil }

type generateIter[T any] func() T

func (g generateIter[T]) Next(_ context.Context) (T, bool, error) { return g(), true, nil }
func (g generateIter[T]) Close() error                            { return nil }

type failedTasks[T any] struct{ err error }

func (it *failedTasks[T]) Next(context.Context) (Task[T], bool, error) { return nil, false, it.err }
func (it *failedTasks[T]) Close() error                                { return nil }
