package stream

import (
	"context"
	"slices"
)

// Stateful stages read their upstream through evaluated, which runs the
// upstream tasks a wave at a time (in parallel when the chain is parallel)
// and releases batches in encounter order. The stage logic itself runs on
// the goroutine driving the terminal operation.

func barrier[T any](p *Pipeline[T], size int64, wrap func(ex *exec, up *evaluated[T]) Iterator[Task[T]]) *Pipeline[T] {
	return then(p, size, func(up opener[T]) opener[T] {
		return func(ctx context.Context, ex *exec) Iterator[Task[T]] {
			return wrap(ex, evaluate(ex, up(ctx, ex)))
		}
	})
}

// Sorted sorts the elements with cmp. The sort is stable, so equal
// elements keep their encounter order. The whole upstream is evaluated
// before the first element is released.
func (p *Pipeline[T]) Sorted(cmp func(a, b T) int) *Pipeline[T] {
	return barrier(p, p.size, func(ex *exec, up *evaluated[T]) Iterator[Task[T]] {
		return &sortedTasks[T]{ex: ex, up: up, cmp: cmp}
	})
}

// Distinct keeps the first occurrence of every value, compared with ==.
// T's dynamic values must be comparable.
func (p *Pipeline[T]) Distinct() *Pipeline[T] {
	return barrier(p, unknownSize, func(_ *exec, up *evaluated[T]) Iterator[Task[T]] {
		seen := make(map[any]struct{})
		return &batchFilter[T]{up: up, fn: func(_ context.Context, in []T) ([]T, bool) {
			out := make([]T, 0, len(in))
			for _, v := range in {
				if _, dup := seen[v]; dup {
					continue
				}
				seen[v] = struct{}{}
				out = append(out, v)
			}
			return out, false
		}}
	})
}

// Limit keeps at most the first n elements. Upstream stops being pulled
// once n elements have been seen.
func (p *Pipeline[T]) Limit(n int64) *Pipeline[T] {
	checkCount(n)
	size := int64(unknownSize)
	if p.size >= 0 {
		size = min(p.size, n)
	}
	return barrier(p, size, func(_ *exec, up *evaluated[T]) Iterator[Task[T]] {
		remaining := n
		return &batchFilter[T]{up: up, done: n == 0, fn: func(_ context.Context, in []T) ([]T, bool) {
			if int64(len(in)) >= remaining {
				in = in[:remaining]
			}
			remaining -= int64(len(in))
			return in, remaining == 0
		}}
	})
}

// Skip drops the first n elements.
func (p *Pipeline[T]) Skip(n int64) *Pipeline[T] {
	checkCount(n)
	size := int64(unknownSize)
	if p.size >= 0 {
		size = max(0, p.size-n)
	}
	return barrier(p, size, func(_ *exec, up *evaluated[T]) Iterator[Task[T]] {
		remaining := n
		return &batchFilter[T]{up: up, fn: func(_ context.Context, in []T) ([]T, bool) {
			if remaining == 0 {
				return in, false
			}
			drop := min(int64(len(in)), remaining)
			remaining -= drop
			return in[drop:], false
		}}
	})
}

// TakeWhile keeps elements up to, not including, the first one for which
// pred is false.
func (p *Pipeline[T]) TakeWhile(pred func(context.Context, T) bool) *Pipeline[T] {
	return barrier(p, unknownSize, func(_ *exec, up *evaluated[T]) Iterator[Task[T]] {
		return &batchFilter[T]{up: up, fn: func(ctx context.Context, in []T) ([]T, bool) {
			for i, v := range in {
				if !pred(ctx, v) {
					return in[:i], true
				}
			}
			return in, false
		}}
	})
}

// DropWhile drops elements up to, not including, the first one for which
// pred is false, and keeps everything after.
func (p *Pipeline[T]) DropWhile(pred func(context.Context, T) bool) *Pipeline[T] {
	return barrier(p, unknownSize, func(_ *exec, up *evaluated[T]) Iterator[Task[T]] {
		dropping := true
		return &batchFilter[T]{up: up, fn: func(ctx context.Context, in []T) ([]T, bool) {
			if !dropping {
				return in, false
			}
			for i, v := range in {
				if !pred(ctx, v) {
					dropping = false
					return in[i:], false
				}
			}
			return nil, false
		}}
	})
}

// batchFilter rewrites evaluated batches one at a time. fn returns the
// batch to release and whether the stage is finished.
type batchFilter[T any] struct {
	up   *evaluated[T]
	fn   func(context.Context, []T) ([]T, bool)
	done bool
}

func (it *batchFilter[T]) Next(ctx context.Context) (Task[T], bool, error) {
	if it.done {
		return nil, false, nil
	}
	batch, ok, err := it.up.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	out, finished := it.fn(ctx, batch)
	it.done = finished
	return constTask(out), true, nil
}

func (it *batchFilter[T]) Close() error { return it.up.Close() }

type sortedTasks[T any] struct {
	ex     *exec
	up     *evaluated[T]
	cmp    func(a, b T) int
	sorted Iterator[Task[T]]
}

func (it *sortedTasks[T]) Next(ctx context.Context) (Task[T], bool, error) {
	if it.sorted == nil {
		var all []T
		for {
			batch, ok, err := it.up.Next(ctx)
			if err != nil {
				return nil, false, err
			}
			if !ok {
				break
			}
			all = append(all, batch...)
		}
		slices.SortStableFunc(all, it.cmp)
		it.sorted = &chunkTasks[T]{items: all, size: it.ex.batchFor(len(all))}
	}
	return it.sorted.Next(ctx)
}

func (it *sortedTasks[T]) Close() error { return it.up.Close() }
