package stream

import (
	"context"

	"github.com/kbukum/poolstream/errors"
)

// Filter keeps only values that satisfy pred.
//
// Every element callback receives the context of the goroutine evaluating
// the value. In parallel mode it identifies the pool worker (see
// workpool.WorkerFrom), so eager operations started from the callback with
// that context run inline instead of queueing behind the busy worker.
func (p *Pipeline[T]) Filter(pred func(context.Context, T) bool) *Pipeline[T] {
	return stage(p, unknownSize, func(ctx context.Context, in []T) ([]T, error) {
		out := make([]T, 0, len(in))
		for _, v := range in {
			if pred(ctx, v) {
				out = append(out, v)
			}
		}
		return out, nil
	})
}

// MapSame transforms each value without changing its type.
func (p *Pipeline[T]) MapSame(fn func(context.Context, T) T) *Pipeline[T] {
	return Map(p, fn)
}

// Peek calls fn for each value as it flows past, then passes the value on.
func (p *Pipeline[T]) Peek(fn func(context.Context, T)) *Pipeline[T] {
	return stage(p, p.size, func(ctx context.Context, in []T) ([]T, error) {
		for _, v := range in {
			fn(ctx, v)
		}
		return in, nil
	})
}

// FlatMap replaces each value with the elements of the pipeline fn returns
// for it. A nil result contributes nothing.
func (p *Pipeline[T]) FlatMap(fn func(context.Context, T) *Pipeline[T]) *Pipeline[T] {
	return FlatMap(p, fn)
}

// Map transforms each value using fn.
func Map[T, U any](p *Pipeline[T], fn func(context.Context, T) U) *Pipeline[U] {
	return stage(p, p.size, func(ctx context.Context, in []T) ([]U, error) {
		out := make([]U, len(in))
		for i, v := range in {
			out[i] = fn(ctx, v)
		}
		return out, nil
	})
}

// FlatMap replaces each value with the elements of the pipeline fn returns
// for it. Inner pipelines are drained sequentially and closed afterwards.
func FlatMap[T, U any](p *Pipeline[T], fn func(context.Context, T) *Pipeline[U]) *Pipeline[U] {
	return stage(p, unknownSize, func(ctx context.Context, in []T) ([]U, error) {
		var out []U
		for _, v := range in {
			inner := fn(ctx, v)
			if inner == nil {
				continue
			}
			vals, err := inner.drain(ctx)
			cerr := inner.Close()
			if err != nil {
				return nil, err
			}
			if cerr != nil {
				return nil, cerr
			}
			out = append(out, vals...)
		}
		return out, nil
	})
}

// drain consumes p sequentially on the calling goroutine.
func (p *Pipeline[T]) drain(ctx context.Context) ([]T, error) {
	open, err := p.consume()
	if err != nil {
		return nil, err
	}
	it := &flatIter[T]{source: open(ctx, sequentialExec)}
	defer it.Close()

	var out []T
	for {
		v, ok, err := it.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

func checkCount(n int64) {
	if n < 0 {
		panic(errors.InvalidArgument("n", "must not be negative"))
	}
}
