package stream

import (
	"context"
	"sync"
	"sync/atomic"
)

// start consumes p and opens its task iterator for one terminal operation.
func (p *Pipeline[T]) start(ctx context.Context) (*exec, Iterator[Task[T]], error) {
	open, err := p.consume()
	if err != nil {
		return nil, nil, err
	}
	ex := p.newExec(ctx)
	return ex, open(ctx, ex), nil
}

// ForEach calls fn for every element. In parallel mode calls happen
// concurrently and in no particular order.
func (p *Pipeline[T]) ForEach(ctx context.Context, fn func(context.Context, T)) error {
	ex, src, err := p.start(ctx)
	if err != nil {
		return err
	}
	defer src.Close()

	return drive(ctx, ex, src, func(ctx context.Context, batch []T) (bool, error) {
		for _, v := range batch {
			fn(ctx, v)
		}
		return false, nil
	})
}

// ForEachOrdered calls fn for every element in encounter order, one call
// at a time.
func (p *Pipeline[T]) ForEachOrdered(ctx context.Context, fn func(context.Context, T)) error {
	ex, src, err := p.start(ctx)
	if err != nil {
		return err
	}
	ev := evaluate(ex, src)
	defer ev.Close()

	for {
		batch, ok, err := ev.Next(ctx)
		if err != nil || !ok {
			return err
		}
		for _, v := range batch {
			fn(ctx, v)
		}
	}
}

// ToSlice returns every element in encounter order.
func (p *Pipeline[T]) ToSlice(ctx context.Context) ([]T, error) {
	capacity := max(p.size, 0)
	ex, src, err := p.start(ctx)
	if err != nil {
		return nil, err
	}
	ev := evaluate(ex, src)
	defer ev.Close()

	out := make([]T, 0, capacity)
	for {
		batch, ok, err := ev.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, batch...)
	}
}

// Iter returns an iterator over the elements, evaluated lazily and
// sequentially on the caller's goroutine. The caller must Close it.
func (p *Pipeline[T]) Iter(ctx context.Context) (Iterator[T], error) {
	open, err := p.consume()
	if err != nil {
		return nil, err
	}
	return &flatIter[T]{source: open(ctx, sequentialExec)}, nil
}

// Collect performs a mutable reduction. Sequentially, supplier is called
// once and every element is folded in with acc. In parallel every batch is
// folded into its own container and the containers are merged with
// combine in encounter order.
func Collect[T, R any](ctx context.Context, p *Pipeline[T], supplier func() R, acc func(R, T) R, combine func(R, R) R) (R, error) {
	var zero R
	ex, src, err := p.start(ctx)
	if err != nil {
		return zero, err
	}
	defer src.Close()

	if !ex.parallel {
		r := supplier()
		err := drive(ctx, ex, src, func(_ context.Context, batch []T) (bool, error) {
			for _, v := range batch {
				r = acc(r, v)
			}
			return false, nil
		})
		if err != nil {
			return zero, err
		}
		return r, nil
	}

	parts, err := partials(ctx, ex, src, func(_ context.Context, batch []T) (R, error) {
		r := supplier()
		for _, v := range batch {
			r = acc(r, v)
		}
		return r, nil
	})
	if err != nil {
		return zero, err
	}
	if len(parts) == 0 {
		return supplier(), nil
	}
	r := parts[0]
	for _, part := range parts[1:] {
		r = combine(r, part)
	}
	return r, nil
}

// Fold reduces the elements to a U. identity must be an identity for
// combine, and combine must be associative and agree with acc.
func Fold[T, U any](ctx context.Context, p *Pipeline[T], identity U, acc func(U, T) U, combine func(U, U) U) (U, error) {
	return Collect(ctx, p, func() U { return identity }, acc, combine)
}

// Reduce folds the elements with the associative op starting from
// identity. An empty pipeline yields identity.
func (p *Pipeline[T]) Reduce(ctx context.Context, identity T, op func(T, T) T) (T, error) {
	return Fold(ctx, p, identity, op, op)
}

// option is a possibly absent value.
type option[T any] struct {
	val T
	ok  bool
}

// ReduceOptional folds the elements with the associative op. ok is false
// for an empty pipeline.
func (p *Pipeline[T]) ReduceOptional(ctx context.Context, op func(T, T) T) (T, bool, error) {
	res, err := Collect(ctx, p,
		func() option[T] { return option[T]{} },
		func(o option[T], v T) option[T] {
			if !o.ok {
				return option[T]{val: v, ok: true}
			}
			return option[T]{val: op(o.val, v), ok: true}
		},
		func(a, b option[T]) option[T] {
			switch {
			case !a.ok:
				return b
			case !b.ok:
				return a
			default:
				return option[T]{val: op(a.val, b.val), ok: true}
			}
		},
	)
	return res.val, res.ok, err
}

// Min returns the smallest element according to cmp. Of equal elements
// the first in encounter order wins.
func (p *Pipeline[T]) Min(ctx context.Context, cmp func(a, b T) int) (T, bool, error) {
	return p.ReduceOptional(ctx, func(a, b T) T {
		if cmp(a, b) <= 0 {
			return a
		}
		return b
	})
}

// Max returns the largest element according to cmp. Of equal elements
// the first in encounter order wins.
func (p *Pipeline[T]) Max(ctx context.Context, cmp func(a, b T) int) (T, bool, error) {
	return p.ReduceOptional(ctx, func(a, b T) T {
		if cmp(a, b) >= 0 {
			return a
		}
		return b
	})
}

// Count returns the number of elements. When the size is known from the
// source and every stage preserves it, the count is returned without
// evaluating the pipeline, so Peek callbacks do not run.
func (p *Pipeline[T]) Count(ctx context.Context) (int64, error) {
	if p.size >= 0 {
		if _, err := p.consume(); err != nil {
			return 0, err
		}
		return p.size, nil
	}
	return Fold(ctx, p, int64(0),
		func(n int64, _ T) int64 { return n + 1 },
		func(a, b int64) int64 { return a + b },
	)
}

// AnyMatch reports whether any element satisfies pred. Evaluation stops
// after the wave that found one.
func (p *Pipeline[T]) AnyMatch(ctx context.Context, pred func(context.Context, T) bool) (bool, error) {
	ex, src, err := p.start(ctx)
	if err != nil {
		return false, err
	}
	defer src.Close()

	var found atomic.Bool
	err = drive(ctx, ex, src, func(ctx context.Context, batch []T) (bool, error) {
		for _, v := range batch {
			if found.Load() {
				return true, nil
			}
			if pred(ctx, v) {
				found.Store(true)
				return true, nil
			}
		}
		return false, nil
	})
	return found.Load(), err
}

// AllMatch reports whether every element satisfies pred. It is true for
// an empty pipeline.
func (p *Pipeline[T]) AllMatch(ctx context.Context, pred func(context.Context, T) bool) (bool, error) {
	failed, err := p.AnyMatch(ctx, func(ctx context.Context, v T) bool { return !pred(ctx, v) })
	return !failed && err == nil, err
}

// NoneMatch reports whether no element satisfies pred.
func (p *Pipeline[T]) NoneMatch(ctx context.Context, pred func(context.Context, T) bool) (bool, error) {
	found, err := p.AnyMatch(ctx, pred)
	return !found && err == nil, err
}

// FindFirst returns the first element in encounter order. On an unordered
// parallel pipeline it behaves like FindAny.
func (p *Pipeline[T]) FindFirst(ctx context.Context) (T, bool, error) {
	var zero T
	ex, src, err := p.start(ctx)
	if err != nil {
		return zero, false, err
	}
	defer src.Close()

	if ex.parallel && !ex.ordered {
		return findAny(ctx, ex, src)
	}

	for {
		if err := ctx.Err(); err != nil {
			return zero, false, err
		}
		tasks, exhausted, err := pull(ctx, ex, src)
		if err != nil {
			return zero, false, err
		}
		heads, err := runWave(ctx, ex, tasks, func(_ context.Context, batch []T) (option[T], error) {
			if len(batch) == 0 {
				return option[T]{}, nil
			}
			return option[T]{val: batch[0], ok: true}, nil
		})
		if err != nil {
			return zero, false, err
		}
		for _, h := range heads {
			if h.ok {
				return h.val, true, nil
			}
		}
		if exhausted {
			return zero, false, nil
		}
	}
}

// FindAny returns some element, whichever batch produces one first.
func (p *Pipeline[T]) FindAny(ctx context.Context) (T, bool, error) {
	ex, src, err := p.start(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	defer src.Close()
	return findAny(ctx, ex, src)
}

func findAny[T any](ctx context.Context, ex *exec, src Iterator[Task[T]]) (T, bool, error) {
	var (
		mu     sync.Mutex
		result option[T]
	)
	err := drive(ctx, ex, src, func(_ context.Context, batch []T) (bool, error) {
		if len(batch) == 0 {
			return false, nil
		}
		mu.Lock()
		defer mu.Unlock()
		if !result.ok {
			result = option[T]{val: batch[0], ok: true}
		}
		return true, nil
	})
	if err != nil {
		var zero T
		return zero, false, err
	}
	return result.val, result.ok, nil
}
