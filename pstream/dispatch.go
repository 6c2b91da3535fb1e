package pstream

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kbukum/poolstream/errors"
	"github.com/kbukum/poolstream/logger"
	"github.com/kbukum/poolstream/observability"
	"github.com/kbukum/poolstream/stream"
	"github.com/kbukum/poolstream/workpool"
)

const (
	modeParallel   = "parallel"
	modeSequential = "sequential"
)

// dispatcher owns the current pipeline handle and the pool eager
// operations run on. It is embedded by every wrapper.
type dispatcher[T any] struct {
	pipeline *stream.Pipeline[T]
	pool     *workpool.Pool
}

// Eager is implemented by every wrapper with element type T. Package-level
// eager operations such as Collect and Fold accept it.
type Eager[T any] interface {
	base() *dispatcher[T]
}

func (d *dispatcher[T]) base() *dispatcher[T] { return d }

// Pool returns the pool eager operations run on in parallel mode.
func (d *dispatcher[T]) Pool() *workpool.Pool { return d.pool }

// IsParallel reports whether eager operations would run on the pool.
func (d *dispatcher[T]) IsParallel() bool { return d.pipeline.IsParallel() }

// Pipeline returns the current pipeline handle, for handing to Concat.
// Chaining on the handle directly bypasses the wrapper.
func (d *dispatcher[T]) Pipeline() *stream.Pipeline[T] { return d.pipeline }

// Close runs the pipeline's close handlers.
func (d *dispatcher[T]) Close() error { return d.pipeline.Close() }

// Iter returns a lazy iterator over the elements. It is not dispatched: the
// caller's goroutine drives it.
func (d *dispatcher[T]) Iter(ctx context.Context) (stream.Iterator[T], error) {
	return d.pipeline.Iter(ctx)
}

// execute runs a void eager operation: on the pool in parallel mode, inline
// otherwise. Errors come back unchanged on both paths.
func (d *dispatcher[T]) execute(ctx context.Context, op string, fn func(context.Context, *stream.Pipeline[T]) error) (err error) {
	p := d.pipeline
	parallel := p.IsParallel()
	ctx, span := d.begin(ctx, op, parallel)
	defer func() { observability.EndSpan(span, err) }()

	run := func(ctx context.Context) error { return fn(ctx, p) }
	if !parallel {
		return run(ctx)
	}
	return d.pool.Invoke(ctx, run)
}

// call runs a value-returning eager operation like execute, normalizing
// errors so both paths report an *errors.AppError.
func call[T, R any](ctx context.Context, d *dispatcher[T], op string, fn func(context.Context, *stream.Pipeline[T]) (R, error)) (r R, err error) {
	p := d.pipeline
	parallel := p.IsParallel()
	ctx, span := d.begin(ctx, op, parallel)
	defer func() { observability.EndSpan(span, err) }()

	if !parallel {
		r, err = fn(ctx, p)
		return r, errors.Normalize(err)
	}
	return workpool.Call(ctx, d.pool, func(ctx context.Context) (R, error) {
		return fn(ctx, p)
	})
}

func (d *dispatcher[T]) begin(ctx context.Context, op string, parallel bool) (context.Context, trace.Span) {
	mode := modeSequential
	if parallel {
		mode = modeParallel
	}
	ctx, span := observability.StartSpan(ctx, "pstream."+op, trace.WithAttributes(
		attribute.String(observability.AttrOperation, op),
		attribute.String(observability.AttrMode, mode),
		attribute.String(observability.AttrPool, d.pool.Name()),
		attribute.String(observability.AttrPoolID, d.pool.ID()),
	))

	if log := logger.Get("pstream"); log.DebugEnabled() {
		log.WithContext(ctx).Debug("dispatch", logger.Fields(
			logger.FieldOperation, op,
			logger.FieldMode, mode,
			logger.FieldPool, d.pool.Name(),
		))
	}
	return ctx, span
}

// found carries a possibly absent result through call.
type found[T any] struct {
	val T
	ok  bool
}

func optional[T any](ctx context.Context, d *dispatcher[T], op string, fn func(context.Context, *stream.Pipeline[T]) (T, bool, error)) (T, bool, error) {
	res, err := call(ctx, d, op, func(ctx context.Context, p *stream.Pipeline[T]) (found[T], error) {
		v, ok, err := fn(ctx, p)
		return found[T]{val: v, ok: ok}, err
	})
	return res.val, res.ok, err
}

// --- Eager operations shared by every wrapper ---

// ForEach calls fn for every element; in parallel mode concurrently on
// pool workers. ctx passed to fn identifies the worker.
func (d *dispatcher[T]) ForEach(ctx context.Context, fn func(context.Context, T)) error {
	return d.execute(ctx, "for_each", func(ctx context.Context, p *stream.Pipeline[T]) error {
		return p.ForEach(ctx, fn)
	})
}

// ForEachOrdered calls fn for every element in encounter order.
func (d *dispatcher[T]) ForEachOrdered(ctx context.Context, fn func(context.Context, T)) error {
	return d.execute(ctx, "for_each_ordered", func(ctx context.Context, p *stream.Pipeline[T]) error {
		return p.ForEachOrdered(ctx, fn)
	})
}

// ToSlice returns every element in encounter order.
func (d *dispatcher[T]) ToSlice(ctx context.Context) ([]T, error) {
	return call(ctx, d, "to_slice", func(ctx context.Context, p *stream.Pipeline[T]) ([]T, error) {
		return p.ToSlice(ctx)
	})
}

// Reduce folds the elements with op starting from identity. An empty
// stream yields identity.
func (d *dispatcher[T]) Reduce(ctx context.Context, identity T, op func(T, T) T) (T, error) {
	return call(ctx, d, "reduce", func(ctx context.Context, p *stream.Pipeline[T]) (T, error) {
		return p.Reduce(ctx, identity, op)
	})
}

// ReduceOptional folds the elements with op. ok is false for an empty stream.
func (d *dispatcher[T]) ReduceOptional(ctx context.Context, op func(T, T) T) (T, bool, error) {
	return optional(ctx, d, "reduce", func(ctx context.Context, p *stream.Pipeline[T]) (T, bool, error) {
		return p.ReduceOptional(ctx, op)
	})
}

// Count returns the number of elements.
func (d *dispatcher[T]) Count(ctx context.Context) (int64, error) {
	return call(ctx, d, "count", func(ctx context.Context, p *stream.Pipeline[T]) (int64, error) {
		return p.Count(ctx)
	})
}

// AnyMatch reports whether any element satisfies pred.
func (d *dispatcher[T]) AnyMatch(ctx context.Context, pred func(context.Context, T) bool) (bool, error) {
	return call(ctx, d, "any_match", func(ctx context.Context, p *stream.Pipeline[T]) (bool, error) {
		return p.AnyMatch(ctx, pred)
	})
}

// AllMatch reports whether every element satisfies pred.
func (d *dispatcher[T]) AllMatch(ctx context.Context, pred func(context.Context, T) bool) (bool, error) {
	return call(ctx, d, "all_match", func(ctx context.Context, p *stream.Pipeline[T]) (bool, error) {
		return p.AllMatch(ctx, pred)
	})
}

// NoneMatch reports whether no element satisfies pred.
func (d *dispatcher[T]) NoneMatch(ctx context.Context, pred func(context.Context, T) bool) (bool, error) {
	return call(ctx, d, "none_match", func(ctx context.Context, p *stream.Pipeline[T]) (bool, error) {
		return p.NoneMatch(ctx, pred)
	})
}

// FindFirst returns the first element in encounter order.
func (d *dispatcher[T]) FindFirst(ctx context.Context) (T, bool, error) {
	return optional(ctx, d, "find_first", func(ctx context.Context, p *stream.Pipeline[T]) (T, bool, error) {
		return p.FindFirst(ctx)
	})
}

// FindAny returns some element.
func (d *dispatcher[T]) FindAny(ctx context.Context) (T, bool, error) {
	return optional(ctx, d, "find_any", func(ctx context.Context, p *stream.Pipeline[T]) (T, bool, error) {
		return p.FindAny(ctx)
	})
}

func (d *dispatcher[T]) minBy(ctx context.Context, cmp func(a, b T) int) (T, bool, error) {
	return optional(ctx, d, "min", func(ctx context.Context, p *stream.Pipeline[T]) (T, bool, error) {
		return p.Min(ctx, cmp)
	})
}

func (d *dispatcher[T]) maxBy(ctx context.Context, cmp func(a, b T) int) (T, bool, error) {
	return optional(ctx, d, "max", func(ctx context.Context, p *stream.Pipeline[T]) (T, bool, error) {
		return p.Max(ctx, cmp)
	})
}

// Collect performs a mutable reduction of s's elements on s's pool.
// See stream.Collect.
func Collect[T, R any](ctx context.Context, s Eager[T], supplier func() R, acc func(R, T) R, combine func(R, R) R) (R, error) {
	return call(ctx, s.base(), "collect", func(ctx context.Context, p *stream.Pipeline[T]) (R, error) {
		return stream.Collect(ctx, p, supplier, acc, combine)
	})
}

// Fold reduces s's elements to a U on s's pool. See stream.Fold.
func Fold[T, U any](ctx context.Context, s Eager[T], identity U, acc func(U, T) U, combine func(U, U) U) (U, error) {
	return call(ctx, s.base(), "fold", func(ctx context.Context, p *stream.Pipeline[T]) (U, error) {
		return stream.Fold(ctx, p, identity, acc, combine)
	})
}
