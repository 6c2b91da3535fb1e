package pstream

import (
	"context"

	"github.com/kbukum/poolstream/stream"
	"github.com/kbukum/poolstream/workpool"
)

// Stream is a pipeline of arbitrary elements whose eager operations run on
// a chosen pool when the stream is parallel.
//
// A Stream owns its pipeline: chaining methods replace it and return the
// same *Stream, and shape changes hand it to a new wrapper on the same
// pool. Like the pipeline, a Stream is single-use and not safe for
// concurrent use.
type Stream[T any] struct {
	chain[T, *Stream[T]]
}

func newStream[T any](p *stream.Pipeline[T], pool *workpool.Pool) *Stream[T] {
	s := &Stream[T]{}
	s.pipeline = p
	s.pool = pool
	s.self = s
	return s
}

// Sorted sorts the elements with cmp, keeping equal elements in encounter
// order.
func (s *Stream[T]) Sorted(cmp func(a, b T) int) *Stream[T] { return s.sorted(cmp) }

// Min returns the smallest element according to cmp.
func (s *Stream[T]) Min(ctx context.Context, cmp func(a, b T) int) (T, bool, error) {
	return s.minBy(ctx, cmp)
}

// Max returns the largest element according to cmp.
func (s *Stream[T]) Max(ctx context.Context, cmp func(a, b T) int) (T, bool, error) {
	return s.maxBy(ctx, cmp)
}

// MapToInt converts to an IntStream on the same pool.
func (s *Stream[T]) MapToInt(fn func(context.Context, T) int) *IntStream {
	return newNumeric(stream.Map(s.pipeline, fn), s.pool)
}

// MapToLong converts to a LongStream on the same pool.
func (s *Stream[T]) MapToLong(fn func(context.Context, T) int64) *LongStream {
	return newNumeric(stream.Map(s.pipeline, fn), s.pool)
}

// MapToDouble converts to a DoubleStream on the same pool.
func (s *Stream[T]) MapToDouble(fn func(context.Context, T) float64) *DoubleStream {
	return newNumeric(stream.Map(s.pipeline, fn), s.pool)
}

// FlatMapToInt replaces each element with the ints fn returns for it.
func (s *Stream[T]) FlatMapToInt(fn func(context.Context, T) *stream.Pipeline[int]) *IntStream {
	return newNumeric(stream.FlatMap(s.pipeline, fn), s.pool)
}

// FlatMapToLong replaces each element with the int64s fn returns for it.
func (s *Stream[T]) FlatMapToLong(fn func(context.Context, T) *stream.Pipeline[int64]) *LongStream {
	return newNumeric(stream.FlatMap(s.pipeline, fn), s.pool)
}

// FlatMapToDouble replaces each element with the float64s fn returns for it.
func (s *Stream[T]) FlatMapToDouble(fn func(context.Context, T) *stream.Pipeline[float64]) *DoubleStream {
	return newNumeric(stream.FlatMap(s.pipeline, fn), s.pool)
}

// Map converts s to a Stream of fn's results on the same pool.
func Map[T, U any](s *Stream[T], fn func(context.Context, T) U) *Stream[U] {
	return newStream(stream.Map(s.pipeline, fn), s.pool)
}

// FlatMap replaces each element of s with the elements of the pipeline fn
// returns for it, on the same pool.
func FlatMap[T, U any](s *Stream[T], fn func(context.Context, T) *stream.Pipeline[U]) *Stream[U] {
	return newStream(stream.FlatMap(s.pipeline, fn), s.pool)
}
