package pstream

import (
	"context"

	"github.com/kbukum/poolstream/stream"
	"github.com/kbukum/poolstream/workpool"
)

// Numeric is a Stream specialized for numbers, adding arithmetic eager
// operations and natural ordering.
type Numeric[N stream.Number] struct {
	chain[N, *Numeric[N]]
}

type (
	// IntStream is a numeric stream of int.
	IntStream = Numeric[int]
	// LongStream is a numeric stream of int64.
	LongStream = Numeric[int64]
	// DoubleStream is a numeric stream of float64.
	DoubleStream = Numeric[float64]
)

func newNumeric[N stream.Number](p *stream.Pipeline[N], pool *workpool.Pool) *Numeric[N] {
	s := &Numeric[N]{}
	s.pipeline = p
	s.pool = pool
	s.self = s
	return s
}

// Sorted sorts the elements in ascending order. -0 sorts before +0 and
// NaN sorts last.
func (s *Numeric[N]) Sorted() *Numeric[N] { return s.sorted(stream.CompareNumbers[N]) }

// Sum adds the elements. Floating-point sums are compensated.
func (s *Numeric[N]) Sum(ctx context.Context) (N, error) {
	return call(ctx, &s.dispatcher, "sum", func(ctx context.Context, p *stream.Pipeline[N]) (N, error) {
		return stream.Sum(ctx, p)
	})
}

// Average returns the arithmetic mean. ok is false for an empty stream.
func (s *Numeric[N]) Average(ctx context.Context) (float64, bool, error) {
	res, err := call(ctx, &s.dispatcher, "average", func(ctx context.Context, p *stream.Pipeline[N]) (found[float64], error) {
		avg, ok, err := stream.Average(ctx, p)
		return found[float64]{val: avg, ok: ok}, err
	})
	return res.val, res.ok, err
}

// Min returns the smallest element. A NaN element makes the result NaN.
func (s *Numeric[N]) Min(ctx context.Context) (N, bool, error) {
	return optional(ctx, &s.dispatcher, "min", stream.MinOf[N])
}

// Max returns the largest element. A NaN element makes the result NaN.
func (s *Numeric[N]) Max(ctx context.Context) (N, bool, error) {
	return optional(ctx, &s.dispatcher, "max", stream.MaxOf[N])
}

// SummaryStatistics returns count, sum, min, max and average in one pass.
func (s *Numeric[N]) SummaryStatistics(ctx context.Context) (stream.Summary[N], error) {
	return call(ctx, &s.dispatcher, "summary_statistics", stream.Summarize[N])
}

// MapToInt converts to an IntStream on the same pool.
func (s *Numeric[N]) MapToInt(fn func(context.Context, N) int) *IntStream {
	return newNumeric(stream.Map(s.pipeline, fn), s.pool)
}

// MapToLong converts to a LongStream on the same pool.
func (s *Numeric[N]) MapToLong(fn func(context.Context, N) int64) *LongStream {
	return newNumeric(stream.Map(s.pipeline, fn), s.pool)
}

// MapToDouble converts to a DoubleStream on the same pool.
func (s *Numeric[N]) MapToDouble(fn func(context.Context, N) float64) *DoubleStream {
	return newNumeric(stream.Map(s.pipeline, fn), s.pool)
}

// AsLongStream converts every element to int64. Floating-point elements
// are truncated toward zero; use MapToLong to round them another way.
func (s *Numeric[N]) AsLongStream() *LongStream {
	return s.MapToLong(func(_ context.Context, v N) int64 { return int64(v) })
}

// AsDoubleStream converts every element to float64.
func (s *Numeric[N]) AsDoubleStream() *DoubleStream {
	return s.MapToDouble(func(_ context.Context, v N) float64 { return float64(v) })
}

// Boxed converts to a generic Stream of the same elements.
func (s *Numeric[N]) Boxed() *Stream[N] {
	return newStream(stream.Map(s.pipeline, func(_ context.Context, v N) N { return v }), s.pool)
}

// MapToObj converts s to a Stream of fn's results on the same pool.
func MapToObj[N stream.Number, U any](s *Numeric[N], fn func(context.Context, N) U) *Stream[U] {
	return newStream(stream.Map(s.pipeline, fn), s.pool)
}
