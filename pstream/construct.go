package pstream

import (
	"github.com/kbukum/poolstream/errors"
	"github.com/kbukum/poolstream/stream"
	"github.com/kbukum/poolstream/workpool"
)

// Every constructor validates its arguments before touching the pool and
// returns a wrapper in parallel mode. Call Sequential on the result to run
// eager operations inline instead.

// Of creates a Stream over items.
func Of[T any](items []T, pool *workpool.Pool) (*Stream[T], error) {
	if items == nil {
		return nil, errors.NilArgument("items")
	}
	return wrap(stream.FromSlice(items), pool)
}

// FromIterator creates a Stream that reads iter once.
func FromIterator[T any](iter stream.Iterator[T], pool *workpool.Pool) (*Stream[T], error) {
	if iter == nil {
		return nil, errors.NilArgument("iterator")
	}
	return wrap(stream.From(iter), pool)
}

// FromFunc creates a Stream whose iterator is built by factory each time
// an eager operation starts.
func FromFunc[T any](factory func() stream.Iterator[T], ch stream.Characteristics, pool *workpool.Pool) (*Stream[T], error) {
	if factory == nil {
		return nil, errors.NilArgument("factory")
	}
	return wrap(stream.FromFunc(factory, ch), pool)
}

// FromBuilder creates a Stream over the elements added to b. The builder
// cannot be added to afterwards.
func FromBuilder[T any](b *stream.Builder[T], pool *workpool.Pool) (*Stream[T], error) {
	if b == nil {
		return nil, errors.NilArgument("builder")
	}
	if pool == nil {
		return nil, errors.NilArgument("pool")
	}
	return wrap(b.Build(), pool)
}

// Iterate creates an infinite Stream of seed, next(seed), and so on.
func Iterate[T any](seed T, next func(T) T, pool *workpool.Pool) (*Stream[T], error) {
	if next == nil {
		return nil, errors.NilArgument("next")
	}
	return wrap(stream.Iterate(seed, next), pool)
}

// IterateWhile is Iterate bounded by hasNext.
func IterateWhile[T any](seed T, hasNext func(T) bool, next func(T) T, pool *workpool.Pool) (*Stream[T], error) {
	if hasNext == nil {
		return nil, errors.NilArgument("hasNext")
	}
	if next == nil {
		return nil, errors.NilArgument("next")
	}
	return wrap(stream.IterateWhile(seed, hasNext, next), pool)
}

// Generate creates an infinite unordered Stream of supplier's results.
func Generate[T any](supplier func() T, pool *workpool.Pool) (*Stream[T], error) {
	if supplier == nil {
		return nil, errors.NilArgument("supplier")
	}
	return wrap(stream.Generate(supplier), pool)
}

// Concat creates a Stream of a's elements followed by b's. Both pipelines
// are consumed.
func Concat[T any](a, b *stream.Pipeline[T], pool *workpool.Pool) (*Stream[T], error) {
	if err := pipelines(a, b); err != nil {
		return nil, err
	}
	return wrap(stream.Concat(a, b), pool)
}

func wrap[T any](p *stream.Pipeline[T], pool *workpool.Pool) (*Stream[T], error) {
	if pool == nil {
		return nil, errors.NilArgument("pool")
	}
	return newStream(p.Parallel(), pool), nil
}

func pipelines[T any](a, b *stream.Pipeline[T]) error {
	if a == nil {
		return errors.NilArgument("a")
	}
	if b == nil {
		return errors.NilArgument("b")
	}
	return nil
}

// --- Numeric constructors ---

// OfNumbers creates a numeric stream over items.
func OfNumbers[N stream.Number](items []N, pool *workpool.Pool) (*Numeric[N], error) {
	if items == nil {
		return nil, errors.NilArgument("items")
	}
	return wrapNumeric(stream.FromSlice(items), pool)
}

// NumbersFromIterator creates a numeric stream that reads iter once.
func NumbersFromIterator[N stream.Number](iter stream.Iterator[N], pool *workpool.Pool) (*Numeric[N], error) {
	if iter == nil {
		return nil, errors.NilArgument("iterator")
	}
	return wrapNumeric(stream.From(iter), pool)
}

// NumbersFromFunc creates a numeric stream whose iterator is built by
// factory each time an eager operation starts.
func NumbersFromFunc[N stream.Number](factory func() stream.Iterator[N], ch stream.Characteristics, pool *workpool.Pool) (*Numeric[N], error) {
	if factory == nil {
		return nil, errors.NilArgument("factory")
	}
	return wrapNumeric(stream.FromFunc(factory, ch), pool)
}

// NumbersFromBuilder creates a numeric stream over the elements added to b.
func NumbersFromBuilder[N stream.Number](b *stream.Builder[N], pool *workpool.Pool) (*Numeric[N], error) {
	if b == nil {
		return nil, errors.NilArgument("builder")
	}
	if pool == nil {
		return nil, errors.NilArgument("pool")
	}
	return wrapNumeric(b.Build(), pool)
}

// IterateNumbers creates an infinite numeric stream of seed, next(seed),
// and so on.
func IterateNumbers[N stream.Number](seed N, next func(N) N, pool *workpool.Pool) (*Numeric[N], error) {
	if next == nil {
		return nil, errors.NilArgument("next")
	}
	return wrapNumeric(stream.Iterate(seed, next), pool)
}

// GenerateNumbers creates an infinite unordered numeric stream of
// supplier's results.
func GenerateNumbers[N stream.Number](supplier func() N, pool *workpool.Pool) (*Numeric[N], error) {
	if supplier == nil {
		return nil, errors.NilArgument("supplier")
	}
	return wrapNumeric(stream.Generate(supplier), pool)
}

// ConcatNumbers creates a numeric stream of a's elements followed by b's.
func ConcatNumbers[N stream.Number](a, b *stream.Pipeline[N], pool *workpool.Pool) (*Numeric[N], error) {
	if err := pipelines(a, b); err != nil {
		return nil, err
	}
	return wrapNumeric(stream.Concat(a, b), pool)
}

// Ints creates an IntStream over items.
func Ints(items []int, pool *workpool.Pool) (*IntStream, error) { return OfNumbers(items, pool) }

// Longs creates a LongStream over items.
func Longs(items []int64, pool *workpool.Pool) (*LongStream, error) { return OfNumbers(items, pool) }

// Doubles creates a DoubleStream over items.
func Doubles(items []float64, pool *workpool.Pool) (*DoubleStream, error) {
	return OfNumbers(items, pool)
}

// IntRange creates an IntStream of start up to but excluding end.
func IntRange(start, end int, pool *workpool.Pool) (*IntStream, error) {
	return wrapNumeric(stream.Range(start, end), pool)
}

// IntRangeClosed creates an IntStream of start up to and including end.
func IntRangeClosed(start, end int, pool *workpool.Pool) (*IntStream, error) {
	return wrapNumeric(closedRange(start, end), pool)
}

// LongRange creates a LongStream of start up to but excluding end.
func LongRange(start, end int64, pool *workpool.Pool) (*LongStream, error) {
	return wrapNumeric(stream.Range(start, end), pool)
}

// LongRangeClosed creates a LongStream of start up to and including end.
func LongRangeClosed(start, end int64, pool *workpool.Pool) (*LongStream, error) {
	return wrapNumeric(closedRange(start, end), pool)
}

func closedRange[N ~int | ~int64](start, end N) *stream.Pipeline[N] {
	if end < start {
		return stream.Empty[N]()
	}
	// end+1 would overflow at the top of the range.
	return stream.Concat(stream.Range(start, end), stream.Of(end))
}

func wrapNumeric[N stream.Number](p *stream.Pipeline[N], pool *workpool.Pool) (*Numeric[N], error) {
	if pool == nil {
		return nil, errors.NilArgument("pool")
	}
	return newNumeric(p.Parallel(), pool), nil
}

// Must returns w, panicking if err is non-nil.
func Must[W any](w W, err error) W {
	if err != nil {
		panic(err)
	}
	return w
}
