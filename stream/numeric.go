package stream

import (
	"context"
	"math"
)

// Number is the element type of numeric pipelines.
type Number interface {
	~int | ~int64 | ~float64
}

// compensated is a Kahan-Babuska running sum. For integer types the
// compensation stays zero and the sum is exact modulo overflow.
type compensated[N Number] struct {
	sum    N
	comp   N
	simple N
}

func (c compensated[N]) add(v N) compensated[N] {
	y := v - c.comp
	t := c.sum + y
	c.comp = (t - c.sum) - y
	c.sum = t
	c.simple += v
	return c
}

func (c compensated[N]) merge(o compensated[N]) compensated[N] {
	simple := c.simple + o.simple
	c = c.add(o.sum).add(-o.comp)
	c.simple = simple
	return c
}

func (c compensated[N]) value() N {
	v := c.sum - c.comp
	// Compensation turns a sum of infinities into NaN; the plain sum is right.
	if v != v && math.IsInf(float64(c.simple), 0) {
		return c.simple
	}
	return v
}

// Sum adds the elements. Floating-point sums are compensated to limit
// rounding error.
func Sum[N Number](ctx context.Context, p *Pipeline[N]) (N, error) {
	c, err := Collect(ctx, p,
		func() compensated[N] { return compensated[N]{} },
		func(c compensated[N], v N) compensated[N] { return c.add(v) },
		func(a, b compensated[N]) compensated[N] { return a.merge(b) },
	)
	if err != nil {
		return 0, err
	}
	return c.value(), nil
}

// Summary describes the elements of a numeric pipeline. Min and Max are
// zero when Count is zero.
type Summary[N Number] struct {
	Count int64
	Sum   N
	Min   N
	Max   N
}

// Average returns the arithmetic mean, or zero when Count is zero.
func (s Summary[N]) Average() float64 {
	if s.Count == 0 {
		return 0
	}
	return float64(s.Sum) / float64(s.Count)
}

type summaryAcc[N Number] struct {
	count    int64
	sum      compensated[N]
	min, max N
}

func (a summaryAcc[N]) add(v N) summaryAcc[N] {
	if a.count == 0 {
		a.min, a.max = v, v
	} else {
		a.min, a.max = min(a.min, v), max(a.max, v)
	}
	a.count++
	a.sum = a.sum.add(v)
	return a
}

func (a summaryAcc[N]) merge(b summaryAcc[N]) summaryAcc[N] {
	switch {
	case b.count == 0:
		return a
	case a.count == 0:
		return b
	}
	a.min, a.max = min(a.min, b.min), max(a.max, b.max)
	a.count += b.count
	a.sum = a.sum.merge(b.sum)
	return a
}

// Summarize computes count, sum, min and max in one pass. NaN propagates
// into Min and Max.
func Summarize[N Number](ctx context.Context, p *Pipeline[N]) (Summary[N], error) {
	acc, err := Collect(ctx, p,
		func() summaryAcc[N] { return summaryAcc[N]{} },
		func(a summaryAcc[N], v N) summaryAcc[N] { return a.add(v) },
		func(a, b summaryAcc[N]) summaryAcc[N] { return a.merge(b) },
	)
	if err != nil {
		return Summary[N]{}, err
	}
	return Summary[N]{Count: acc.count, Sum: acc.sum.value(), Min: acc.min, Max: acc.max}, nil
}

// Average returns the arithmetic mean. ok is false for an empty pipeline.
func Average[N Number](ctx context.Context, p *Pipeline[N]) (float64, bool, error) {
	s, err := Summarize(ctx, p)
	if err != nil || s.Count == 0 {
		return 0, false, err
	}
	return s.Average(), true, nil
}

// MinOf returns the smallest element. A NaN element makes the result NaN.
func MinOf[N Number](ctx context.Context, p *Pipeline[N]) (N, bool, error) {
	return p.ReduceOptional(ctx, func(a, b N) N { return min(a, b) })
}

// MaxOf returns the largest element. A NaN element makes the result NaN.
func MaxOf[N Number](ctx context.Context, p *Pipeline[N]) (N, bool, error) {
	return p.ReduceOptional(ctx, func(a, b N) N { return max(a, b) })
}

// SortedNatural sorts numeric elements in ascending order as defined by
// CompareNumbers.
func SortedNatural[N Number](p *Pipeline[N]) *Pipeline[N] {
	return p.Sorted(CompareNumbers[N])
}

// CompareNumbers is the natural order of numbers: ascending, with -0
// before +0 and NaN after every other value. NaN equals itself.
func CompareNumbers[N Number](a, b N) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	x, y := float64(a), float64(b)
	if xNaN, yNaN := math.IsNaN(x), math.IsNaN(y); xNaN || yNaN {
		switch {
		case xNaN && yNaN:
			return 0
		case xNaN:
			return 1
		}
		return -1
	}
	switch sx, sy := math.Signbit(x), math.Signbit(y); {
	case sx == sy:
		return 0
	case sx:
		return -1
	}
	return 1
}

// Range creates a sized pipeline of start, start+1, ..., end-1. A range
// wider than math.MaxInt64 elements has unknown size.
func Range[N ~int | ~int64](start, end N) *Pipeline[N] {
	if end <= start {
		return Empty[N]()
	}
	span := uint64(end) - uint64(start)
	size := int64(unknownSize)
	if span <= math.MaxInt64 {
		size = int64(span)
	}
	n := int(min(span, math.MaxInt))
	return newPipeline(size, func(_ context.Context, ex *exec) Iterator[Task[N]] {
		return &rangeTasks[N]{next: start, end: end, size: uint64(ex.batchFor(n))}
	})
}

type rangeTasks[N ~int | ~int64] struct {
	next, end N
	size      uint64
	done      bool
}

func (it *rangeTasks[N]) Next(_ context.Context) (Task[N], bool, error) {
	if it.done {
		return nil, false, nil
	}
	lo, hi := it.next, it.end
	// The distance is taken unsigned so that lo+size never runs past end.
	if uint64(it.end)-uint64(lo) > it.size {
		hi = lo + N(it.size)
		it.next = hi
	} else {
		it.done = true
	}
	return func(context.Context) ([]N, error) {
		out := make([]N, 0, min(uint64(hi)-uint64(lo), it.size))
		for v := lo; v < hi; v++ {
			out = append(out, v)
		}
		return out, nil
	}, true, nil
}

func (it *rangeTasks[N]) Close() error { return nil }
