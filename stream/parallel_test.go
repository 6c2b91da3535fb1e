package stream

import (
	"context"
	"fmt"
	"math"
	"slices"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kbukum/poolstream/workpool"
)

func newPool(t *testing.T, workers int) *workpool.Pool {
	t.Helper()
	p, err := workpool.New(workpool.Config{Name: t.Name(), Workers: workers})
	if err != nil {
		t.Fatalf("workpool.New: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

// onPool runs fn as a task on pool, so parallel pipelines evaluate there.
func onPool[R any](t *testing.T, pool *workpool.Pool, fn func(ctx context.Context) (R, error)) R {
	t.Helper()
	var out R
	err := pool.Invoke(context.Background(), func(ctx context.Context) error {
		var err error
		out, err = fn(ctx)
		return err
	})
	if err != nil {
		t.Fatalf("pipeline failed: %v", err)
	}
	return out
}

func TestParallel_ToSlicePreservesOrder(t *testing.T) {
	pool := newPool(t, 4)
	got := onPool(t, pool, func(ctx context.Context) ([]int, error) {
		return Map(Range(0, 1000).Parallel(), func(_ context.Context, n int) int { return n * n }).ToSlice(ctx)
	})

	if len(got) != 1000 {
		t.Fatalf("expected 1000 elements, got %d", len(got))
	}
	for i, v := range got {
		if v != i*i {
			t.Fatalf("element %d = %d, want %d", i, v, i*i)
		}
	}
}

func TestParallel_StagesRunOnPoolWorkers(t *testing.T) {
	pool := newPool(t, 4)
	var offPool atomic.Int32
	var mu sync.Mutex
	workers := map[int]bool{}

	onPool(t, pool, func(ctx context.Context) (struct{}, error) {
		err := Range(0, 400).Parallel().
			Peek(func(ctx context.Context, _ int) {
				w, ok := workpool.WorkerFrom(ctx)
				if !ok || w.Pool != pool {
					offPool.Add(1)
					return
				}
				mu.Lock()
				workers[w.ID] = true
				mu.Unlock()
			}).
			ForEach(ctx, func(context.Context, int) {})
		return struct{}{}, err
	})

	if offPool.Load() != 0 {
		t.Errorf("%d elements evaluated off the pool", offPool.Load())
	}
	if len(workers) == 0 {
		t.Error("no worker observed")
	}
}

func TestParallel_FallsBackToDefaultPool(t *testing.T) {
	var pool *workpool.Pool
	var once sync.Once
	err := Range(0, 10).Parallel().Peek(func(ctx context.Context, _ int) {
		once.Do(func() { pool = workpool.PoolFrom(ctx) })
	}).ForEach(context.Background(), func(context.Context, int) {})
	if err != nil {
		t.Fatal(err)
	}
	// A one-worker default pool evaluates inline on the caller.
	if workpool.Default().Size() > 1 && pool != workpool.Default() {
		t.Errorf("expected the default pool, got %v", pool)
	}
}

func TestParallel_SequentialRunsInline(t *testing.T) {
	var onWorker atomic.Int32

	// A sequential pipeline evaluated outside any pool stays on the caller.
	err := Range(0, 50).Parallel().Sequential().Peek(func(ctx context.Context, _ int) {
		if _, ok := workpool.WorkerFrom(ctx); ok {
			onWorker.Add(1)
		}
	}).ForEach(context.Background(), func(context.Context, int) {})
	if err != nil {
		t.Fatal(err)
	}
	if onWorker.Load() != 0 {
		t.Errorf("%d elements evaluated on a worker in sequential mode", onWorker.Load())
	}
}

func TestParallel_Terminals(t *testing.T) {
	pool := newPool(t, 3)

	sum := onPool(t, pool, func(ctx context.Context) (int, error) {
		return Range(1, 101).Parallel().Reduce(ctx, 0, func(a, b int) int { return a + b })
	})
	if sum != 5050 {
		t.Errorf("Reduce = %d, want 5050", sum)
	}

	joined := onPool(t, pool, func(ctx context.Context) (string, error) {
		return Fold(ctx, Map(Range(0, 10).Parallel(), func(_ context.Context, n int) string { return fmt.Sprint(n) }), "",
			func(acc, s string) string { return acc + s },
			func(a, b string) string { return a + b },
		)
	})
	if joined != "0123456789" {
		t.Errorf("Fold = %q, want encounter order", joined)
	}

	count := onPool(t, pool, func(ctx context.Context) (int64, error) {
		return Range(0, 1000).Parallel().Filter(func(_ context.Context, n int) bool { return n%3 == 0 }).Count(ctx)
	})
	if count != 334 {
		t.Errorf("Count = %d, want 334", count)
	}

	first := onPool(t, pool, func(ctx context.Context) (int, error) {
		v, ok, err := Range(0, 10000).Parallel().Filter(func(_ context.Context, n int) bool { return n > 0 && n%97 == 0 }).FindFirst(ctx)
		if !ok {
			return 0, fmt.Errorf("no result")
		}
		return v, err
	})
	if first != 97 {
		t.Errorf("FindFirst = %d, want 97", first)
	}

	sorted := onPool(t, pool, func(ctx context.Context) ([]int, error) {
		return SortedNatural(FromSlice([]int{9, 3, 7, 1, 8, 2, 6, 4, 5, 0}).Parallel()).Limit(4).ToSlice(ctx)
	})
	if !slices.Equal(sorted, []int{0, 1, 2, 3}) {
		t.Errorf("Sorted.Limit = %v", sorted)
	}

	var ordered []int
	onPool(t, pool, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, Range(0, 200).Parallel().ForEachOrdered(ctx, func(_ context.Context, n int) {
			ordered = append(ordered, n)
		})
	})
	for i, v := range ordered {
		if v != i {
			t.Fatalf("ForEachOrdered out of order at %d: %d", i, v)
		}
	}
}

func TestParallel_InfiniteSourceShortCircuits(t *testing.T) {
	pool := newPool(t, 4)

	found := onPool(t, pool, func(ctx context.Context) (bool, error) {
		return Iterate(0, func(n int) int { return n + 1 }).Parallel().AnyMatch(ctx, func(_ context.Context, n int) bool { return n == 5000 })
	})
	if !found {
		t.Error("expected a match on an infinite source")
	}

	limited := onPool(t, pool, func(ctx context.Context) ([]int, error) {
		return Iterate(0, func(n int) int { return n + 2 }).Parallel().Limit(5).ToSlice(ctx)
	})
	if !slices.Equal(limited, []int{0, 2, 4, 6, 8}) {
		t.Errorf("Limit on infinite source = %v", limited)
	}

	generated := onPool(t, pool, func(ctx context.Context) (int, error) {
		v, _, err := Generate(func() int { return 7 }).Parallel().FindFirst(ctx)
		return v, err
	})
	if generated != 7 {
		t.Errorf("FindFirst on generated source = %d", generated)
	}
}

func TestParallel_PanicReachesCaller(t *testing.T) {
	pool := newPool(t, 2)

	defer func() {
		if r := recover(); r != "bad element" {
			t.Fatalf("expected original panic value, got %v", r)
		}
	}()
	_ = pool.Invoke(context.Background(), func(ctx context.Context) error {
		_, err := Map(Range(0, 100).Parallel(), func(_ context.Context, n int) int {
			if n == 50 {
				panic("bad element")
			}
			return n
		}).ToSlice(ctx)
		return err
	})
	t.Fatal("expected a panic")
}

func TestParallel_NestedInsideStagesRunsInline(t *testing.T) {
	pool := newPool(t, 1)
	inner := func(ctx context.Context, n int) int {
		v, _ := Sum(ctx, Range(0, n).Parallel())
		return v
	}

	done := make(chan int, 1)
	go func() {
		var got int
		err := pool.Invoke(context.Background(), func(ctx context.Context) (err error) {
			got, err = Sum(ctx, Map(Range(0, 4).Parallel().
				Filter(func(ctx context.Context, n int) bool { return inner(ctx, n) >= 0 }).
				TakeWhile(func(ctx context.Context, n int) bool { return inner(ctx, n) < 10 }), inner))
			return err
		})
		if err != nil {
			got = -1
		}
		done <- got
	}()
	select {
	case got := <-done:
		// 0 + 0 + 1 + 3
		if got != 4 {
			t.Errorf("nested sum = %d, want 4", got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("nested terminal inside a stage did not return on a one-worker pool")
	}
}

func TestRange_Int64Extremes(t *testing.T) {
	ctx := context.Background()
	pool := newPool(t, 2)

	top := onPool(t, pool, func(ctx context.Context) ([]int64, error) {
		return Range[int64](math.MaxInt64-10, math.MaxInt64).Parallel().ToSlice(ctx)
	})
	if len(top) != 10 || top[0] != math.MaxInt64-10 || top[9] != math.MaxInt64-1 {
		t.Errorf("range below MaxInt64 = %v", top)
	}
	seq, err := Range[int64](math.MaxInt64-2, math.MaxInt64).ToSlice(ctx)
	if err != nil || !slices.Equal(seq, []int64{math.MaxInt64 - 2, math.MaxInt64 - 1}) {
		t.Errorf("sequential range below MaxInt64 = %v, %v", seq, err)
	}

	wide := Range[int64](math.MinInt64, math.MaxInt64)
	if wide.size != unknownSize {
		t.Errorf("full int64 range size = %d, want unknown", wide.size)
	}
	head := onPool(t, pool, func(ctx context.Context) ([]int64, error) {
		return wide.Parallel().Limit(3).ToSlice(ctx)
	})
	if want := []int64{math.MinInt64, math.MinInt64 + 1, math.MinInt64 + 2}; !slices.Equal(head, want) {
		t.Errorf("head of full range = %v, want %v", head, want)
	}

	n, err := Range[int64](math.MinInt64+1, 0).Count(ctx)
	if err != nil || n != math.MaxInt64 {
		t.Errorf("Count = (%d, %v), want (MaxInt64, nil)", n, err)
	}
}

func TestParallel_NumericTerminals(t *testing.T) {
	pool := newPool(t, 4)

	s := onPool(t, pool, func(ctx context.Context) (Summary[int], error) {
		return Summarize(ctx, Range(1, 11).Parallel())
	})
	if s.Count != 10 || s.Sum != 55 || s.Min != 1 || s.Max != 10 || s.Average() != 5.5 {
		t.Errorf("unexpected summary %+v", s)
	}

	total := onPool(t, pool, func(ctx context.Context) (float64, error) {
		return Sum(ctx, Map(Range(0, 1000).Parallel(), func(context.Context, int) float64 { return 0.5 }))
	})
	if total != 500 {
		t.Errorf("Sum = %v, want 500", total)
	}
}

func TestSum_Compensated(t *testing.T) {
	tenths := make([]float64, 10)
	for i := range tenths {
		tenths[i] = 0.1
	}
	got, err := Sum(context.Background(), FromSlice(tenths))
	if err != nil {
		t.Fatal(err)
	}
	if got != 1.0 {
		t.Errorf("compensated sum = %.17g, want 1", got)
	}
}

func TestSum_Infinity(t *testing.T) {
	got, err := Sum(context.Background(), Of(math.Inf(1), 1, math.Inf(1)))
	if err != nil {
		t.Fatal(err)
	}
	if !math.IsInf(got, 1) {
		t.Errorf("sum of infinities = %v, want +Inf", got)
	}
}

func TestAverageAndExtremes(t *testing.T) {
	ctx := context.Background()

	avg, ok, err := Average(ctx, Of[int64](2, 4, 9))
	if err != nil || !ok || avg != 5 {
		t.Errorf("Average = (%v, %v, %v), want (5, true, nil)", avg, ok, err)
	}
	if _, ok, _ := Average(ctx, Empty[float64]()); ok {
		t.Error("Average of empty should have no result")
	}

	lo, ok, _ := MinOf(ctx, Of(3.5, -1.0, 2.0))
	if !ok || lo != -1.0 {
		t.Errorf("MinOf = %v", lo)
	}
	hi, _, _ := MaxOf(ctx, Of(3.5, math.NaN(), 2.0))
	if !math.IsNaN(hi) {
		t.Errorf("MaxOf with NaN = %v, want NaN", hi)
	}

	s, err := Summarize(ctx, Empty[int]())
	if err != nil || s.Count != 0 || s.Average() != 0 {
		t.Errorf("empty summary %+v err=%v", s, err)
	}
}

func TestSortedNatural_FloatOrder(t *testing.T) {
	negZero := math.Copysign(0, -1)
	got, err := SortedNatural(Of(math.NaN(), 1, 0.0, negZero, -1, math.NaN())).ToSlice(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 6 {
		t.Fatalf("got %v", got)
	}
	if got[0] != -1 || !math.Signbit(got[1]) || got[1] != 0 || math.Signbit(got[2]) || got[3] != 1 {
		t.Errorf("got %v, want [-1 -0 0 1 NaN NaN]", got)
	}
	if !math.IsNaN(got[4]) || !math.IsNaN(got[5]) {
		t.Errorf("NaN should sort last, got %v", got)
	}

	tests := []struct {
		a, b float64
		want int
	}{
		{math.NaN(), math.NaN(), 0},
		{math.NaN(), math.Inf(1), 1},
		{math.Inf(1), math.NaN(), -1},
		{negZero, 0, -1},
		{0, negZero, 1},
		{2, 2, 0},
	}
	for _, tt := range tests {
		if c := CompareNumbers(tt.a, tt.b); c != tt.want {
			t.Errorf("CompareNumbers(%v, %v) = %d, want %d", tt.a, tt.b, c, tt.want)
		}
	}
	if CompareNumbers[int64](math.MinInt64, math.MaxInt64) != -1 {
		t.Error("int64 extremes out of order")
	}
}
