// Package stream provides lazy, single-use pipelines that evaluate either
// sequentially on the caller's goroutine or in parallel on a worker pool.
//
// A pipeline is a chain of stages over a source. Nothing runs until a
// terminal operation such as ToSlice, Reduce or ForEach is called, and a
// pipeline can be consumed only once.
//
// # Evaluation
//
// Internally a pipeline produces tasks, each computing one batch of
// elements. Reading the source to produce tasks is always sequential.
// Running tasks applies the stateless stages (Filter, Map, Peek, FlatMap):
// sequentially with batches of one element, or in parallel in waves on the
// pool whose worker is running the terminal operation, falling back to
// workpool.Default. Stateful stages (Sorted, Distinct, Limit, Skip,
// TakeWhile, DropWhile) evaluate their upstream wave by wave and release
// elements in encounter order. Short-circuiting terminals stop pulling
// waves once decided, so infinite sources built with Iterate or Generate
// terminate under Limit, AnyMatch or FindFirst.
//
// # Usage
//
//	p := stream.Map(stream.FromSlice(words), func(_ context.Context, w string) string {
//	    return strings.ToUpper(w)
//	}).Parallel()
//	upper, err := p.ToSlice(ctx)
//
//	total, err := stream.Sum(ctx, stream.Range(0, 1000).Filter(isPrime))
//
// To evaluate on a specific pool, run the terminal operation from one of
// its tasks:
//
//	err := pool.Invoke(ctx, func(ctx context.Context) error {
//	    out, err = p.ToSlice(ctx)
//	    return err
//	})
//
// Element callbacks (Filter, Map, Peek, FlatMap, TakeWhile, DropWhile,
// ForEach and the matchers) receive the context of the goroutine
// evaluating the element. Pass it to any terminal operation started from
// inside the callback: on a pool worker it lets the nested operation run
// inline. Comparators, reducers and source functions get no context and
// must not block on the pool.
//
// # Sizes
//
// Slice, builder and range sources know their size, and Map, Peek, Sorted,
// Limit, Skip and Concat keep it. Count on such a pipeline returns the
// size without evaluating anything, so Peek callbacks do not run.
package stream
