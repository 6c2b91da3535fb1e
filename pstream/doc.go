// Package pstream runs stream pipelines on a worker pool chosen by the
// caller.
//
// A wrapper (Stream, IntStream, LongStream or DoubleStream) pairs a
// stream.Pipeline with a workpool.Pool. Chaining methods have the same
// meaning as on the pipeline and return the same wrapper. Eager
// operations are dispatched: in parallel mode the whole operation is
// submitted to the pool and the caller blocks until it finishes, so every
// parallel stage evaluates on that pool's workers. In sequential mode the
// operation runs inline on the caller's goroutine. The mode is read when
// the eager operation is called, so a Sequential or Parallel call anywhere
// in the chain decides where it runs.
//
// Constructors start in parallel mode:
//
//	pool := workpool.MustNew(workpool.Config{Name: "reports", Workers: 8})
//	defer pool.Close()
//
//	total, err := pstream.Must(pstream.IntRange(0, 1_000_000, pool)).
//		Filter(isPrime).
//		Sum(ctx)
//
// Shape changes (MapToInt, Boxed, Map, MapToObj and friends) return a new
// wrapper on the same pool.
//
// Element callbacks receive a context.Context. Callbacks may run eager
// operations on wrappers over the same pool, and must pass that context
// to them: it marks the current worker, so the nested operation runs
// inline on it. A nested call made with any other context is queued on
// the pool and deadlocks once every worker is waiting on one:
//
//	total, err := pstream.Must(pstream.IntRange(0, 100, pool)).
//		Map(func(ctx context.Context, n int) int {
//			inner, _ := pstream.Must(pstream.IntRange(0, n, pool)).Sum(ctx)
//			return inner
//		}).
//		Sum(ctx)
//
// Value-returning eager operations report failures as *errors.AppError,
// wrapping plain errors with code EXECUTION_FAILED. ForEach and
// ForEachOrdered return errors unchanged. Panics in user functions reach
// the caller with their original value.
package pstream
