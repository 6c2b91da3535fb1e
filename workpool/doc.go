// Package workpool provides fixed-size goroutine pools with submit-and-wait
// execution.
//
// A task handed to a pool receives a context carrying the identity of the
// worker running it (see WorkerFrom). Submitting to a pool from one of its
// own tasks runs inline, so work can fan out and nest without deadlock:
//
//	pool, err := workpool.New(workpool.Config{Name: "cpu", Workers: 4})
//	if err != nil {
//	    return err
//	}
//	defer pool.Close()
//
//	sum, err := workpool.Call(ctx, pool, func(ctx context.Context) (int, error) {
//	    return compute(ctx)
//	})
//
// # Fork/join
//
// InvokeAll runs a group of functions and waits for all of them. Called
// from inside the pool it gives work only to idle workers and runs the rest
// itself.
//
// # Lifecycle
//
// Pool implements component.Component, so pools can be registered with a
// component.Registry and stopped together. Default returns a lazily built
// process-wide pool that is never closed.
package workpool
