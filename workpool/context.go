package workpool

import "context"

// Worker identifies the pool goroutine a task is running on.
type Worker struct {
	Pool *Pool
	ID   int
}

type workerKey struct{}

func withWorker(ctx context.Context, w Worker) context.Context {
	return context.WithValue(ctx, workerKey{}, w)
}

// WorkerFrom returns the worker running the current task, if ctx was handed
// to a task by a pool.
func WorkerFrom(ctx context.Context) (Worker, bool) {
	w, ok := ctx.Value(workerKey{}).(Worker)
	return w, ok
}

// PoolFrom returns the pool whose worker is running the current task, or nil.
func PoolFrom(ctx context.Context) *Pool {
	if w, ok := WorkerFrom(ctx); ok {
		return w.Pool
	}
	return nil
}
