package workpool

import (
	"context"

	"github.com/kbukum/poolstream/errors"
)

// Invoke runs fn on one of p's workers and waits for it to finish.
//
// When ctx already belongs to a task on p, fn runs inline on the calling
// goroutine instead, so nested calls cannot starve the pool. Worker
// identity travels only in the context: a task that calls Invoke with a
// context not derived from its own, such as context.Background, is queued
// like any outside caller and blocks forever once every worker is busy
// waiting on it. The error
// returned by fn is passed back unchanged. A panic in fn is re-raised on
// the caller's goroutine with the original value.
func (p *Pool) Invoke(ctx context.Context, fn func(context.Context) error) error {
	if fn == nil {
		return errors.NilArgument("fn")
	}
	if p.Contains(ctx) {
		p.metrics.RecordInline(ctx, p.name)
		return fn(ctx)
	}

	t := newTask(ctx, fn)
	if err := p.submit(ctx, t); err != nil {
		return err
	}
	<-t.finished
	if t.panicked {
		panic(t.panicVal)
	}
	return t.err
}

// Call runs fn on p like Invoke and returns its result. Errors are
// normalized: an *errors.AppError passes through, anything else is wrapped
// as EXECUTION_FAILED.
func Call[R any](ctx context.Context, p *Pool, fn func(context.Context) (R, error)) (R, error) {
	var result R
	if fn == nil {
		return result, errors.NilArgument("fn")
	}
	err := p.Invoke(ctx, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	return result, errors.Normalize(err)
}

// InvokeAll runs every fn and waits for all of them. It returns the error
// of the first failing fn in argument order; the first panic, if any, is
// re-raised after all fns have finished.
//
// From outside the pool each fn is handed to a worker, blocking while all
// workers are busy. From inside the pool fns go only to idle workers and
// the remainder run inline on the calling worker.
func (p *Pool) InvokeAll(ctx context.Context, fns ...func(context.Context) error) error {
	switch len(fns) {
	case 0:
		return nil
	case 1:
		return p.Invoke(ctx, fns[0])
	}
	for _, fn := range fns {
		if fn == nil {
			return errors.NilArgument("fn")
		}
	}

	tasks := make([]*task, len(fns))
	for i, fn := range fns {
		tasks[i] = newTask(ctx, fn)
	}

	var submitErr error
	if p.Contains(ctx) {
		var local []*task
		for _, t := range tasks {
			if !p.offer(ctx, t) {
				local = append(local, t)
			}
		}
		for _, t := range local {
			p.runInline(t)
		}
	} else {
		for i, t := range tasks {
			if err := p.submit(ctx, t); err != nil {
				submitErr = err
				// Tasks never handed over are finished as failed.
				for _, rest := range tasks[i:] {
					rest.err = err
					close(rest.finished)
				}
				break
			}
		}
	}

	for _, t := range tasks {
		<-t.finished
	}
	for _, t := range tasks {
		if t.panicked {
			panic(t.panicVal)
		}
	}
	if submitErr != nil {
		return submitErr
	}
	for _, t := range tasks {
		if t.err != nil {
			return t.err
		}
	}
	return nil
}
