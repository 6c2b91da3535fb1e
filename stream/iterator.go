package stream

import "context"

// Iterator provides pull-based sequential access to a sequence of values.
type Iterator[T any] interface {
	// Next returns the next value. Returns (zero, false, nil) when exhausted.
	Next(ctx context.Context) (T, bool, error)
	// Close releases any resources held by the iterator.
	Close() error
}

// Task computes one batch of pipeline elements. Pulling tasks from a
// pipeline is sequential; running them may happen on any worker.
type Task[T any] func(ctx context.Context) ([]T, error)

// Characteristics hint properties of the iterators a FromFunc factory
// produces.
type Characteristics uint8

const (
	// Ordered means the iterator has a meaningful encounter order that
	// order-sensitive operations must respect.
	Ordered Characteristics = 1 << iota
)

// Has reports whether every flag in f is set in c.
func (c Characteristics) Has(f Characteristics) bool { return c&f == f }

func constTask[T any](batch []T) Task[T] {
	return func(context.Context) ([]T, error) { return batch, nil }
}

// --- Internal iterators ---

type sliceIter[T any] struct {
	items []T
	index int
}

func (it *sliceIter[T]) Next(_ context.Context) (T, bool, error) {
	if it.index >= len(it.items) {
		var zero T
		return zero, false, nil
	}
	val := it.items[it.index]
	it.index++
	return val, true, nil
}

func (it *sliceIter[T]) Close() error { return nil }

// chunkTasks splits a slice into tasks of at most size elements.
type chunkTasks[T any] struct {
	items []T
	size  int
	pos   int
}

func (it *chunkTasks[T]) Next(_ context.Context) (Task[T], bool, error) {
	if it.pos >= len(it.items) {
		return nil, false, nil
	}
	end := min(it.pos+it.size, len(it.items))
	batch := it.items[it.pos:end:end]
	it.pos = end
	return constTask(batch), true, nil
}

func (it *chunkTasks[T]) Close() error { return nil }

// batchTasks groups the values of a sequential iterator into tasks. The
// source is read while pulling, never from inside a task.
type batchTasks[T any] struct {
	source Iterator[T]
	size   int
	done   bool
}

func (it *batchTasks[T]) Next(ctx context.Context) (Task[T], bool, error) {
	if it.done {
		return nil, false, nil
	}
	batch := make([]T, 0, it.size)
	for len(batch) < it.size {
		val, ok, err := it.source.Next(ctx)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			it.done = true
			break
		}
		batch = append(batch, val)
	}
	if len(batch) == 0 {
		return nil, false, nil
	}
	return constTask(batch), true, nil
}

func (it *batchTasks[T]) Close() error { return it.source.Close() }

// stageTasks applies fn to every batch produced by source, inside the task.
type stageTasks[I, O any] struct {
	source Iterator[Task[I]]
	fn     func(context.Context, []I) ([]O, error)
}

func (it *stageTasks[I, O]) Next(ctx context.Context) (Task[O], bool, error) {
	t, ok, err := it.source.Next(ctx)
	if err != nil || !ok {
		return nil, false, err
	}
	fn := it.fn
	return func(ctx context.Context) ([]O, error) {
		in, err := t(ctx)
		if err != nil {
			return nil, err
		}
		return fn(ctx, in)
	}, true, nil
}

func (it *stageTasks[I, O]) Close() error { return it.source.Close() }

// concatTasks yields every task of first, then opens second and yields its.
type concatTasks[T any] struct {
	first      Iterator[Task[T]]
	openSecond func(context.Context) Iterator[Task[T]]
	second     Iterator[Task[T]]
}

func (it *concatTasks[T]) Next(ctx context.Context) (Task[T], bool, error) {
	if it.second == nil {
		t, ok, err := it.first.Next(ctx)
		if err != nil || ok {
			return t, ok, err
		}
		it.second = it.openSecond(ctx)
	}
	return it.second.Next(ctx)
}

func (it *concatTasks[T]) Close() error {
	err := it.first.Close()
	if it.second != nil {
		if serr := it.second.Close(); err == nil {
			err = serr
		}
	}
	return err
}

// flatIter flattens the tasks of a pipeline into single values, running
// each task inline as it is reached.
type flatIter[T any] struct {
	source Iterator[Task[T]]
	batch  []T
}

func (it *flatIter[T]) Next(ctx context.Context) (T, bool, error) {
	for len(it.batch) == 0 {
		t, ok, err := it.source.Next(ctx)
		if err != nil || !ok {
			var zero T
			return zero, false, err
		}
		if it.batch, err = t(ctx); err != nil {
			var zero T
			return zero, false, err
		}
	}
	val := it.batch[0]
	it.batch = it.batch[1:]
	return val, true, nil
}

func (it *flatIter[T]) Close() error { return it.source.Close() }

type emptyTasks[T any] struct{}

func (emptyTasks[T]) Next(context.Context) (Task[T], bool, error) { return nil, false, nil }
func (emptyTasks[T]) Close() error                                { return nil }
