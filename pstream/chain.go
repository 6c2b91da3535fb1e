package pstream

import (
	"context"

	"github.com/kbukum/poolstream/stream"
)

// chain adds the same-shape chaining operations to a wrapper. Each one
// replaces the owned pipeline handle and returns the wrapper itself.
type chain[T any, S any] struct {
	dispatcher[T]
	self S
}

func (c *chain[T, S]) replace(p *stream.Pipeline[T]) S {
	c.pipeline = p
	return c.self
}

// Sequential makes eager operations run inline on the caller's goroutine.
func (c *chain[T, S]) Sequential() S { return c.replace(c.pipeline.Sequential()) }

// Parallel makes eager operations run on the wrapper's pool.
func (c *chain[T, S]) Parallel() S { return c.replace(c.pipeline.Parallel()) }

// Unordered drops the encounter-order constraint.
func (c *chain[T, S]) Unordered() S { return c.replace(c.pipeline.Unordered()) }

// OnClose registers fn to run when the stream is closed.
func (c *chain[T, S]) OnClose(fn func() error) S { return c.replace(c.pipeline.OnClose(fn)) }

// Filter keeps only elements that satisfy pred.
func (c *chain[T, S]) Filter(pred func(context.Context, T) bool) S { return c.replace(c.pipeline.Filter(pred)) }

// Map transforms each element without changing its type. Use the
// package-level Map, MapToInt and friends to change shape.
func (c *chain[T, S]) Map(fn func(context.Context, T) T) S { return c.replace(c.pipeline.MapSame(fn)) }

// Peek calls fn for each element as it is evaluated. In parallel mode ctx
// identifies the pool worker doing the evaluation.
func (c *chain[T, S]) Peek(fn func(context.Context, T)) S { return c.replace(c.pipeline.Peek(fn)) }

// FlatMap replaces each element with the elements of the pipeline fn returns.
func (c *chain[T, S]) FlatMap(fn func(context.Context, T) *stream.Pipeline[T]) S {
	return c.replace(c.pipeline.FlatMap(fn))
}

// Distinct keeps the first occurrence of every element.
func (c *chain[T, S]) Distinct() S { return c.replace(c.pipeline.Distinct()) }

// Limit keeps at most the first n elements.
func (c *chain[T, S]) Limit(n int64) S { return c.replace(c.pipeline.Limit(n)) }

// Skip drops the first n elements.
func (c *chain[T, S]) Skip(n int64) S { return c.replace(c.pipeline.Skip(n)) }

// TakeWhile keeps elements up to the first one failing pred.
func (c *chain[T, S]) TakeWhile(pred func(context.Context, T) bool) S { return c.replace(c.pipeline.TakeWhile(pred)) }

// DropWhile drops elements up to the first one failing pred.
func (c *chain[T, S]) DropWhile(pred func(context.Context, T) bool) S { return c.replace(c.pipeline.DropWhile(pred)) }

func (c *chain[T, S]) sorted(cmp func(a, b T) int) S { return c.replace(c.pipeline.Sorted(cmp)) }
