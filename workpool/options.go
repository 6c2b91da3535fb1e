package workpool

import (
	"github.com/kbukum/poolstream/logger"
	"github.com/kbukum/poolstream/observability"
)

type options struct {
	log     *logger.Logger
	metrics *observability.PoolMetrics
}

// Option customizes a Pool.
type Option func(*options)

// WithLogger sets the logger used for lifecycle and panic events.
func WithLogger(l *logger.Logger) Option {
	return func(o *options) { o.log = l }
}

// WithMetrics records task counts and durations on m.
func WithMetrics(m *observability.PoolMetrics) Option {
	return func(o *options) { o.metrics = m }
}
