package workpool

import (
	"runtime"
	"sync"
)

var (
	defaultOnce sync.Once
	defaultPool *Pool
)

// Default returns the process-wide pool, creating it on first use with
// GOMAXPROCS workers. It lives until the process exits; Close on it is a
// no-op.
func Default() *Pool {
	defaultOnce.Do(func() {
		defaultPool = MustNew(Config{Name: "default", Workers: runtime.GOMAXPROCS(0)})
		defaultPool.persistent = true
	})
	return defaultPool
}
