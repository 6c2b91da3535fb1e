package workpool

import (
	"context"
	stderrors "errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/kbukum/poolstream/component"
	"github.com/kbukum/poolstream/config"
	"github.com/kbukum/poolstream/errors"
)

func newTestPool(t *testing.T, workers int) *Pool {
	t.Helper()
	p, err := New(Config{Name: t.Name(), Workers: workers})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestNew_Defaults(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	p, err := New(Config{})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer p.Close()

	if p.Name() != DefaultName {
		t.Errorf("expected name %q, got %q", DefaultName, p.Name())
	}
	if p.Size() < 1 {
		t.Errorf("expected at least one worker, got %d", p.Size())
	}
	if p.ID() == "" {
		t.Error("expected a pool ID")
	}
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{Workers: -1})
	if !stderrors.Is(err, errors.ErrInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}

func TestInvoke_RunsOnWorker(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	p := MustNew(Config{Name: "invoke", Workers: 2})
	defer p.Close()

	if p.Contains(context.Background()) {
		t.Fatal("a plain context must not belong to the pool")
	}

	var got Worker
	var onWorker bool
	err := p.Invoke(context.Background(), func(ctx context.Context) error {
		got, onWorker = WorkerFrom(ctx)
		return nil
	})
	if err != nil {
		t.Fatalf("Invoke failed: %v", err)
	}
	if !onWorker || got.Pool != p {
		t.Fatalf("expected task on a worker of %v, got %+v (ok=%v)", p, got, onWorker)
	}
	if got.ID < 0 || got.ID >= p.Size() {
		t.Errorf("worker ID %d out of range", got.ID)
	}
}

func TestInvoke_ReturnsErrorUnchanged(t *testing.T) {
	p := newTestPool(t, 1)
	boom := fmt.Errorf("boom")

	err := p.Invoke(context.Background(), func(context.Context) error { return boom })
	if err != boom {
		t.Fatalf("expected the task error itself, got %v", err)
	}
}

func TestInvoke_RepanicsOnCaller(t *testing.T) {
	p := newTestPool(t, 1)
	type marker struct{ n int }
	value := &marker{n: 7}

	defer func() {
		r := recover()
		if r != value {
			t.Fatalf("expected original panic value, got %v", r)
		}
	}()
	_ = p.Invoke(context.Background(), func(context.Context) error { panic(value) })
	t.Fatal("Invoke should have panicked")
}

func TestInvoke_NestedRunsInline(t *testing.T) {
	p := newTestPool(t, 1)

	var outer, inner Worker
	err := p.Invoke(context.Background(), func(ctx context.Context) error {
		outer, _ = WorkerFrom(ctx)
		return p.Invoke(ctx, func(ctx context.Context) error {
			inner, _ = WorkerFrom(ctx)
			return nil
		})
	})
	if err != nil {
		t.Fatalf("nested Invoke failed: %v", err)
	}
	if outer != inner {
		t.Errorf("nested call should stay on worker %d, ran on %d", outer.ID, inner.ID)
	}
}

func TestInvoke_NilFunc(t *testing.T) {
	p := newTestPool(t, 1)
	if err := p.Invoke(context.Background(), nil); !stderrors.Is(err, errors.ErrInvalidArgument) {
		t.Fatalf("expected INVALID_ARGUMENT, got %v", err)
	}
}

func TestInvoke_CanceledWhileWaitingForWorker(t *testing.T) {
	p := newTestPool(t, 1)

	release := make(chan struct{})
	started := make(chan struct{})
	go func() {
		_ = p.Invoke(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()
	<-started
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := p.Invoke(ctx, func(context.Context) error { return nil })
	if !stderrors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestCall_NormalizesErrors(t *testing.T) {
	p := newTestPool(t, 2)
	plain := fmt.Errorf("disk gone")

	tests := []struct {
		name     string
		err      error
		wantCode errors.ErrorCode
	}{
		{"plain error is wrapped", plain, errors.ErrCodeExecution},
		{"app error passes through", errors.Consumed(), errors.ErrCodeConsumed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Call(context.Background(), p, func(context.Context) (int, error) {
				return 0, tt.err
			})
			var appErr *errors.AppError
			if !stderrors.As(err, &appErr) {
				t.Fatalf("expected *AppError, got %T", err)
			}
			if appErr.Code != tt.wantCode {
				t.Errorf("expected %s, got %s", tt.wantCode, appErr.Code)
			}
			if !stderrors.Is(err, tt.err) {
				t.Error("normalized error should still reach the original")
			}
		})
	}
}

func TestCall_ReturnsValue(t *testing.T) {
	p := newTestPool(t, 2)
	got, err := Call(context.Background(), p, func(context.Context) (string, error) {
		return "done", nil
	})
	if err != nil || got != "done" {
		t.Fatalf("got (%q, %v), want (done, nil)", got, err)
	}
}

func TestInvokeAll_FromOutside(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	p := MustNew(Config{Name: "fanout", Workers: 3})
	defer p.Close()

	var ran atomic.Int32
	var offPool atomic.Int32
	fns := make([]func(context.Context) error, 10)
	for i := range fns {
		fns[i] = func(ctx context.Context) error {
			if !p.Contains(ctx) {
				offPool.Add(1)
			}
			ran.Add(1)
			return nil
		}
	}

	if err := p.InvokeAll(context.Background(), fns...); err != nil {
		t.Fatalf("InvokeAll failed: %v", err)
	}
	if ran.Load() != 10 {
		t.Errorf("expected 10 runs, got %d", ran.Load())
	}
	if offPool.Load() != 0 {
		t.Errorf("%d tasks ran off the pool", offPool.Load())
	}
}

func TestInvokeAll_NestedSingleWorker(t *testing.T) {
	p := newTestPool(t, 1)

	var ids []int
	var mu sync.Mutex
	err := p.Invoke(context.Background(), func(ctx context.Context) error {
		fns := make([]func(context.Context) error, 4)
		for i := range fns {
			fns[i] = func(ctx context.Context) error {
				w, _ := WorkerFrom(ctx)
				mu.Lock()
				ids = append(ids, w.ID)
				mu.Unlock()
				return nil
			}
		}
		return p.InvokeAll(ctx, fns...)
	})
	if err != nil {
		t.Fatalf("nested InvokeAll failed: %v", err)
	}
	if len(ids) != 4 {
		t.Fatalf("expected 4 runs, got %d", len(ids))
	}
	for _, id := range ids {
		if id != 0 {
			t.Errorf("single-worker pool ran a task on worker %d", id)
		}
	}
}

func TestInvokeAll_NestedUsesPoolWorkers(t *testing.T) {
	p := newTestPool(t, 4)

	var offPool atomic.Int32
	err := p.Invoke(context.Background(), func(ctx context.Context) error {
		fns := make([]func(context.Context) error, 16)
		for i := range fns {
			fns[i] = func(ctx context.Context) error {
				if !p.Contains(ctx) {
					offPool.Add(1)
				}
				return nil
			}
		}
		return p.InvokeAll(ctx, fns...)
	})
	if err != nil {
		t.Fatal(err)
	}
	if offPool.Load() != 0 {
		t.Errorf("%d nested tasks ran off the pool", offPool.Load())
	}
}

func TestInvokeAll_FirstErrorInOrder(t *testing.T) {
	p := newTestPool(t, 2)
	first := fmt.Errorf("first")
	second := fmt.Errorf("second")

	err := p.InvokeAll(context.Background(),
		func(context.Context) error { return nil },
		func(context.Context) error { time.Sleep(10 * time.Millisecond); return first },
		func(context.Context) error { return second },
	)
	if err != first {
		t.Fatalf("expected first error by position, got %v", err)
	}
}

func TestInvokeAll_RepanicsAfterAllFinish(t *testing.T) {
	p := newTestPool(t, 2)
	var finished atomic.Int32

	func() {
		defer func() {
			if r := recover(); r != "bad" {
				t.Fatalf("expected panic value %q, got %v", "bad", r)
			}
		}()
		_ = p.InvokeAll(context.Background(),
			func(context.Context) error { panic("bad") },
			func(context.Context) error { time.Sleep(10 * time.Millisecond); finished.Add(1); return nil },
			func(context.Context) error { finished.Add(1); return nil },
		)
	}()
	if finished.Load() != 2 {
		t.Errorf("expected the other tasks to finish before the panic, got %d", finished.Load())
	}
}

func TestClose(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())
	p := MustNew(Config{Name: "closing", Workers: 2})

	if h := p.Health(context.Background()); h.Status != component.StatusHealthy {
		t.Errorf("expected healthy, got %s", h.Status)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if err := p.Close(); err != nil {
		t.Fatalf("second Close failed: %v", err)
	}

	err := p.Invoke(context.Background(), func(context.Context) error { return nil })
	if !stderrors.Is(err, errors.ErrPoolClosed) {
		t.Errorf("expected POOL_CLOSED, got %v", err)
	}
	if err := p.Start(context.Background()); !stderrors.Is(err, errors.ErrPoolClosed) {
		t.Errorf("expected POOL_CLOSED on restart, got %v", err)
	}
	if h := p.Health(context.Background()); h.Status != component.StatusUnhealthy {
		t.Errorf("expected unhealthy, got %s", h.Status)
	}
}

func TestClose_WaitsForInFlightTask(t *testing.T) {
	p := MustNew(Config{Name: "inflight", Workers: 1})

	var done atomic.Bool
	started := make(chan struct{})
	go func() {
		_ = p.Invoke(context.Background(), func(context.Context) error {
			close(started)
			time.Sleep(20 * time.Millisecond)
			done.Store(true)
			return nil
		})
	}()
	<-started
	_ = p.Close()
	if !done.Load() {
		t.Error("Close returned before the in-flight task finished")
	}
}

func TestDefault(t *testing.T) {
	p := Default()
	if p != Default() {
		t.Fatal("Default should return one shared pool")
	}
	if err := p.Close(); err != nil {
		t.Fatalf("Close on the default pool failed: %v", err)
	}
	if p.Closed() {
		t.Fatal("the default pool must not be closable")
	}
	if err := p.Invoke(context.Background(), func(context.Context) error { return nil }); err != nil {
		t.Fatalf("default pool unusable after Close: %v", err)
	}
}

func TestRegistryLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	io := MustNew(Config{Name: "io", Workers: 2})
	cpu := MustNew(Config{Name: "cpu", Workers: 2})

	reg := component.NewRegistry()
	for _, p := range []*Pool{io, cpu} {
		if err := reg.Register(p); err != nil {
			t.Fatal(err)
		}
	}
	if err := reg.StartAll(context.Background()); err != nil {
		t.Fatalf("StartAll failed: %v", err)
	}
	if descs := reg.Describe(); len(descs) != 2 || descs[0].Type != "workpool" {
		t.Errorf("unexpected descriptions %+v", descs)
	}
	if err := reg.StopAll(context.Background()); err != nil {
		t.Fatalf("StopAll failed: %v", err)
	}
	if !io.Closed() || !cpu.Closed() {
		t.Error("StopAll should close every pool")
	}
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("POOL_WORKERS", "3")
	t.Setenv("POOL_NAME", "from-env")

	cfg, err := LoadConfig("poolstream-test", config.WithConfigFile("/nonexistent/config.yml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Workers != 3 || cfg.Name != "from-env" {
		t.Errorf("unexpected config %+v", cfg)
	}
}

func TestLoadConfig_Invalid(t *testing.T) {
	t.Setenv("POOL_WORKERS", "-2")

	_, err := LoadConfig("poolstream-test", config.WithConfigFile("/nonexistent/config.yml"))
	if !stderrors.Is(err, errors.ErrInvalidConfig) {
		t.Fatalf("expected INVALID_CONFIG, got %v", err)
	}
}
