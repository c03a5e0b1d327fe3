package dispatch

import (
	"sync"
	"sync/atomic"
	"testing"
)

func TestPoolRunsAllTasks(t *testing.T) {
	p := NewPool(4, 16)

	var count int64
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		p.Submit(func() {
			atomic.AddInt64(&count, 1)
			wg.Done()
		})
	}
	wg.Wait()
	p.Stop()

	if count != 100 {
		t.Fatalf("expected 100 tasks run, got %d", count)
	}
}

func TestPoolConcurrencyBound(t *testing.T) {
	p := NewPool(2, 16)
	defer p.Stop()

	var inFlight, peak int64
	var wg sync.WaitGroup
	gate := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		p.Submit(func() {
			defer wg.Done()
			n := atomic.AddInt64(&inFlight, 1)
			for {
				old := atomic.LoadInt64(&peak)
				if n <= old || atomic.CompareAndSwapInt64(&peak, old, n) {
					break
				}
			}
			<-gate
			atomic.AddInt64(&inFlight, -1)
		})
	}
	close(gate)
	wg.Wait()

	if peak > 2 {
		t.Fatalf("pool ran %d tasks concurrently, want at most 2", peak)
	}
}

func TestSubmitAfterStopIsNoOp(t *testing.T) {
	p := NewPool(1, 4)
	p.Stop()

	// Neither call may panic or run the task.
	ran := false
	p.Submit(func() { ran = true })
	if p.TrySubmit(func() { ran = true }) {
		t.Fatalf("TrySubmit must report false after Stop")
	}
	if ran {
		t.Fatalf("task ran after Stop")
	}

	// Stop is idempotent.
	p.Stop()
}

func TestTrySubmitReportsSaturation(t *testing.T) {
	p := NewPool(1, 1)
	defer p.Stop()

	block := make(chan struct{})
	started := make(chan struct{})
	p.Submit(func() {
		close(started)
		<-block
	})
	<-started

	// The single worker is blocked; the queue holds one task.
	if !p.TrySubmit(func() {}) {
		t.Fatalf("queue should accept one buffered task")
	}
	if p.TrySubmit(func() {}) {
		t.Fatalf("saturated queue must reject without blocking")
	}
	close(block)
}
