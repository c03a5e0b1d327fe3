package dispatch

import "sync"

// Pool is a fixed-size worker pool. Two instances back the pipeline: a wide
// one for classification and a narrow one for synthesis, so slow synthesis
// can never starve classification.
type Pool struct {
	tasks chan func()
	wg    sync.WaitGroup

	mu     sync.RWMutex // guards closed against submits racing Stop
	closed bool
}

// NewPool starts a pool with the given number of workers and queue depth.
func NewPool(workers, queueDepth int) *Pool {
	if workers < 1 {
		workers = 1
	}
	p := &Pool{
		tasks: make(chan func(), queueDepth),
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for task := range p.tasks {
				task()
			}
		}()
	}
	return p
}

// Submit enqueues a task, blocking while the queue is full. After Stop it is
// a no-op, so late callers (a debounce timer firing during shutdown) cannot
// send on the closed queue.
func (p *Pool) Submit(task func()) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return
	}
	p.tasks <- task
}

// TrySubmit enqueues a task without blocking. It reports false when the
// queue is full or the pool is stopped; the caller decides how to degrade.
func (p *Pool) TrySubmit(task func()) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return false
	}
	select {
	case p.tasks <- task:
		return true
	default:
		return false
	}
}

// Stop closes the queue and waits for in-flight tasks to finish. Safe to
// call more than once.
func (p *Pool) Stop() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.tasks)
	p.mu.Unlock()

	p.wg.Wait()
}
