// Package worker provides a bounded pool for detached background tasks.
package worker

import "sync"

// Pool limits how many submitted tasks run at once using a semaphore.
// Tasks are fire-and-forget: Submit never blocks the caller on the task
// itself, only on a free slot.
type Pool struct {
	sem chan struct{}
	wg  sync.WaitGroup
}

// NewPool creates a pool allowing up to limit concurrent tasks.
func NewPool(limit int) *Pool {
	if limit < 1 {
		limit = 1
	}
	return &Pool{sem: make(chan struct{}, limit)}
}

// Submit schedules task on its own goroutine, blocking only until a worker
// slot is free.
func (p *Pool) Submit(task func()) {
	p.sem <- struct{}{}
	p.wg.Add(1)
	go func() {
		defer func() {
			<-p.sem
			p.wg.Done()
		}()
		task()
	}()
}

// Wait blocks until all submitted tasks have finished.
func (p *Pool) Wait() {
	p.wg.Wait()
}
