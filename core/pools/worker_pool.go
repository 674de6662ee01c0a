package pools

import (
	"context"
	"errors"
	"log"
	"runtime"
	"sync"
	"sync/atomic"
)

var ErrPoolClosed = errors.New("worker pool closed")

// Task represents a unit of work
type Task func()

// WorkerPool runs tasks on a fixed number of goroutines. Submit hands a
// task directly to an idle worker, so at most numWorkers tasks run at once
// and none is queued behind a busy worker.
type WorkerPool struct {
	numWorkers int
	tasks      chan Task
	quit       chan struct{}
	closeOnce  sync.Once
	wg         sync.WaitGroup

	// Statistics
	stats struct {
		tasksSubmitted atomic.Uint64
		tasksCompleted atomic.Uint64
		tasksPanicked  atomic.Uint64
		busy           atomic.Int64
	}
}

// NewWorkerPool starts numWorkers goroutines (runtime.NumCPU() if <= 0)
func NewWorkerPool(numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}

	pool := &WorkerPool{
		numWorkers: numWorkers,
		tasks:      make(chan Task),
		quit:       make(chan struct{}),
	}

	pool.wg.Add(numWorkers)
	for i := 0; i < numWorkers; i++ {
		go pool.worker(i)
	}

	return pool
}

// Submit blocks until a worker accepts task, ctx is done, or the pool is
// closed. A nil error means the task will run.
func (p *WorkerPool) Submit(ctx context.Context, task Task) error {
	select {
	case <-p.quit:
		return ErrPoolClosed
	default:
	}

	select {
	case p.tasks <- task:
		p.stats.tasksSubmitted.Add(1)
		return nil
	case <-p.quit:
		return ErrPoolClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *WorkerPool) worker(id int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.quit:
			return
		case task := <-p.tasks:
			p.run(id, task)
		}
	}
}

// run executes one task; a panicking task does not take the worker down
func (p *WorkerPool) run(id int, task Task) {
	p.stats.busy.Add(1)
	defer func() {
		p.stats.busy.Add(-1)
		p.stats.tasksCompleted.Add(1)
		if err := recover(); err != nil {
			p.stats.tasksPanicked.Add(1)
			log.Printf("worker %d: task panic: %v", id, err)
		}
	}()

	task()
}

// Close stops accepting tasks and waits for running tasks to finish
func (p *WorkerPool) Close() {
	p.closeOnce.Do(func() {
		close(p.quit)
	})
	p.wg.Wait()
}

// CloseContext is Close bounded by ctx
func (p *WorkerPool) CloseContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		p.Close()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Stats returns pool statistics
func (p *WorkerPool) Stats() WorkerPoolStats {
	return WorkerPoolStats{
		NumWorkers:     p.numWorkers,
		Busy:           int(p.stats.busy.Load()),
		TasksSubmitted: p.stats.tasksSubmitted.Load(),
		TasksCompleted: p.stats.tasksCompleted.Load(),
		TasksPanicked:  p.stats.tasksPanicked.Load(),
	}
}

// WorkerPoolStats contains pool statistics
type WorkerPoolStats struct {
	NumWorkers     int
	Busy           int
	TasksSubmitted uint64
	TasksCompleted uint64
	TasksPanicked  uint64
}
