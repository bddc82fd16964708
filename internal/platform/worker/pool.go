// File: internal/platform/worker/pool.go
package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Task is a unit of background work.
type Task func(ctx context.Context) error

// Pool runs best-effort background tasks on a fixed number of goroutines.
// Submit never blocks: when the queue is full the task is dropped and logged.
type Pool struct {
	workerCount int
	taskQueue   chan namedTask
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	logger      *zap.Logger

	closeOnce sync.Once
	mu        sync.RWMutex
	closed    bool
}

type namedTask struct {
	name string
	fn   Task
}

// NewPool creates a pool with workerCount workers and a queue of queueSize.
func NewPool(workerCount, queueSize int, logger *zap.Logger) *Pool {
	if workerCount <= 0 {
		workerCount = 1
	}
	if queueSize <= 0 {
		queueSize = workerCount * 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Pool{
		workerCount: workerCount,
		taskQueue:   make(chan namedTask, queueSize),
		ctx:         ctx,
		cancel:      cancel,
		logger:      logger.Named("WorkerPool"),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
	p.logger.Info("Worker pool started", zap.Int("workers", p.workerCount))
}

// Submit enqueues a task. It reports false if the task was dropped.
func (p *Pool) Submit(name string, task Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("Worker pool closed, task dropped", zap.String("task", name))
		return false
	}
	select {
	case p.taskQueue <- namedTask{name: name, fn: task}:
		return true
	default:
		p.logger.Warn("Worker queue full, task dropped", zap.String("task", name))
		return false
	}
}

// Shutdown stops accepting tasks, drains the queue and waits for workers,
// giving up (and cancelling in-flight tasks) when ctx expires.
func (p *Pool) Shutdown(ctx context.Context) {
	p.closeOnce.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.taskQueue)
		p.mu.Unlock()
	})

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("Worker pool drained")
	case <-ctx.Done():
		p.logger.Warn("Worker pool shutdown timed out, cancelling in-flight tasks")
		p.cancel()
		<-done
	}
	p.cancel()
}

func (p *Pool) worker(id int) {
	defer p.wg.Done()
	for task := range p.taskQueue {
		p.run(id, task)
	}
}

func (p *Pool) run(id int, task namedTask) {
	defer func() {
		if r := recover(); r != nil {
			p.logger.Error("Task panicked", zap.String("task", task.name), zap.Int("worker", id), zap.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(p.ctx, 30*time.Second)
	defer cancel()

	if err := task.fn(ctx); err != nil {
		p.logger.Warn("Task failed", zap.String("task", task.name), zap.Int("worker", id), zap.Error(err))
	}
}
