package engine

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cpcf/razorgen/state"
)

type WorkerPool struct {
	size       int
	queue      chan Task
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	started    int32
	completed  int64
	failed     int64
	processing int64
}

type Task interface {
	Execute(ctx context.Context) error
	ID() string
}

type TaskResult struct {
	TaskID     string        `json:"task_id"`
	OutputName string        `json:"output_name"`
	OutputPath string        `json:"output_path"`
	Flavor     string        `json:"flavor"`
	Namespace  string        `json:"namespace"`
	ClassName  string        `json:"class_name"`
	Hash       string        `json:"hash"`
	Success    bool          `json:"success"`
	Written    bool          `json:"written"`
	Cached     bool          `json:"cached"`
	Error      error         `json:"-"`
	Duration   time.Duration `json:"duration"`
	StartTime  time.Time     `json:"start_time"`
	EndTime    time.Time     `json:"end_time"`
}

// CompileTask compiles one template and writes its output.
type CompileTask struct {
	engine *Engine
	ctx    Context
	path   string
	result chan<- TaskResult
}

func (ct *CompileTask) Execute(ctx context.Context) error {
	result := TaskResult{
		TaskID:    ct.path,
		StartTime: time.Now(),
	}

	defer func() {
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(result.StartTime)
		ct.result <- result
	}()

	if err := ctx.Err(); err != nil {
		result.Error = err
		return err
	}

	outcome, err := ct.engine.generateFile(ct.ctx, ct.path)
	if err != nil {
		result.Error = err
		return err
	}

	result.Success = true
	result.OutputName = outcome.outputName
	result.OutputPath = outcome.outputPath
	result.Written = outcome.written
	result.Cached = outcome.result.Cached
	result.Flavor = outcome.result.Flavor
	result.Namespace = outcome.result.Namespace
	result.ClassName = outcome.result.ClassName
	result.Hash = state.HashContent(outcome.result.Code)
	return nil
}

func (ct *CompileTask) ID() string {
	return ct.path
}

func NewWorkerPool(size int) *WorkerPool {
	if size <= 0 {
		size = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		size:   size,
		queue:  make(chan Task, size*2),
		ctx:    ctx,
		cancel: cancel,
	}
}

func (wp *WorkerPool) Size() int {
	return wp.size
}

func (wp *WorkerPool) Start() {
	if atomic.CompareAndSwapInt32(&wp.started, 0, 1) {
		wp.wg.Add(wp.size)
		for i := 0; i < wp.size; i++ {
			go wp.worker()
		}
	}
}

// Stop cancels queued work and waits for running tasks to return.
func (wp *WorkerPool) Stop() {
	wp.cancel()
	wp.wg.Wait()
}

// Submit queues task, blocking while the queue is full. It fails once the pool
// has been stopped.
func (wp *WorkerPool) Submit(task Task) error {
	if err := wp.ctx.Err(); err != nil {
		return err
	}
	select {
	case wp.queue <- task:
		return nil
	case <-wp.ctx.Done():
		return wp.ctx.Err()
	}
}

func (wp *WorkerPool) worker() {
	defer wp.wg.Done()

	for {
		select {
		case task := <-wp.queue:
			if task == nil {
				return
			}

			atomic.AddInt64(&wp.processing, 1)

			err := task.Execute(wp.ctx)

			atomic.AddInt64(&wp.processing, -1)

			if err != nil {
				atomic.AddInt64(&wp.failed, 1)
			} else {
				atomic.AddInt64(&wp.completed, 1)
			}

		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) Stats() WorkerPoolStats {
	return WorkerPoolStats{
		WorkerCount:     wp.size,
		QueueLength:     len(wp.queue),
		QueueCapacity:   cap(wp.queue),
		TasksCompleted:  atomic.LoadInt64(&wp.completed),
		TasksFailed:     atomic.LoadInt64(&wp.failed),
		TasksProcessing: atomic.LoadInt64(&wp.processing),
	}
}

type WorkerPoolStats struct {
	WorkerCount     int   `json:"worker_count"`
	QueueLength     int   `json:"queue_length"`
	QueueCapacity   int   `json:"queue_capacity"`
	TasksCompleted  int64 `json:"tasks_completed"`
	TasksFailed     int64 `json:"tasks_failed"`
	TasksProcessing int64 `json:"tasks_processing"`
}
