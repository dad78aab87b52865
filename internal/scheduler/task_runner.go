package scheduler

import (
	"context"
	"fmt"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/metrics"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"go.uber.org/zap"
)

// job 一次已经落库为 pending 的执行
type job struct {
	execution *execution.DatasetExecution
	dataset   *dataset.Dataset
	source    *dataset.Source
	task      Task
}

type (
	processFunc func(ctx context.Context, j *job)
	// failFunc 任务无法被处理时调用（worker panic、停机时仍在队列中）
	failFunc func(ctx context.Context, j *job, cause error)
)

// TaskRunner 固定数量的 worker 消费执行队列，单个执行内部的请求仍是串行的
type TaskRunner struct {
	logger     *zap.Logger
	maxWorkers int

	taskCh chan *job
	stopCh chan struct{}
	wg sync.WaitGroup

	// ctx 在停机超时后取消，用来打断仍在进行的分页
	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.RWMutex
	started bool
	stopped bool
	process processFunc
	fail    failFunc
}

// NewTaskRunner 创建任务执行器
func NewTaskRunner(cfg config.Config, logger *zap.Logger) *TaskRunner {
	workers := cfg.Execution.MaxWorkers
	if workers <= 0 {
		workers = 1
	}
	size := cfg.Execution.QueueSize
	if size <= 0 {
		size = workers * 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TaskRunner{
		logger:     logger,
		maxWorkers: workers,
		taskCh:     make(chan *job, size),
		stopCh:     make(chan struct{}),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Start 启动 worker；重复调用无效
func (r *TaskRunner) Start(process processFunc, fail failFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.started || r.stopped {
		return
	}
	r.started = true
	r.process = process
	r.fail = fail

	for i := 0; i < r.maxWorkers; i++ {
		r.wg.Add(1)
		go r.worker(i)
	}
	r.logger.Info("task runner started",
		zap.Int("workers", r.maxWorkers),
		zap.Int("queue_size", cap(r.taskCh)))
}

// Submit 非阻塞入队
func (r *TaskRunner) Submit(j *job) error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.stopped {
		return ErrRunnerStopped
	}

	select {
	case r.taskCh <- j:
		metrics.QueueDepth.Set(float64(len(r.taskCh)))
		r.logger.Debug("execution submitted",
			zap.Uint64("execution_id", j.execution.ID),
			zap.String("dataset_id", j.dataset.ID))
		return nil
	default:
		r.logger.Warn("execution queue is full",
			zap.Uint64("execution_id", j.execution.ID),
			zap.String("dataset_id", j.dataset.ID))
		return ErrQueueFull
	}
}

// Stop 等待正在执行的任务结束；ctx 到期后取消它们。队列中剩余的任务交给 fail。
func (r *TaskRunner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	close(r.stopCh)
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
	case <-ctx.Done():
		r.cancel()
		<-done
		err = errors.Wrap(ctx.Err(), "task runner shutdown")
	}
	r.cancel()

	for {
		select {
		case j := <-r.taskCh:
			if r.fail != nil {
				r.fail(context.Background(), j, ErrRunnerStopped)
			}
		default:
			metrics.QueueDepth.Set(0)
			r.logger.Info("task runner stopped")
			return err
		}
	}
}

// worker 工作协程
func (r *TaskRunner) worker(id int) {
	defer r.wg.Done()

	r.logger.Debug("worker started", zap.Int("worker_id", id))

	for {
		// 停机优先，队列里剩下的任务由 Stop 处理
		select {
		case <-r.stopCh:
			r.logger.Debug("worker stopped", zap.Int("worker_id", id))
			return
		default:
		}

		select {
		case <-r.stopCh:
			r.logger.Debug("worker stopped", zap.Int("worker_id", id))
			return
		case j := <-r.taskCh:
			metrics.QueueDepth.Set(float64(len(r.taskCh)))
			r.run(j)
		}
	}
}

func (r *TaskRunner) run(j *job) {
	defer func() {
		if p := recover(); p != nil {
			err := errors.Newf("execution handler panicked: %v", p)
			r.logger.Error("recovered worker panic",
				zap.Uint64("execution_id", j.execution.ID),
				zap.String("panic", fmt.Sprint(p)))
			if r.fail != nil {
				r.fail(context.Background(), j, err)
			}
		}
	}()
	r.process(r.ctx, j)
}
