package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/access"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/metrics"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/shopify"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/ids"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/logger"
	"go.uber.org/zap"
)

var _ IOrchestrator = (*Orchestrator)(nil)

// Orchestrator 接收执行请求，落库 pending 后立即返回执行 ID，由 TaskRunner 异步处理。
//
// pending -> running -> completed | failed
type Orchestrator struct {
	datasets   dataset.Repo
	sources    dataset.SourceRepo
	executions execution.Repo
	access     access.Repo
	client     *shopify.Client
	handlers   *Handlers
	runner     *TaskRunner
	locker     InflightLocker
	logger     *zap.Logger

	stuckThreshold time.Duration
	now            func() time.Time
}

// New 创建执行编排器
func New(
	cfg config.Config,
	logger *zap.Logger,

	client *shopify.Client,
	handlers *Handlers,
	runner *TaskRunner,
	locker InflightLocker,

	datasets dataset.Repo,
	sources dataset.SourceRepo,
	executions execution.Repo,
	acl access.Repo,
) *Orchestrator {
	return &Orchestrator{
		datasets:       datasets,
		sources:        sources,
		executions:     executions,
		access:         acl,
		client:         client,
		handlers:       handlers,
		runner:         runner,
		locker:         locker,
		logger:         logger,
		stuckThreshold: cfg.Execution.StuckThreshold,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

func (o *Orchestrator) Start() {
	o.runner.Start(o.process, o.abandon)
}

func (o *Orchestrator) Stop(ctx context.Context) error {
	return o.runner.Stop(ctx)
}

// Execute 校验所有权与凭据，创建 pending 执行并派发。派发后立即返回，调用方需要轮询结果。
func (o *Orchestrator) Execute(ctx context.Context, datasetID, userID string) (uint64, error) {
	if datasetID == "" {
		return 0, apperr.Validation("missing dataset id")
	}
	if userID == "" {
		return 0, apperr.Unauthenticated("missing user identity")
	}

	ds, err := o.datasets.GetDataset(ctx, datasetID)
	if err != nil {
		return 0, errors.Wrap(err, "load dataset")
	}
	if ds == nil {
		return 0, apperr.NotFound("dataset not found")
	}
	if ds.UserID != userID {
		return 0, apperr.Forbidden("dataset does not belong to the caller")
	}

	src, err := o.sources.GetSource(ctx, ds.SourceID)
	if err != nil {
		return 0, errors.Wrap(err, "load source")
	}
	if src == nil || !src.HasCredentials() {
		return 0, shopify.ErrMissingCredentials
	}

	handler, ok := o.handlers.For(ds.Type)
	if !ok {
		return 0, apperr.New(apperr.CodeUnsupported, fmt.Sprintf("unsupported dataset type %q", ds.Type), nil)
	}
	task, err := handler.Prepare(ctx, ds)
	if err != nil {
		return 0, err
	}

	id := ids.Next()
	if err := o.acquire(ctx, ds.ID, id); err != nil {
		return 0, err
	}

	exec := execution.NewPending(id, ds.ID, userID, o.now())
	if err := o.executions.Create(ctx, exec); err != nil {
		o.release(ctx, ds.ID, id)
		return 0, errors.Wrap(err, "create execution")
	}

	j := &job{execution: exec, dataset: ds, source: src, task: task}
	if err := o.runner.Submit(j); err != nil {
		// 执行记录已经存在，直接标记失败，调用方轮询时能看到原因
		o.abandon(ctx, j, err)
		return id, nil
	}

	o.logger.Info("execution dispatched",
		zap.Uint64("execution_id", id),
		zap.String("dataset_id", ds.ID),
		zap.String("dataset_type", string(ds.Type)))
	return id, nil
}

// acquire 获取数据集的在途标记。持有者的执行已经结束（崩溃残留）时接管标记。
func (o *Orchestrator) acquire(ctx context.Context, datasetID string, id uint64) error {
	for attempt := 0; attempt < 2; attempt++ {
		holder, ok, err := o.locker.Acquire(ctx, datasetID, id)
		if err != nil {
			o.logger.Warn("in-flight marker unavailable, dispatching without it",
				zap.String("dataset_id", datasetID), zap.Error(err))
			return nil
		}
		if ok {
			return nil
		}

		current, err := o.executions.GetStatus(ctx, holder)
		if err != nil {
			return errors.Wrap(err, "load in-flight execution")
		}
		// 持有者的执行记录可能还没写入，同样视为在途；崩溃残留的标记由 TTL 清理
		if current == nil || current.Status.IsActive() {
			return &InFlightError{DatasetID: datasetID, ExecutionID: holder}
		}
		o.logger.Info("clearing stale in-flight marker",
			zap.String("dataset_id", datasetID), zap.Uint64("holder", holder))
		if err := o.locker.Release(ctx, datasetID, holder); err != nil {
			return err
		}
	}
	return apperr.Conflict("dataset execution is being dispatched concurrently")
}

func (o *Orchestrator) release(ctx context.Context, datasetID string, id uint64) {
	if err := o.locker.Release(context.WithoutCancel(ctx), datasetID, id); err != nil {
		o.logger.Warn("failed to release in-flight marker",
			zap.String("dataset_id", datasetID), zap.Uint64("execution_id", id), zap.Error(err))
	}
}

// process worker 中执行一个任务
func (o *Orchestrator) process(ctx context.Context, j *job) {
	exec := j.execution
	dsType := string(j.dataset.Type)
	log := o.logger.With(
		zap.Uint64("execution_id", exec.ID),
		zap.String("dataset_id", j.dataset.ID),
		zap.String("dataset_type", dsType))
	defer o.release(ctx, j.dataset.ID, exec.ID)

	patch, err := exec.MarkRunning()
	if err != nil {
		log.Error("execution is not pending", zap.String("status", string(exec.Status)))
		return
	}
	if err := o.executions.Update(ctx, exec.ID, patch); err != nil {
		if errors.Is(err, execution.ErrInvalidTransition) {
			log.Warn("execution was reset before it started")
			return
		}
		log.Error("failed to mark execution running", zap.Error(err))
	}

	session, err := o.client.NewSession(shopify.Config{
		StoreName:   j.source.StoreName,
		AccessToken: j.source.AccessToken,
		APIVersion:  j.source.APIVersion,
	})
	if err != nil {
		o.finishFailed(ctx, j, err, 0, log)
		return
	}

	outcome, err := j.task(ctx, session)
	calls := session.Calls()
	metrics.ProviderCallsTotal.WithLabelValues(dsType).Add(float64(calls))
	if err != nil {
		o.finishFailed(ctx, j, err, calls, log)
		return
	}

	now := o.now()
	patch, err = exec.MarkCompleted(now, outcome.Rows, calls, outcome.Metadata)
	if err != nil {
		log.Error("cannot complete execution", zap.Error(err))
		return
	}
	if err := o.executions.Update(context.WithoutCancel(ctx), exec.ID, patch); err != nil {
		if errors.Is(err, execution.ErrInvalidTransition) {
			log.Warn("execution was reset while running, result discarded", zap.Int("row_count", len(outcome.Rows)))
			return
		}
		log.Error("failed to store execution result", logger.ErrorWithStack(err)...)
		return
	}
	metrics.ExecutionsTotal.WithLabelValues(dsType, string(execution.ExecutionStatusCompleted)).Inc()
	metrics.ExecutionDuration.WithLabelValues(dsType).Observe(float64(*exec.ExecutionTimeMs) / 1000)
	log.Info("execution completed",
		zap.Int("row_count", *exec.RowCount),
		zap.Int("api_call_count", calls),
		zap.Int64("execution_time_ms", *exec.ExecutionTimeMs))
}

// finishFailed 堆栈只写日志，执行记录只保存对外可见的消息
func (o *Orchestrator) finishFailed(ctx context.Context, j *job, cause error, calls int, log *zap.Logger) {
	exec := j.execution
	log.Error("execution failed", logger.ErrorWithStack(cause)...)

	patch, err := exec.MarkFailed(o.now(), failureMessage(cause), calls)
	if err != nil {
		log.Error("cannot fail execution", zap.Error(err))
		return
	}
	if err := o.executions.Update(context.WithoutCancel(ctx), exec.ID, patch); err != nil {
		if errors.Is(err, execution.ErrInvalidTransition) {
			log.Warn("execution was reset, failure not recorded")
			return
		}
		log.Error("failed to store execution failure", logger.ErrorWithStack(err)...)
		return
	}
	metrics.ExecutionsTotal.WithLabelValues(string(j.dataset.Type), string(execution.ExecutionStatusFailed)).Inc()
}

// abandon 任务没能进入 worker（队列满、停机、panic）
func (o *Orchestrator) abandon(ctx context.Context, j *job, cause error) {
	log := o.logger.With(
		zap.Uint64("execution_id", j.execution.ID),
		zap.String("dataset_id", j.dataset.ID))
	o.finishFailed(ctx, j, cause, 0, log)
	o.release(ctx, j.dataset.ID, j.execution.ID)
}

func failureMessage(err error) string {
	switch {
	case errors.Is(err, ErrQueueFull), errors.Is(err, ErrRunnerStopped), errors.Is(err, shopify.ErrNoConnection):
		return err.Error()
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "execution was interrupted before it finished"
	}
	return apperr.PublicMessage(err)
}

// Reset 把活跃执行强制置为 failed。执行所有者或管理员可以操作。
func (o *Orchestrator) Reset(ctx context.Context, executionID uint64, userID string) error {
	if userID == "" {
		return apperr.Unauthenticated("missing user identity")
	}
	exec, err := o.executions.GetStatus(ctx, executionID)
	if err != nil {
		return errors.Wrap(err, "load execution")
	}
	if exec == nil {
		return apperr.NotFound("execution not found")
	}
	if exec.UserID != userID {
		admin, err := o.access.HasRole(ctx, userID, access.RoleAdmin)
		if err != nil {
			return errors.Wrap(err, "role lookup")
		}
		if !admin {
			return apperr.Forbidden("only the owner or an administrator can reset this execution")
		}
	}
	if !exec.Status.IsActive() {
		return apperr.Conflict(fmt.Sprintf("execution is already %s", exec.Status))
	}

	ok, err := o.executions.ResetActive(ctx, executionID, execution.ResetReason, o.now())
	if err != nil {
		return err
	}
	if !ok {
		return apperr.Conflict("execution finished before it could be reset")
	}
	o.release(ctx, exec.DatasetID, executionID)
	o.logger.Info("execution reset",
		zap.Uint64("execution_id", executionID),
		zap.String("by", userID))
	return nil
}

// ResetStuck 批量重置 start_time 早于 now-olderThan 的活跃执行
func (o *Orchestrator) ResetStuck(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		olderThan = o.stuckThreshold
	}
	if olderThan <= 0 {
		return 0, apperr.Validation("stuck threshold must be positive")
	}
	now := o.now()
	n, err := o.executions.ResetStale(ctx, now.Add(-olderThan), execution.StuckReason, now)
	if err != nil {
		return 0, err
	}
	if n > 0 {
		metrics.ExecutionsTotal.WithLabelValues("", "reset").Add(float64(n))
		o.logger.Warn("reset stuck executions",
			zap.Int64("count", n),
			zap.Duration("older_than", olderThan))
	}
	return n, nil
}
