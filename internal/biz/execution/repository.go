package execution

import (
	"context"
	"time"

	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/commonrepo"
	"github.com/samber/mo"
)

type Repo interface {
	commonrepo.Transaction
	Create(ctx context.Context, execution *DatasetExecution) error
	// GetByID 不存在时返回 nil, nil
	GetByID(ctx context.Context, id uint64) (*DatasetExecution, error)
	// GetStatus 只读取状态列，不加载 data
	GetStatus(ctx context.Context, id uint64) (*DatasetExecution, error)
	// GetWithDataset 执行与数据集的联合读取
	GetWithDataset(ctx context.Context, id uint64) (*DatasetExecution, *DatasetRef, error)
	Update(ctx context.Context, id uint64, patch *DatasetExecutionPatch) error
	List(ctx context.Context, filter ListFilter, offset, limit int) ([]*DatasetExecution, int64, error)

	// ResetActive 把仍处于 pending/running 的执行置为 failed，返回是否命中
	ResetActive(ctx context.Context, id uint64, reason string, now time.Time) (bool, error)
	// ResetStale 批量重置 start_time 早于 before 的活跃执行
	ResetStale(ctx context.Context, before time.Time, reason string, now time.Time) (int64, error)
}

type ListFilter struct {
	DatasetID mo.Option[string]
	UserID    mo.Option[string]
	Status    mo.Option[ExecutionStatus]
	StartTime mo.Option[int64]
	EndTime   mo.Option[int64]
}
