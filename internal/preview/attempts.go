package preview

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"go.uber.org/zap"
)

// Attempt 一种读取执行的方式。返回错误时 Runner 尝试下一层。
type Attempt interface {
	Tier() Tier
	Fetch(ctx context.Context, executionID uint64) (*Snapshot, error)
}

var errExecutionNotFound = apperr.NotFound("execution not found")

// previewAttempt 执行与数据集一次联表读取
type previewAttempt struct {
	executions execution.Repo
}

func (previewAttempt) Tier() Tier { return TierPreview }

func (a previewAttempt) Fetch(ctx context.Context, id uint64) (*Snapshot, error) {
	e, ref, err := a.executions.GetWithDataset(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errExecutionNotFound
	}
	snap := &Snapshot{Execution: e, WithRows: true}
	if ref != nil {
		snap.Dataset = &DatasetInfo{ID: ref.ID, Name: ref.Name, Type: ref.Type}
	}
	return snap, nil
}

// directAttempt 分别读取执行和数据集，模板名尽力而为
type directAttempt struct {
	executions execution.Repo
	datasets   dataset.Repo
	logger     *zap.Logger
}

func (directAttempt) Tier() Tier { return TierDirect }

func (a directAttempt) Fetch(ctx context.Context, id uint64) (*Snapshot, error) {
	e, err := a.executions.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errExecutionNotFound
	}
	snap := &Snapshot{Execution: e, WithRows: true}

	ds, err := a.datasets.GetDataset(ctx, e.DatasetID)
	if err != nil {
		return nil, errors.Wrap(err, "load dataset")
	}
	if ds == nil {
		return snap, nil
	}
	snap.Dataset = &DatasetInfo{ID: ds.ID, Name: ds.Name, Type: string(ds.Type)}
	if ds.TemplateID != "" {
		name, err := a.datasets.FindTemplateName(ctx, ds.TemplateID)
		if err != nil {
			a.logger.Debug("template lookup failed",
				zap.String("template_id", ds.TemplateID), zap.Error(err))
		}
		snap.Dataset.Template = name
	}
	return snap, nil
}

// minimalAttempt 只读状态列
type minimalAttempt struct {
	executions execution.Repo
}

func (minimalAttempt) Tier() Tier { return TierMinimal }

func (a minimalAttempt) Fetch(ctx context.Context, id uint64) (*Snapshot, error) {
	e, err := a.executions.GetStatus(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, errExecutionNotFound
	}
	return &Snapshot{Execution: e}, nil
}
