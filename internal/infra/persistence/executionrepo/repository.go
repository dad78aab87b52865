package executionrepo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/wire"
	domain "github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/commonrepo"
	"github.com/samber/lo"
)

var Provider = wire.NewSet(NewMysqlRepositoryImpl)

type MysqlRepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewMysqlRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &MysqlRepositoryImpl{
		DefaultRepo: commonrepo.NewDefaultRepo(db),
	}
}

func (r *MysqlRepositoryImpl) Create(ctx context.Context, execution *domain.DatasetExecution) error {
	po, err := new(DatasetExecution).FromDomain(execution)
	if err != nil {
		return err
	}
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return errors.Wrap(err, "create execution")
	}
	execution.CreatedAt = po.CreatedAt
	execution.UpdatedAt = po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) GetByID(ctx context.Context, id uint64) (*domain.DatasetExecution, error) {
	var po = new(DatasetExecution)
	found, err := commonrepo.FirstOrNil(r.Db(ctx).First(po, id))
	if err != nil || !found {
		return nil, err
	}
	return po.ToDomain()
}

func (r *MysqlRepositoryImpl) GetStatus(ctx context.Context, id uint64) (*domain.DatasetExecution, error) {
	var po = new(DatasetExecution)
	found, err := commonrepo.FirstOrNil(r.Db(ctx).Select(statusColumns).First(po, id))
	if err != nil || !found {
		return nil, err
	}
	return po.ToDomain()
}

func (r *MysqlRepositoryImpl) GetWithDataset(ctx context.Context, id uint64) (*domain.DatasetExecution, *domain.DatasetRef, error) {
	var row executionWithDataset
	tx := r.Db(ctx).Table("dataset_executions").
		Select("dataset_executions.*, datasets.id AS dataset_found, datasets.name AS dataset_name, "+
			"datasets.dataset_type AS dataset_type, datasets.template_id AS dataset_template_id").
		Joins("LEFT JOIN datasets ON datasets.id = dataset_executions.dataset_id").
		Where("dataset_executions.id = ?", id).
		Limit(1).
		Find(&row)
	if tx.Error != nil {
		return nil, nil, errors.Wrap(tx.Error, "read execution with dataset")
	}
	if tx.RowsAffected == 0 {
		return nil, nil, nil
	}
	exec, err := row.DatasetExecution.ToDomain()
	if err != nil {
		return nil, nil, err
	}
	if row.DatasetFound == nil {
		return exec, nil, nil
	}
	return exec, &domain.DatasetRef{
		ID:         *row.DatasetFound,
		Name:       row.DatasetName,
		Type:       row.DatasetType,
		TemplateID: row.DatasetTemplateID,
	}, nil
}

func (r *MysqlRepositoryImpl) Update(ctx context.Context, id uint64, patch *domain.DatasetExecutionPatch) error {
	values, err := patchToMap(patch)
	if err != nil {
		return err
	}
	if len(values) == 0 {
		return nil
	}
	db := r.Db(ctx).Model(&DatasetExecution{}).Where("id = ?", id)
	if patch.Status == nil {
		return db.Updates(values).Error
	}
	// 状态变更只作用于允许迁移的源状态，已被重置的执行不会被覆盖
	tx := db.Where("status IN ?", sourceStatuses(*patch.Status)).Updates(values)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return errors.Wrapf(domain.ErrInvalidTransition, "execution %d -> %s", id, *patch.Status)
	}
	return nil
}

func sourceStatuses(to domain.ExecutionStatus) []domain.ExecutionStatus {
	all := []domain.ExecutionStatus{domain.ExecutionStatusPending, domain.ExecutionStatusRunning,
		domain.ExecutionStatusCompleted, domain.ExecutionStatusFailed}
	return lo.Filter(all, func(from domain.ExecutionStatus, _ int) bool {
		return domain.CanTransition(from, to)
	})
}

func (r *MysqlRepositoryImpl) List(ctx context.Context, filter domain.ListFilter, offset, limit int) ([]*domain.DatasetExecution, int64, error) {
	db := r.Db(ctx).Model(&DatasetExecution{})

	if filter.DatasetID.IsPresent() {
		db = db.Where("dataset_id = ?", filter.DatasetID.MustGet())
	}
	if filter.UserID.IsPresent() {
		db = db.Where("user_id = ?", filter.UserID.MustGet())
	}
	if filter.Status.IsPresent() {
		db = db.Where("status = ?", filter.Status.MustGet())
	}
	if filter.StartTime.IsPresent() {
		db = db.Where("start_time >= ?", time.UnixMilli(filter.StartTime.MustGet()))
	}
	if filter.EndTime.IsPresent() {
		db = db.Where("start_time <= ?", time.UnixMilli(filter.EndTime.MustGet()))
	}

	var count int64
	if err := db.Count(&count).Error; err != nil {
		return nil, 0, err
	}

	var pos []*DatasetExecution
	if err := db.Select(statusColumns).Order("start_time DESC").Limit(limit).Offset(offset).Find(&pos).Error; err != nil {
		return nil, 0, err
	}

	domains := make([]*domain.DatasetExecution, 0, len(pos))
	for _, po := range pos {
		d, err := po.ToDomain()
		if err != nil {
			return nil, 0, err
		}
		domains = append(domains, d)
	}
	return domains, count, nil
}

func activeStatuses() []domain.ExecutionStatus {
	return []domain.ExecutionStatus{domain.ExecutionStatusPending, domain.ExecutionStatusRunning}
}

func resetValues(reason string, now time.Time) map[string]any {
	return map[string]any{
		"status":        domain.ExecutionStatusFailed,
		"end_time":      now,
		"error_message": reason,
	}
}

func (r *MysqlRepositoryImpl) ResetActive(ctx context.Context, id uint64, reason string, now time.Time) (bool, error) {
	tx := r.Db(ctx).Model(&DatasetExecution{}).
		Where("id = ? AND status IN ?", id, activeStatuses()).
		Updates(resetValues(reason, now))
	if tx.Error != nil {
		return false, errors.Wrap(tx.Error, "reset execution")
	}
	return tx.RowsAffected > 0, nil
}

func (r *MysqlRepositoryImpl) ResetStale(ctx context.Context, before time.Time, reason string, now time.Time) (int64, error) {
	tx := r.Db(ctx).Model(&DatasetExecution{}).
		Where("status IN ? AND start_time < ?", activeStatuses(), before).
		Updates(resetValues(reason, now))
	if tx.Error != nil {
		return 0, errors.Wrap(tx.Error, "reset stale executions")
	}
	return tx.RowsAffected, nil
}
