package datasetrepo

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/google/wire"
	domain "github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/commonrepo"
)

var Provider = wire.NewSet(NewDatasetRepo, NewSourceRepo)

type MysqlRepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewMysqlRepositoryImpl(db commonrepo.DB) *MysqlRepositoryImpl {
	return &MysqlRepositoryImpl{
		DefaultRepo: commonrepo.NewDefaultRepo(db),
	}
}

func NewDatasetRepo(db commonrepo.DB) domain.Repo { return NewMysqlRepositoryImpl(db) }

func NewSourceRepo(db commonrepo.DB) domain.SourceRepo { return NewMysqlRepositoryImpl(db) }

func (r *MysqlRepositoryImpl) GetDataset(ctx context.Context, id string) (*domain.Dataset, error) {
	var po = new(Dataset)
	found, err := commonrepo.FirstOrNil(r.Db(ctx).Where("id = ?", id).First(po))
	if err != nil || !found {
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) CreateDataset(ctx context.Context, d *domain.Dataset) error {
	po := new(Dataset).FromDomain(d)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return errors.Wrap(err, "create dataset")
	}
	d.CreatedAt, d.UpdatedAt = po.CreatedAt, po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) GetSource(ctx context.Context, id string) (*domain.Source, error) {
	var po = new(Source)
	found, err := commonrepo.FirstOrNil(r.Db(ctx).Where("id = ?", id).First(po))
	if err != nil || !found {
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) CreateSource(ctx context.Context, s *domain.Source) error {
	po := new(Source).FromDomain(s)
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return errors.Wrap(err, "create source")
	}
	s.CreatedAt, s.UpdatedAt = po.CreatedAt, po.UpdatedAt
	return nil
}

func (r *MysqlRepositoryImpl) GetPredefinedTemplate(ctx context.Context, id string) (*domain.PredefinedTemplate, error) {
	var po = new(PredefinedTemplate)
	found, err := commonrepo.FirstOrNil(r.Db(ctx).Where("id = ?", id).First(po))
	if err != nil || !found {
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) GetDependentTemplate(ctx context.Context, id string) (*domain.DependentTemplate, error) {
	var po = new(DependentTemplate)
	found, err := commonrepo.FirstOrNil(r.Db(ctx).Where("id = ?", id).First(po))
	if err != nil || !found {
		return nil, err
	}
	return po.ToDomain(), nil
}

func (r *MysqlRepositoryImpl) CreatePredefinedTemplate(ctx context.Context, t *domain.PredefinedTemplate) error {
	po := &PredefinedTemplate{
		StringMode:    commonrepo.StringMode{ID: t.ID},
		Name:          t.Name,
		Description:   t.Description,
		QueryTemplate: t.QueryTemplate,
		ResourceType:  t.ResourceType,
		FieldList:     t.FieldList,
	}
	return errors.Wrap(r.Db(ctx).Create(po).Error, "create predefined template")
}

func (r *MysqlRepositoryImpl) CreateDependentTemplate(ctx context.Context, t *domain.DependentTemplate) error {
	po := &DependentTemplate{
		StringMode:     commonrepo.StringMode{ID: t.ID},
		Name:           t.Name,
		Description:    t.Description,
		PrimaryQuery:   t.PrimaryQuery,
		SecondaryQuery: t.SecondaryQuery,
		IDPath:         t.IDPath,
		MergeStrategy:  t.MergeStrategy,
	}
	return errors.Wrap(r.Db(ctx).Create(po).Error, "create dependent template")
}

func (r *MysqlRepositoryImpl) FindTemplateName(ctx context.Context, templateID string) (string, error) {
	if templateID == "" {
		return "", nil
	}
	var names []string
	if err := r.Db(ctx).Model(&PredefinedTemplate{}).Where("id = ?", templateID).Limit(1).Pluck("name", &names).Error; err != nil {
		return "", errors.Wrap(err, "lookup predefined template")
	}
	if len(names) > 0 {
		return names[0], nil
	}
	if err := r.Db(ctx).Model(&DependentTemplate{}).Where("id = ?", templateID).Limit(1).Pluck("name", &names).Error; err != nil {
		return "", errors.Wrap(err, "lookup dependent template")
	}
	if len(names) > 0 {
		return names[0], nil
	}
	return "", nil
}
