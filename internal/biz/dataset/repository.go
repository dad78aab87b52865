package dataset

import "context"

// 所有 Get 方法在记录不存在时返回 nil, nil

type Repo interface {
	GetDataset(ctx context.Context, id string) (*Dataset, error)
	CreateDataset(ctx context.Context, d *Dataset) error
	GetPredefinedTemplate(ctx context.Context, id string) (*PredefinedTemplate, error)
	GetDependentTemplate(ctx context.Context, id string) (*DependentTemplate, error)
	CreatePredefinedTemplate(ctx context.Context, t *PredefinedTemplate) error
	CreateDependentTemplate(ctx context.Context, t *DependentTemplate) error
	// FindTemplateName 依次查 predefined 与 dependent 模板表
	FindTemplateName(ctx context.Context, templateID string) (string, error)
}

type SourceRepo interface {
	GetSource(ctx context.Context, id string) (*Source, error)
	CreateSource(ctx context.Context, s *Source) error
}
