package scheduler

import (
	"context"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/dependent"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/shopify"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const resourceOrders = "orders"

// Outcome 处理结果，Rows 为最终写入执行记录的数据
type Outcome struct {
	Rows     []map[string]any
	Metadata map[string]any
}

// Task 在 worker 中执行，所有请求都通过同一个 Session 以统计调用次数
type Task func(ctx context.Context, s *shopify.Session) (*Outcome, error)

// Handler 按数据集类型处理。Prepare 在创建执行记录之前同步调用，
// 模板缺失之类的错误直接返回给调用方。
type Handler interface {
	Type() dataset.Type
	Prepare(ctx context.Context, ds *dataset.Dataset) (Task, error)
}

type Handlers struct {
	byType map[dataset.Type]Handler
}

func NewHandlers(cfg config.Config, repo dataset.Repo, logger *zap.Logger) *Handlers {
	batcher := &dependent.Batcher{
		BatchSize: cfg.Shopify.BatchSize,
		Delay:     cfg.Shopify.PageDelay,
		Logger:    logger,
	}
	h := &Handlers{byType: make(map[dataset.Type]Handler)}
	h.Register(&predefinedHandler{repo: repo})
	h.Register(&dependentHandler{repo: repo, batcher: batcher, logger: logger})
	h.Register(customHandler{})
	return h
}

func (h *Handlers) Register(handler Handler) {
	h.byType[handler.Type()] = handler
}

func (h *Handlers) For(t dataset.Type) (Handler, bool) {
	handler, ok := h.byType[t]
	return handler, ok
}

type predefinedHandler struct {
	repo dataset.Repo
}

func (*predefinedHandler) Type() dataset.Type { return dataset.TypePredefined }

func (h *predefinedHandler) Prepare(ctx context.Context, ds *dataset.Dataset) (Task, error) {
	if ds.TemplateID == "" {
		return nil, apperr.Validation("predefined dataset has no template")
	}
	tpl, err := h.repo.GetPredefinedTemplate(ctx, ds.TemplateID)
	if err != nil {
		return nil, errors.Wrap(err, "load predefined template")
	}
	if tpl == nil {
		return nil, apperr.NotFound("predefined template not found")
	}
	if tpl.QueryTemplate == "" {
		return nil, apperr.Validation("predefined template has an empty query")
	}

	req := shopify.PageRequest{
		Query:           tpl.QueryTemplate,
		Variables:       ds.Variables(),
		MaxItems:        ds.MaxItems(0),
		ConnectionField: tpl.ResourceType,
	}
	return func(ctx context.Context, s *shopify.Session) (*Outcome, error) {
		rows, err := s.Paginate(ctx, req)
		if err != nil {
			return nil, err
		}
		if tpl.ResourceType == resourceOrders {
			rows = lo.Map(rows, func(order map[string]any, _ int) map[string]any {
				return shopify.FlattenOrderDiscounts(order)
			})
		}
		return &Outcome{
			Rows: rows,
			Metadata: map[string]any{
				"templateId":   tpl.ID,
				"templateName": tpl.Name,
				"resourceType": tpl.ResourceType,
			},
		}, nil
	}, nil
}

// dependentHandler 主查询 -> 提取 ID -> 分批次级查询 -> 合并
type dependentHandler struct {
	repo    dataset.Repo
	batcher *dependent.Batcher
	logger  *zap.Logger
}

func (*dependentHandler) Type() dataset.Type { return dataset.TypeDependent }

func (h *dependentHandler) Prepare(ctx context.Context, ds *dataset.Dataset) (Task, error) {
	if ds.TemplateID == "" {
		return nil, apperr.Validation("dependent dataset has no template")
	}
	tpl, err := h.repo.GetDependentTemplate(ctx, ds.TemplateID)
	if err != nil {
		return nil, errors.Wrap(err, "load dependent template")
	}
	if tpl == nil {
		return nil, apperr.NotFound("dependent template not found")
	}
	switch {
	case tpl.PrimaryQuery == "":
		return nil, apperr.Validation("dependent template has an empty primary query")
	case tpl.IDPath == "":
		return nil, apperr.Validation("dependent template has no id path")
	}

	req := shopify.PageRequest{
		Query:     tpl.PrimaryQuery,
		Variables: ds.Variables(),
		MaxItems:  ds.MaxItems(0),
	}
	return func(ctx context.Context, s *shopify.Session) (*Outcome, error) {
		primary, err := s.Paginate(ctx, req)
		if err != nil {
			return nil, errors.WithMessage(err, "primary query")
		}
		ids := dependent.ExtractIDs(primary, tpl.IDPath)
		secondary, err := h.batcher.Run(ctx, s, tpl.SecondaryQuery, ids)
		if err != nil {
			return nil, errors.WithMessage(err, "secondary query")
		}
		if err := dependent.ValidateJoinKeys(primary, secondary); err != nil {
			h.logger.Warn("merge join keys incomplete",
				zap.String("dataset_id", ds.ID),
				zap.String("template_id", tpl.ID),
				zap.Error(err))
		}
		rows := dependent.Merge(primary, secondary, tpl.MergeStrategy)
		return &Outcome{
			Rows: rows,
			Metadata: map[string]any{
				"templateId":     tpl.ID,
				"templateName":   tpl.Name,
				"mergeStrategy":  string(tpl.MergeStrategy),
				"primaryCount":   len(primary),
				"extractedIds":   len(ids),
				"secondaryCount": len(secondary),
			},
		}, nil
	}, nil
}

// customHandler 用户自定义查询，只分页不合并
type customHandler struct{}

func (customHandler) Type() dataset.Type { return dataset.TypeCustom }

func (customHandler) Prepare(_ context.Context, ds *dataset.Dataset) (Task, error) {
	if ds.CustomQuery == "" {
		return nil, apperr.Validation("custom dataset has no query")
	}
	// 提前解析一次，语法错误不创建执行
	if _, err := shopify.PlanPagination(ds.CustomQuery); err != nil {
		return nil, err
	}
	req := shopify.PageRequest{
		Query:     ds.CustomQuery,
		Variables: ds.Variables(),
		MaxItems:  ds.MaxItems(0),
	}
	return func(ctx context.Context, s *shopify.Session) (*Outcome, error) {
		rows, err := s.Paginate(ctx, req)
		if err != nil {
			return nil, err
		}
		return &Outcome{Rows: rows, Metadata: map[string]any{"custom": true}}, nil
	}, nil
}
