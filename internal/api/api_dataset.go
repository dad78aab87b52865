package api

import (
	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/api/middleware"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/access"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/scheduler"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"go.uber.org/zap"
)

type IDatasetAPI interface {
	// Execute 执行数据集
	// 创建一次执行并立即返回执行 ID，结果通过预览接口轮询
	// @POST(api/v1/datasets/{id}/execute)
	Execute(ctx *gin.Context, id string) (ExecuteResp, error)

	// ListExecutions 获取数据集的执行历史
	// @GET(api/v1/datasets/{id}/executions)
	ListExecutions(ctx *gin.Context, id string, req ListExecutionReq) (ListExecutionResp, error)
}

var _ IDatasetAPI = (*DatasetAPI)(nil)

type DatasetAPI struct {
	orchestrator scheduler.IOrchestrator
	datasets     dataset.Repo
	executions   execution.Repo
	access       access.Repo
	logger       *zap.Logger
}

func NewDatasetAPI(orchestrator scheduler.IOrchestrator, datasets dataset.Repo, executions execution.Repo,
	acl access.Repo, logger *zap.Logger) *DatasetAPI {
	return &DatasetAPI{
		orchestrator: orchestrator,
		datasets:     datasets,
		executions:   executions,
		access:       acl,
		logger:       logger,
	}
}

func (d *DatasetAPI) Execute(ctx *gin.Context, id string) (ExecuteResp, error) {
	executionID, err := d.orchestrator.Execute(ctx.Request.Context(), id, middleware.UserID(ctx))
	if err != nil {
		return ExecuteResp{}, err
	}
	return ExecuteResp{ExecutionID: executionID}, nil
}

func (d *DatasetAPI) ListExecutions(ctx *gin.Context, id string, req ListExecutionReq) (ListExecutionResp, error) {
	c := ctx.Request.Context()
	userID := middleware.UserID(ctx)

	ds, err := d.datasets.GetDataset(c, id)
	if err != nil {
		return ListExecutionResp{}, errors.Wrap(err, "load dataset")
	}
	if ds == nil {
		return ListExecutionResp{}, apperr.NotFound("dataset not found")
	}
	if ds.UserID != userID {
		admin, err := d.access.HasRole(c, userID, access.RoleAdmin)
		if err != nil {
			return ListExecutionResp{}, errors.Wrap(err, "role lookup")
		}
		if !admin {
			return ListExecutionResp{}, apperr.Forbidden("dataset belongs to another user")
		}
	}

	// 分页参数
	page := max(1, req.Page)
	pageSize := 20
	if req.PageSize != 0 {
		pageSize = req.PageSize
	}

	filter := execution.ListFilter{DatasetID: mo.Some(ds.ID)}
	if req.Status != "" {
		filter.Status = mo.Some(execution.ExecutionStatus(req.Status))
	}
	items, total, err := d.executions.List(c, filter, (page-1)*pageSize, pageSize)
	if err != nil {
		return ListExecutionResp{}, errors.Wrap(err, "list executions")
	}

	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return ListExecutionResp{
		Data: lo.Map(items, func(e *execution.DatasetExecution, _ int) ExecutionResp {
			return toExecutionResp(e)
		}),
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: totalPages,
	}, nil
}
