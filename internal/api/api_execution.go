package api

import (
	"time"

	"github.com/cockroachdb/errors"
	"github.com/gin-gonic/gin"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/api/middleware"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/access"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/export"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/preview"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/scheduler"
	"go.uber.org/zap"
)

type IExecutionAPI interface {
	// Get 获取执行状态
	// @GET(api/v1/executions/{id})
	Get(ctx *gin.Context, id string) (ExecutionResp, error)

	// Preview 预览执行结果
	// 返回状态和前 limit 行；checkStatus=true 时只返回状态
	// @GET(api/v1/executions/{id}/preview)
	Preview(ctx *gin.Context, id string, req PreviewReq) (*preview.PreviewData, error)

	// Reset 重置执行
	// 把 pending/running 的执行强制置为 failed
	// @POST(api/v1/executions/{id}/reset)
	Reset(ctx *gin.Context, id string) (ExecutionResp, error)

	// ResetStuck 批量重置卡住的执行
	// @POST(api/v1/executions/reset-stuck)
	ResetStuck(ctx *gin.Context, req ResetStuckReq) (ResetResp, error)

	// Export 导出执行结果
	// @POST(api/v1/executions/{id}/export)
	Export(ctx *gin.Context, id string, req ExportReq) (*export.Result, error)
}

var _ IExecutionAPI = (*ExecutionAPI)(nil)

type ExecutionAPI struct {
	orchestrator scheduler.IOrchestrator
	previews     preview.Fetcher
	exporter     *export.Service
	executions   execution.Repo
	access       access.Repo
	logger       *zap.Logger
}

func NewExecutionAPI(orchestrator scheduler.IOrchestrator, previews preview.Fetcher, exporter *export.Service,
	executions execution.Repo, acl access.Repo, logger *zap.Logger) *ExecutionAPI {
	return &ExecutionAPI{
		orchestrator: orchestrator,
		previews:     previews,
		exporter:     exporter,
		executions:   executions,
		access:       acl,
		logger:       logger,
	}
}

func (e *ExecutionAPI) Get(ctx *gin.Context, id string) (ExecutionResp, error) {
	executionID, err := parseExecutionID(id)
	if err != nil {
		return ExecutionResp{}, err
	}
	c := ctx.Request.Context()
	exec, err := e.executions.GetStatus(c, executionID)
	if err != nil {
		return ExecutionResp{}, errors.Wrap(err, "load execution")
	}
	if exec == nil {
		return ExecutionResp{}, apperr.NotFound("execution not found")
	}
	if err := e.ownerOrAdmin(ctx, exec.UserID); err != nil {
		return ExecutionResp{}, err
	}
	return toExecutionResp(exec), nil
}

func (e *ExecutionAPI) Preview(ctx *gin.Context, id string, req PreviewReq) (*preview.PreviewData, error) {
	executionID, err := parseExecutionID(id)
	if err != nil {
		return nil, err
	}
	return e.previews.Preview(ctx.Request.Context(), preview.Request{
		ExecutionID: executionID,
		UserID:      middleware.UserID(ctx),
		Limit:       req.Limit,
		CheckStatus: req.CheckStatus,
	})
}

func (e *ExecutionAPI) Reset(ctx *gin.Context, id string) (ExecutionResp, error) {
	executionID, err := parseExecutionID(id)
	if err != nil {
		return ExecutionResp{}, err
	}
	c := ctx.Request.Context()
	if err := e.orchestrator.Reset(c, executionID, middleware.UserID(ctx)); err != nil {
		return ExecutionResp{}, err
	}
	exec, err := e.executions.GetStatus(c, executionID)
	if err != nil {
		return ExecutionResp{}, errors.Wrap(err, "load execution")
	}
	if exec == nil {
		return ExecutionResp{}, apperr.NotFound("execution not found")
	}
	return toExecutionResp(exec), nil
}

func (e *ExecutionAPI) ResetStuck(ctx *gin.Context, req ResetStuckReq) (ResetResp, error) {
	if err := e.ownerOrAdmin(ctx, ""); err != nil {
		return ResetResp{}, err
	}
	var olderThan time.Duration
	if req.OlderThan != "" {
		d, err := time.ParseDuration(req.OlderThan)
		if err != nil || d <= 0 {
			return ResetResp{}, apperr.Validation("olderThan must be a positive duration such as 30m")
		}
		olderThan = d
	}
	n, err := e.orchestrator.ResetStuck(ctx.Request.Context(), olderThan)
	if err != nil {
		return ResetResp{}, err
	}
	e.logger.Info("bulk reset requested",
		zap.String("by", middleware.UserID(ctx)),
		zap.Int64("count", n))
	return ResetResp{Reset: n}, nil
}

func (e *ExecutionAPI) Export(ctx *gin.Context, id string, req ExportReq) (*export.Result, error) {
	executionID, err := parseExecutionID(id)
	if err != nil {
		return nil, err
	}
	return e.exporter.Export(ctx.Request.Context(), export.Request{
		ExecutionID: executionID,
		UserID:      middleware.UserID(ctx),
		Format:      export.Format(req.Format),
	})
}

// ownerOrAdmin owner 为空时只允许管理员
func (e *ExecutionAPI) ownerOrAdmin(ctx *gin.Context, owner string) error {
	userID := middleware.UserID(ctx)
	if owner != "" && owner == userID {
		return nil
	}
	admin, err := e.access.HasRole(ctx.Request.Context(), userID, access.RoleAdmin)
	if err != nil {
		return errors.Wrap(err, "role lookup")
	}
	if !admin {
		return apperr.Forbidden("administrator role required")
	}
	return nil
}
