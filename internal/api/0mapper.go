package api

import (
	"time"

	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
)

type ExecuteResp struct {
	ExecutionID uint64 `json:"executionId"`
}

type ListExecutionReq struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Status   string `form:"status" binding:"omitempty,oneof=pending running completed failed"`
}

type ListExecutionResp struct {
	Data       []ExecutionResp `json:"data"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	PageSize   int             `json:"pageSize"`
	TotalPages int             `json:"totalPages"`
}

// ExecutionResp 执行状态，不含数据行
type ExecutionResp struct {
	ID              uint64                    `json:"id"`
	DatasetID       string                    `json:"datasetId"`
	Status          execution.ExecutionStatus `json:"status"`
	StartTime       *time.Time                `json:"startTime"`
	EndTime         *time.Time                `json:"endTime"`
	RowCount        *int                      `json:"rowCount"`
	ExecutionTimeMs *int64                    `json:"executionTimeMs"`
	APICallCount    int                       `json:"apiCallCount"`
	ErrorMessage    string                    `json:"errorMessage,omitempty"`
	Metadata        map[string]any            `json:"metadata,omitempty"`
}

func toExecutionResp(e *execution.DatasetExecution) ExecutionResp {
	return ExecutionResp{
		ID:              e.ID,
		DatasetID:       e.DatasetID,
		Status:          e.Status,
		StartTime:       e.StartTime,
		EndTime:         e.EndTime,
		RowCount:        e.RowCount,
		ExecutionTimeMs: e.ExecutionTimeMs,
		APICallCount:    e.APICallCount,
		ErrorMessage:    e.ErrorMessage,
		Metadata:        e.Metadata,
	}
}

type PreviewReq struct {
	Limit       int  `form:"limit" binding:"omitempty,min=1"`
	CheckStatus bool `form:"checkStatus"`
}

type ResetStuckReq struct {
	// OlderThan Go duration，如 "30m"；为空时使用配置的阈值
	OlderThan string `json:"olderThan"`
}

type ResetResp struct {
	Reset int64 `json:"reset"`
}

type ExportReq struct {
	Format string `json:"format"`
}

type SchemaReq struct {
	APIVersion string `form:"api_version"`
	Force      bool   `form:"force"`
	IncludeRaw bool   `form:"include_raw"`
}
