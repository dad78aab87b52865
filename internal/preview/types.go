// Package preview 读取执行状态和前若干行结果。
//
// 服务端按 preview -> direct -> minimal 的顺序尝试，第一个成功的层级即为结果；
// 客户端通过 Poller 轮询直到执行结束。
package preview

import (
	"time"

	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
)

// Tier 提供结果的读取层级
type Tier string

const (
	TierPreview Tier = "preview"
	TierDirect  Tier = "direct"
	TierMinimal Tier = "minimal"
)

type Request struct {
	ExecutionID uint64
	UserID      string
	Limit       int
	// CheckStatus 只要状态，不返回数据行
	CheckStatus bool
}

type ExecutionInfo struct {
	ID              uint64     `json:"id"`
	StartTime       *time.Time `json:"startTime"`
	EndTime         *time.Time `json:"endTime"`
	RowCount        *int       `json:"rowCount"`
	ExecutionTimeMs *int64     `json:"executionTimeMs"`
	APICallCount    int        `json:"apiCallCount"`
}

type DatasetInfo struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Template string `json:"template,omitempty"`
}

type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

type PreviewData struct {
	Status        execution.ExecutionStatus `json:"status"`
	DataSource    Tier                      `json:"dataSource"`
	Execution     ExecutionInfo             `json:"execution"`
	Dataset       *DatasetInfo              `json:"dataset,omitempty"`
	Columns       []Column                  `json:"columns"`
	Preview       []map[string]any          `json:"preview"`
	TotalCount    int                       `json:"totalCount"`
	Error         string                    `json:"error,omitempty"`
	// PossiblyStuck 只是提示，持久化的状态不变
	PossiblyStuck bool                      `json:"possiblyStuck"`
}

// Snapshot 某一层读到的原始数据，由 shape 统一转换
type Snapshot struct {
	Execution *execution.DatasetExecution
	Dataset   *DatasetInfo
	// WithRows 为 false 时该层没有读取 data
	WithRows  bool
}
