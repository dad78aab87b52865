package execution

import (
	"time"

	"github.com/cockroachdb/errors"
)

var ErrInvalidTransition = errors.New("invalid execution status transition")

// DatasetExecution 一次数据集执行。Data 只在 completed 后写入。
type DatasetExecution struct {
	ID        uint64
	CreatedAt time.Time
	UpdatedAt time.Time

	DatasetID       string
	UserID          string
	Status          ExecutionStatus
	StartTime       *time.Time
	EndTime         *time.Time
	RowCount        *int
	ExecutionTimeMs *int64
	APICallCount    int
	ErrorMessage    string
	Data            []map[string]any
	Metadata        map[string]any
}

// DatasetRef 预览时随执行一起读取的数据集摘要
type DatasetRef struct {
	ID         string
	Name       string
	Type       string
	TemplateID string
}

type DatasetExecutionPatch struct {
	Status          *ExecutionStatus
	StartTime       *time.Time
	EndTime         *time.Time
	RowCount        *int
	ExecutionTimeMs *int64
	APICallCount    *int
	ErrorMessage    *string
	Data            *[]map[string]any
	Metadata        *map[string]any
}

// NewPending 创建 pending 状态的执行。start_time 记录派发时间。
func NewPending(id uint64, datasetID, userID string, now time.Time) *DatasetExecution {
	return &DatasetExecution{
		ID:        id,
		DatasetID: datasetID,
		UserID:    userID,
		Status:    ExecutionStatusPending,
		StartTime: &now,
		Metadata:  map[string]any{},
	}
}

// Elapsed 从 start_time 开始计算；没有 start_time 时退回 created_at
func (e *DatasetExecution) Elapsed(now time.Time) time.Duration {
	start := e.CreatedAt
	if e.StartTime != nil {
		start = *e.StartTime
	}
	if start.IsZero() {
		return 0
	}
	return now.Sub(start)
}

func CanTransition(from, to ExecutionStatus) bool {
	switch from {
	case ExecutionStatusPending:
		return to == ExecutionStatusRunning || to == ExecutionStatusFailed
	case ExecutionStatusRunning:
		return to == ExecutionStatusCompleted || to == ExecutionStatusFailed
	}
	return false
}

func (e *DatasetExecution) transition(to ExecutionStatus) error {
	if !CanTransition(e.Status, to) {
		return errors.Wrapf(ErrInvalidTransition, "%s -> %s", e.Status, to)
	}
	e.Status = to
	return nil
}

// MarkRunning pending -> running
func (e *DatasetExecution) MarkRunning() (*DatasetExecutionPatch, error) {
	if err := e.transition(ExecutionStatusRunning); err != nil {
		return nil, err
	}
	status := e.Status
	return &DatasetExecutionPatch{Status: &status}, nil
}

// MarkCompleted running -> completed，同时写入结果与统计
func (e *DatasetExecution) MarkCompleted(now time.Time, rows []map[string]any, apiCalls int, metadata map[string]any) (*DatasetExecutionPatch, error) {
	if err := e.transition(ExecutionStatusCompleted); err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []map[string]any{}
	}
	count := len(rows)
	elapsed := e.Elapsed(now).Milliseconds()
	e.EndTime = &now
	e.RowCount = &count
	e.ExecutionTimeMs = &elapsed
	e.APICallCount = apiCalls
	e.Data = rows
	if metadata != nil {
		e.Metadata = metadata
	}

	status := e.Status
	patch := &DatasetExecutionPatch{
		Status:          &status,
		EndTime:         e.EndTime,
		RowCount:        e.RowCount,
		ExecutionTimeMs: e.ExecutionTimeMs,
		APICallCount:    &apiCalls,
		Data:            &rows,
	}
	if metadata != nil {
		patch.Metadata = &metadata
	}
	return patch, nil
}

// MarkFailed pending|running -> failed
func (e *DatasetExecution) MarkFailed(now time.Time, message string, apiCalls int) (*DatasetExecutionPatch, error) {
	if err := e.transition(ExecutionStatusFailed); err != nil {
		return nil, err
	}
	// row_count / execution_time_ms 只在完成时写入
	e.EndTime = &now
	e.ErrorMessage = message
	e.APICallCount = apiCalls

	status := e.Status
	return &DatasetExecutionPatch{
		Status:       &status,
		EndTime:      e.EndTime,
		ErrorMessage: &message,
		APICallCount: &apiCalls,
	}, nil
}
