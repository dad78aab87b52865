package scheduler

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
)

var (
	ErrQueueFull     = errors.New("execution queue is full")
	ErrRunnerStopped = errors.New("task runner is stopped")
)

// InFlightError 同一数据集已有执行在进行中
type InFlightError struct {
	DatasetID   string
	ExecutionID uint64
}

func (e *InFlightError) Error() string {
	return fmt.Sprintf("dataset %s already has execution %d in flight", e.DatasetID, e.ExecutionID)
}

func (e *InFlightError) ErrorCode() apperr.Code { return apperr.CodeConflict }
