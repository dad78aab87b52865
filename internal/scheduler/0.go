package scheduler

import (
	"context"
	"time"

	"github.com/google/wire"
)

var Provider = wire.NewSet(
	NewTaskRunner,
	NewLocker,
	NewHandlers,
	New,
	NewSweeper,
	wire.Bind(new(IOrchestrator), new(*Orchestrator)),
)

// IOrchestrator API 层依赖的执行编排能力
type IOrchestrator interface {
	Execute(ctx context.Context, datasetID, userID string) (uint64, error)
	Reset(ctx context.Context, executionID uint64, userID string) error
	ResetStuck(ctx context.Context, olderThan time.Duration) (int64, error)
}
