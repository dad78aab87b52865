package preview

import (
	"time"

	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
)

// ShouldShowStuckUI pending/running 且从开始计时超过 threshold
func ShouldShowStuckUI(e *execution.DatasetExecution, now time.Time, threshold time.Duration) bool {
	if e == nil || threshold <= 0 || !e.Status.IsActive() {
		return false
	}
	return e.Elapsed(now) > threshold
}
