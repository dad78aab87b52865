package execution

type ExecutionStatus string

const (
	ExecutionStatusPending   ExecutionStatus = "pending"
	ExecutionStatusRunning   ExecutionStatus = "running"
	ExecutionStatusCompleted ExecutionStatus = "completed"
	ExecutionStatusFailed    ExecutionStatus = "failed"

	// ExecutionStatusStuck 仅用于展示，不会落库
	ExecutionStatusStuck ExecutionStatus = "stuck"
)

func (s ExecutionStatus) IsTerminal() bool {
	return s == ExecutionStatusCompleted || s == ExecutionStatusFailed
}

func (s ExecutionStatus) IsActive() bool {
	return s == ExecutionStatusPending || s == ExecutionStatusRunning
}

func (s ExecutionStatus) Valid() bool {
	switch s {
	case ExecutionStatusPending, ExecutionStatusRunning, ExecutionStatusCompleted, ExecutionStatusFailed:
		return true
	}
	return false
}

// ResetReason 管理员重置时写入的错误信息
const ResetReason = "execution reset by administrator"

// StuckReason 批量清理卡住的执行时写入的错误信息
const StuckReason = "execution exceeded the stuck threshold and was reset"
