package executionrepo

import (
	"time"

	domain "github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

type DatasetExecution struct {
	commonrepo.Mode
	DatasetID       string                 `gorm:"column:dataset_id;size:64;not null;index:idx_dataset_status"`
	UserID          string                 `gorm:"column:user_id;size:64;not null;index"`
	Status          domain.ExecutionStatus `gorm:"column:status;size:20;not null;index:idx_dataset_status;index"`
	StartTime       *time.Time             `gorm:"column:start_time;index"`
	EndTime         *time.Time             `gorm:"column:end_time"`
	RowCount        *int                   `gorm:"column:row_count"`
	ExecutionTimeMs *int64                 `gorm:"column:execution_time_ms"`
	APICallCount    int                    `gorm:"column:api_call_count;default:0"`
	ErrorMessage    string                 `gorm:"column:error_message;type:text"`
	Data            datatypes.JSON         `gorm:"column:data"`
	Metadata        datatypes.JSONMap      `gorm:"column:metadata"`
}

func (DatasetExecution) TableName() string {
	return "dataset_executions"
}

// statusColumns 读取状态时不加载 data
var statusColumns = []string{
	"id", "created_at", "updated_at", "dataset_id", "user_id", "status",
	"start_time", "end_time", "row_count", "execution_time_ms", "api_call_count", "error_message",
}

type executionWithDataset struct {
	DatasetExecution
	DatasetName       string  `gorm:"column:dataset_name"`
	DatasetType       string  `gorm:"column:dataset_type"`
	DatasetTemplateID string  `gorm:"column:dataset_template_id"`
	DatasetFound      *string `gorm:"column:dataset_found"`
}
