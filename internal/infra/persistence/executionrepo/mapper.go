package executionrepo

import (
	"encoding/json"

	"github.com/cockroachdb/errors"
	domain "github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

func (po *DatasetExecution) ToDomain() (*domain.DatasetExecution, error) {
	var rows []map[string]any
	if len(po.Data) > 0 {
		if err := json.Unmarshal(po.Data, &rows); err != nil {
			return nil, errors.Wrapf(err, "decode data of execution %d", po.ID)
		}
	}
	return &domain.DatasetExecution{
		ID:              po.ID,
		CreatedAt:       po.CreatedAt,
		UpdatedAt:       po.UpdatedAt,
		DatasetID:       po.DatasetID,
		UserID:          po.UserID,
		Status:          po.Status,
		StartTime:       po.StartTime,
		EndTime:         po.EndTime,
		RowCount:        po.RowCount,
		ExecutionTimeMs: po.ExecutionTimeMs,
		APICallCount:    po.APICallCount,
		ErrorMessage:    po.ErrorMessage,
		Data:            rows,
		Metadata:        po.Metadata,
	}, nil
}

func (po *DatasetExecution) FromDomain(d *domain.DatasetExecution) (*DatasetExecution, error) {
	data, err := encodeRows(d.Data)
	if err != nil {
		return nil, err
	}
	return &DatasetExecution{
		Mode: commonrepo.Mode{
			ID:        d.ID,
			CreatedAt: d.CreatedAt,
			UpdatedAt: d.UpdatedAt,
		},
		DatasetID:       d.DatasetID,
		UserID:          d.UserID,
		Status:          d.Status,
		StartTime:       d.StartTime,
		EndTime:         d.EndTime,
		RowCount:        d.RowCount,
		ExecutionTimeMs: d.ExecutionTimeMs,
		APICallCount:    d.APICallCount,
		ErrorMessage:    d.ErrorMessage,
		Data:            data,
		Metadata:        d.Metadata,
	}, nil
}

func encodeRows(rows []map[string]any) (datatypes.JSON, error) {
	if rows == nil {
		return commonrepo.NullJSON(), nil
	}
	b, err := json.Marshal(rows)
	if err != nil {
		return nil, errors.Wrap(err, "encode execution data")
	}
	return datatypes.JSON(b), nil
}

func patchToMap(input *domain.DatasetExecutionPatch) (map[string]any, error) {
	var values = make(map[string]any)
	if input.Status != nil {
		values["status"] = *input.Status
	}
	if input.StartTime != nil {
		values["start_time"] = input.StartTime
	}
	if input.EndTime != nil {
		values["end_time"] = input.EndTime
	}
	if input.RowCount != nil {
		values["row_count"] = *input.RowCount
	}
	if input.ExecutionTimeMs != nil {
		values["execution_time_ms"] = *input.ExecutionTimeMs
	}
	if input.APICallCount != nil {
		values["api_call_count"] = *input.APICallCount
	}
	if input.ErrorMessage != nil {
		values["error_message"] = *input.ErrorMessage
	}
	if input.Data != nil {
		data, err := encodeRows(*input.Data)
		if err != nil {
			return nil, err
		}
		values["data"] = data
	}
	if input.Metadata != nil {
		values["metadata"] = datatypes.JSONMap(*input.Metadata)
	}
	return values, nil
}
