// Package export 导出一次执行的全部结果。小结果直接内联返回，大结果写入存储并返回引用。
package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/access"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"github.com/samber/lo"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"go.uber.org/zap"
)

type Format string

const (
	FormatJSON Format = "json"
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

type Request struct {
	ExecutionID uint64
	UserID      string
	Format      Format
}

type Result struct {
	Format      Format           `json:"format"`
	RowCount    int              `json:"rowCount"`
	Inline      bool             `json:"inline"`
	Data        []map[string]any `json:"data,omitempty"`
	Content     string           `json:"content,omitempty"`
	StorageRef  string           `json:"storageRef,omitempty"`
	ContentType string           `json:"contentType"`
}

type Service struct {
	executions  execution.Repo
	access      access.Repo
	fs          afero.Fs
	inlineLimit int
	logger      *zap.Logger
	now         func() time.Time
}

// NewFs 导出目录作为根的文件系统
func NewFs(cfg config.Config) afero.Fs {
	dir := cfg.Preview.ExportDir
	if dir == "" {
		dir = "exports"
	}
	return afero.NewBasePathFs(afero.NewOsFs(), dir)
}

func New(cfg config.Config, executions execution.Repo, acl access.Repo, fs afero.Fs, logger *zap.Logger) *Service {
	return &Service{
		executions:  executions,
		access:      acl,
		fs:          fs,
		inlineLimit: cfg.Preview.ExportInlineLimit,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) Export(ctx context.Context, req Request) (*Result, error) {
	format := Format(strings.ToLower(string(req.Format)))
	if format == "" {
		format = FormatJSON
	}
	switch format {
	case FormatJSON, FormatCSV:
	case FormatXLSX:
		return nil, apperr.New(apperr.CodeUnsupported, "xlsx export is not supported by this service", nil)
	default:
		return nil, apperr.Validation(fmt.Sprintf("unknown export format %q", req.Format))
	}

	e, err := s.executions.GetByID(ctx, req.ExecutionID)
	if err != nil {
		return nil, errors.Wrap(err, "load execution")
	}
	if e == nil {
		return nil, apperr.NotFound("execution not found")
	}
	if err := s.authorize(ctx, e, req.UserID); err != nil {
		return nil, err
	}
	if e.Status != execution.ExecutionStatusCompleted {
		return nil, apperr.Conflict(fmt.Sprintf("execution is %s, only completed executions can be exported", e.Status))
	}

	rows := e.Data
	if rows == nil {
		rows = []map[string]any{}
	}
	res := &Result{Format: format, RowCount: len(rows)}
	inline := len(rows) <= s.inlineLimit

	var payload []byte
	switch format {
	case FormatJSON:
		res.ContentType = "application/json"
		if inline {
			res.Inline, res.Data = true, rows
			return res, nil
		}
		payload, err = json.Marshal(rows)
	case FormatCSV:
		res.ContentType = "text/csv"
		payload, err = EncodeCSV(rows)
		if err == nil && inline {
			res.Inline, res.Content = true, string(payload)
			return res, nil
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "encode %s export", format)
	}

	name := fmt.Sprintf("execution-%d-%d.%s", e.ID, s.now().Unix(), format)
	if err := afero.WriteFile(s.fs, name, payload, 0o644); err != nil {
		return nil, errors.Wrap(err, "write export")
	}
	res.StorageRef = path.Join("exports", name)
	s.logger.Info("export written",
		zap.Uint64("execution_id", e.ID),
		zap.String("format", string(format)),
		zap.Int("rows", len(rows)),
		zap.Int("bytes", len(payload)))
	return res, nil
}

func (s *Service) authorize(ctx context.Context, e *execution.DatasetExecution, userID string) error {
	if userID == "" {
		return apperr.Unauthenticated("missing user identity")
	}
	if e.UserID == userID {
		return nil
	}
	ok, err := s.access.HasRole(ctx, userID, access.RoleAdmin)
	if err != nil {
		return errors.Wrap(err, "role lookup")
	}
	if !ok {
		return apperr.Forbidden("execution belongs to another user")
	}
	return nil
}

// EncodeCSV 表头为所有行键的并集，id 在最前。嵌套值写成 JSON。
func EncodeCSV(rows []map[string]any) ([]byte, error) {
	headers := lo.Uniq(lo.FlatMap(rows, func(r map[string]any, _ int) []string { return lo.Keys(r) }))
	sort.Slice(headers, func(i, j int) bool {
		if headers[i] == "id" || headers[j] == "id" {
			return headers[i] == "id"
		}
		return headers[i] < headers[j]
	})

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(headers); err != nil {
		return nil, err
	}
	record := make([]string, len(headers))
	for _, r := range rows {
		for i, h := range headers {
			v, err := cell(r[h])
			if err != nil {
				return nil, errors.Wrapf(err, "column %s", h)
			}
			record[i] = v
		}
		if err := w.Write(record); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}

func cell(v any) (string, error) {
	switch t := v.(type) {
	case nil:
		return "", nil
	case map[string]any, []any, []map[string]any:
		b, err := json.Marshal(t)
		return string(b), err
	}
	return cast.ToStringE(v)
}
