package dependent

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/shopify"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

// IDsPlaceholder 次级查询模板中的 ID 数组占位符
const IDsPlaceholder = "{{IDS}}"

// Requester 单次 GraphQL 请求，*shopify.Session 实现
type Requester interface {
	Do(ctx context.Context, query string, variables map[string]any) (map[string]any, error)
}

type Batcher struct {
	BatchSize int
	Delay     time.Duration
	Logger    *zap.Logger
}

// Run 每批替换一次占位符并请求一次，不做批内分页。任意一批失败即整体失败。
func (b *Batcher) Run(ctx context.Context, req Requester, template string, ids []string) ([]map[string]any, error) {
	if !strings.Contains(template, IDsPlaceholder) {
		return nil, apperr.Validation("secondary query template is missing the " + IDsPlaceholder + " placeholder")
	}
	size := b.BatchSize
	if size <= 0 {
		size = 50
	}
	logger := b.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	results := make([]map[string]any, 0, len(ids))
	if len(ids) == 0 {
		return results, nil
	}

	pacer := shopify.NewPacer(b.Delay)
	batches := lo.Chunk(ids, size)
	for i, batch := range batches {
		if i > 0 {
			if err := pacer.Pause(ctx); err != nil {
				return nil, err
			}
		}
		encoded, err := json.Marshal(batch)
		if err != nil {
			return nil, errors.Wrap(err, "encode id batch")
		}
		query := strings.ReplaceAll(template, IDsPlaceholder, string(encoded))

		data, err := req.Do(ctx, query, nil)
		if err != nil {
			return nil, errors.WithMessagef(err, "batch %d", i+1)
		}
		nodes := collectNodes(data)
		logger.Debug("fetched secondary batch",
			zap.Int("batch", i+1), zap.Int("ids", len(batch)), zap.Int("nodes", len(nodes)))
		results = append(results, nodes...)
	}
	return results, nil
}

// collectNodes 取 data.nodes；没有时按字段名顺序取第一个数组字段。null 元素（ID 不存在）跳过。
func collectNodes(data map[string]any) []map[string]any {
	list, ok := data["nodes"].([]any)
	if !ok {
		keys := lo.Keys(data)
		sort.Strings(keys)
		for _, k := range keys {
			if l, isList := data[k].([]any); isList {
				list = l
				break
			}
		}
	}
	out := make([]map[string]any, 0, len(list))
	for _, item := range list {
		if m, ok := item.(map[string]any); ok {
			out = append(out, m)
		}
	}
	return out
}
