package shopify

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
)

type PageRequest struct {
	Query     string
	Variables map[string]any
	// MaxItems 为 0 时使用默认上限
	MaxItems int
	// ConnectionField 预定义模板的 resource_type，优先作为连接字段
	ConnectionField string
}

// Paginate 按游标逐页拉取，返回所有 node，长度不超过 MaxItems。
// 任何一页失败都直接返回错误，不返回部分结果。
func (s *Session) Paginate(ctx context.Context, req PageRequest) ([]map[string]any, error) {
	opts := s.client.opts
	maxItems := req.MaxItems
	if maxItems <= 0 {
		maxItems = opts.DefaultMaxItems
	}

	plan, err := PlanPagination(req.Query)
	if err != nil {
		return nil, err
	}
	if plan.Rewritten {
		s.logger.Debug("injected pagination variables into query")
	}

	pacer := NewPacer(opts.PageDelay)
	items := make([]map[string]any, 0)
	var cursor any

	for page := 1; ; page++ {
		first := min(opts.MaxPageSize, maxItems-len(items))

		vars := make(map[string]any, len(req.Variables)+2)
		for k, v := range req.Variables {
			vars[k] = v
		}
		if plan.FirstVar != "" {
			vars[plan.FirstVar] = first
		}
		if plan.AfterVar != "" {
			vars[plan.AfterVar] = cursor
		}

		data, err := s.Do(ctx, plan.Query, vars)
		if err != nil {
			return nil, errors.WithMessagef(err, "page %d", page)
		}

		conn, ok := FindConnection(data, req.ConnectionField)
		if !ok {
			if page == 1 {
				return nil, ErrNoConnection
			}
			break
		}
		nodes := conn.Nodes()
		items = append(items, nodes...)

		s.logger.Debug("fetched page",
			zap.Int("page", page),
			zap.Int("nodes", len(nodes)),
			zap.Int("total", len(items)),
			zap.Bool("has_next_page", conn.HasNextPage))

		if len(items) >= maxItems {
			items = items[:maxItems]
			break
		}
		if !conn.HasNextPage {
			break
		}
		if conn.EndCursor == "" || plan.AfterVar == "" {
			s.logger.Warn("connection reports more pages but the cursor cannot advance",
				zap.Int("page", page), zap.Bool("cursor_bound", plan.AfterVar != ""))
			break
		}
		cursor = conn.EndCursor

		if err := pacer.Pause(ctx); err != nil {
			return nil, err
		}
	}
	return items, nil
}
