package preview

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/access"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/metrics"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"go.uber.org/zap"
)

// Fetcher 服务端 Runner 和 HTTP 客户端都实现
type Fetcher interface {
	Preview(ctx context.Context, req Request) (*PreviewData, error)
}

var _ Fetcher = (*Runner)(nil)

// Runner 按顺序尝试各层，第一个成功的层即为结果。
// 权限、不存在之类的错误不会降级到下一层。
type Runner struct {
	attempts     []Attempt
	access       access.Repo
	defaultLimit int
	maxLimit     int
	shaper       shaper
	logger       *zap.Logger
	now          func() time.Time
}

func New(cfg config.Config, executions execution.Repo, datasets dataset.Repo, acl access.Repo, logger *zap.Logger) *Runner {
	return NewRunner(cfg.Preview, acl, logger,
		previewAttempt{executions: executions},
		directAttempt{executions: executions, datasets: datasets, logger: logger},
		minimalAttempt{executions: executions},
	)
}

func NewRunner(cfg config.PreviewConfig, acl access.Repo, logger *zap.Logger, attempts ...Attempt) *Runner {
	def := cfg.DefaultLimit
	if def <= 0 {
		def = 100
	}
	maxLimit := cfg.MaxLimit
	if maxLimit < def {
		maxLimit = def
	}
	return &Runner{
		attempts:     attempts,
		access:       acl,
		defaultLimit: def,
		maxLimit:     maxLimit,
		shaper:       shaper{stuckThreshold: cfg.StuckThreshold},
		logger:       logger,
		now:          time.Now,
	}
}

func (r *Runner) limitFor(requested int) int {
	switch {
	case requested <= 0:
		return r.defaultLimit
	case requested > r.maxLimit:
		return r.maxLimit
	}
	return requested
}

// stopsFallback 这些错误换一种读法也不会变
func stopsFallback(err error) bool {
	switch apperr.CodeOf(err) {
	case apperr.CodeNotFound, apperr.CodeForbidden, apperr.CodeUnauthenticated, apperr.CodeValidation:
		return true
	}
	return false
}

func (r *Runner) Preview(ctx context.Context, req Request) (*PreviewData, error) {
	if req.UserID == "" {
		return nil, apperr.Unauthenticated("missing user identity")
	}
	if req.ExecutionID == 0 {
		return nil, apperr.Validation("missing execution id")
	}
	logger := r.logger.With(zap.Uint64("execution_id", req.ExecutionID))

	var lastErr error
	for _, attempt := range r.attempts {
		tier := attempt.Tier()
		snap, err := attempt.Fetch(ctx, req.ExecutionID)
		if err == nil {
			if err := r.authorize(ctx, snap.Execution, req.UserID); err != nil {
				return nil, err
			}
			metrics.PreviewTierTotal.WithLabelValues(string(tier), "ok").Inc()
			s := r.shaper
			s.limit = r.limitFor(req.Limit)
			return s.shape(snap, tier, req, r.now()), nil
		}
		if stopsFallback(err) {
			return nil, err
		}
		metrics.PreviewTierTotal.WithLabelValues(string(tier), "error").Inc()
		logger.Warn("preview tier failed, falling back", zap.String("tier", string(tier)), zap.Error(err))
		lastErr = err
	}
	if lastErr == nil {
		return nil, apperr.Internal("no preview tiers configured", nil)
	}
	return nil, errors.WithMessage(lastErr, "all preview tiers failed")
}

func (r *Runner) authorize(ctx context.Context, e *execution.DatasetExecution, userID string) error {
	if e.UserID == userID {
		return nil
	}
	ok, err := r.access.HasRole(ctx, userID, access.RoleAdmin)
	if err != nil {
		return errors.Wrap(err, "role lookup")
	}
	if !ok {
		return apperr.Forbidden("execution belongs to another user")
	}
	return nil
}
