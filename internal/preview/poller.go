package preview

import (
	"context"
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"go.uber.org/zap"
)

var (
	// ErrPollExhausted 轮询次数用完，服务端的执行不受影响
	ErrPollExhausted = errors.New("execution is taking longer than expected")
	ErrPollFailures  = errors.New("too many consecutive preview failures")
)

type PollOptions struct {
	Interval             time.Duration
	MaxAttempts          int
	MaxConsecutiveErrors int
	// Backoff 每次轮询后间隔乘以该系数，<=1 时固定间隔
	Backoff              float64
	MaxInterval          time.Duration
}

func PollOptionsFromConfig(cfg config.PollConfig) PollOptions {
	return PollOptions{
		Interval:             cfg.Interval,
		MaxAttempts:          cfg.MaxAttempts,
		MaxConsecutiveErrors: cfg.MaxConsecutiveErrors,
	}
}

// Update 每次轮询产生一条。最后一条 Done 为 true，Err 说明非正常结束的原因。
type Update struct {
	Attempt int
	Data    *PreviewData
	Err     error
	Done    bool
}

type Poller struct {
	fetcher Fetcher
	opts    PollOptions
	logger  *zap.Logger
}

func NewPoller(fetcher Fetcher, opts PollOptions, logger *zap.Logger) *Poller {
	if opts.Interval <= 0 {
		opts.Interval = 2 * time.Second
	}
	if opts.MaxAttempts <= 0 {
		opts.MaxAttempts = 60
	}
	if opts.MaxConsecutiveErrors <= 0 {
		opts.MaxConsecutiveErrors = 3
	}
	return &Poller{fetcher: fetcher, opts: opts, logger: logger}
}

// Poll 立即请求一次，然后按间隔重复，直到终态、连续失败过多、次数用完或 ctx 取消。
// 取消 ctx 只停止轮询，不影响服务端执行。
func (p *Poller) Poll(ctx context.Context, req Request) <-chan Update {
	out := make(chan Update, 1)
	go func() {
		defer close(out)
		p.loop(ctx, req, out)
	}()
	return out
}

func (p *Poller) loop(ctx context.Context, req Request, out chan<- Update) {
	interval := p.opts.Interval
	failures := 0

	send := func(u Update) bool {
		select {
		case out <- u:
			return true
		case <-ctx.Done():
			return false
		}
	}

	for attempt := 1; attempt <= p.opts.MaxAttempts; attempt++ {
		if attempt > 1 {
			timer := time.NewTimer(interval)
			select {
			case <-ctx.Done():
				timer.Stop()
				return
			case <-timer.C:
			}
			interval = p.next(interval)
		}

		data, err := p.fetcher.Preview(ctx, req)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			failures++
			p.logger.Debug("preview poll failed",
				zap.Uint64("execution_id", req.ExecutionID),
				zap.Int("attempt", attempt),
				zap.Int("consecutive_failures", failures),
				zap.Error(err))
			if failures >= p.opts.MaxConsecutiveErrors {
				// 同时保留哨兵和最后一次错误，标准库 errors.Is 也能识别
				send(Update{Attempt: attempt, Err: fmt.Errorf("%w: %w", ErrPollFailures, err), Done: true})
				return
			}
			if !send(Update{Attempt: attempt, Err: err}) {
				return
			}
			continue
		}

		failures = 0
		done := data.Status.IsTerminal()
		if !send(Update{Attempt: attempt, Data: data, Done: done}) || done {
			return
		}
	}
	send(Update{Attempt: p.opts.MaxAttempts, Err: ErrPollExhausted, Done: true})
}

func (p *Poller) next(interval time.Duration) time.Duration {
	if p.opts.Backoff <= 1 {
		return interval
	}
	next := time.Duration(float64(interval) * p.opts.Backoff)
	if p.opts.MaxInterval > 0 && next > p.opts.MaxInterval {
		return p.opts.MaxInterval
	}
	return next
}
