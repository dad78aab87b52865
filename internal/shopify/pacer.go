package shopify

import (
	"context"
	"time"

	"golang.org/x/time/rate"
)

// Pacer 相邻两次请求之间的固定停顿，从上一次响应结束开始计时
type Pacer struct {
	interval time.Duration
}

func NewPacer(interval time.Duration) *Pacer {
	return &Pacer{interval: interval}
}

// Pause 在还有下一页或下一批时调用，等满 interval 或 ctx 结束
func (p *Pacer) Pause(ctx context.Context) error {
	if p.interval <= 0 {
		return ctx.Err()
	}
	limiter := rate.NewLimiter(rate.Every(p.interval), 1)
	// 用掉初始令牌，下一个令牌在 interval 之后才可用
	limiter.Allow()
	return limiter.Wait(ctx)
}
