package scheduler

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// cronParser 秒字段可选，"@every 5m" 之类的描述符也可以
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Sweeper 按 cron 计划重置卡住的执行；计划为空时不启动
type Sweeper struct {
	cron      *cron.Cron
	schedule  string
	threshold time.Duration
	resetter  IOrchestrator
	logger    *zap.Logger
}

func NewSweeper(cfg config.Config, o IOrchestrator, logger *zap.Logger) *Sweeper {
	return &Sweeper{
		cron:      cron.New(cron.WithParser(cronParser)),
		schedule:  cfg.Execution.ResetCron,
		threshold: cfg.Execution.StuckThreshold,
		resetter:  o,
		logger:    logger,
	}
}

func (s *Sweeper) Enabled() bool { return s.schedule != "" }

func (s *Sweeper) Start() error {
	if !s.Enabled() {
		return nil
	}
	if _, err := s.cron.AddFunc(s.schedule, func() { s.Sweep(context.Background()) }); err != nil {
		return errors.Wrapf(err, "invalid execution.reset_cron %q", s.schedule)
	}
	s.cron.Start()
	s.logger.Info("stuck execution sweeper started",
		zap.String("schedule", s.schedule),
		zap.Duration("threshold", s.threshold))
	return nil
}

func (s *Sweeper) Stop() {
	if !s.Enabled() {
		return
	}
	<-s.cron.Stop().Done()
}

// Sweep 执行一次重置
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	n, err := s.resetter.ResetStuck(ctx, s.threshold)
	if err != nil {
		s.logger.Error("stuck execution sweep failed", zap.Error(err))
		return 0
	}
	return n
}
