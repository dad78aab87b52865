package scheduler

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/cockroachdb/errors"
	redis "github.com/go-redis/redis/v8"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"go.uber.org/zap"
)

// InflightLocker 每个数据集同一时刻最多一个活跃执行。
// 标记的值是持有者的执行 ID，释放时比较后删除。
type InflightLocker interface {
	// Acquire 获取成功返回 (executionID, true)；已被占用时返回持有者
	Acquire(ctx context.Context, datasetID string, executionID uint64) (uint64, bool, error)
	// Release 只有 executionID 仍是持有者时才删除
	Release(ctx context.Context, datasetID string, executionID uint64) error
}

// NewLocker redis 可用时使用分布式标记，否则退回进程内实现；关闭去重时不加锁
func NewLocker(cfg config.Config, rdb *redis.Client, logger *zap.Logger) InflightLocker {
	if !cfg.Execution.Dedup {
		return noopLocker{}
	}
	ttl := cfg.Execution.InflightTTL
	if rdb == nil {
		logger.Info("redis disabled, using in-process in-flight marker")
		return NewMemoryLocker(ttl, time.Now)
	}
	return NewRedisLocker(rdb, ttl, logger)
}

const inflightKeyPrefix = "flowtechs:inflight:"

func inflightKey(datasetID string) string { return inflightKeyPrefix + datasetID }

// releaseScript compare-and-delete
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

type RedisLocker struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisLocker {
	return &RedisLocker{rdb: rdb, ttl: ttl, logger: logger}
}

func (l *RedisLocker) Acquire(ctx context.Context, datasetID string, executionID uint64) (uint64, bool, error) {
	key := inflightKey(datasetID)
	ok, err := l.rdb.SetNX(ctx, key, strconv.FormatUint(executionID, 10), l.ttl).Result()
	if err != nil {
		return 0, false, errors.Wrap(err, "set in-flight marker")
	}
	if ok {
		return executionID, true, nil
	}
	raw, err := l.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		// 标记刚好过期，再试一次
		return l.Acquire(ctx, datasetID, executionID)
	}
	if err != nil {
		return 0, false, errors.Wrap(err, "read in-flight marker")
	}
	holder, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, false, errors.Wrapf(err, "corrupt in-flight marker %q", raw)
	}
	return holder, false, nil
}

func (l *RedisLocker) Release(ctx context.Context, datasetID string, executionID uint64) error {
	n, err := releaseScript.Run(ctx, l.rdb, []string{inflightKey(datasetID)}, strconv.FormatUint(executionID, 10)).Int()
	if err != nil {
		return errors.Wrap(err, "release in-flight marker")
	}
	if n == 0 {
		l.logger.Debug("in-flight marker already gone or taken over",
			zap.String("dataset_id", datasetID), zap.Uint64("execution_id", executionID))
	}
	return nil
}

type memoryMarker struct {
	executionID uint64
	expiresAt   time.Time
}

// MemoryLocker 单实例部署使用
type MemoryLocker struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	markers map[string]memoryMarker
}

func NewMemoryLocker(ttl time.Duration, now func() time.Time) *MemoryLocker {
	if now == nil {
		now = time.Now
	}
	return &MemoryLocker{ttl: ttl, now: now, markers: make(map[string]memoryMarker)}
}

func (l *MemoryLocker) Acquire(_ context.Context, datasetID string, executionID uint64) (uint64, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if m, ok := l.markers[datasetID]; ok && (l.ttl <= 0 || now.Before(m.expiresAt)) {
		return m.executionID, false, nil
	}
	l.markers[datasetID] = memoryMarker{executionID: executionID, expiresAt: now.Add(l.ttl)}
	return executionID, true, nil
}

func (l *MemoryLocker) Release(_ context.Context, datasetID string, executionID uint64) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if m, ok := l.markers[datasetID]; ok && m.executionID == executionID {
		delete(l.markers, datasetID)
	}
	return nil
}

type noopLocker struct{}

func (noopLocker) Acquire(_ context.Context, _ string, executionID uint64) (uint64, bool, error) {
	return executionID, true, nil
}

func (noopLocker) Release(context.Context, string, uint64) error { return nil }
