package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestMemoryLocker(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewMemoryLocker(time.Minute, func() time.Time { return now })

	holder, ok, err := l.Acquire(ctx, "ds-1", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.EqualValues(t, 1, holder)

	holder, ok, err = l.Acquire(ctx, "ds-1", 2)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.EqualValues(t, 1, holder)

	// 非持有者释放无效
	require.NoError(t, l.Release(ctx, "ds-1", 2))
	_, ok, _ = l.Acquire(ctx, "ds-1", 3)
	assert.False(t, ok)

	require.NoError(t, l.Release(ctx, "ds-1", 1))
	_, ok, _ = l.Acquire(ctx, "ds-1", 3)
	assert.True(t, ok)

	// 过期后可以被接管
	now = now.Add(2 * time.Minute)
	holder, ok, _ = l.Acquire(ctx, "ds-1", 4)
	assert.True(t, ok)
	assert.EqualValues(t, 4, holder)
}

func TestNewLocker(t *testing.T) {
	cfg := config.Default()
	assert.IsType(t, &MemoryLocker{}, NewLocker(cfg, nil, zap.NewNop()))

	cfg.Execution.Dedup = false
	l := NewLocker(cfg, nil, zap.NewNop())
	assert.IsType(t, noopLocker{}, l)
	_, ok, err := l.Acquire(context.Background(), "ds-1", 1)
	require.NoError(t, err)
	assert.True(t, ok)
	_, ok, _ = l.Acquire(context.Background(), "ds-1", 2)
	assert.True(t, ok)
}
