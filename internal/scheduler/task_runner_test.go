package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newJob(id uint64) *job {
	return &job{
		execution: execution.NewPending(id, "ds", "u", time.Now()),
		dataset:   &dataset.Dataset{ID: "ds"},
	}
}

type failures struct {
	mu    sync.Mutex
	ids   []uint64
	cause []error
}

func (f *failures) record(_ context.Context, j *job, cause error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ids = append(f.ids, j.execution.ID)
	f.cause = append(f.cause, cause)
}

func (f *failures) snapshot() ([]uint64, []error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]uint64(nil), f.ids...), append([]error(nil), f.cause...)
}

func runnerConfig(workers, queue int) config.Config {
	cfg := config.Default()
	cfg.Execution.MaxWorkers = workers
	cfg.Execution.QueueSize = queue
	return cfg
}

func TestTaskRunnerProcessesJobs(t *testing.T) {
	r := NewTaskRunner(runnerConfig(2, 4), zap.NewNop())
	var mu sync.Mutex
	seen := map[uint64]bool{}
	r.Start(func(_ context.Context, j *job) {
		mu.Lock()
		seen[j.execution.ID] = true
		mu.Unlock()
	}, nil)

	for i := uint64(1); i <= 3; i++ {
		require.NoError(t, r.Submit(newJob(i)))
	}
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(seen) == 3
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, r.Stop(context.Background()))
	assert.ErrorIs(t, r.Submit(newJob(9)), ErrRunnerStopped)
}

func TestTaskRunnerQueueFull(t *testing.T) {
	r := NewTaskRunner(runnerConfig(1, 1), zap.NewNop())
	require.NoError(t, r.Submit(newJob(1)))
	assert.ErrorIs(t, r.Submit(newJob(2)), ErrQueueFull)
}

func TestTaskRunnerRecoversPanic(t *testing.T) {
	r := NewTaskRunner(runnerConfig(1, 2), zap.NewNop())
	f := &failures{}
	r.Start(func(_ context.Context, j *job) {
		if j.execution.ID == 1 {
			panic("boom")
		}
	}, f.record)

	require.NoError(t, r.Submit(newJob(1)))
	require.Eventually(t, func() bool {
		ids, _ := f.snapshot()
		return len(ids) == 1
	}, time.Second, 5*time.Millisecond)

	ids, causes := f.snapshot()
	assert.EqualValues(t, 1, ids[0])
	assert.Contains(t, causes[0].Error(), "boom")
	require.NoError(t, r.Stop(context.Background()))
}

func TestTaskRunnerStopCancelsAndDrains(t *testing.T) {
	r := NewTaskRunner(runnerConfig(1, 4), zap.NewNop())
	f := &failures{}
	started := make(chan struct{})
	var once sync.Once
	r.Start(func(ctx context.Context, j *job) {
		once.Do(func() { close(started) })
		<-ctx.Done()
	}, f.record)

	require.NoError(t, r.Submit(newJob(1)))
	<-started
	require.NoError(t, r.Submit(newJob(2)))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := r.Stop(ctx)
	require.Error(t, err)

	ids, causes := f.snapshot()
	assert.Equal(t, []uint64{2}, ids)
	assert.ErrorIs(t, causes[0], ErrRunnerStopped)
}
