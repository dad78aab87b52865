package executionrepo

import (
	"context"
	"testing"
	"time"

	domain "github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/commonrepo/repotest"
	"github.com/samber/mo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type datasetRow struct {
	ID          string `gorm:"primarykey;size:64"`
	Name        string
	DatasetType string
	TemplateID  string
}

func (datasetRow) TableName() string { return "datasets" }

func newRepo(t *testing.T) domain.Repo {
	db := repotest.Open(t, &DatasetExecution{}, &datasetRow{})
	require.NoError(t, db.Create(&datasetRow{ID: "ds-1", Name: "Orders", DatasetType: "predefined", TemplateID: "tpl-1"}).Error)
	return NewMysqlRepositoryImpl(db)
}

func TestCreateAndGet(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	start := time.Now().UTC().Truncate(time.Millisecond)
	exec := domain.NewPending(101, "ds-1", "user-1", start)
	require.NoError(t, repo.Create(ctx, exec))

	got, err := repo.GetByID(ctx, 101)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, domain.ExecutionStatusPending, got.Status)
	assert.Equal(t, "ds-1", got.DatasetID)
	assert.Nil(t, got.EndTime)
	assert.Nil(t, got.Data)

	missing, err := repo.GetByID(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestCompletePersistsData(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	start := time.Now().UTC()
	exec := domain.NewPending(102, "ds-1", "user-1", start)
	require.NoError(t, repo.Create(ctx, exec))

	patch, err := exec.MarkRunning()
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, exec.ID, patch))

	rows := []map[string]any{{"id": "gid://shopify/Order/1", "name": "#1001"}}
	patch, err = exec.MarkCompleted(start.Add(2*time.Second), rows, 2, map[string]any{"tier": "direct"})
	require.NoError(t, err)
	require.NoError(t, repo.Update(ctx, exec.ID, patch))

	got, err := repo.GetByID(ctx, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusCompleted, got.Status)
	require.NotNil(t, got.EndTime)
	assert.Equal(t, 1, *got.RowCount)
	assert.Equal(t, int64(2000), *got.ExecutionTimeMs)
	assert.Equal(t, 2, got.APICallCount)
	require.Len(t, got.Data, 1)
	assert.Equal(t, "#1001", got.Data[0]["name"])
	assert.Equal(t, "direct", got.Metadata["tier"])

	status, err := repo.GetStatus(ctx, exec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ExecutionStatusCompleted, status.Status)
	assert.Nil(t, status.Data)
}

func TestGetWithDataset(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)

	require.NoError(t, repo.Create(ctx, domain.NewPending(103, "ds-1", "user-1", time.Now())))
	require.NoError(t, repo.Create(ctx, domain.NewPending(104, "ds-gone", "user-1", time.Now())))

	exec, ref, err := repo.GetWithDataset(ctx, 103)
	require.NoError(t, err)
	require.NotNil(t, exec)
	require.NotNil(t, ref)
	assert.Equal(t, "Orders", ref.Name)
	assert.Equal(t, "predefined", ref.Type)
	assert.Equal(t, "tpl-1", ref.TemplateID)

	exec, ref, err = repo.GetWithDataset(ctx, 104)
	require.NoError(t, err)
	require.NotNil(t, exec)
	assert.Nil(t, ref)

	exec, ref, err = repo.GetWithDataset(ctx, 105)
	require.NoError(t, err)
	assert.Nil(t, exec)
	assert.Nil(t, ref)
}

func TestResetActiveAndStale(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	now := time.Now().UTC()

	old := domain.NewPending(201, "ds-1", "u", now.Add(-time.Hour))
	fresh := domain.NewPending(202, "ds-1", "u", now.Add(-time.Minute))
	done := domain.NewPending(203, "ds-1", "u", now.Add(-2*time.Hour))
	for _, e := range []*domain.DatasetExecution{old, fresh, done} {
		require.NoError(t, repo.Create(ctx, e))
	}
	patch, _ := done.MarkRunning()
	require.NoError(t, repo.Update(ctx, done.ID, patch))
	patch, _ = done.MarkCompleted(now, nil, 0, nil)
	require.NoError(t, repo.Update(ctx, done.ID, patch))

	n, err := repo.ResetStale(ctx, now.Add(-15*time.Minute), domain.StuckReason, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	got, _ := repo.GetByID(ctx, 201)
	assert.Equal(t, domain.ExecutionStatusFailed, got.Status)
	assert.Equal(t, domain.StuckReason, got.ErrorMessage)
	assert.NotNil(t, got.EndTime)

	got, _ = repo.GetByID(ctx, 203)
	assert.Equal(t, domain.ExecutionStatusCompleted, got.Status)

	ok, err := repo.ResetActive(ctx, 202, domain.ResetReason, now)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ResetActive(ctx, 203, domain.ResetReason, now)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestUpdateAfterResetIsRejected(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	now := time.Now().UTC()

	exec := domain.NewPending(250, "ds-1", "u", now)
	require.NoError(t, repo.Create(ctx, exec))
	patch, _ := exec.MarkRunning()
	require.NoError(t, repo.Update(ctx, exec.ID, patch))

	ok, err := repo.ResetActive(ctx, exec.ID, domain.ResetReason, now)
	require.NoError(t, err)
	require.True(t, ok)

	// worker 晚到的完成结果不能覆盖重置
	patch, err = exec.MarkCompleted(now.Add(time.Second), []map[string]any{{"id": "1"}}, 1, nil)
	require.NoError(t, err)
	err = repo.Update(ctx, exec.ID, patch)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	got, _ := repo.GetByID(ctx, exec.ID)
	assert.Equal(t, domain.ExecutionStatusFailed, got.Status)
	assert.Equal(t, domain.ResetReason, got.ErrorMessage)
}

func TestList(t *testing.T) {
	ctx := context.Background()
	repo := newRepo(t)
	now := time.Now().UTC()

	for i := 0; i < 3; i++ {
		require.NoError(t, repo.Create(ctx, domain.NewPending(uint64(300+i), "ds-1", "u", now.Add(time.Duration(i)*time.Minute))))
	}
	require.NoError(t, repo.Create(ctx, domain.NewPending(400, "ds-2", "u", now)))

	items, total, err := repo.List(ctx, domain.ListFilter{DatasetID: mo.Some("ds-1")}, 0, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, items, 2)
	assert.Equal(t, uint64(302), items[0].ID)
}
