package preview

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/execution"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// fakeExecutions 每个读取方法可以单独注入错误
type fakeExecutions struct {
	execution.Repo
	items map[uint64]*execution.DatasetExecution
	refs  map[uint64]*execution.DatasetRef

	joinErr, byIDErr, statusErr error
}

func (f *fakeExecutions) GetWithDataset(_ context.Context, id uint64) (*execution.DatasetExecution, *execution.DatasetRef, error) {
	if f.joinErr != nil {
		return nil, nil, f.joinErr
	}
	return f.items[id], f.refs[id], nil
}

func (f *fakeExecutions) GetByID(_ context.Context, id uint64) (*execution.DatasetExecution, error) {
	if f.byIDErr != nil {
		return nil, f.byIDErr
	}
	return f.items[id], nil
}

func (f *fakeExecutions) GetStatus(_ context.Context, id uint64) (*execution.DatasetExecution, error) {
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	e, ok := f.items[id]
	if !ok {
		return nil, nil
	}
	cp := *e
	cp.Data = nil
	return &cp, nil
}

type fakeDatasets struct {
	dataset.Repo
	items       map[string]*dataset.Dataset
	templateErr error
}

func (f *fakeDatasets) GetDataset(_ context.Context, id string) (*dataset.Dataset, error) {
	return f.items[id], nil
}

func (f *fakeDatasets) FindTemplateName(context.Context, string) (string, error) {
	if f.templateErr != nil {
		return "", f.templateErr
	}
	return "Products", nil
}

type fakeACL struct {
	admins map[string]bool
}

func (f fakeACL) HasRole(_ context.Context, userID string, _ ...string) (bool, error) {
	return f.admins[userID], nil
}
func (fakeACL) HasSourceGrant(context.Context, string, string) (bool, error) { return false, nil }
func (fakeACL) GrantRole(context.Context, string, string) error              { return nil }
func (fakeACL) GrantSource(context.Context, string, string) error            { return nil }

func rows(n int) []map[string]any {
	out := make([]map[string]any, n)
	for i := range out {
		out[i] = map[string]any{"title": fmt.Sprintf("P%d", i), "id": i, "createdAt": "2025-01-01"}
	}
	return out
}

type fixture struct {
	runner     *Runner
	executions *fakeExecutions
	datasets   *fakeDatasets
	now        time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	started := now.Add(-10 * time.Minute)
	ended := now.Add(-9 * time.Minute)
	count := 150

	f := &fixture{
		now: now,
		executions: &fakeExecutions{
			items: map[uint64]*execution.DatasetExecution{
				1: {ID: 1, DatasetID: "ds-1", UserID: "user-1", Status: execution.ExecutionStatusCompleted,
					StartTime: &started, EndTime: &ended, RowCount: &count, APICallCount: 1, Data: rows(150)},
				2: {ID: 2, DatasetID: "ds-1", UserID: "user-1", Status: execution.ExecutionStatusRunning, StartTime: &started},
				3: {ID: 3, DatasetID: "ds-1", UserID: "user-1", Status: execution.ExecutionStatusFailed,
					StartTime: &started, EndTime: &ended, ErrorMessage: "GraphQL error: Throttled"},
			},
			refs: map[uint64]*execution.DatasetRef{
				1: {ID: "ds-1", Name: "All products", Type: "predefined", TemplateID: "tpl-1"},
				2: {ID: "ds-1", Name: "All products", Type: "predefined", TemplateID: "tpl-1"},
			},
		},
		datasets: &fakeDatasets{items: map[string]*dataset.Dataset{
			"ds-1": {ID: "ds-1", Name: "All products", Type: dataset.TypePredefined, TemplateID: "tpl-1"},
		}},
	}
	cfg := config.Default()
	f.runner = New(cfg, f.executions, f.datasets, fakeACL{admins: map[string]bool{"root": true}}, zap.NewNop())
	f.runner.now = func() time.Time { return f.now }
	return f
}

func TestPreviewTierOne(t *testing.T) {
	f := newFixture(t)

	got, err := f.runner.Preview(context.Background(), Request{ExecutionID: 1, UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, TierPreview, got.DataSource)
	assert.Equal(t, execution.ExecutionStatusCompleted, got.Status)
	assert.Len(t, got.Preview, 100)
	assert.Equal(t, 150, got.TotalCount)
	assert.Equal(t, "All products", got.Dataset.Name)
	assert.Equal(t, []Column{
		{Key: "id", Label: "ID"},
		{Key: "createdAt", Label: "Created At"},
		{Key: "title", Label: "Title"},
	}, got.Columns)
	assert.False(t, got.PossiblyStuck)
}

func TestPreviewLimits(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	got, err := f.runner.Preview(ctx, Request{ExecutionID: 1, UserID: "user-1", Limit: 7})
	require.NoError(t, err)
	assert.Len(t, got.Preview, 7)

	got, err = f.runner.Preview(ctx, Request{ExecutionID: 1, UserID: "user-1", Limit: 5000})
	require.NoError(t, err)
	assert.Len(t, got.Preview, 150)

	got, err = f.runner.Preview(ctx, Request{ExecutionID: 1, UserID: "user-1", CheckStatus: true})
	require.NoError(t, err)
	assert.Empty(t, got.Preview)
	assert.Equal(t, 150, got.TotalCount)
}

func TestPreviewRunningFlagsStuck(t *testing.T) {
	f := newFixture(t)

	got, err := f.runner.Preview(context.Background(), Request{ExecutionID: 2, UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, TierPreview, got.DataSource)
	assert.Equal(t, execution.ExecutionStatusRunning, got.Status)
	assert.True(t, got.PossiblyStuck)
	assert.Equal(t, execution.ExecutionStatusRunning, f.executions.items[2].Status)
}

func TestPreviewFallsBackToDirect(t *testing.T) {
	f := newFixture(t)
	f.executions.joinErr = errors.New("join timed out")
	f.datasets.templateErr = errors.New("template tables missing")

	got, err := f.runner.Preview(context.Background(), Request{ExecutionID: 1, UserID: "user-1", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, TierDirect, got.DataSource)
	assert.Len(t, got.Preview, 5)
	assert.NotEmpty(t, got.Columns)
	assert.Equal(t, "", got.Dataset.Template)

	f.datasets.templateErr = nil
	got, err = f.runner.Preview(context.Background(), Request{ExecutionID: 1, UserID: "user-1", Limit: 5})
	require.NoError(t, err)
	assert.Equal(t, "Products", got.Dataset.Template)
}

func TestPreviewFallsBackToMinimal(t *testing.T) {
	f := newFixture(t)
	f.executions.joinErr = errors.New("join failed")
	f.executions.byIDErr = errors.New("read failed")

	got, err := f.runner.Preview(context.Background(), Request{ExecutionID: 3, UserID: "user-1"})
	require.NoError(t, err)
	assert.Equal(t, TierMinimal, got.DataSource)
	assert.Equal(t, execution.ExecutionStatusFailed, got.Status)
	assert.Equal(t, "GraphQL error: Throttled", got.Error)
	assert.Empty(t, got.Preview)
	assert.Nil(t, got.Dataset)
}

func TestPreviewSurfacesLastTierError(t *testing.T) {
	f := newFixture(t)
	f.executions.joinErr = errors.New("join failed")
	f.executions.byIDErr = errors.New("read failed")
	f.executions.statusErr = errors.New("status failed")

	_, err := f.runner.Preview(context.Background(), Request{ExecutionID: 1, UserID: "user-1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status failed")
	assert.NotContains(t, err.Error(), "join failed")
}

func TestPreviewAccess(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.runner.Preview(ctx, Request{ExecutionID: 1, UserID: "intruder"})
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	_, err = f.runner.Preview(ctx, Request{ExecutionID: 1})
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))

	_, err = f.runner.Preview(ctx, Request{ExecutionID: 404, UserID: "user-1"})
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	got, err := f.runner.Preview(ctx, Request{ExecutionID: 1, UserID: "root"})
	require.NoError(t, err)
	assert.Equal(t, TierPreview, got.DataSource)
}
