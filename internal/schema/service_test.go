package schema

import (
	"context"
	"encoding/json"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/schemacache"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/shopify"
	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type memCache struct {
	mu      sync.Mutex
	entries []*schemacache.Entry
	touches int
}

func (m *memCache) Latest(_ context.Context, sourceID, apiVersion string) (*schemacache.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var best *schemacache.Entry
	for _, e := range m.entries {
		if e.SourceID == sourceID && e.APIVersion == apiVersion && (best == nil || e.SchemaVersion > best.SchemaVersion) {
			best = e
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (m *memCache) Create(_ context.Context, e *schemacache.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *e
	cp.CreatedAt = e.VerifiedAt
	e.CreatedAt = cp.CreatedAt
	m.entries = append(m.entries, &cp)
	return nil
}

func (m *memCache) find(id uint64) *schemacache.Entry {
	e, _ := lo.Find(m.entries, func(e *schemacache.Entry) bool { return e.ID == id })
	return e
}

func (m *memCache) Touch(_ context.Context, id uint64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.find(id)
	e.LastAccessedAt = at
	e.AccessCount++
	m.touches++
	return nil
}

func (m *memCache) MarkVerified(_ context.Context, id uint64, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.find(id)
	e.VerifiedAt = at
	e.LastAccessedAt = at
	e.AccessCount++
	return nil
}

func (m *memCache) ListVersions(_ context.Context, sourceID, apiVersion string) ([]*schemacache.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := lo.Filter(m.entries, func(e *schemacache.Entry, _ int) bool {
		return e.SourceID == sourceID && e.APIVersion == apiVersion
	})
	sort.Slice(out, func(i, j int) bool { return out[i].SchemaVersion > out[j].SchemaVersion })
	return out, nil
}

type fakeSources map[string]*dataset.Source

func (f fakeSources) GetSource(_ context.Context, id string) (*dataset.Source, error) { return f[id], nil }
func (f fakeSources) CreateSource(_ context.Context, s *dataset.Source) error        { f[s.ID] = s; return nil }

type fakeACL struct {
	roles  map[string]string
	grants map[string]string
}

func (f fakeACL) HasRole(_ context.Context, userID string, roles ...string) (bool, error) {
	return lo.Contains(roles, f.roles[userID]), nil
}

func (f fakeACL) HasSourceGrant(_ context.Context, userID, sourceID string) (bool, error) {
	return f.grants[userID] == sourceID, nil
}

func (f fakeACL) GrantRole(context.Context, string, string) error   { return nil }
func (f fakeACL) GrantSource(context.Context, string, string) error { return nil }

type fakeFetcher struct {
	mu      sync.Mutex
	schema  *IntrospectionSchema
	calls   int
	lastCfg shopify.Config
}

func (f *fakeFetcher) Introspect(_ context.Context, cfg shopify.Config) (*IntrospectionSchema, json.RawMessage, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.lastCfg = cfg
	raw, _ := json.Marshal(f.schema)
	return f.schema, raw, nil
}

type fixture struct {
	svc     *Service
	cache   *memCache
	fetcher *fakeFetcher
	now     time.Time
}

func newFixture(t *testing.T, schema *IntrospectionSchema) *fixture {
	t.Helper()
	f := &fixture{
		cache:   &memCache{},
		fetcher: &fakeFetcher{schema: schema},
		now:     time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	sources := fakeSources{
		"src-1": {ID: "src-1", UserID: "owner", Provider: "shopify", StoreName: "acme", AccessToken: "t"},
		"src-ttl": {ID: "src-ttl", UserID: "owner", StoreName: "acme", AccessToken: "t",
			SchemaCacheTTL: time.Hour},
	}
	acl := fakeACL{
		roles:  map[string]string{"root": "admin"},
		grants: map[string]string{"analyst": "src-1"},
	}
	f.svc = NewService(f.cache, sources, acl, f.fetcher, NewRegistry(), ServiceOptions{
		Lifetime:       7 * 24 * time.Hour,
		DefaultVersion: "2024-01",
		Now:            func() time.Time { return f.now },
	}, zap.NewNop())
	return f
}

func TestGetSchemaCachesFirstFetch(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, publicSchema())

	res, err := f.svc.GetSchema(ctx, Request{UserID: "owner", SourceID: "src-1"})
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.True(t, res.Changed)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, "2024-01", res.APIVersion)
	assert.Equal(t, "2024-01", f.fetcher.lastCfg.APIVersion)
	require.Len(t, res.Schema.RootResources, 1)

	f.now = f.now.Add(24 * time.Hour)
	res, err = f.svc.GetSchema(ctx, Request{UserID: "owner", SourceID: "src-1"})
	require.NoError(t, err)
	assert.True(t, res.FromCache)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, 1, f.fetcher.calls)
	assert.Equal(t, 1, f.cache.touches)
}

func TestGetSchemaUnchangedHashKeepsVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, publicSchema())

	_, err := f.svc.GetSchema(ctx, Request{UserID: "owner", SourceID: "src-1"})
	require.NoError(t, err)

	f.now = f.now.Add(8 * 24 * time.Hour)
	res, err := f.svc.GetSchema(ctx, Request{UserID: "owner", SourceID: "src-1"})
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.False(t, res.Changed)
	assert.Equal(t, 1, res.Version)
	assert.Equal(t, 2, f.fetcher.calls)
	assert.Len(t, f.cache.entries, 1)

	// verification restarts the lifetime
	f.now = f.now.Add(time.Hour)
	res, err = f.svc.GetSchema(ctx, Request{UserID: "owner", SourceID: "src-1"})
	require.NoError(t, err)
	assert.True(t, res.FromCache)
}

func TestGetSchemaForceUpdateStoresNewVersion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, publicSchema())

	_, err := f.svc.GetSchema(ctx, Request{UserID: "owner", SourceID: "src-1"})
	require.NoError(t, err)

	changed := publicSchema()
	changed.Types[1].Fields = append(changed.Types[1].Fields, fld("vendor", stringT))
	f.fetcher.schema = changed

	res, err := f.svc.GetSchema(ctx, Request{UserID: "owner", SourceID: "src-1", ForceUpdate: true})
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.Equal(t, 2, res.Version)

	versions, err := f.svc.ListVersions(ctx, "owner", "src-1", "")
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.Equal(t, 2, versions[0].Version)
	assert.NotEqual(t, versions[0].Hash, versions[1].Hash)
}

func TestGetSchemaSourceTTL(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, publicSchema())

	_, err := f.svc.GetSchema(ctx, Request{UserID: "owner", SourceID: "src-ttl"})
	require.NoError(t, err)
	f.now = f.now.Add(2 * time.Hour)
	res, err := f.svc.GetSchema(ctx, Request{UserID: "owner", SourceID: "src-ttl"})
	require.NoError(t, err)
	assert.False(t, res.FromCache)
	assert.Equal(t, 2, f.fetcher.calls)
}

func TestGetSchemaAccessGate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, publicSchema())

	_, err := f.svc.GetSchema(ctx, Request{UserID: "stranger", SourceID: "src-1"})
	assert.Equal(t, apperr.CodeForbidden, apperr.CodeOf(err))

	_, err = f.svc.GetSchema(ctx, Request{SourceID: "src-1"})
	assert.Equal(t, apperr.CodeUnauthenticated, apperr.CodeOf(err))

	_, err = f.svc.GetSchema(ctx, Request{UserID: "owner", SourceID: "missing"})
	assert.Equal(t, apperr.CodeNotFound, apperr.CodeOf(err))

	_, err = f.svc.GetSchema(ctx, Request{UserID: "analyst", SourceID: "src-1"})
	assert.NoError(t, err)
	assert.Equal(t, 1, f.fetcher.calls)
}

func TestGetSchemaRedactsForNonElevated(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, fixtureSchema())

	res, err := f.svc.GetSchema(ctx, Request{UserID: "owner", SourceID: "src-1", IncludeRaw: true})
	require.NoError(t, err)
	assert.Equal(t, schemacache.ClassificationRestricted, res.Classification)
	assert.True(t, res.Redacted)
	assert.Nil(t, res.Raw)

	customer, ok := lo.Find(res.Schema.ObjectTypes, func(o ObjectType) bool { return o.Name == "Customer" })
	require.True(t, ok)
	password, _ := lo.Find(customer.Fields, func(f ObjectField) bool { return f.Name == "password" })
	assert.Equal(t, RedactedMarker, password.Type)

	admin, err := f.svc.GetSchema(ctx, Request{UserID: "root", SourceID: "src-1", IncludeRaw: true})
	require.NoError(t, err)
	assert.True(t, admin.FromCache)
	assert.False(t, admin.Redacted)
	assert.NotEmpty(t, admin.Raw)
}
