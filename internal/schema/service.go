package schema

import (
	"context"
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/access"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/schemacache"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/domain/apperr"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/metrics"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/shopify"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/ids"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

type Request struct {
	UserID      string
	SourceID    string
	APIVersion  string
	ForceUpdate bool
	IncludeRaw  bool
}

type Result struct {
	Schema         *Processed                 `json:"schema"`
	Raw            json.RawMessage            `json:"raw,omitempty"`
	FromCache      bool                       `json:"fromCache"`
	Version        int                        `json:"version"`
	APIVersion     string                     `json:"apiVersion"`
	Hash           string                     `json:"hash"`
	Classification schemacache.Classification `json:"classification"`
	Redacted       bool                       `json:"redacted"`
	// Changed 本次请求是否写入了新版本
	Changed        bool                       `json:"changed"`
}

type Service struct {
	repo           schemacache.Repo
	sources        dataset.SourceRepo
	access         access.Repo
	fetcher        Fetcher
	registry       *Registry
	lifetime       time.Duration
	defaultVersion string
	logger         *zap.Logger
	group          singleflight.Group
	now            func() time.Time
}

type ServiceOptions struct {
	Lifetime       time.Duration
	DefaultVersion string
	Now            func() time.Time
}

func NewService(repo schemacache.Repo, sources dataset.SourceRepo, acl access.Repo, fetcher Fetcher,
	registry *Registry, opts ServiceOptions, logger *zap.Logger) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Lifetime <= 0 {
		opts.Lifetime = 7 * 24 * time.Hour
	}
	if registry == nil {
		registry = NewRegistry()
	}
	return &Service{
		repo:           repo,
		sources:        sources,
		access:         acl,
		fetcher:        fetcher,
		registry:       registry,
		lifetime:       opts.Lifetime,
		defaultVersion: opts.DefaultVersion,
		logger:         logger,
		now:            opts.Now,
	}
}

// authorize 管理员或 schema 管理员、数据源所有者、被授权用户可以读取。返回是否为提升角色。
func (s *Service) authorize(ctx context.Context, userID string, src *dataset.Source) (bool, error) {
	if userID == "" {
		return false, apperr.Unauthenticated("missing user identity")
	}
	elevated, err := s.access.HasRole(ctx, userID, access.ElevatedRoles...)
	if err != nil {
		return false, errors.Wrap(err, "role lookup")
	}
	if elevated || src.UserID == userID {
		return elevated, nil
	}
	granted, err := s.access.HasSourceGrant(ctx, userID, src.ID)
	if err != nil {
		return false, errors.Wrap(err, "grant lookup")
	}
	if !granted {
		return false, apperr.Forbidden("no access to this source's schema")
	}
	return false, nil
}

func (s *Service) loadSource(ctx context.Context, userID, sourceID string) (*dataset.Source, bool, error) {
	src, err := s.sources.GetSource(ctx, sourceID)
	if err != nil {
		return nil, false, errors.Wrap(err, "load source")
	}
	if src == nil {
		return nil, false, apperr.NotFound("source not found")
	}
	elevated, err := s.authorize(ctx, userID, src)
	if err != nil {
		return nil, false, err
	}
	return src, elevated, nil
}

func (s *Service) versionFor(src *dataset.Source, requested string) string {
	switch {
	case requested != "":
		return requested
	case src.APIVersion != "":
		return src.APIVersion
	}
	return s.defaultVersion
}

// GetSchema 新鲜缓存直接返回；否则拉取并比较哈希，只有哈希变化才写入新版本
func (s *Service) GetSchema(ctx context.Context, req Request) (*Result, error) {
	src, elevated, err := s.loadSource(ctx, req.UserID, req.SourceID)
	if err != nil {
		return nil, err
	}
	apiVersion := s.versionFor(src, req.APIVersion)
	lifetime := s.lifetime
	if src.SchemaCacheTTL > 0 {
		lifetime = src.SchemaCacheTTL
	}
	logger := s.logger.With(zap.String("source_id", src.ID), zap.String("api_version", apiVersion))

	latest, err := s.repo.Latest(ctx, src.ID, apiVersion)
	if err != nil {
		return nil, errors.Wrap(err, "load cached schema")
	}

	now := s.now()
	if !req.ForceUpdate && latest != nil && latest.Fresh(now, lifetime) {
		if err := s.repo.Touch(ctx, latest.ID, now); err != nil {
			logger.Warn("failed to record schema cache access", zap.Error(err))
		}
		metrics.SchemaCacheTotal.WithLabelValues("hit").Inc()
		return s.present(latest, true, false, elevated, req.IncludeRaw)
	}

	key := src.ID + "@" + apiVersion
	v, err, shared := s.group.Do(key, func() (any, error) {
		return s.refresh(ctx, src, apiVersion, logger)
	})
	if err != nil {
		return nil, err
	}
	out := v.(*refreshOutcome)
	if shared {
		logger.Debug("joined in-flight schema fetch")
	}
	return s.present(out.entry, false, out.changed, elevated, req.IncludeRaw)
}

type refreshOutcome struct {
	entry   *schemacache.Entry
	changed bool
}

func (s *Service) refresh(ctx context.Context, src *dataset.Source, apiVersion string, logger *zap.Logger) (*refreshOutcome, error) {
	cfg := shopify.Config{StoreName: src.StoreName, AccessToken: src.AccessToken, APIVersion: apiVersion}
	introspection, raw, err := s.fetcher.Introspect(ctx, cfg)
	if err != nil {
		return nil, err
	}
	hash := Hash(introspection)

	var out *refreshOutcome
	err = s.repo.Execute(ctx, func(ctx context.Context) error {
		var err error
		out, err = s.store(ctx, src, apiVersion, hash, introspection, raw, logger)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// store 在事务内比较并写入；拉取期间可能已有别的实例写入，重新读一次
func (s *Service) store(ctx context.Context, src *dataset.Source, apiVersion, hash string,
	introspection *IntrospectionSchema, raw json.RawMessage, logger *zap.Logger) (*refreshOutcome, error) {
	latest, err := s.repo.Latest(ctx, src.ID, apiVersion)
	if err != nil {
		return nil, errors.Wrap(err, "load cached schema")
	}
	now := s.now()
	if latest != nil && latest.Metadata.Hash == hash {
		if err := s.repo.MarkVerified(ctx, latest.ID, now); err != nil {
			return nil, errors.Wrap(err, "refresh schema timestamps")
		}
		latest.VerifiedAt, latest.LastAccessedAt = now, now
		metrics.SchemaCacheTotal.WithLabelValues("unchanged").Inc()
		logger.Info("schema unchanged", zap.Int("version", latest.SchemaVersion))
		return &refreshOutcome{entry: latest}, nil
	}

	provider := src.Provider
	if provider == "" {
		provider = dataset.ProviderShopify
	}
	processed, err := s.registry.For(provider).Process(introspection)
	if err != nil {
		return nil, errors.Wrap(err, "process schema")
	}
	report := Scan(introspection)
	processedRaw, err := json.Marshal(processed)
	if err != nil {
		return nil, errors.Wrap(err, "encode processed schema")
	}

	version := 1
	if latest != nil {
		version = latest.SchemaVersion + 1
	}
	entry := &schemacache.Entry{
		ID:              ids.Next(),
		SourceID:        src.ID,
		APIVersion:      apiVersion,
		SchemaVersion:   version,
		Schema:          raw,
		ProcessedSchema: processedRaw,
		Classification:  report.Classification,
		Metadata: schemacache.Metadata{
			Hash:            hash,
			Processor:       provider,
			TypeCount:       processed.TypeCount,
			ResourceCount:   len(processed.RootResources),
			SensitiveFields: report.SensitiveFields,
			SensitiveTypes:  report.SensitiveTypes,
		},
		VerifiedAt:     now,
		LastAccessedAt: now,
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, err
	}
	metrics.SchemaCacheTotal.WithLabelValues("new_version").Inc()
	logger.Info("stored new schema version",
		zap.Int("version", version),
		zap.String("classification", string(report.Classification)),
		zap.Int("root_resources", len(processed.RootResources)))
	return &refreshOutcome{entry: entry, changed: true}, nil
}

func (s *Service) present(e *schemacache.Entry, fromCache, changed, elevated, includeRaw bool) (*Result, error) {
	processed, err := s.decodeProcessed(e)
	if err != nil {
		return nil, err
	}
	res := &Result{
		FromCache:      fromCache,
		Version:        e.SchemaVersion,
		APIVersion:     e.APIVersion,
		Hash:           e.Metadata.Hash,
		Classification: e.Classification,
		Changed:        changed,
		Schema:         processed,
	}
	if !elevated && e.Classification.RequiresRedaction() {
		res.Schema = Redact(processed, e.Metadata.SensitiveFields)
		res.Redacted = true
	}
	if elevated && includeRaw {
		res.Raw = e.Schema
	}
	return res, nil
}

func (s *Service) decodeProcessed(e *schemacache.Entry) (*Processed, error) {
	if len(e.ProcessedSchema) > 0 && string(e.ProcessedSchema) != "null" {
		var p Processed
		if err := json.Unmarshal(e.ProcessedSchema, &p); err != nil {
			return nil, errors.Wrapf(err, "decode processed schema v%d", e.SchemaVersion)
		}
		return &p, nil
	}
	var raw IntrospectionSchema
	if err := json.Unmarshal(e.Schema, &raw); err != nil {
		return nil, errors.Wrapf(err, "decode cached schema v%d", e.SchemaVersion)
	}
	return s.registry.For(e.Metadata.Processor).Process(&raw)
}

type VersionInfo struct {
	Version        int                        `json:"version"`
	Hash           string                     `json:"hash"`
	Classification schemacache.Classification `json:"classification"`
	CreatedAt      time.Time                  `json:"createdAt"`
	VerifiedAt     time.Time                  `json:"verifiedAt"`
	AccessCount    int64                      `json:"accessCount"`
}

func (s *Service) ListVersions(ctx context.Context, userID, sourceID, apiVersion string) ([]VersionInfo, error) {
	src, _, err := s.loadSource(ctx, userID, sourceID)
	if err != nil {
		return nil, err
	}
	entries, err := s.repo.ListVersions(ctx, src.ID, s.versionFor(src, apiVersion))
	if err != nil {
		return nil, err
	}
	out := make([]VersionInfo, 0, len(entries))
	for _, e := range entries {
		out = append(out, VersionInfo{
			Version:        e.SchemaVersion,
			Hash:           e.Metadata.Hash,
			Classification: e.Classification,
			CreatedAt:      e.CreatedAt,
			VerifiedAt:     e.VerifiedAt,
			AccessCount:    e.AccessCount,
		})
	}
	return out, nil
}
