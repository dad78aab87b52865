package schemacacherepo

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/wire"
	domain "github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/schemacache"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/commonrepo"
	"gorm.io/gorm"
)

var Provider = wire.NewSet(NewMysqlRepositoryImpl)

type MysqlRepositoryImpl struct {
	commonrepo.DefaultRepo
}

func NewMysqlRepositoryImpl(db commonrepo.DB) domain.Repo {
	return &MysqlRepositoryImpl{
		DefaultRepo: commonrepo.NewDefaultRepo(db),
	}
}

func (r *MysqlRepositoryImpl) Latest(ctx context.Context, sourceID, apiVersion string) (*domain.Entry, error) {
	var po = new(SchemaCache)
	found, err := commonrepo.FirstOrNil(r.Db(ctx).
		Where("source_id = ? AND api_version = ?", sourceID, apiVersion).
		Order("schema_version DESC").
		First(po))
	if err != nil || !found {
		return nil, err
	}
	return po.ToDomain()
}

func (r *MysqlRepositoryImpl) Create(ctx context.Context, entry *domain.Entry) error {
	po, err := new(SchemaCache).FromDomain(entry)
	if err != nil {
		return err
	}
	if err := r.Db(ctx).Create(po).Error; err != nil {
		return errors.Wrapf(err, "create schema cache %s@%s v%d", entry.SourceID, entry.APIVersion, entry.SchemaVersion)
	}
	entry.CreatedAt = po.CreatedAt
	return nil
}

func (r *MysqlRepositoryImpl) Touch(ctx context.Context, id uint64, at time.Time) error {
	return r.Db(ctx).Model(&SchemaCache{}).Where("id = ?", id).Updates(map[string]any{
		"last_accessed_at": at,
		"access_count":     gorm.Expr("access_count + ?", 1),
	}).Error
}

func (r *MysqlRepositoryImpl) MarkVerified(ctx context.Context, id uint64, at time.Time) error {
	return r.Db(ctx).Model(&SchemaCache{}).Where("id = ?", id).Updates(map[string]any{
		"verified_at":      at,
		"last_accessed_at": at,
		"access_count":     gorm.Expr("access_count + ?", 1),
	}).Error
}

func (r *MysqlRepositoryImpl) ListVersions(ctx context.Context, sourceID, apiVersion string) ([]*domain.Entry, error) {
	var pos []*SchemaCache
	err := r.Db(ctx).
		Select("id", "source_id", "api_version", "schema_version", "classification", "metadata",
			"created_at", "verified_at", "last_accessed_at", "access_count").
		Where("source_id = ? AND api_version = ?", sourceID, apiVersion).
		Order("schema_version DESC").
		Find(&pos).Error
	if err != nil {
		return nil, errors.Wrap(err, "list schema versions")
	}
	entries := make([]*domain.Entry, 0, len(pos))
	for _, po := range pos {
		e, err := po.ToDomain()
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, nil
}
