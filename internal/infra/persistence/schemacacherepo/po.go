package schemacacherepo

import (
	"encoding/json"
	"time"

	"github.com/cockroachdb/errors"
	domain "github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/schemacache"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

// SchemaCache 每个 (source_id, api_version, schema_version) 一行，行内容写入后不变
type SchemaCache struct {
	commonrepo.Mode
	SourceID        string                `gorm:"column:source_id;size:64;not null;uniqueIndex:uk_source_version"`
	APIVersion      string                `gorm:"column:api_version;size:16;not null;uniqueIndex:uk_source_version"`
	SchemaVersion   int                   `gorm:"column:schema_version;not null;uniqueIndex:uk_source_version"`
	Schema          datatypes.JSON        `gorm:"column:raw_schema;not null"`
	ProcessedSchema datatypes.JSON        `gorm:"column:processed_schema"`
	Classification  domain.Classification `gorm:"column:classification;size:20;not null"`
	Metadata        datatypes.JSON        `gorm:"column:metadata"`
	VerifiedAt      time.Time             `gorm:"column:verified_at;not null"`
	LastAccessedAt  time.Time             `gorm:"column:last_accessed_at;not null"`
	AccessCount     int64                 `gorm:"column:access_count;default:0"`
}

func (SchemaCache) TableName() string {
	return "schema_cache"
}

func (po *SchemaCache) ToDomain() (*domain.Entry, error) {
	var meta domain.Metadata
	if len(po.Metadata) > 0 {
		if err := json.Unmarshal(po.Metadata, &meta); err != nil {
			return nil, errors.Wrapf(err, "decode metadata of schema cache %d", po.ID)
		}
	}
	return &domain.Entry{
		ID:              po.ID,
		SourceID:        po.SourceID,
		APIVersion:      po.APIVersion,
		SchemaVersion:   po.SchemaVersion,
		Schema:          json.RawMessage(po.Schema),
		ProcessedSchema: json.RawMessage(po.ProcessedSchema),
		Classification:  po.Classification,
		Metadata:        meta,
		CreatedAt:       po.CreatedAt,
		VerifiedAt:      po.VerifiedAt,
		LastAccessedAt:  po.LastAccessedAt,
		AccessCount:     po.AccessCount,
	}, nil
}

func (po *SchemaCache) FromDomain(d *domain.Entry) (*SchemaCache, error) {
	meta, err := json.Marshal(d.Metadata)
	if err != nil {
		return nil, errors.Wrap(err, "encode schema metadata")
	}
	return &SchemaCache{
		Mode:            commonrepo.Mode{ID: d.ID, CreatedAt: d.CreatedAt},
		SourceID:        d.SourceID,
		APIVersion:      d.APIVersion,
		SchemaVersion:   d.SchemaVersion,
		Schema:          commonrepo.JSONOrNull(d.Schema),
		ProcessedSchema: commonrepo.JSONOrNull(d.ProcessedSchema),
		Classification:  d.Classification,
		Metadata:        datatypes.JSON(meta),
		VerifiedAt:      d.VerifiedAt,
		LastAccessedAt:  d.LastAccessedAt,
		AccessCount:     d.AccessCount,
	}, nil
}
