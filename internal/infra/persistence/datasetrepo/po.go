package datasetrepo

import (
	"time"

	domain "github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/commonrepo"
	"gorm.io/datatypes"
)

type Source struct {
	commonrepo.StringMode
	UserID                string `gorm:"column:user_id;size:64;not null;index"`
	Name                  string `gorm:"column:name;size:255;not null"`
	Provider              string `gorm:"column:provider;size:32;not null;default:shopify"`
	StoreName             string `gorm:"column:store_name;size:255"`
	AccessToken           string `gorm:"column:access_token;size:255"`
	APIVersion            string `gorm:"column:api_version;size:16"`
	SchemaCacheTTLSeconds int64  `gorm:"column:schema_cache_ttl_seconds;default:0"`
}

func (Source) TableName() string { return "sources" }

type Dataset struct {
	commonrepo.StringMode
	UserID       string                      `gorm:"column:user_id;size:64;not null;index"`
	SourceID     string                      `gorm:"column:source_id;size:64;not null;index"`
	Name         string                      `gorm:"column:name;size:255;not null"`
	Description  string                      `gorm:"column:description;type:text"`
	DatasetType  domain.Type                 `gorm:"column:dataset_type;size:20;not null"`
	TemplateID   string                      `gorm:"column:template_id;size:64"`
	CustomQuery  string                      `gorm:"column:custom_query;type:text"`
	CustomFields datatypes.JSONSlice[string] `gorm:"column:custom_fields"`
	Parameters   datatypes.JSONMap           `gorm:"column:parameters"`
}

func (Dataset) TableName() string { return "datasets" }

type PredefinedTemplate struct {
	commonrepo.StringMode
	Name          string                      `gorm:"column:name;size:255;not null"`
	Description   string                      `gorm:"column:description;type:text"`
	QueryTemplate string                      `gorm:"column:query_template;type:text;not null"`
	ResourceType  string                      `gorm:"column:resource_type;size:64;not null"`
	FieldList     datatypes.JSONSlice[string] `gorm:"column:field_list"`
}

func (PredefinedTemplate) TableName() string { return "predefined_templates" }

type DependentTemplate struct {
	commonrepo.StringMode
	Name           string               `gorm:"column:name;size:255;not null"`
	Description    string               `gorm:"column:description;type:text"`
	PrimaryQuery   string               `gorm:"column:primary_query;type:text;not null"`
	SecondaryQuery string               `gorm:"column:secondary_query;type:text;not null"`
	IDPath         string               `gorm:"column:id_path;size:255;not null"`
	MergeStrategy  domain.MergeStrategy `gorm:"column:merge_strategy;size:20;default:nested"`
}

func (DependentTemplate) TableName() string { return "dependent_query_templates" }

func (po *Source) ToDomain() *domain.Source {
	return &domain.Source{
		ID:             po.ID,
		CreatedAt:      po.CreatedAt,
		UpdatedAt:      po.UpdatedAt,
		UserID:         po.UserID,
		Name:           po.Name,
		Provider:       po.Provider,
		StoreName:      po.StoreName,
		AccessToken:    po.AccessToken,
		APIVersion:     po.APIVersion,
		SchemaCacheTTL: time.Duration(po.SchemaCacheTTLSeconds) * time.Second,
	}
}

func (po *Source) FromDomain(d *domain.Source) *Source {
	return &Source{
		StringMode:            commonrepo.StringMode{ID: d.ID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		UserID:                d.UserID,
		Name:                  d.Name,
		Provider:              d.Provider,
		StoreName:             d.StoreName,
		AccessToken:           d.AccessToken,
		APIVersion:            d.APIVersion,
		SchemaCacheTTLSeconds: int64(d.SchemaCacheTTL / time.Second),
	}
}

func (po *Dataset) ToDomain() *domain.Dataset {
	return &domain.Dataset{
		ID:           po.ID,
		CreatedAt:    po.CreatedAt,
		UpdatedAt:    po.UpdatedAt,
		UserID:       po.UserID,
		SourceID:     po.SourceID,
		Name:         po.Name,
		Description:  po.Description,
		Type:         po.DatasetType,
		TemplateID:   po.TemplateID,
		CustomQuery:  po.CustomQuery,
		CustomFields: po.CustomFields,
		Parameters:   po.Parameters,
	}
}

func (po *Dataset) FromDomain(d *domain.Dataset) *Dataset {
	return &Dataset{
		StringMode:   commonrepo.StringMode{ID: d.ID, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt},
		UserID:       d.UserID,
		SourceID:     d.SourceID,
		Name:         d.Name,
		Description:  d.Description,
		DatasetType:  d.Type,
		TemplateID:   d.TemplateID,
		CustomQuery:  d.CustomQuery,
		CustomFields: d.CustomFields,
		Parameters:   d.Parameters,
	}
}

func (po *PredefinedTemplate) ToDomain() *domain.PredefinedTemplate {
	return &domain.PredefinedTemplate{
		ID:            po.ID,
		Name:          po.Name,
		Description:   po.Description,
		QueryTemplate: po.QueryTemplate,
		ResourceType:  po.ResourceType,
		FieldList:     po.FieldList,
	}
}

func (po *DependentTemplate) ToDomain() *domain.DependentTemplate {
	return &domain.DependentTemplate{
		ID:             po.ID,
		Name:           po.Name,
		Description:    po.Description,
		PrimaryQuery:   po.PrimaryQuery,
		SecondaryQuery: po.SecondaryQuery,
		IDPath:         po.IDPath,
		MergeStrategy:  po.MergeStrategy,
	}
}
