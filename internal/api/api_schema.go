package api

import (
	"github.com/gin-gonic/gin"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/api/middleware"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/schema"
)

type ISchemaAPI interface {
	// GetSchema 获取数据源的 GraphQL schema
	// 缓存新鲜时直接返回；force=true 时重新拉取
	// @GET(api/v1/sources/{id}/schema)
	GetSchema(ctx *gin.Context, id string, req SchemaReq) (*schema.Result, error)

	// ListVersions 获取缓存的 schema 版本
	// @GET(api/v1/sources/{id}/schema/versions)
	ListVersions(ctx *gin.Context, id string, req SchemaReq) ([]schema.VersionInfo, error)
}

var _ ISchemaAPI = (*SchemaAPI)(nil)

type SchemaAPI struct {
	service *schema.Service
}

func NewSchemaAPI(service *schema.Service) *SchemaAPI {
	return &SchemaAPI{service: service}
}

func (s *SchemaAPI) GetSchema(ctx *gin.Context, id string, req SchemaReq) (*schema.Result, error) {
	return s.service.GetSchema(ctx.Request.Context(), schema.Request{
		UserID:      middleware.UserID(ctx),
		SourceID:    id,
		APIVersion:  req.APIVersion,
		ForceUpdate: req.Force,
		IncludeRaw:  req.IncludeRaw,
	})
}

func (s *SchemaAPI) ListVersions(ctx *gin.Context, id string, req SchemaReq) ([]schema.VersionInfo, error) {
	return s.service.ListVersions(ctx.Request.Context(), middleware.UserID(ctx), id, req.APIVersion)
}
