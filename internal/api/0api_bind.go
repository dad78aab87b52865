package api

import "github.com/gin-gonic/gin"

// 路由绑定与接口注释中的 @GET/@POST 保持一致

type DatasetAPIWrap struct {
	inner IDatasetAPI
}

func NewDatasetAPIWrap(inner IDatasetAPI) *DatasetAPIWrap {
	return &DatasetAPIWrap{inner: inner}
}

func (a *DatasetAPIWrap) Execute(c *gin.Context) {
	resp, err := a.inner.Execute(c, c.Param("id"))
	onGinResponse(c, resp, err)
}

func (a *DatasetAPIWrap) ListExecutions(c *gin.Context) {
	var req ListExecutionReq
	if !onGinBind(c, &req, "QUERY") {
		return
	}
	resp, err := a.inner.ListExecutions(c, c.Param("id"), req)
	onGinResponse(c, resp, err)
}

func (a *DatasetAPIWrap) BindAll(router gin.IRoutes) {
	router.POST("/api/v1/datasets/:id/execute", a.Execute)
	router.GET("/api/v1/datasets/:id/executions", a.ListExecutions)
}

type ExecutionAPIWrap struct {
	inner IExecutionAPI
}

func NewExecutionAPIWrap(inner IExecutionAPI) *ExecutionAPIWrap {
	return &ExecutionAPIWrap{inner: inner}
}

func (a *ExecutionAPIWrap) Get(c *gin.Context) {
	resp, err := a.inner.Get(c, c.Param("id"))
	onGinResponse(c, resp, err)
}

func (a *ExecutionAPIWrap) Preview(c *gin.Context) {
	var req PreviewReq
	if !onGinBind(c, &req, "QUERY") {
		return
	}
	resp, err := a.inner.Preview(c, c.Param("id"), req)
	onGinResponse(c, resp, err)
}

func (a *ExecutionAPIWrap) Reset(c *gin.Context) {
	resp, err := a.inner.Reset(c, c.Param("id"))
	onGinResponse(c, resp, err)
}

func (a *ExecutionAPIWrap) ResetStuck(c *gin.Context) {
	var req ResetStuckReq
	if !onGinBind(c, &req, "JSON") {
		return
	}
	resp, err := a.inner.ResetStuck(c, req)
	onGinResponse(c, resp, err)
}

func (a *ExecutionAPIWrap) Export(c *gin.Context) {
	var req ExportReq
	if !onGinBind(c, &req, "JSON") {
		return
	}
	resp, err := a.inner.Export(c, c.Param("id"), req)
	onGinResponse(c, resp, err)
}

func (a *ExecutionAPIWrap) BindAll(router gin.IRoutes) {
	router.GET("/api/v1/executions/:id", a.Get)
	router.GET("/api/v1/executions/:id/preview", a.Preview)
	router.POST("/api/v1/executions/:id/reset", a.Reset)
	router.POST("/api/v1/executions/reset-stuck", a.ResetStuck)
	router.POST("/api/v1/executions/:id/export", a.Export)
}

type SchemaAPIWrap struct {
	inner ISchemaAPI
}

func NewSchemaAPIWrap(inner ISchemaAPI) *SchemaAPIWrap {
	return &SchemaAPIWrap{inner: inner}
}

func (a *SchemaAPIWrap) GetSchema(c *gin.Context) {
	var req SchemaReq
	if !onGinBind(c, &req, "QUERY") {
		return
	}
	resp, err := a.inner.GetSchema(c, c.Param("id"), req)
	onGinResponse(c, resp, err)
}

func (a *SchemaAPIWrap) ListVersions(c *gin.Context) {
	var req SchemaReq
	if !onGinBind(c, &req, "QUERY") {
		return
	}
	resp, err := a.inner.ListVersions(c, c.Param("id"), req)
	onGinResponse(c, resp, err)
}

func (a *SchemaAPIWrap) BindAll(router gin.IRoutes) {
	router.GET("/api/v1/sources/:id/schema", a.GetSchema)
	router.GET("/api/v1/sources/:id/schema/versions", a.ListVersions)
}

type CommonAPIWrap struct {
	inner ICommonAPI
}

func NewCommonAPIWrap(inner ICommonAPI) *CommonAPIWrap {
	return &CommonAPIWrap{inner: inner}
}

func (a *CommonAPIWrap) HealthCheck(c *gin.Context) {
	resp, err := a.inner.HealthCheck(c)
	onGinResponse(c, resp, err)
}

func (a *CommonAPIWrap) BindAll(router gin.IRoutes) {
	router.GET("/health", a.HealthCheck)
}
