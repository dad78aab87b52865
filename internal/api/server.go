package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/api/middleware"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

type Server struct {
	router *gin.Engine
	http   *http.Server
}

func NewServer(
	cfg config.Config,
	common *CommonAPI,
	datasets *DatasetAPI,
	executions *ExecutionAPI,
	schemas *SchemaAPI,
	logger *zap.Logger,
) *Server {
	s := &Server{}

	s.router = gin.New()
	s.router.Use(middleware.RequestID())
	s.router.Use(middleware.AccessLog(logger))
	s.router.Use(middleware.ErrorHandlingMiddleware(logger))
	s.router.Use(middleware.Cors())

	NewCommonAPIWrap(common).BindAll(s.router)
	s.router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := s.router.Group("", middleware.Identity())
	NewDatasetAPIWrap(datasets).BindAll(v1)
	NewExecutionAPIWrap(executions).BindAll(v1)
	NewSchemaAPIWrap(schemas).BindAll(v1)

	s.http = &http.Server{
		Addr:           fmt.Sprintf("%s:%d", cfg.Server.IP, cfg.Server.Port),
		Handler:        s.router,
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		MaxHeaderBytes: cfg.Server.MaxHeaderBytes,
	}
	return s
}

func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) Addr() string {
	return s.http.Addr
}

// Run 阻塞直到 Shutdown；正常关闭时返回 nil
func (s *Server) Run() error {
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
