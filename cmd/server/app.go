package main

import (
	"context"

	"github.com/cockroachdb/errors"
	redis "github.com/go-redis/redis/v8"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/api"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/export"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/accessrepo"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/datasetrepo"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/executionrepo"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/schemacacherepo"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/orm"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/preview"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/scheduler"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"go.uber.org/zap"
)

type App struct {
	server       *api.Server
	orchestrator *scheduler.Orchestrator
	sweeper      *scheduler.Sweeper
	redis        *redis.Client
	logger       *zap.Logger
}

func NewApp(server *api.Server, orchestrator *scheduler.Orchestrator, sweeper *scheduler.Sweeper,
	rdb *redis.Client, logger *zap.Logger) *App {
	return &App{server: server, orchestrator: orchestrator, sweeper: sweeper, redis: rdb, logger: logger}
}

// buildApp 手工装配，与 wire.go 中的 InitializeApp 保持一致
func buildApp(logger *zap.Logger, cfg config.Config, storage *orm.Storage) *App {
	db := ProvideDB(storage)
	rdb := ProvideRedisClient(cfg)

	datasets := datasetrepo.NewDatasetRepo(db)
	sources := datasetrepo.NewSourceRepo(db)
	executions := executionrepo.NewMysqlRepositoryImpl(db)
	cache := schemacacherepo.NewMysqlRepositoryImpl(db)
	acl := accessrepo.NewMysqlRepositoryImpl(db)

	client := ProvideShopifyClient(cfg, logger)
	orchestrator := scheduler.New(cfg, logger, client,
		scheduler.NewHandlers(cfg, datasets, logger),
		scheduler.NewTaskRunner(cfg, logger),
		scheduler.NewLocker(cfg, rdb, logger),
		datasets, sources, executions, acl)
	sweeper := scheduler.NewSweeper(cfg, orchestrator, logger)

	schemas := ProvideSchemaService(cfg, cache, sources, acl, ProvideSchemaFetcher(client), logger)
	exporter := export.New(cfg, executions, acl, export.NewFs(cfg), logger)

	server := api.NewServer(cfg,
		api.NewCommonAPI(storage),
		api.NewDatasetAPI(orchestrator, datasets, executions, acl, logger),
		api.NewExecutionAPI(orchestrator, preview.New(cfg, executions, datasets, acl, logger), exporter,
			executions, acl, logger),
		api.NewSchemaAPI(schemas),
		logger)
	return NewApp(server, orchestrator, sweeper, rdb, logger)
}

func (a *App) Start() error {
	if a.redis != nil {
		if err := a.redis.Ping(context.Background()).Err(); err != nil {
			a.logger.Warn("redis unreachable, in-flight markers will fail open", zap.Error(err))
		}
	}
	a.orchestrator.Start()
	if a.sweeper.Enabled() {
		if err := a.sweeper.Start(); err != nil {
			return errors.Wrap(err, "start stuck execution sweeper")
		}
	}
	go func() {
		a.logger.Info("Starting API server", zap.String("addr", a.server.Addr()))
		if err := a.server.Run(); err != nil {
			a.logger.Fatal("Failed to start API server", zap.Error(err))
		}
	}()
	return nil
}

// Stop 先停 HTTP，再等待执行队列排空
func (a *App) Stop(ctx context.Context) {
	if err := a.server.Shutdown(ctx); err != nil {
		a.logger.Error("Failed to shutdown API server", zap.Error(err))
	}
	if a.sweeper.Enabled() {
		a.sweeper.Stop()
	}
	if err := a.orchestrator.Stop(ctx); err != nil {
		a.logger.Error("Failed to stop orchestrator", zap.Error(err))
	}
	if a.redis != nil {
		_ = a.redis.Close()
	}
}
