//go:build wireinject
// +build wireinject

package main

//go:generate go run -mod=mod github.com/google/wire/cmd/wire

import (
	"github.com/google/wire"
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

func InitializeApp(logger *zap.Logger, cfg config.Config, storage *orm.Storage) *App {
	wire.Build(
		NewApp,

		ProvideDB,
		ProvideRedisClient,
		ProvideShopifyClient,
		ProvideSchemaFetcher,
		ProvideSchemaService,

		// domain
		scheduler.Provider,
		preview.Provider,
		export.Provider,

		// http api providers
		api.Provider,

		// infra providers
		datasetrepo.Provider,
		executionrepo.Provider,
		schemacacherepo.Provider,
		accessrepo.Provider,
	)
	return nil
}
