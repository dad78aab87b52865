package main

import (
	"fmt"

	redis "github.com/go-redis/redis/v8"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/access"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/dataset"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/biz/schemacache"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/commonrepo"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/orm"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/schema"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/shopify"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"go.uber.org/zap"
)

// ProvideRedisClient builds a redis client from typed config.
// Returns nil when redis is disabled; the in-flight marker then stays in process.
func ProvideRedisClient(cfg config.Config) *redis.Client {
	if !cfg.Redis.Enabled {
		return nil
	}
	addr := fmt.Sprintf("%s:%d", cfg.Redis.Host, cfg.Redis.Port)
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
}

func ProvideStorageConfig(cfg config.Config) orm.Config {
	return orm.Config{
		Host:                  cfg.Database.Host,
		Port:                  cfg.Database.Port,
		Database:              cfg.Database.Database,
		User:                  cfg.Database.User,
		Password:              cfg.Database.Password,
		MaxConnections:        cfg.Database.MaxConnections,
		MaxIdleConnections:    cfg.Database.MaxIdleConnections,
		ConnectionMaxLifetime: cfg.Database.ConnectionMaxLifetime,
		LogLevel:              gormLogLevel(cfg.Log.Level),
	}
}

func gormLogLevel(level string) string {
	switch level {
	case "debug":
		return "info"
	case "error":
		return "error"
	}
	return "warn"
}

func ProvideDB(storage *orm.Storage) commonrepo.DB {
	return storage.DB()
}

func ProvideShopifyClient(cfg config.Config, logger *zap.Logger) *shopify.Client {
	return shopify.NewClient(shopify.OptionsFromConfig(cfg.Shopify), logger)
}

func ProvideSchemaFetcher(client *shopify.Client) schema.Fetcher {
	return schema.NewShopifyFetcher(client)
}

func ProvideSchemaService(cfg config.Config, repo schemacache.Repo, sources dataset.SourceRepo, acl access.Repo,
	fetcher schema.Fetcher, logger *zap.Logger) *schema.Service {
	return schema.NewService(repo, sources, acl, fetcher, schema.NewRegistry(), schema.ServiceOptions{
		Lifetime:       cfg.Schema.CacheLifetime,
		DefaultVersion: cfg.Shopify.DefaultAPIVersion,
	}, logger)
}
