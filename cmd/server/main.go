package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/onronder/flowtechs-fd116a49-sub000/internal/orm"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/config"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/ids"
	"github.com/onronder/flowtechs-fd116a49-sub000/pkg/logger"
	"go.uber.org/zap"
)

func main() {
	// 解析命令行参数
	var (
		configPath string
		migrate    bool
	)
	flag.StringVar(&configPath, "config", "configs/config.yaml", "path to config file")
	flag.BoolVar(&migrate, "migrate", false, "run database migrations before serving")
	flag.Parse()

	// 加载配置
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 创建日志器
	zapLogger, err := logger.New(cfg.Log.Level, cfg.Log.Format, cfg.Log.Output)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer zapLogger.Sync()

	ids.Init(cfg.Server.WorkerID)
	zapLogger.Info("Starting dataset service", zap.Uint16("worker_id", cfg.Server.WorkerID))

	// 创建存储
	storage, err := orm.New(ProvideStorageConfig(*cfg))
	if err != nil {
		zapLogger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer storage.Close()

	if migrate {
		if err := storage.Migrate(); err != nil {
			zapLogger.Fatal("Failed to migrate database", zap.Error(err))
		}
	}

	app := buildApp(zapLogger, *cfg, storage)
	if err := app.Start(); err != nil {
		zapLogger.Fatal("Failed to start", zap.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	zapLogger.Info("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	app.Stop(ctx)

	zapLogger.Info("Shutdown complete")
}
