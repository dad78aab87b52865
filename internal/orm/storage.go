package orm

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/google/wire"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/accessrepo"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/datasetrepo"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/executionrepo"
	"github.com/onronder/flowtechs-fd116a49-sub000/internal/infra/persistence/schemacacherepo"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var Provider = wire.NewSet(New)

type Config struct {
	Host                  string
	Port                  int
	Database              string
	User                  string
	Password              string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
	// LogLevel gorm 日志级别: silent, error, warn, info
	LogLevel string
}

type Storage struct {
	db *gorm.DB
}

// Models 需要迁移的表，被引用的表在前
func Models() []any {
	return []any{
		&datasetrepo.Source{},
		&datasetrepo.PredefinedTemplate{},
		&datasetrepo.DependentTemplate{},
		&datasetrepo.Dataset{},
		&executionrepo.DatasetExecution{},
		&schemacacherepo.SchemaCache{},
		&accessrepo.UserRole{},
		&accessrepo.SourceGrant{},
	}
}

func (c Config) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=UTC",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

func New(cfg Config) (*Storage, error) {
	s, err := Open(mysql.Open(cfg.DSN()), cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	sqlDB, err := s.db.DB()
	if err != nil {
		return nil, errors.Wrap(err, "failed to get sql.DB")
	}
	sqlDB.SetMaxOpenConns(cfg.MaxConnections)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConnections)
	sqlDB.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)
	return s, nil
}

// Open 使用任意 dialector 打开，测试里传 sqlite
func Open(dialector gorm.Dialector, logLevel string) (*Storage, error) {
	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:                                   logger.Default.LogMode(parseLogLevel(logLevel)),
		DisableForeignKeyConstraintWhenMigrating: true,
		NowFunc: func() time.Time {
			return time.Now().UTC()
		},
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to connect to database")
	}
	return &Storage{db: db}, nil
}

func (s *Storage) Migrate() error {
	if err := s.db.AutoMigrate(Models()...); err != nil {
		return errors.Wrap(err, "failed to migrate database")
	}
	return nil
}

func parseLogLevel(level string) logger.LogLevel {
	switch level {
	case "silent":
		return logger.Silent
	case "error":
		return logger.Error
	case "info":
		return logger.Info
	default:
		return logger.Warn
	}
}

func (s *Storage) DB() *gorm.DB {
	return s.db
}

func (s *Storage) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Storage) Ping() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}
