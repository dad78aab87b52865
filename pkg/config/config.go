package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Log       LogConfig       `mapstructure:"log"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Shopify   ShopifyConfig   `mapstructure:"shopify"`
	Schema    SchemaConfig    `mapstructure:"schema"`
	Execution ExecutionConfig `mapstructure:"execution"`
	Preview   PreviewConfig   `mapstructure:"preview"`
	Poll      PollConfig      `mapstructure:"poll"`
}

type ServerConfig struct {
	IP             string        `mapstructure:"ip"`
	Port           int           `mapstructure:"port" validate:"gt=0,lt=65536"`
	ReadTimeout    time.Duration `mapstructure:"read_timeout"`
	WriteTimeout   time.Duration `mapstructure:"write_timeout"`
	MaxHeaderBytes int           `mapstructure:"max_header_bytes"`
	// WorkerID 雪花 ID 的节点号，多实例部署时必须不同
	WorkerID       uint16        `mapstructure:"worker_id" validate:"lt=64"`
}

type DatabaseConfig struct {
	Host                  string        `mapstructure:"host" validate:"required"`
	Port                  int           `mapstructure:"port" validate:"gt=0"`
	Database              string        `mapstructure:"database"`
	User                  string        `mapstructure:"user"`
	Password              string        `mapstructure:"password"`
	MaxConnections        int           `mapstructure:"max_connections"`
	MaxIdleConnections    int           `mapstructure:"max_idle_connections"`
	ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	Output string `mapstructure:"output"`
}

type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// ShopifyConfig Admin GraphQL API 访问参数
type ShopifyConfig struct {
	DefaultAPIVersion string        `mapstructure:"default_api_version" validate:"required"`
	BaseURLTemplate   string        `mapstructure:"base_url_template" validate:"required"`
	MaxPageSize       int           `mapstructure:"max_page_size" validate:"gt=0,lte=250"`
	DefaultMaxItems   int           `mapstructure:"default_max_items" validate:"gt=0"`
	PageDelay         time.Duration `mapstructure:"page_delay"`
	BatchSize         int           `mapstructure:"batch_size" validate:"gt=0"`
	HTTPTimeout       time.Duration `mapstructure:"http_timeout"`
	ErrorBodyLimit    int           `mapstructure:"error_body_limit"`
}

type SchemaConfig struct {
	CacheLifetime time.Duration `mapstructure:"cache_lifetime"`
}

type ExecutionConfig struct {
	MaxWorkers     int           `mapstructure:"max_workers" validate:"gt=0"`
	QueueSize      int           `mapstructure:"queue_size" validate:"gt=0"`
	StuckThreshold time.Duration `mapstructure:"stuck_threshold"`
	ResetCron      string        `mapstructure:"reset_cron"`
	Dedup          bool          `mapstructure:"dedup"`
	InflightTTL    time.Duration `mapstructure:"inflight_ttl"`
}

type PreviewConfig struct {
	DefaultLimit      int           `mapstructure:"default_limit" validate:"gt=0"`
	MaxLimit          int           `mapstructure:"max_limit" validate:"gtefield=DefaultLimit"`
	StuckThreshold    time.Duration `mapstructure:"stuck_threshold"`
	ExportInlineLimit int           `mapstructure:"export_inline_limit"`
	ExportDir         string        `mapstructure:"export_dir"`
}

type PollConfig struct {
	Interval             time.Duration `mapstructure:"interval"`
	MaxAttempts          int           `mapstructure:"max_attempts" validate:"gt=0"`
	MaxConsecutiveErrors int           `mapstructure:"max_consecutive_errors" validate:"gt=0"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "30s")
	v.SetDefault("server.write_timeout", "30s")
	v.SetDefault("server.max_header_bytes", 1048576)
	v.SetDefault("server.worker_id", 1)

	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.database", "flowtechs")
	v.SetDefault("database.max_connections", 20)
	v.SetDefault("database.max_idle_connections", 10)
	v.SetDefault("database.connection_max_lifetime", "1h")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.output", "stdout")

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)

	// Shopify 单次请求最多 250 条，约 2 次/秒
	v.SetDefault("shopify.default_api_version", "2024-01")
	v.SetDefault("shopify.base_url_template", "https://%s.myshopify.com/admin/api/%s/graphql.json")
	v.SetDefault("shopify.max_page_size", 250)
	v.SetDefault("shopify.default_max_items", 1000)
	v.SetDefault("shopify.page_delay", "500ms")
	v.SetDefault("shopify.batch_size", 50)
	v.SetDefault("shopify.http_timeout", "30s")
	v.SetDefault("shopify.error_body_limit", 200)

	v.SetDefault("schema.cache_lifetime", "168h")

	v.SetDefault("execution.max_workers", 4)
	v.SetDefault("execution.queue_size", 64)
	v.SetDefault("execution.stuck_threshold", "15m")
	v.SetDefault("execution.reset_cron", "")
	v.SetDefault("execution.dedup", true)
	v.SetDefault("execution.inflight_ttl", "30m")

	v.SetDefault("preview.default_limit", 100)
	v.SetDefault("preview.max_limit", 1000)
	v.SetDefault("preview.stuck_threshold", "3m")
	v.SetDefault("preview.export_inline_limit", 500)
	v.SetDefault("preview.export_dir", "exports")

	v.SetDefault("poll.interval", "2s")
	v.SetDefault("poll.max_attempts", 60)
	v.SetDefault("poll.max_consecutive_errors", 3)
}

// Load 读取配置文件；configPath 为空时只使用默认值和环境变量
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("FLOWTECHS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// Default 返回全部默认值的配置，测试和 CLI 使用
func Default() Config {
	v := viper.New()
	setDefaults(v)
	var cfg Config
	_ = v.Unmarshal(&cfg)
	return cfg
}
