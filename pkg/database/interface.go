package database

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"
)

var (
	// ErrKeyNotFound 键不存在
	ErrKeyNotFound = errors.New("key not found")
	// ErrQuotaExceeded 写入超出存储配额
	ErrQuotaExceeded = errors.New("storage quota exceeded")
)

// Database 定义键值存储访问接口
// 所有调用都是同步的；网络实现内部使用超时
type Database interface {
	// Get 读取键对应的值，不存在时返回 ErrKeyNotFound
	Get(key string) (string, error)
	// Set 写入整个值
	Set(key, value string) error
	// Delete 删除键，不存在时不报错
	Delete(key string) error

	// 健康检查
	HealthCheck() error

	// 关闭连接
	Close() error

	// Name 返回实现名称，用于日志和健康检查
	Name() string
}

// 支持的驱动
const (
	DriverLocal    = "local"
	DriverMemory   = "memory"
	DriverRedis    = "redis"
	DriverPostgres = "postgres"
)

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver        string
	DataDir       string
	RedisURL      string
	RedisPassword string
	RedisDB       int
	PostgresDSN   string
	QuotaBytes    int64
	Timeout       time.Duration
	Logger        *slog.Logger
}

// NewDatabase 根据配置选择存储实现
func NewDatabase(config DatabaseConfig) (Database, error) {
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 5 * time.Second
	}

	var (
		db  Database
		err error
	)

	switch strings.ToLower(config.Driver) {
	case "", DriverLocal:
		db, err = NewLocalDatabase(config.DataDir, logger)
	case DriverMemory:
		db = NewMemoryDatabase()
	case DriverRedis:
		if config.RedisURL == "" {
			return nil, fmt.Errorf("redis driver requires REDIS_URL")
		}
		db, err = NewRedisDatabase(config.RedisURL, config.RedisPassword, config.RedisDB, config.Timeout)
	case DriverPostgres:
		if config.PostgresDSN == "" {
			return nil, fmt.Errorf("postgres driver requires POSTGRES_DSN")
		}
		db, err = NewPostgresDatabase(config.PostgresDSN, config.Timeout)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", config.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", config.Driver, err)
	}

	if config.QuotaBytes > 0 {
		db = WithQuota(db, config.QuotaBytes)
	}

	logger.Info("storage ready", slog.String("driver", db.Name()))
	return db, nil
}

// IsVercelEnvironment 检查是否运行在只读的 serverless 环境
func IsVercelEnvironment() bool {
	vercelEnv := os.Getenv("VERCEL_ENV")
	vercelURL := os.Getenv("VERCEL_URL")
	awsLambda := os.Getenv("AWS_LAMBDA_FUNCTION_NAME")
	return vercelEnv != "" || vercelURL != "" || awsLambda != ""
}
