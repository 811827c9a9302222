package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

// Config 应用配置结构
type Config struct {
	// 环境配置
	Environment string
	Port        string

	// 存储配置
	StorageDriver  string
	DataDir        string
	StorageKey     string
	QuotaBytes     int64
	StorageTimeout time.Duration
	RedisURL       string
	RedisPassword  string
	RedisDB        int
	PostgresDSN    string
	SeedEmpty      bool

	// JWT配置，为空时关闭认证
	JWTSecret string
	TokenTTL  time.Duration

	// CORS配置
	AllowedOrigins []string

	// 时区，用于判断“今天”和生成日历
	Timezone string

	// 备份配置
	BackupCron string
	BackupDir  string
	BackupKeep int

	// 调试配置
	Debug    bool
	LogLevel string
}

// LoadConfig 加载配置（支持本地和Vercel环境）
func LoadConfig() *Config {
	// 根据环境加载对应的 .env 文件
	env := os.Getenv("ENVIRONMENT")
	if env == "" {
		env = "development" // 默认开发环境
	}

	// 文件不存在时静默忽略；已有的环境变量优先
	switch env {
	case "production":
		_ = godotenv.Load(".env.production")
	default:
		_ = godotenv.Load(".env.local")
	}

	config := &Config{
		Environment:    getEnvWithDefault("ENVIRONMENT", "development"),
		Port:           getEnvWithDefault("PORT", "3000"),
		StorageDriver:  strings.ToLower(getEnvWithDefault("STORAGE_DRIVER", "local")),
		DataDir:        getEnvWithDefault("DATA_DIR", "./data"),
		StorageKey:     getEnvWithDefault("STORAGE_KEY", "senac_reservations_data"),
		QuotaBytes:     getEnvInt64("STORAGE_QUOTA_BYTES", 0),
		StorageTimeout: getEnvDuration("STORAGE_TIMEOUT", 5*time.Second),
		RedisDB:        int(getEnvInt64("REDIS_DB", 0)),
		SeedEmpty:      getEnvBool("SEED_EMPTY", false),
		TokenTTL:       getEnvDuration("TOKEN_TTL", 12*time.Hour),
		Timezone:       getEnvWithDefault("TIMEZONE", "America/Sao_Paulo"),
		BackupDir:      getEnvWithDefault("BACKUP_DIR", "./backups"),
		BackupKeep:     int(getEnvInt64("BACKUP_KEEP", 14)),
		Debug:          getEnvBool("DEBUG", false),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
	}

	// Trim whitespace to avoid trailing spaces/newlines from env sources
	config.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	config.RedisPassword = strings.TrimSpace(os.Getenv("REDIS_PASSWORD"))
	config.PostgresDSN = strings.TrimSpace(os.Getenv("POSTGRES_DSN"))
	config.JWTSecret = strings.TrimSpace(os.Getenv("JWT_SECRET"))
	config.BackupCron = strings.TrimSpace(os.Getenv("BACKUP_CRON"))

	// CORS配置
	allowedOrigins := getEnvWithDefault("ALLOWED_ORIGINS", "*")
	if allowedOrigins == "*" {
		config.AllowedOrigins = []string{"*"}
	} else {
		for _, o := range strings.Split(allowedOrigins, ",") {
			if o = strings.TrimSpace(o); o != "" {
				config.AllowedOrigins = append(config.AllowedOrigins, o)
			}
		}
	}

	// 生产环境关闭调试
	if config.Environment == "production" {
		config.Debug = false
	}

	return config
}

// Cached config (initialized once per cold start)
var (
	cachedConfig *Config
	configOnce   sync.Once
)

// GetCached returns the process-wide cached Config.
// On serverless (Vercel), it initializes once per cold start and
// reuses it across warm invocations, avoiding per-request parsing.
func GetCached() *Config {
	configOnce.Do(func() {
		cachedConfig = LoadConfig()
	})
	return cachedConfig
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT is required")
	}

	switch c.StorageDriver {
	case "local", "memory":
	case "redis":
		if c.RedisURL == "" {
			return fmt.Errorf("STORAGE_DRIVER=redis requires REDIS_URL")
		}
	case "postgres":
		if c.PostgresDSN == "" {
			return fmt.Errorf("STORAGE_DRIVER=postgres requires POSTGRES_DSN")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}

	if c.QuotaBytes < 0 {
		return fmt.Errorf("STORAGE_QUOTA_BYTES must not be negative")
	}

	if _, err := time.LoadLocation(c.Timezone); err != nil {
		return fmt.Errorf("invalid TIMEZONE %q: %w", c.Timezone, err)
	}

	if c.JWTSecret == "" && c.IsProduction() {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}

	return nil
}

// Location 返回配置的时区，无法加载时使用本地时区
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// AuthEnabled 是否启用JWT认证
func (c *Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// IsProduction 检查是否为生产环境
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// IsDevelopment 检查是否为开发环境
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

// NewLogger 生产环境输出JSON，其它环境输出文本
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.level()}
	if c.IsProduction() {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func (c *Config) level() slog.Level {
	if c.Debug {
		return slog.LevelDebug
	}
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// 辅助函数

// getEnvWithDefault 获取环境变量，如果不存在则使用默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool 获取布尔类型的环境变量
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvInt64 获取整数类型的环境变量
func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

// getEnvDuration 获取时长类型的环境变量，例如 "5s"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if parsed, err := time.ParseDuration(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return defaultValue
}
