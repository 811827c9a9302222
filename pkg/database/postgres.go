package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Schema 键值表结构，scripts/setup_db.go 也使用它
const Schema = `CREATE TABLE IF NOT EXISTS kv_store (
    key        TEXT PRIMARY KEY,
    value      TEXT NOT NULL,
    updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`

const (
	getQuery    = `SELECT value FROM kv_store WHERE key = $1`
	upsertQuery = `INSERT INTO kv_store (key, value, updated_at) VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at`
	deleteQuery = `DELETE FROM kv_store WHERE key = $1`
)

// PostgresDatabase PostgreSQL数据库实现
type PostgresDatabase struct {
	db      *sqlx.DB
	timeout time.Duration
}

// NewPostgresDatabase 创建PostgreSQL数据库实例
func NewPostgresDatabase(dsn string, timeout time.Duration) (*PostgresDatabase, error) {
	// Sanitize DSN to avoid stray CR/LF from env values
	dsn = strings.TrimSpace(dsn)
	// 依次尝试多种连接参数
	strategies := []string{
		addConnectionParams(dsn, "connect_timeout=10"),
		dsn,
	}

	var lastErr error
	for _, strategy := range strategies {
		db, err := sqlx.Open("postgres", strategy)
		if err != nil {
			lastErr = err
			continue
		}

		// 设置连接池参数，适合无服务器环境
		db.SetMaxOpenConns(5)
		db.SetMaxIdleConns(2)
		db.SetConnMaxLifetime(5 * time.Minute)

		if err := db.Ping(); err != nil {
			lastErr = err
			db.Close()
			continue
		}

		p := NewPostgresDatabaseFromDB(db, timeout)
		if err := p.EnsureSchema(); err != nil {
			db.Close()
			return nil, err
		}
		return p, nil
	}

	return nil, fmt.Errorf("connect postgres: %w", lastErr)
}

// NewPostgresDatabaseFromDB 使用已有连接（测试中配合 sqlmock）
func NewPostgresDatabaseFromDB(db *sqlx.DB, timeout time.Duration) *PostgresDatabase {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresDatabase{db: db, timeout: timeout}
}

// addConnectionParams 添加连接参数到DSN
func addConnectionParams(dsn, params string) string {
	if params == "" || strings.Contains(dsn, params) {
		return dsn
	}

	// key=value 形式的 DSN 用空格分隔参数
	if !strings.Contains(dsn, "://") {
		return dsn + " " + params
	}

	separator := "?"
	if strings.Contains(dsn, "?") {
		separator = "&"
	}

	return dsn + separator + params
}

func (db *PostgresDatabase) ctx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), db.timeout)
}

// EnsureSchema 创建 kv_store 表
func (db *PostgresDatabase) EnsureSchema() error {
	ctx, cancel := db.ctx()
	defer cancel()

	if _, err := db.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("create kv_store: %w", err)
	}
	return nil
}

func (db *PostgresDatabase) Get(key string) (string, error) {
	ctx, cancel := db.ctx()
	defer cancel()

	var value string
	err := db.db.GetContext(ctx, &value, getQuery, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select %s: %w", key, err)
	}
	return value, nil
}

func (db *PostgresDatabase) Set(key, value string) error {
	ctx, cancel := db.ctx()
	defer cancel()

	if _, err := db.db.ExecContext(ctx, upsertQuery, key, value); err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

func (db *PostgresDatabase) Delete(key string) error {
	ctx, cancel := db.ctx()
	defer cancel()

	if _, err := db.db.ExecContext(ctx, deleteQuery, key); err != nil {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// HealthCheck 健康检查
func (db *PostgresDatabase) HealthCheck() error {
	ctx, cancel := db.ctx()
	defer cancel()
	return db.db.PingContext(ctx)
}

// Close 关闭连接
func (db *PostgresDatabase) Close() error {
	return db.db.Close()
}

func (db *PostgresDatabase) Name() string {
	return DriverPostgres
}
