package database

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
)

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// LocalDatabase 本地文件数据库实现，每个键一个 JSON 文件
type LocalDatabase struct {
	dataDir string
	mu      sync.Mutex
}

// NewLocalDatabase 创建本地数据库实例
func NewLocalDatabase(dataDir string, logger *slog.Logger) (*LocalDatabase, error) {
	if dataDir == "" {
		dataDir = "./data"
	}
	// 在Vercel等只读文件系统中，使用临时目录
	if IsVercelEnvironment() {
		dataDir = filepath.Join(os.TempDir(), "senac-reservas-data")
	}

	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		logger.Warn("failed to create data directory, falling back to temp dir",
			slog.String("dir", dataDir), slog.Any("error", err))
		dataDir = filepath.Join(os.TempDir(), "senac-reservas-data")
		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	return &LocalDatabase{dataDir: dataDir}, nil
}

// Dir 返回数据目录
func (db *LocalDatabase) Dir() string {
	return db.dataDir
}

func (db *LocalDatabase) path(key string) string {
	return filepath.Join(db.dataDir, unsafeKeyChars.ReplaceAllString(key, "_")+".json")
}

// Get 读取键对应的文件
func (db *LocalDatabase) Get(key string) (string, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	data, err := os.ReadFile(db.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", key, err)
	}
	return string(data), nil
}

// Set 原子写入：先写临时文件再重命名
func (db *LocalDatabase) Set(key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tmp, err := os.CreateTemp(db.dataDir, ".reservas-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.WriteString(value); err != nil {
		tmp.Close()
		return fmt.Errorf("write %s: %w", key, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close %s: %w", key, err)
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return fmt.Errorf("chmod %s: %w", key, err)
	}
	if err := os.Rename(tmpName, db.path(key)); err != nil {
		return fmt.Errorf("rename %s: %w", key, err)
	}
	return nil
}

// Delete 删除键对应的文件
func (db *LocalDatabase) Delete(key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	err := os.Remove(db.path(key))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("delete %s: %w", key, err)
	}
	return nil
}

// HealthCheck 检查数据目录是否可写
func (db *LocalDatabase) HealthCheck() error {
	f, err := os.CreateTemp(db.dataDir, ".health-*")
	if err != nil {
		return fmt.Errorf("data directory not writable: %w", err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

// Close 本地实现无需关闭
func (db *LocalDatabase) Close() error {
	return nil
}

func (db *LocalDatabase) Name() string {
	return DriverLocal
}
