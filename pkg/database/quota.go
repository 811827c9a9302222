package database

import "fmt"

// QuotaDatabase 为任意实现加上单个值的容量限制，模拟浏览器存储配额
type QuotaDatabase struct {
	Database
	limit int64
}

// WithQuota 包装 db，超过 limit 字节的写入返回 ErrQuotaExceeded
func WithQuota(db Database, limit int64) *QuotaDatabase {
	return &QuotaDatabase{Database: db, limit: limit}
}

// Set 检查配额后写入
func (q *QuotaDatabase) Set(key, value string) error {
	if size := int64(len(key) + len(value)); size > q.limit {
		return fmt.Errorf("write %d bytes (limit %d): %w", size, q.limit, ErrQuotaExceeded)
	}
	return q.Database.Set(key, value)
}

func (q *QuotaDatabase) Name() string {
	return q.Database.Name() + "+quota"
}
