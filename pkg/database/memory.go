package database

import "sync"

// MemoryDatabase 内存实现，进程退出后数据丢失
type MemoryDatabase struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryDatabase 创建内存数据库
func NewMemoryDatabase() *MemoryDatabase {
	return &MemoryDatabase{data: make(map[string]string)}
}

func (db *MemoryDatabase) Get(key string) (string, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	v, ok := db.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return v, nil
}

func (db *MemoryDatabase) Set(key, value string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	db.data[key] = value
	return nil
}

func (db *MemoryDatabase) Delete(key string) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	delete(db.data, key)
	return nil
}

func (db *MemoryDatabase) HealthCheck() error { return nil }

func (db *MemoryDatabase) Close() error { return nil }

func (db *MemoryDatabase) Name() string { return DriverMemory }
