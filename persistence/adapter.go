// Package persistence stores the planner's durable inputs: segment defaults,
// column locks and manual overrides, as two whole-record key-value entries.
package persistence

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	customerrors "superforecaster/errors"

	"github.com/go-redis/redis/v8"
)

// Adapter is a durable key-value store. Load returns
// customerrors.ErrRecordNotFound when the key has never been written.
type Adapter interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Close() error
}

// MemoryAdapter keeps records in process memory.
type MemoryAdapter struct {
	mu      sync.RWMutex
	records map[string][]byte
}

// NewMemoryAdapter returns an empty in-memory adapter.
func NewMemoryAdapter() *MemoryAdapter {
	return &MemoryAdapter{records: make(map[string][]byte)}
}

// Load returns a copy of the stored record.
func (m *MemoryAdapter) Load(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	data, ok := m.records[key]
	if !ok {
		return nil, customerrors.ErrRecordNotFound
	}
	return append([]byte(nil), data...), nil
}

// Save overwrites the record.
func (m *MemoryAdapter) Save(_ context.Context, key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[key] = append([]byte(nil), data...)
	return nil
}

// Close is a no-op.
func (m *MemoryAdapter) Close() error { return nil }

// FileAdapter stores each record as <dir>/<key>.json.
type FileAdapter struct {
	dir string
}

// NewFileAdapter creates dir if needed and returns an adapter rooted there.
func NewFileAdapter(dir string) (*FileAdapter, error) {
	if dir == "" {
		return nil, errors.New("file adapter directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage directory: %w", err)
	}
	return &FileAdapter{dir: dir}, nil
}

func (f *FileAdapter) path(key string) (string, error) {
	if key == "" || strings.ContainsAny(key, `/\`) || key == "." || key == ".." {
		return "", fmt.Errorf("invalid record key %q", key)
	}
	return filepath.Join(f.dir, key+".json"), nil
}

// Load reads the record file.
func (f *FileAdapter) Load(_ context.Context, key string) ([]byte, error) {
	p, err := f.path(key)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if errors.Is(err, os.ErrNotExist) {
		return nil, customerrors.ErrRecordNotFound
	}
	return data, err
}

// Save replaces the record file atomically via a rename.
func (f *FileAdapter) Save(_ context.Context, key string, data []byte) error {
	p, err := f.path(key)
	if err != nil {
		return err
	}
	tmp, err := os.CreateTemp(f.dir, key+".*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), p)
}

// Close is a no-op.
func (f *FileAdapter) Close() error { return nil }

// RedisConfig holds connection parameters for the redis adapter.
type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
}

// RedisAdapter stores records as plain redis strings without expiry.
type RedisAdapter struct {
	client *redis.Client
}

// NewRedisAdapter connects to redis and pings it to fail fast on bad settings.
func NewRedisAdapter(ctx context.Context, cfg RedisConfig) (*RedisAdapter, error) {
	if cfg.Addr == "" {
		return nil, errors.New("redis addr is required")
	}
	if cfg.DialTimeout <= 0 {
		cfg.DialTimeout = 2 * time.Second
	}
	client := redis.NewClient(&redis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", cfg.Addr, err)
	}
	return &RedisAdapter{client: client}, nil
}

// NewRedisAdapterFromClient wraps an existing client.
func NewRedisAdapterFromClient(client *redis.Client) *RedisAdapter {
	return &RedisAdapter{client: client}
}

// Load fetches the record.
func (r *RedisAdapter) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, customerrors.ErrRecordNotFound
	}
	return data, err
}

// Save overwrites the record.
func (r *RedisAdapter) Save(ctx context.Context, key string, data []byte) error {
	return r.client.Set(ctx, key, data, 0).Err()
}

// Close releases the client connection pool.
func (r *RedisAdapter) Close() error {
	return r.client.Close()
}
