package symbol

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache 交易对快照缓存
// Contains 的 ok 为 false 表示没有可用快照（未写入或已过期），调用方需要重新拉取
type Cache interface {
	Contains(ctx context.Context, symbol string) (found bool, ok bool, err error)
	Replace(ctx context.Context, symbols []string, ttl time.Duration) error
}

// MemoryCache 进程内缓存
type MemoryCache struct {
	mu        sync.RWMutex
	symbols   map[string]struct{}
	expiresAt time.Time
	now       func() time.Time
}

// NewMemoryCache 创建进程内缓存
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{now: time.Now}
}

// Contains 查询快照
func (m *MemoryCache) Contains(_ context.Context, symbol string) (bool, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.symbols == nil || !m.now().Before(m.expiresAt) {
		return false, false, nil
	}
	_, found := m.symbols[symbol]
	return found, true, nil
}

// Replace 整体替换快照
func (m *MemoryCache) Replace(_ context.Context, symbols []string, ttl time.Duration) error {
	set := make(map[string]struct{}, len(symbols))
	for _, s := range symbols {
		set[s] = struct{}{}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.symbols = set
	m.expiresAt = m.now().Add(ttl)
	return nil
}

// RedisCache 基于 Redis SET 的缓存，多个进程可以共享同一份快照
type RedisCache struct {
	client *redis.Client
	key    string
}

// RedisOptions Redis 连接配置
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// NewRedisCache 创建 Redis 缓存
func NewRedisCache(client *redis.Client, prefix string) *RedisCache {
	return &RedisCache{
		client: client,
		key:    prefix + "symbols",
	}
}

// NewRedisCacheFromOptions 根据配置创建 Redis 客户端和缓存，并检查连通性
func NewRedisCacheFromOptions(ctx context.Context, opts RedisOptions) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("连接 Redis 失败: %w", err)
	}
	return NewRedisCache(client, opts.Prefix), nil
}

// Contains 查询快照；key 不存在即视为无快照
// EXISTS 与 SISMEMBER 放在同一个 MULTI/EXEC 中执行，两者看到的是同一时刻的 key
func (r *RedisCache) Contains(ctx context.Context, symbol string) (bool, bool, error) {
	var (
		exists *redis.IntCmd
		member *redis.BoolCmd
	)
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		exists = pipe.Exists(ctx, r.key)
		member = pipe.SIsMember(ctx, r.key, symbol)
		return nil
	})
	if err != nil {
		return false, false, fmt.Errorf("redis contains failed: %w", err)
	}
	if exists.Val() == 0 {
		return false, false, nil
	}
	return member.Val(), true, nil
}

// Replace 在一个事务里重建 SET 并设置过期时间
func (r *RedisCache) Replace(ctx context.Context, symbols []string, ttl time.Duration) error {
	members := make([]interface{}, 0, len(symbols))
	for _, s := range symbols {
		members = append(members, s)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, r.key)
		if len(members) > 0 {
			pipe.SAdd(ctx, r.key, members...)
			pipe.PExpire(ctx, r.key, ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis replace failed: %w", err)
	}
	return nil
}

// Close 关闭 Redis 连接
func (r *RedisCache) Close() error {
	return r.client.Close()
}
