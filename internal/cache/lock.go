// Package cache содержит помощники Redis для фоновых задач.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// SetNXer - часть *redis.Client, нужная для блокировки.
type SetNXer interface {
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
}

// TickLock гарантирует, что периодическую задачу на тике выполняет один экземпляр.
// Ключ истекает сам и явно не снимается.
type TickLock struct {
	client SetNXer
	prefix string
}

func NewTickLock(client SetNXer, prefix string) *TickLock {
	return &TickLock{client: client, prefix: prefix}
}

// NewClient подключается к Redis и проверяет соединение.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// TryAcquire занимает задачу на тик `tick`. Возвращает false, если её
// уже занял другой экземпляр.
func (l *TickLock) TryAcquire(ctx context.Context, job string, tick time.Time, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("%s:%s:%d", l.prefix, job, tick.Unix())
	ok, err := l.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire tick lock %s: %w", key, err)
	}
	return ok, nil
}
