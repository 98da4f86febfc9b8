package service

import (
	"context"
	"sync"
	"time"

	"github.com/shyamsasidharan1/eventbuddy/pkg/metrics"
	"github.com/shyamsasidharan1/eventbuddy/pkg/redis"
)

// EventLocker 串行化同一活动的“读占用 → 判定 → 写入”过程
type EventLocker interface {
	Lock(ctx context.Context, eventID string) (unlock func(), err error)
}

// ── 进程内实现 ──

type localLock struct {
	mu   sync.Mutex
	refs int
}

type localEventLocker struct {
	mu    sync.Mutex
	locks map[string]*localLock
}

// NewLocalEventLocker 进程内按活动加锁，用于单实例部署与测试
func NewLocalEventLocker() EventLocker {
	return &localEventLocker{locks: make(map[string]*localLock)}
}

func (l *localEventLocker) Lock(ctx context.Context, eventID string) (func(), error) {
	start := time.Now()

	l.mu.Lock()
	lk, ok := l.locks[eventID]
	if !ok {
		lk = &localLock{}
		l.locks[eventID] = lk
	}
	lk.refs++
	l.mu.Unlock()

	lk.mu.Lock()
	metrics.ObserveLockWait(time.Since(start))

	return func() {
		lk.mu.Unlock()
		l.mu.Lock()
		lk.refs--
		if lk.refs == 0 {
			delete(l.locks, eventID)
		}
		l.mu.Unlock()
	}, nil
}

// ── Redis 实现 ──

type redisEventLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisEventLocker 基于 Redis SET NX PX 的跨实例活动锁
func NewRedisEventLocker(client *redis.Client, ttl time.Duration) EventLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &redisEventLocker{client: client, ttl: ttl}
}

func (l *redisEventLocker) Lock(ctx context.Context, eventID string) (func(), error) {
	start := time.Now()
	// 等待上限与锁 TTL 一致
	wctx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	release, err := l.client.Lock(wctx, "event:"+eventID, l.ttl)
	if err != nil {
		return nil, err
	}
	metrics.ObserveLockWait(time.Since(start))
	return release, nil
}
