package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const lockPrefix = "lock:"

// ErrLockTimeout 在 ctx 结束前未能取得锁
var ErrLockTimeout = errors.New("获取分布式锁超时")

// 仅当值匹配时删除，避免误删他人续上的锁
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// TryLock 尝试一次 SET NX PX，成功返回持有者 token
func (c *Client) TryLock(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	token := uuid.NewString()
	ok, err := c.rdb.SetNX(ctx, lockPrefix+key, token, ttl).Result()
	if err != nil {
		return "", false, err
	}
	return token, ok, nil
}

// Unlock 释放 token 持有的锁
func (c *Client) Unlock(ctx context.Context, key, token string) error {
	return releaseScript.Run(ctx, c.rdb, []string{lockPrefix + key}, token).Err()
}

// Lock 阻塞直到取得锁或 ctx 结束，返回释放函数
func (c *Client) Lock(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	backoff := 10 * time.Millisecond
	for {
		token, ok, err := c.TryLock(ctx, key, ttl)
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				// 请求 ctx 可能已取消，释放使用独立超时
				rctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
				defer cancel()
				if err := c.Unlock(rctx, key, token); err != nil {
					c.logger.Warn("释放分布式锁失败", zap.String("key", key), zap.Error(err))
				}
			}, nil
		}

		select {
		case <-ctx.Done():
			return nil, ErrLockTimeout
		case <-time.After(backoff):
		}
		if backoff < 200*time.Millisecond {
			backoff *= 2
		}
	}
}
