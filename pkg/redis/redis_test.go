package redis

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestBlacklist(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := Wrap(db, zap.NewNop())
	ctx := context.Background()

	mock.ExpectSet("token:blacklist:jti-1", "1", time.Minute).SetVal("OK")
	require.NoError(t, c.BlacklistToken(ctx, "jti-1", time.Minute))

	// 已过期 token 不写入
	require.NoError(t, c.BlacklistToken(ctx, "jti-2", 0))

	mock.ExpectExists("token:blacklist:jti-1").SetVal(1)
	ok, err := c.IsBlacklisted(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, ok)

	mock.ExpectExists("token:blacklist:jti-3").SetVal(0)
	ok, err = c.IsBlacklisted(ctx, "jti-3")
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheckRateLimit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := Wrap(db, zap.NewNop())
	ctx := context.Background()

	mock.ExpectIncr("rate_limit:login:1.2.3.4").SetVal(1)
	mock.ExpectExpire("rate_limit:login:1.2.3.4", time.Minute).SetVal(true)
	allowed, err := c.CheckRateLimit(ctx, "login:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.True(t, allowed)

	mock.ExpectIncr("rate_limit:login:1.2.3.4").SetVal(3)
	allowed, err = c.CheckRateLimit(ctx, "login:1.2.3.4", 2, time.Minute)
	require.NoError(t, err)
	assert.False(t, allowed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryLock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := Wrap(db, zap.NewNop())
	ctx := context.Background()

	mock.Regexp().ExpectSetNX("lock:event:e1", `.+`, 5*time.Second).SetVal(true)
	token, ok, err := c.TryLock(ctx, "event:e1", 5*time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, token)

	mock.Regexp().ExpectSetNX("lock:event:e1", `.+`, 5*time.Second).SetVal(false)
	_, ok, err = c.TryLock(ctx, "event:e1", 5*time.Second)
	require.NoError(t, err)
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLock_TimesOutWhenHeld(t *testing.T) {
	db, mock := redismock.NewClientMock()
	c := Wrap(db, zap.NewNop())

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	for i := 0; i < 10; i++ {
		mock.Regexp().ExpectSetNX("lock:event:e1", `.+`, time.Second).SetVal(false)
	}
	_, err := c.Lock(ctx, "event:e1", time.Second)
	assert.ErrorIs(t, err, ErrLockTimeout)
}
