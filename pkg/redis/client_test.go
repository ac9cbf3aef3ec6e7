package redis

import (
	"context"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore implements cmdable over an in-memory map.
type fakeStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeStore() *fakeStore {
	return &fakeStore{data: map[string]string{}}
}

func (f *fakeStore) Ping(ctx context.Context) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (f *fakeStore) Set(ctx context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = toString(value)
	cmd := goredis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeStore) Get(ctx context.Context, key string) *goredis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := goredis.NewStringCmd(ctx)
	val, ok := f.data[key]
	if !ok {
		cmd.SetErr(goredis.Nil)
		return cmd
	}
	cmd.SetVal(val)
	return cmd
}

func (f *fakeStore) SetNX(ctx context.Context, key string, value any, _ time.Duration) *goredis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := goredis.NewBoolCmd(ctx)
	if _, exists := f.data[key]; exists {
		cmd.SetVal(false)
		return cmd
	}
	f.data[key] = toString(value)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeStore) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var removed int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			removed++
		}
	}
	cmd := goredis.NewIntCmd(ctx)
	cmd.SetVal(removed)
	return cmd
}

func (f *fakeStore) Eval(ctx context.Context, _ string, keys []string, args ...any) *goredis.Cmd {
	// Mirrors the compare-and-delete semantics of releaseScript.
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := goredis.NewCmd(ctx)
	if len(keys) == 0 || len(args) == 0 {
		cmd.SetVal(int64(0))
		return cmd
	}
	if f.data[keys[0]] == toString(args[0]) {
		delete(f.data, keys[0])
		cmd.SetVal(int64(1))
		return cmd
	}
	cmd.SetVal(int64(0))
	return cmd
}

func toString(value any) string {
	if s, ok := value.(string); ok {
		return s
	}
	return ""
}

func TestAcquireLockIsExclusive(t *testing.T) {
	client := NewFromCmdable(newFakeStore())
	ctx := context.Background()
	key := client.CouponLockKey("SAVE30")

	ok, err := client.AcquireLock(ctx, key, "token-a", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.AcquireLock(ctx, key, "token-b", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestReleaseLockOnlyForHolder(t *testing.T) {
	client := NewFromCmdable(newFakeStore())
	ctx := context.Background()
	key := client.CouponLockKey("SAVE30")

	_, err := client.AcquireLock(ctx, key, "token-a", time.Minute)
	require.NoError(t, err)

	// wrong token keeps the lock in place
	require.NoError(t, client.ReleaseLock(ctx, key, "token-b"))
	holder, err := client.LockHolder(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, "token-a", holder)

	require.NoError(t, client.ReleaseLock(ctx, key, "token-a"))
	holder, err = client.LockHolder(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, holder)
}

func TestReleaseLockIdempotent(t *testing.T) {
	client := NewFromCmdable(newFakeStore())
	ctx := context.Background()
	key := client.CouponLockKey("SAVE30")

	require.NoError(t, client.ReleaseLock(ctx, key, "token-a"))
}

func TestKeyNamespacing(t *testing.T) {
	client := NewFromCmdable(newFakeStore())
	assert.Equal(t, "ckt:coupon_lock:SAVE30", client.CouponLockKey("SAVE30"))
	assert.Equal(t, "ckt:idempotency:checkout:abc", client.IdempotencyKey("checkout", "abc"))
}
