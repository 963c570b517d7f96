package repository

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistryTest(t *testing.T, prefix string) (*SessionRegistry, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewSessionRegistry(rdb, prefix), mr
}

func TestSessionRegistryPutGet(t *testing.T) {
	reg, mr := newRegistryTest(t, "")
	ctx := context.Background()

	require.NoError(t, reg.Put(ctx, 42, "refresh-a", time.Hour))

	got, ok, err := reg.Get(ctx, 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "refresh-a", got)

	// The raw key is the bare member id.
	raw, err := mr.Get("42")
	require.NoError(t, err)
	assert.Equal(t, "refresh-a", raw)
	v, ok, err := reg.GetValue(ctx, "42")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "refresh-a", v)
}

func TestSessionRegistryPutOverwrites(t *testing.T) {
	reg, _ := newRegistryTest(t, "")
	ctx := context.Background()

	require.NoError(t, reg.Put(ctx, 1, "old", time.Hour))
	require.NoError(t, reg.Put(ctx, 1, "new", time.Hour))

	ok, err := reg.Matches(ctx, 1, "old")
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = reg.Matches(ctx, 1, "new")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestSessionRegistryExpires(t *testing.T) {
	reg, mr := newRegistryTest(t, "")
	ctx := context.Background()

	require.NoError(t, reg.Put(ctx, 7, "tok", time.Minute))
	mr.FastForward(2 * time.Minute)

	_, ok, err := reg.Get(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)
	exists, err := reg.Exists(ctx, 7)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestSessionRegistryRemoveIsIdempotent(t *testing.T) {
	reg, _ := newRegistryTest(t, "")
	ctx := context.Background()

	require.NoError(t, reg.Put(ctx, 9, "tok", time.Hour))
	require.NoError(t, reg.Remove(ctx, 9))
	require.NoError(t, reg.Remove(ctx, 9))

	has, err := reg.HasValue(ctx, "9")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestSessionRegistryRejectsNonPositiveTTL(t *testing.T) {
	reg, _ := newRegistryTest(t, "")
	assert.Error(t, reg.Put(context.Background(), 1, "tok", 0))
}

func TestSessionRegistryPrefix(t *testing.T) {
	reg, mr := newRegistryTest(t, "session:")
	require.NoError(t, reg.Put(context.Background(), 5, "tok", time.Hour))

	assert.Equal(t, "session:5", reg.Key(5))
	assert.True(t, mr.Exists("session:5"))
	assert.False(t, mr.Exists("5"))
}

func TestSessionRegistryConcurrentPutsLeaveOneValue(t *testing.T) {
	reg, _ := newRegistryTest(t, "")
	ctx := context.Background()
	tokens := []string{"a", "b", "c", "d", "e", "f", "g", "h"}

	var wg sync.WaitGroup
	for _, tok := range tokens {
		wg.Add(1)
		go func(tok string) {
			defer wg.Done()
			_ = reg.Put(ctx, 3, tok, time.Hour)
		}(tok)
	}
	wg.Wait()

	got, ok, err := reg.Get(ctx, 3)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Contains(t, tokens, got)
}
