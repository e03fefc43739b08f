package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryTokenStore(t *testing.T) {
	ctx := context.Background()
	ts := NewMemoryTokenStore(time.Minute)

	t.Run("put then get", func(t *testing.T) {
		require.NoError(t, ts.Put(ctx, "otp:a@b.c", "123456", time.Minute))

		v, found, err := ts.Get(ctx, "otp:a@b.c")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "123456", v)
	})

	t.Run("get of absent key", func(t *testing.T) {
		_, found, err := ts.Get(ctx, "otp:missing")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("consume removes the value", func(t *testing.T) {
		v, found, err := ts.Consume(ctx, "otp:a@b.c")
		require.NoError(t, err)
		require.True(t, found)
		assert.Equal(t, "123456", v)

		_, found, err = ts.Consume(ctx, "otp:a@b.c")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("put replaces the prior value", func(t *testing.T) {
		require.NoError(t, ts.Put(ctx, "k", "one", time.Minute))
		require.NoError(t, ts.Put(ctx, "k", "two", time.Minute))

		v, found, _ := ts.Get(ctx, "k")
		require.True(t, found)
		assert.Equal(t, "two", v)
	})

	t.Run("entries expire after the ttl", func(t *testing.T) {
		require.NoError(t, ts.Put(ctx, "short", "x", 20*time.Millisecond))

		time.Sleep(60 * time.Millisecond)

		_, found, err := ts.Get(ctx, "short")
		require.NoError(t, err)
		assert.False(t, found)
	})

	t.Run("cancelled context is an error", func(t *testing.T) {
		cancelled, cancel := context.WithCancel(context.Background())
		cancel()

		assert.Error(t, ts.Put(cancelled, "k", "v", time.Minute))
		_, _, err := ts.Get(cancelled, "k")
		assert.Error(t, err)
	})
}
