package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client, err := NewClient(&Config{Address: mr.Addr()})
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestNewClient(t *testing.T) {
	t.Run("connects and pings", func(t *testing.T) {
		client := newTestClient(t)
		assert.NoError(t, client.Health())
	})

	t.Run("applies defaults", func(t *testing.T) {
		mr := miniredis.RunT(t)
		config := &Config{Address: mr.Addr(), PoolSize: 0}
		client, err := NewClient(config)
		require.NoError(t, err)
		defer client.Close()

		assert.Equal(t, 10, config.PoolSize)
	})

	t.Run("nil config", func(t *testing.T) {
		_, err := NewClient(nil)
		assert.Error(t, err)
	})

	t.Run("unreachable server", func(t *testing.T) {
		_, err := NewClient(&Config{Address: "127.0.0.1:1"})
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to connect to Redis")
	})
}

func TestIncrWindow(t *testing.T) {
	t.Run("counts every recorded request", func(t *testing.T) {
		client := newTestClient(t)
		ctx := context.Background()

		for i := 1; i <= 5; i++ {
			sample, err := client.IncrWindow(ctx, "ratelimit:api:ip:1.2.3.4", time.Minute)
			require.NoError(t, err)
			assert.Equal(t, i, sample.Count)
		}
	})

	t.Run("reset time derives from the oldest request", func(t *testing.T) {
		client := newTestClient(t)
		ctx := context.Background()

		before := time.Now()
		sample, err := client.IncrWindow(ctx, "key", time.Minute)
		require.NoError(t, err)

		assert.WithinDuration(t, before.Add(time.Minute), sample.ResetAt, time.Second)

		// A later request does not push the reset time forward
		time.Sleep(20 * time.Millisecond)
		second, err := client.IncrWindow(ctx, "key", time.Minute)
		require.NoError(t, err)
		assert.WithinDuration(t, sample.ResetAt, second.ResetAt, 10*time.Millisecond)
	})

	t.Run("requests outside the window are pruned", func(t *testing.T) {
		client := newTestClient(t)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := client.IncrWindow(ctx, "key", 100*time.Millisecond)
			require.NoError(t, err)
		}

		time.Sleep(150 * time.Millisecond)

		sample, err := client.IncrWindow(ctx, "key", 100*time.Millisecond)
		require.NoError(t, err)
		assert.Equal(t, 1, sample.Count)
	})

	t.Run("keys are independent", func(t *testing.T) {
		client := newTestClient(t)
		ctx := context.Background()

		for i := 0; i < 3; i++ {
			_, err := client.IncrWindow(ctx, "a", time.Minute)
			require.NoError(t, err)
		}

		sample, err := client.IncrWindow(ctx, "b", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, 1, sample.Count)
	})

	t.Run("records the request even past saturation", func(t *testing.T) {
		client := newTestClient(t)
		ctx := context.Background()

		var last *WindowSample
		for i := 0; i < 20; i++ {
			sample, err := client.IncrWindow(ctx, "key", time.Minute)
			require.NoError(t, err)
			last = sample
		}
		assert.Equal(t, 20, last.Count)
	})
}

func TestDelete(t *testing.T) {
	client := newTestClient(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := client.IncrWindow(ctx, "key", time.Minute)
		require.NoError(t, err)
	}

	require.NoError(t, client.Delete(ctx, "key"))

	sample, err := client.IncrWindow(ctx, "key", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, 1, sample.Count)

	t.Run("deleting a missing key is not an error", func(t *testing.T) {
		assert.NoError(t, client.Delete(ctx, "never-seen"))
	})
}
