package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/angelmondragon/storefront/pkg/config"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T) (*Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	raw := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = raw.Close() })
	return Wrap(raw), mr
}

func TestKeyBuilders(t *testing.T) {
	c := &Client{}
	assert.Equal(t, "sf:cart:cart:abc", c.CartKey("cart:abc"))
	assert.Equal(t, "sf:session:abc", c.SessionKey(" abc "))
	assert.Equal(t, "sf:cart", c.CartKey(""))
}

func TestSetGetDelRoundTrip(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	require.NoError(t, client.Set(ctx, "sf:cart:a", "[]", time.Minute))
	got, err := client.Get(ctx, "sf:cart:a")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
	assert.Equal(t, time.Minute, mr.TTL("sf:cart:a"))

	require.NoError(t, client.Touch(ctx, "sf:cart:a", time.Hour))
	assert.Equal(t, time.Hour, mr.TTL("sf:cart:a"))

	require.NoError(t, client.Del(ctx, "sf:cart:a"))
	_, err = client.Get(ctx, "sf:cart:a")
	assert.True(t, IsNil(err))
}

func TestPing(t *testing.T) {
	client, _ := newTestClient(t)
	require.NoError(t, client.Ping(context.Background()))
}

func TestUninitializedClient(t *testing.T) {
	c := &Client{}
	ctx := context.Background()
	assert.Error(t, c.Set(ctx, "k", "v", 0))
	_, err := c.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, c.Del(ctx, "k"))
	assert.NoError(t, c.Close())
}

func TestOptionsFromConfig(t *testing.T) {
	_, err := optionsFromConfig(config.RedisConfig{})
	require.Error(t, err)

	opts, err := optionsFromConfig(config.RedisConfig{URL: "redis://localhost:6379/3", PoolSize: 7})
	require.NoError(t, err)
	assert.Equal(t, 3, opts.DB)
	assert.Equal(t, 7, opts.PoolSize)

	opts, err = optionsFromConfig(config.RedisConfig{Address: "cache:6379", DB: 2})
	require.NoError(t, err)
	assert.Equal(t, "cache:6379", opts.Addr)
	assert.Equal(t, 2, opts.DB)
}

func TestIncrWithTTLSetsWindowOnce(t *testing.T) {
	ctx := context.Background()
	client, mr := newTestClient(t)

	count, err := client.IncrWithTTL(ctx, "throttle:sign_in:client:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.Equal(t, time.Minute, mr.TTL("sf:rl:throttle:sign_in:client:1.2.3.4"))

	mr.FastForward(30 * time.Second)
	count, err = client.IncrWithTTL(ctx, "throttle:sign_in:client:1.2.3.4", time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
	assert.Equal(t, 30*time.Second, mr.TTL("sf:rl:throttle:sign_in:client:1.2.3.4"))
}
