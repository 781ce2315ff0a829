package redis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	mr := miniredis.RunT(t)

	client, err := NewClient("redis://"+mr.Addr(), "test", zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	return mr, client
}

func TestNewClient(t *testing.T) {
	mr := miniredis.RunT(t)

	tests := []struct {
		name        string
		url         string
		expectError bool
	}{
		{
			name: "Valid Redis URL",
			url:  "redis://" + mr.Addr() + "/0",
		},
		{
			name:        "Invalid URL",
			url:         "invalid://url",
			expectError: true,
		},
		{
			name:        "Empty URL",
			url:         "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := NewClient(tt.url, "test", nil)

			if tt.expectError {
				assert.Error(t, err)
				assert.Nil(t, client)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, client.KeyBuilder)
			assert.NoError(t, client.Close())
		})
	}
}

func TestClient_Get(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("test:key1", "value1"))

	value, err := client.Get(ctx, "test:key1")
	require.NoError(t, err)
	assert.Equal(t, "value1", value)

	_, err = client.Get(ctx, "test:nonexistent")
	assert.True(t, errors.Is(err, ErrNil))
}

func TestClient_Set(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	tests := []struct {
		name  string
		key   string
		value interface{}
		ttl   time.Duration
	}{
		{name: "Set string value", key: "test:key1", value: "value1", ttl: time.Minute},
		{name: "Set integer value", key: "test:key2", value: 42, ttl: time.Hour},
		{name: "Set with no expiration", key: "test:key3", value: "permanent", ttl: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, client.Set(ctx, tt.key, tt.value, tt.ttl))

			val, err := mr.Get(tt.key)
			require.NoError(t, err)
			assert.NotEmpty(t, val)

			if tt.ttl > 0 {
				assert.Greater(t, mr.TTL(tt.key), time.Duration(0))
			} else {
				assert.Equal(t, time.Duration(0), mr.TTL(tt.key))
			}
		})
	}
}

func TestClient_GetDel(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "oauth:state:abc", "payload", TTLOAuthState))

	val, err := client.GetDel(ctx, "oauth:state:abc")
	require.NoError(t, err)
	assert.Equal(t, "payload", val)
	assert.False(t, mr.Exists("oauth:state:abc"))

	_, err = client.GetDel(ctx, "oauth:state:abc")
	assert.True(t, errors.Is(err, ErrNil))
}

func TestClient_SetNX(t *testing.T) {
	_, client := setupTestRedis(t)
	ctx := context.Background()

	ok, err := client.SetNX(ctx, "test:nx", "first", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = client.SetNX(ctx, "test:nx", "second", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok)

	val, err := client.Get(ctx, "test:nx")
	require.NoError(t, err)
	assert.Equal(t, "first", val)
}

func TestClient_DeleteAndExists(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, mr.Set("test:key1", "value1"))
	require.NoError(t, mr.Set("test:key2", "value2"))

	n, err := client.Exists(ctx, "test:key1", "test:key2", "test:key3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	require.NoError(t, client.Delete(ctx, "test:key1", "test:key2"))

	n, err = client.Exists(ctx, "test:key1", "test:key2")
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestClient_TTLExpiry(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "session:s1", "user-1", TTLSession))

	ttl, err := client.TTL(ctx, "session:s1")
	require.NoError(t, err)
	assert.InDelta(t, TTLSession.Seconds(), ttl.Seconds(), 1)

	mr.FastForward(TTLSession + time.Second)
	_, err = client.Get(ctx, "session:s1")
	assert.True(t, errors.Is(err, ErrNil))
}

func TestClient_Health(t *testing.T) {
	mr, client := setupTestRedis(t)
	ctx := context.Background()

	assert.NoError(t, client.Health(ctx))

	mr.Close()
	assert.Error(t, client.Health(ctx))
}

func TestPrefixForLog(t *testing.T) {
	assert.Equal(t, "short:key", prefixForLog("short:key"))
	long := "moviedash:prod:oauth:state:0123456789abcdef"
	assert.Equal(t, long[:24]+"…", prefixForLog(long))
}
