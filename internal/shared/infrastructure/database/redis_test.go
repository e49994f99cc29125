package database

import (
	"context"
	"net"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func miniredisConfig(t *testing.T, mr *miniredis.Miniredis) RedisConfig {
	t.Helper()
	host, port, err := net.SplitHostPort(mr.Addr())
	require.NoError(t, err)
	return RedisConfig{Host: host, Port: port}
}

func TestRedisConfig_Addr(t *testing.T) {
	assert.Equal(t, "localhost:6379", RedisConfig{Host: "localhost", Port: "6379"}.Addr())
	assert.Equal(t, "[::1]:6380", RedisConfig{Host: "::1", Port: "6380"}.Addr())
}

func TestNewRedis_ConnectsAndSelectsDB(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := miniredisConfig(t, mr)
	cfg.DB = 2
	client, err := NewRedis(context.Background(), cfg)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "udyami:users", `[]`, 0).Err())
	mr.Select(2)
	got, err := mr.Get("udyami:users")
	require.NoError(t, err)
	assert.Equal(t, `[]`, got)
}

func TestNewRedis_WrongPassword(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	mr.RequireAuth("s3cret")

	cfg := miniredisConfig(t, mr)
	cfg.Password = "nope"
	client, err := NewRedis(context.Background(), cfg)
	assert.Error(t, err)
	assert.Nil(t, client)
}

func TestNewRedis_ServerGone(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	cfg := miniredisConfig(t, mr)
	mr.Close()

	client, err := NewRedis(context.Background(), cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), cfg.Addr())
	assert.Nil(t, client)
}
