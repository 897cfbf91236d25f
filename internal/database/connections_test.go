package database

import (
	"context"
	"testing"

	mr "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/config"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/docstore"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/sessions"
)

func TestOpen_RedisBackend(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	defer m.Close()

	cfg := &config.Config{}
	cfg.Storage.Backend = config.StoreRedis
	cfg.Redis.Host = m.Host()
	cfg.Redis.Port = m.Port()

	ctx := context.Background()
	conns, err := Open(ctx, cfg)
	require.NoError(t, err)
	defer conns.Close(ctx)
	require.NotNil(t, conns.Redis)
	require.Nil(t, conns.Mongo)

	b, err := conns.Backend()
	require.NoError(t, err)
	require.IsType(t, &docstore.RedisBackend{}, b)
	require.IsType(t, &sessions.RedisRepository{}, conns.SessionRepository())

	pings := conns.Ping(ctx)
	require.NoError(t, pings["redis"])
}

func TestOpen_RequiredRedisUnreachable(t *testing.T) {
	m, err := mr.Run()
	require.NoError(t, err)
	cfg := &config.Config{}
	cfg.Storage.Backend = config.StoreRedis
	cfg.Redis.Host = m.Host()
	cfg.Redis.Port = m.Port()
	m.Close()

	_, err = Open(context.Background(), cfg)
	require.Error(t, err)
}

func TestOpen_FileBackendWithoutServers(t *testing.T) {
	cfg := &config.Config{}
	cfg.Storage.Backend = config.StoreFile
	cfg.Storage.DataDir = t.TempDir()

	conns, err := Open(context.Background(), cfg)
	require.NoError(t, err)
	b, err := conns.Backend()
	require.NoError(t, err)
	require.IsType(t, &docstore.FileBackend{}, b)
	require.IsType(t, &sessions.MemoryRepository{}, conns.SessionRepository())
	require.Empty(t, conns.Ping(context.Background()))
}
