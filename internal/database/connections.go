package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/autokatalog/autokatalog/backend/go-services/internal/config"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/docstore"
	"github.com/autokatalog/autokatalog/backend/go-services/internal/sessions"
	"github.com/autokatalog/autokatalog/backend/go-services/pkg/logger"
)

const (
	collectionsCollection = "collections"
	sessionsCollection    = "sessions"
	docKeyPrefix          = "autokatalog:"
	sessionKeyPrefix      = "session:"
	mongoAttempts         = 5
)

// Connections holds the optional Redis and MongoDB clients. A client is nil
// when it is not configured, or when it is unreachable and nothing requires it.
type Connections struct {
	Redis *redis.Client
	Mongo *mongo.Client
	cfg   *config.Config
}

// Open connects to whatever cfg names. A backend that STORE_BACKEND depends
// on must be reachable; the others are best effort.
func Open(ctx context.Context, cfg *config.Config) (*Connections, error) {
	c := &Connections{cfg: cfg}
	if cfg.Redis.Addr() != "" {
		client, err := ConnectRedis(ctx, cfg.Redis)
		switch {
		case err == nil:
			c.Redis = client
			logger.Infof("connected to Redis at %s", cfg.Redis.Addr())
		case cfg.Storage.Backend == config.StoreRedis:
			return nil, err
		default:
			logger.Warnf("Redis unavailable, continuing without it: %v", err)
		}
	}
	if cfg.MongoDB.URI != "" {
		client, err := ConnectMongoRetry(ctx, cfg.MongoDB.URI, cfg.MongoDB.Timeout, mongoAttempts)
		switch {
		case err == nil:
			c.Mongo = client
			logger.Infof("connected to MongoDB (database %s)", cfg.MongoDB.Database)
		case cfg.Storage.Backend == config.StoreMongo:
			c.Close(ctx)
			return nil, err
		default:
			logger.Warnf("MongoDB unavailable, continuing without it: %v", err)
		}
	}
	return c, nil
}

// Backend returns the document store backend selected by STORE_BACKEND.
func (c *Connections) Backend() (docstore.Backend, error) {
	switch c.cfg.Storage.Backend {
	case config.StoreFile:
		return docstore.NewFileBackend(afero.NewOsFs(), c.cfg.Storage.DataDir), nil
	case config.StoreRedis:
		if c.Redis == nil {
			return nil, fmt.Errorf("redis backend selected but not connected")
		}
		return docstore.NewRedisBackend(c.Redis, docKeyPrefix), nil
	case config.StoreMongo:
		if c.Mongo == nil {
			return nil, fmt.Errorf("mongo backend selected but not connected")
		}
		return docstore.NewMongoBackend(c.Mongo.Database(c.cfg.MongoDB.Database).Collection(collectionsCollection)), nil
	}
	return nil, fmt.Errorf("unknown STORE_BACKEND %q", c.cfg.Storage.Backend)
}

// SessionRepository prefers Redis (TTL expiry), then MongoDB, then process memory.
func (c *Connections) SessionRepository() sessions.Repository {
	switch {
	case c.Redis != nil:
		logger.Infof("using Redis for session storage")
		return sessions.NewRedisRepository(c.Redis, sessionKeyPrefix)
	case c.Mongo != nil:
		logger.Infof("using MongoDB for session storage")
		return sessions.NewMongoRepository(c.Mongo.Database(c.cfg.MongoDB.Database).Collection(sessionsCollection))
	}
	logger.Warnf("no shared session store configured, sessions are kept in memory")
	return sessions.NewMemoryRepository()
}

// Ping reports the health of every connected client, keyed by name.
func (c *Connections) Ping(ctx context.Context) map[string]error {
	out := map[string]error{}
	if c.Redis != nil {
		out["redis"] = c.Redis.Ping(ctx).Err()
	}
	if c.Mongo != nil {
		out["mongo"] = c.Mongo.Ping(ctx, nil)
	}
	return out
}

func (c *Connections) Close(ctx context.Context) {
	if c.Redis != nil {
		_ = c.Redis.Close()
	}
	if c.Mongo != nil {
		_ = c.Mongo.Disconnect(ctx)
	}
}
