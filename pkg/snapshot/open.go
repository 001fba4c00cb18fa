package snapshot

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/dmitrymomot/recipekit/pkg/logger"
)

// Open builds the Storage selected by cfg.Backend and connects it.
// The returned Storage owns its connections; Close releases them.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (Storage, error) {
	log = logger.OrDiscard(log).With(logger.Component("snapshot"), slog.String("backend", cfg.Backend))

	switch cfg.Backend {
	case BackendMemory:
		return NewMemoryStorage(), nil

	case BackendFile, "":
		return NewFileStorage(cfg.Dir)

	case BackendRedis:
		client, err := ConnectRedis(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "connected to redis")
		return NewRedisStorage(client, cfg.RedisPrefix, cfg.RedisTTL), nil

	case BackendPostgres:
		pool, err := ConnectPostgres(ctx, cfg)
		if err != nil {
			return nil, err
		}
		if err := Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return nil, err
		}
		log.InfoContext(ctx, "connected to postgres")
		return NewPostgresStorage(pool), nil

	case BackendMongo:
		client, err := ConnectMongo(ctx, cfg)
		if err != nil {
			return nil, err
		}
		log.InfoContext(ctx, "connected to mongo")
		return NewMongoStorage(client, client.Database(cfg.MongoDatabase).Collection(cfg.MongoCollection)), nil
	}

	return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Backend)
}
