package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
)

type Config struct {
	Driver        string
	RedisAddr     string
	RedisPassword string
	MongoURI      string
	MongoDBName   string
	SQLitePath    string
	// TTL bounds how long an idle session's values are kept (redis, mongo).
	TTL time.Duration
}

type FactoryResult struct {
	Driver string
	Store  Store
	Close  func(context.Context) error
}

func Open(ctx context.Context, cfg Config) (FactoryResult, error) {
	switch cfg.Driver {
	case "", "memory":
		return FactoryResult{Driver: "memory", Store: NewMemoryStore(), Close: noClose}, nil

	case "redis":
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       0,
		})
		if err := client.Ping(ctx).Err(); err != nil {
			client.Close()
			return FactoryResult{}, fmt.Errorf("redis connection failed: %w", err)
		}
		return FactoryResult{
			Driver: "redis",
			Store:  NewRedisStore(client, cfg.TTL),
			Close:  func(context.Context) error { return client.Close() },
		}, nil

	case "mongo":
		db, err := ConnectMongoDB(ctx, cfg.MongoURI, cfg.MongoDBName)
		if err != nil {
			return FactoryResult{}, err
		}
		return openMongo(ctx, db, cfg.TTL)

	case "sqlite":
		s, err := NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return FactoryResult{}, err
		}
		return FactoryResult{
			Driver: "sqlite",
			Store:  s,
			Close:  func(context.Context) error { return s.Close() },
		}, nil

	default:
		return FactoryResult{}, fmt.Errorf("unknown STORAGE_DRIVER: %s", cfg.Driver)
	}
}

// openMongo prepares the store on a connected database. The client is
// disconnected when preparation fails.
func openMongo(ctx context.Context, db *mongo.Database, ttl time.Duration) (FactoryResult, error) {
	s := NewMongoStore(db)
	if ttl > 0 {
		if err := s.CreateIndexes(ctx, ttl); err != nil {
			if derr := db.Client().Disconnect(ctx); derr != nil {
				err = errors.Join(err, derr)
			}
			return FactoryResult{}, err
		}
	}
	return FactoryResult{
		Driver: "mongo",
		Store:  s,
		Close:  func(ctx context.Context) error { return db.Client().Disconnect(ctx) },
	}, nil
}

func noClose(context.Context) error { return nil }
