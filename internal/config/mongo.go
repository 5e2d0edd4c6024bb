package config

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/event"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const defaultMongoTimeout = 10 * time.Second

// SetupMongo connects a MongoDB client using the mongo section of cfg and
// pings the primary before returning. Server selection and the ping are
// bounded by database.mongo.timeout. Failed commands are logged at debug.
func SetupMongo(ctx context.Context, cfg *DatabaseConfig, logger *slog.Logger) (*mongo.Client, error) {
	if cfg == nil {
		return nil, errors.New("database config is nil")
	}
	if logger == nil {
		return nil, errors.New("logger is nil")
	}

	opts := mongoClientOptions(cfg, logger)
	timeout := Duration(cfg.Mongo.Timeout, defaultMongoTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	logger.Info("database connected",
		slog.String("driver", DriverMongo),
		slog.String("database", cfg.Mongo.Database),
		slog.Uint64("max_pool_size", *opts.MaxPoolSize),
		slog.Duration("timeout", timeout),
	)

	return client, nil
}

// mongoClientOptions builds client options from cfg. The pool size follows
// database.pool.max_open_conns.
func mongoClientOptions(cfg *DatabaseConfig, logger *slog.Logger) *options.ClientOptions {
	timeout := Duration(cfg.Mongo.Timeout, defaultMongoTimeout)

	opts := options.Client().
		ApplyURI(cfg.Mongo.URI).
		SetServerSelectionTimeout(timeout).
		SetConnectTimeout(timeout).
		SetMaxPoolSize(uint64(effectiveMaxOpenConns(cfg.Pool.MaxOpenConns)))

	if d := Duration(cfg.Mongo.MaxConnIdleTime, 0); d > 0 {
		opts.SetMaxConnIdleTime(d)
	}

	if logger.Enabled(context.Background(), slog.LevelDebug) {
		opts.SetMonitor(&event.CommandMonitor{
			Failed: func(ctx context.Context, evt *event.CommandFailedEvent) {
				logger.DebugContext(ctx, "mongodb command failed",
					slog.String("command", evt.CommandName),
					slog.Duration("duration", evt.Duration),
					slog.String("error", evt.Failure),
				)
			},
		})
	}

	return opts
}
