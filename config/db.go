package config

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectDB opens a MongoDB client and returns the issue database.
// The caller owns the client and must Disconnect it on shutdown.
func ConnectDB(ctx context.Context, cfg MongoConfig) (*mongo.Client, *mongo.Database, error) {
	if cfg.URI == "" {
		return nil, nil, fmt.Errorf("please define the MONGODB_URI environment variable")
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping MongoDB: %w", err)
	}

	return client, client.Database(cfg.Database), nil
}
