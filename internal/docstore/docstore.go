// FilePath: internal/docstore/docstore.go
package docstore

import (
	"context"
	"fmt"

	"github.com/itsatony/w4b_v3/server/geosensor/internal/config"
	nuts "github.com/vaudience/go-nuts"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store holds the document store client and the sensors collection.
type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// Connect dials the document store and pings the primary.
func Connect(ctx context.Context, cfg config.MongoConfig) (*Store, error) {
	opts := options.Client().ApplyURI(cfg.URI)
	if cfg.ConnectTimeout > 0 {
		opts.SetConnectTimeout(cfg.ConnectTimeout)
	}

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("error connecting to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("error pinging MongoDB: %w", err)
	}

	nuts.L.Infof("[MongoDB] Connected, using %s.%s", cfg.Database, cfg.Collection)
	return &Store{
		client:     client,
		collection: client.Database(cfg.Database).Collection(cfg.Collection),
	}, nil
}

// Collection returns the sensors collection.
func (s *Store) Collection() *mongo.Collection {
	return s.collection
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
