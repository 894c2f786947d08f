// Package legacy copies the MongoDB copy of a tenant's entities into its
// canonical PostgreSQL database during cutover.
package legacy

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Source reads the documents of one collection. out is a pointer to a slice
// of document structs.
type Source interface {
	Find(ctx context.Context, collection, tenantID string, out any) error
}

// MongoSource reads legacy documents from a MongoDB database
type MongoSource struct {
	client *mongo.Client
	db     *mongo.Database
}

// Connect opens and pings the legacy database
func Connect(ctx context.Context, uri, database string, timeout time.Duration) (*MongoSource, error) {
	if uri == "" {
		return nil, fmt.Errorf("MONGODB_URI is required for the legacy import")
	}

	opts := options.Client().ApplyURI(uri).SetConnectTimeout(timeout).SetServerSelectionTimeout(timeout)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect to mongodb: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	return &MongoSource{client: client, db: client.Database(database)}, nil
}

// Find loads every document of collection owned by tenantID. The legacy
// store kept tenantId both as a string and as an ObjectID. An empty tenantID
// reads the whole collection.
func (s *MongoSource) Find(ctx context.Context, collection, tenantID string, out any) error {
	filter := bson.M{}
	if tenantID != "" {
		ids := bson.A{tenantID}
		if oid, err := primitive.ObjectIDFromHex(tenantID); err == nil {
			ids = append(ids, oid)
		}
		filter["tenantId"] = bson.M{"$in": ids}
	}

	cur, err := s.db.Collection(collection).Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return fmt.Errorf("find %s: %w", collection, err)
	}
	if err := cur.All(ctx, out); err != nil {
		return fmt.Errorf("decode %s: %w", collection, err)
	}
	return nil
}

// Close disconnects from MongoDB
func (s *MongoSource) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
