package db

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Store is the process-wide MongoDB handle. It is constructed once in main
// and passed to the handlers that need it.
type Store struct {
	Client   *mongo.Client
	Users    *mongo.Collection
	Products *mongo.Collection
	Carts    *mongo.Collection
	Orders   *mongo.Collection
}

// Connect establishes the MongoDB connection and verifies it with a ping.
// A failure here is fatal to the process; the caller exits rather than retry.
func Connect(ctx context.Context, uri, dbName string) (*Store, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, err
	}

	database := client.Database(dbName)
	return &Store{
		Client:   client,
		Users:    database.Collection("users"),
		Products: database.Collection("products"),
		Carts:    database.Collection("carts"),
		Orders:   database.Collection("orders"),
	}, nil
}

func (s *Store) Close(ctx context.Context) error {
	return s.Client.Disconnect(ctx)
}
