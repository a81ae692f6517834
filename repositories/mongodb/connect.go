package mongodb

import (
	// Go Internal Packages
	"context"
	"time"

	// External Packages
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	cardsCollection          = "cards"
	cardLogsCollection       = "card_logs"
	ledgerOpsCollection      = "ledger_ops"
	transactionsCollection   = "transactions"
	authorizationsCollection = "card_authorizations"
	authLogsCollection       = "authorization_logs"
	feesCollection           = "fees"
)

// Connect connects to the mongodb server and returns the client.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	timeout := time.Second * 5
	opts := &options.ClientOptions{ServerSelectionTimeout: &timeout}

	client, err := mongo.Connect(ctx, opts.ApplyURI(uri))
	if err != nil {
		return nil, err
	}

	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}
	return client, nil
}

// EnsureIndexes creates the secondary indexes the repositories query by.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		cardLogsCollection: {
			{Keys: bson.D{{Key: "card_number", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		authLogsCollection: {
			{Keys: bson.D{{Key: "card_number", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		feesCollection: {
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		transactionsCollection: {
			{Keys: bson.D{{Key: "sender_number", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for collection, idx := range indexes {
		if _, err := db.Collection(collection).Indexes().CreateMany(ctx, idx); err != nil {
			return err
		}
	}
	return nil
}
