package mongodb

import (
	// Go Internal Packages
	"context"

	// External Packages
	"go.mongodb.org/mongo-driver/mongo"
)

// withTransaction runs fn in a multi-document transaction. The driver retries fn on
// transient errors, so fn must not keep state across attempts.
func withTransaction(ctx context.Context, client *mongo.Client, fn func(sc mongo.SessionContext) error) error {
	sess, err := client.StartSession()
	if err != nil {
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	return err
}
