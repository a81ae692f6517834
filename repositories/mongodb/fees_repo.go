package mongodb

import (
	// Go Internal Packages
	"context"
	"time"

	// Local Packages
	errors "cardflow/errors"
	models "cardflow/models"

	// External Packages
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type feeDocument struct {
	ID        primitive.ObjectID   `bson:"_id,omitempty"`
	Value     primitive.Decimal128 `bson:"value"`
	CreatedAt time.Time            `bson:"created_at"`
}

// FeeRepository keeps the fee history. Entries are never updated.
type FeeRepository struct {
	client   *mongo.Client
	database string
}

func NewFeeRepository(client *mongo.Client, database string) *FeeRepository {
	return &FeeRepository{client: client, database: database}
}

func (r *FeeRepository) collection() *mongo.Collection {
	return r.client.Database(r.database).Collection(feesCollection)
}

// LatestFee returns nil when no fee was ever recorded.
func (r *FeeRepository) LatestFee(ctx context.Context) (*models.Fee, error) {
	var doc feeDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := r.collection().FindOne(ctx, bson.M{}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	value, err := fromDecimal128(doc.Value)
	if err != nil {
		return nil, err
	}
	return &models.Fee{Value: value, CreatedAt: doc.CreatedAt}, nil
}

func (r *FeeRepository) InsertFee(ctx context.Context, fee models.Fee) error {
	value, err := toDecimal128(fee.Value)
	if err != nil {
		return err
	}
	_, err = r.collection().InsertOne(ctx, feeDocument{Value: value, CreatedAt: fee.CreatedAt})
	return err
}
