package mongodb

import (
	// Go Internal Packages
	"context"
	"time"

	// Local Packages
	errors "cardflow/errors"
	models "cardflow/models"

	// External Packages
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type transactionDocument struct {
	ID              string               `bson:"_id"`
	SenderNumber    string               `bson:"sender_number"`
	RecipientNumber string               `bson:"recipient_number"`
	Amount          primitive.Decimal128 `bson:"amount"`
	Status          string               `bson:"status"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

func (d transactionDocument) model() (*models.CardTransaction, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	amount, err := fromDecimal128(d.Amount)
	if err != nil {
		return nil, err
	}
	return &models.CardTransaction{
		ID:              id,
		SenderNumber:    d.SenderNumber,
		RecipientNumber: d.RecipientNumber,
		Amount:          amount,
		Status:          models.TransactionStatus(d.Status),
		CreatedAt:       d.CreatedAt,
		UpdatedAt:       d.UpdatedAt,
	}, nil
}

type TxRepository struct {
	client   *mongo.Client
	database string
}

func NewTxRepository(client *mongo.Client, database string) *TxRepository {
	return &TxRepository{client: client, database: database}
}

func (r *TxRepository) collection() *mongo.Collection {
	return r.client.Database(r.database).Collection(transactionsCollection)
}

// InsertTransaction stores a new transaction. It returns false when a transaction
// with the same id already exists.
func (r *TxRepository) InsertTransaction(ctx context.Context, tx models.CardTransaction) (bool, error) {
	amount, err := toDecimal128(tx.Amount)
	if err != nil {
		return false, errors.E(errors.Invalid, "invalid transaction amount", err)
	}

	_, err = r.collection().InsertOne(ctx, transactionDocument{
		ID:              tx.ID.String(),
		SenderNumber:    tx.SenderNumber,
		RecipientNumber: tx.RecipientNumber,
		Amount:          amount,
		Status:          string(tx.Status),
		CreatedAt:       tx.CreatedAt,
		UpdatedAt:       tx.UpdatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// GetTransaction returns nil when the transaction does not exist.
func (r *TxRepository) GetTransaction(ctx context.Context, id uuid.UUID) (*models.CardTransaction, error) {
	var doc transactionDocument
	err := r.collection().FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.model()
}

// UpdateStatus moves the transaction to status when it currently sits in one of the
// statuses allowed to precede it. It reports whether the transition happened.
func (r *TxRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status models.TransactionStatus) (bool, error) {
	prior := models.PriorStatuses(status)
	if len(prior) == 0 {
		return false, nil
	}

	from := make([]string, len(prior))
	for i, s := range prior {
		from[i] = string(s)
	}

	res, err := r.collection().UpdateOne(ctx,
		bson.M{"_id": id.String(), "status": bson.M{"$in": from}},
		bson.M{"$set": bson.M{"status": string(status), "updated_at": time.Now().UTC()}},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}
