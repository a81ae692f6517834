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
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type authorizationDocument struct {
	CardNumber string    `bson:"_id"`
	IsActive   bool      `bson:"is_active"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

type authLogDocument struct {
	ID           string    `bson:"_id"`
	CardNumber   string    `bson:"card_number"`
	IsAuthorized bool      `bson:"is_authorized"`
	Reason       string    `bson:"reason"`
	CreatedAt    time.Time `bson:"created_at"`
}

type AuthRepository struct {
	client   *mongo.Client
	database string
}

func NewAuthRepository(client *mongo.Client, database string) *AuthRepository {
	return &AuthRepository{client: client, database: database}
}

func (r *AuthRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.database).Collection(name)
}

// GetAuthorization returns nil when no decision was ever made for the card.
func (r *AuthRepository) GetAuthorization(ctx context.Context, cardNumber string) (*models.CardAuthorization, error) {
	var doc authorizationDocument
	err := r.collection(authorizationsCollection).FindOne(ctx, bson.M{"_id": cardNumber}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &models.CardAuthorization{CardNumber: doc.CardNumber, IsActive: doc.IsActive, UpdatedAt: doc.UpdatedAt}, nil
}

// LastLog returns the most recent authorization log of the card, or nil.
func (r *AuthRepository) LastLog(ctx context.Context, cardNumber string) (*models.AuthorizationLog, error) {
	var doc authLogDocument
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	err := r.collection(authLogsCollection).FindOne(ctx, bson.M{"card_number": cardNumber}, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	id, err := uuid.Parse(doc.ID)
	if err != nil {
		return nil, err
	}
	return &models.AuthorizationLog{
		ID:           id,
		CardNumber:   doc.CardNumber,
		IsAuthorized: doc.IsAuthorized,
		Reason:       doc.Reason,
		CreatedAt:    doc.CreatedAt,
	}, nil
}

func (r *AuthRepository) InsertLog(ctx context.Context, log models.AuthorizationLog) error {
	_, err := r.collection(authLogsCollection).InsertOne(ctx, newAuthLogDocument(log))
	return err
}

// RecordDecision appends the log entry and upserts the card authorization atomically.
func (r *AuthRepository) RecordDecision(ctx context.Context, log models.AuthorizationLog, auth models.CardAuthorization) error {
	return withTransaction(ctx, r.client, func(sc mongo.SessionContext) error {
		if _, err := r.collection(authLogsCollection).InsertOne(sc, newAuthLogDocument(log)); err != nil {
			return err
		}
		_, err := r.collection(authorizationsCollection).UpdateOne(sc,
			bson.M{"_id": auth.CardNumber},
			bson.M{"$set": bson.M{"is_active": auth.IsActive, "updated_at": auth.UpdatedAt}},
			options.Update().SetUpsert(true),
		)
		return err
	})
}

func newAuthLogDocument(log models.AuthorizationLog) authLogDocument {
	return authLogDocument{
		ID:           log.ID.String(),
		CardNumber:   log.CardNumber,
		IsAuthorized: log.IsAuthorized,
		Reason:       log.Reason,
		CreatedAt:    log.CreatedAt,
	}
}
