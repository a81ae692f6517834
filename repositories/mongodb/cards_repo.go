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
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type cardDocument struct {
	CardNumber  string               `bson:"_id"`
	Balance     primitive.Decimal128 `bson:"balance"`
	CreditLimit primitive.Decimal128 `bson:"credit_limit"`
	UsedCredit  primitive.Decimal128 `bson:"used_credit"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

type cardLogDocument struct {
	ID            string               `bson:"_id"`
	CardNumber    string               `bson:"card_number"`
	TransactionID string               `bson:"transaction_id,omitempty"`
	Amount        primitive.Decimal128 `bson:"amount"`
	Type          string               `bson:"type"`
	CreatedAt     time.Time            `bson:"created_at"`
}

// ledgerOpDocument records the outcome of one keyed ledger operation.
type ledgerOpDocument struct {
	Key           string    `bson:"_id"`
	TransactionID string    `bson:"transaction_id"`
	CardNumber    string    `bson:"card_number"`
	Applied       bool      `bson:"applied"`
	Reason        string    `bson:"reason,omitempty"`
	CreatedAt     time.Time `bson:"created_at"`
}

func newCardDocument(card models.Card) (cardDocument, error) {
	values, err := decimals(card.Balance, card.CreditLimit, card.UsedCredit)
	if err != nil {
		return cardDocument{}, err
	}
	return cardDocument{
		CardNumber:  card.CardNumber,
		Balance:     values[0],
		CreditLimit: values[1],
		UsedCredit:  values[2],
		CreatedAt:   card.CreatedAt,
		UpdatedAt:   card.UpdatedAt,
	}, nil
}

func (d cardDocument) model() (*models.Card, error) {
	card := &models.Card{CardNumber: d.CardNumber, CreatedAt: d.CreatedAt, UpdatedAt: d.UpdatedAt}
	var err error
	if card.Balance, err = fromDecimal128(d.Balance); err != nil {
		return nil, err
	}
	if card.CreditLimit, err = fromDecimal128(d.CreditLimit); err != nil {
		return nil, err
	}
	if card.UsedCredit, err = fromDecimal128(d.UsedCredit); err != nil {
		return nil, err
	}
	return card, nil
}

func newCardLogDocument(log models.CardLog) (cardLogDocument, error) {
	amount, err := toDecimal128(log.Amount)
	if err != nil {
		return cardLogDocument{}, err
	}
	doc := cardLogDocument{
		ID:         log.ID.String(),
		CardNumber: log.CardNumber,
		Amount:     amount,
		Type:       string(log.Type),
		CreatedAt:  log.CreatedAt,
	}
	if log.TransactionID != nil {
		doc.TransactionID = log.TransactionID.String()
	}
	return doc, nil
}

// CardRepository is the ledger store. Card balances only change together with the
// card log entry describing the change, inside one transaction.
type CardRepository struct {
	client   *mongo.Client
	database string
}

func NewCardRepository(client *mongo.Client, database string) *CardRepository {
	return &CardRepository{client: client, database: database}
}

func (r *CardRepository) collection(name string) *mongo.Collection {
	return r.client.Database(r.database).Collection(name)
}

// CreateCard inserts the card with its initial balance log. It returns a Conflict
// error when the card number is taken.
func (r *CardRepository) CreateCard(ctx context.Context, card models.Card) error {
	doc, err := newCardDocument(card)
	if err != nil {
		return errors.E(errors.Invalid, "invalid card amounts", err)
	}
	logDoc, err := newCardLogDocument(models.CardLog{
		ID:         uuid.New(),
		CardNumber: card.CardNumber,
		Amount:     card.Balance,
		Type:       models.LogInitialBalance,
		CreatedAt:  card.CreatedAt,
	})
	if err != nil {
		return err
	}

	err = r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		if _, err := r.collection(cardsCollection).InsertOne(sc, doc); err != nil {
			return err
		}
		_, err := r.collection(cardLogsCollection).InsertOne(sc, logDoc)
		return err
	})
	if mongo.IsDuplicateKeyError(err) {
		return errors.ConflictErr("card", card.CardNumber, err)
	}
	return err
}

// GetCard returns nil when the card does not exist.
func (r *CardRepository) GetCard(ctx context.Context, cardNumber string) (*models.Card, error) {
	return r.findCard(ctx, cardNumber)
}

// UpdateCard overwrites the card amounts and, when log is given, appends it.
func (r *CardRepository) UpdateCard(ctx context.Context, card models.Card, log *models.CardLog) error {
	doc, err := newCardDocument(card)
	if err != nil {
		return errors.E(errors.Invalid, "invalid card amounts", err)
	}

	return r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		res, err := r.collection(cardsCollection).UpdateOne(sc,
			bson.M{"_id": card.CardNumber},
			bson.M{"$set": bson.M{
				"balance":      doc.Balance,
				"credit_limit": doc.CreditLimit,
				"used_credit":  doc.UsedCredit,
				"updated_at":   doc.UpdatedAt,
			}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return errors.NotFoundErr("card", card.CardNumber)
		}
		if log == nil {
			return nil
		}
		logDoc, err := newCardLogDocument(*log)
		if err != nil {
			return err
		}
		_, err = r.collection(cardLogsCollection).InsertOne(sc, logDoc)
		return err
	})
}

// Withdraw debits op.Amount from the card. A card without enough funds is left
// untouched and the outcome is not applied.
func (r *CardRepository) Withdraw(ctx context.Context, op models.LedgerOperation) (models.LedgerOutcome, error) {
	return r.apply(ctx, op, func(card *models.Card) (decimal.Decimal, string) {
		if !card.Withdraw(op.Amount) {
			return decimal.Zero, models.ReasonInsufficientFunds
		}
		return op.Amount.Neg(), ""
	})
}

// Deposit credits op.Amount minus op.Fee, repaying used credit first. It is only
// rejected when the card does not exist.
func (r *CardRepository) Deposit(ctx context.Context, op models.LedgerOperation) (models.LedgerOutcome, error) {
	return r.apply(ctx, op, func(card *models.Card) (decimal.Decimal, string) {
		card.Deposit(op.Amount, op.Fee)
		return decimal.Max(op.Amount.Sub(op.Fee), decimal.Zero), ""
	})
}

// mutation changes the card in place and returns the logged amount, or a rejection reason.
type mutation func(card *models.Card) (decimal.Decimal, string)

// apply runs one keyed ledger operation. The first delivery of a key records its
// outcome together with the card change; later deliveries get that outcome back
// without touching the card.
func (r *CardRepository) apply(ctx context.Context, op models.LedgerOperation, mutate mutation) (models.LedgerOutcome, error) {
	outcome, err := r.applyOnce(ctx, op, mutate)
	if mongo.IsDuplicateKeyError(err) {
		// A concurrent delivery of the same key committed first.
		outcome, err = r.applyOnce(ctx, op, mutate)
	}
	return outcome, err
}

func (r *CardRepository) applyOnce(ctx context.Context, op models.LedgerOperation, mutate mutation) (models.LedgerOutcome, error) {
	var outcome models.LedgerOutcome

	err := r.inTransaction(ctx, func(sc mongo.SessionContext) error {
		outcome = models.LedgerOutcome{}

		var done ledgerOpDocument
		err := r.collection(ledgerOpsCollection).FindOne(sc, bson.M{"_id": op.Key}).Decode(&done)
		if err == nil {
			card, err := r.findCard(sc, op.CardNumber)
			outcome = models.LedgerOutcome{Applied: done.Applied, Replayed: true, Reason: done.Reason, Card: card}
			return err
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}

		card, err := r.findCard(sc, op.CardNumber)
		if err != nil {
			return err
		}

		now := time.Now().UTC()
		outcome.Card = card
		if card == nil {
			outcome.Reason = models.ReasonCardNotFound
		} else if logged, reason := mutate(card); reason != "" {
			outcome.Reason = reason
		} else {
			card.UpdatedAt = now
			if err = r.saveMutation(sc, op, card, logged, now); err != nil {
				return err
			}
			outcome.Applied = true
		}

		_, err = r.collection(ledgerOpsCollection).InsertOne(sc, ledgerOpDocument{
			Key:           op.Key,
			TransactionID: op.TransactionID.String(),
			CardNumber:    op.CardNumber,
			Applied:       outcome.Applied,
			Reason:        outcome.Reason,
			CreatedAt:     now,
		})
		return err
	})
	if err != nil {
		return models.LedgerOutcome{}, err
	}
	return outcome, nil
}

func (r *CardRepository) saveMutation(sc mongo.SessionContext, op models.LedgerOperation, card *models.Card, logged decimal.Decimal, now time.Time) error {
	values, err := decimals(card.Balance, card.UsedCredit)
	if err != nil {
		return err
	}
	_, err = r.collection(cardsCollection).UpdateOne(sc,
		bson.M{"_id": card.CardNumber},
		bson.M{"$set": bson.M{"balance": values[0], "used_credit": values[1], "updated_at": now}},
	)
	if err != nil {
		return err
	}

	txID := op.TransactionID
	logDoc, err := newCardLogDocument(models.CardLog{
		ID:            uuid.New(),
		CardNumber:    card.CardNumber,
		TransactionID: &txID,
		Amount:        logged,
		Type:          op.LogType,
		CreatedAt:     now,
	})
	if err != nil {
		return err
	}
	_, err = r.collection(cardLogsCollection).InsertOne(sc, logDoc)
	return err
}

// CardLogs returns the log of a card, newest first.
func (r *CardRepository) CardLogs(ctx context.Context, cardNumber string) ([]models.CardLog, error) {
	cursor, err := r.collection(cardLogsCollection).Find(ctx,
		bson.M{"card_number": cardNumber},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, err
	}

	var docs []cardLogDocument
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	logs := make([]models.CardLog, 0, len(docs))
	for _, doc := range docs {
		amount, err := fromDecimal128(doc.Amount)
		if err != nil {
			return nil, err
		}
		log := models.CardLog{
			CardNumber: doc.CardNumber,
			Amount:     amount,
			Type:       models.CardLogType(doc.Type),
			CreatedAt:  doc.CreatedAt,
		}
		log.ID, _ = uuid.Parse(doc.ID)
		if txID, err := uuid.Parse(doc.TransactionID); err == nil {
			log.TransactionID = &txID
		}
		logs = append(logs, log)
	}
	return logs, nil
}

func (r *CardRepository) findCard(ctx context.Context, cardNumber string) (*models.Card, error) {
	var doc cardDocument
	err := r.collection(cardsCollection).FindOne(ctx, bson.M{"_id": cardNumber}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.model()
}

func (r *CardRepository) inTransaction(ctx context.Context, fn func(sc mongo.SessionContext) error) error {
	return withTransaction(ctx, r.client, fn)
}
