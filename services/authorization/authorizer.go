package authorization

import (
	// Go Internal Packages
	"context"
	"time"

	// Local Packages
	config "cardflow/config"
	errors "cardflow/errors"
	models "cardflow/models"
	utils "cardflow/utils"

	// External Packages
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, key string) error
}

type FraudChecker interface {
	IsDuplicate(ctx context.Context, sender, recipient string, amount decimal.Decimal, window time.Duration) (bool, error)
}

type FeeReader interface {
	CurrentFee(ctx context.Context) (decimal.Decimal, bool, error)
}

type CardDataCache interface {
	GetCardData(ctx context.Context, cardNumber string) (*models.CachedCardData, error)
	SetCardData(ctx context.Context, data models.CachedCardData, ttl time.Duration) error
}

type CardGate interface {
	IsActive(ctx context.Context, cardNumber string) (bool, error)
}

type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// Authorizer admits transfer requests and starts the saga of the admitted ones.
type Authorizer struct {
	Logger    *zap.Logger
	Gate      CardGate
	Locks     Locker
	Fraud     FraudChecker
	Fees      FeeReader
	Cache     CardDataCache
	Cards     CardDirectory
	Publisher Publisher
	Policy    config.Policy
}

// AuthorizeTransaction runs the admission checks under the sender lock. An admitted
// transfer keeps the lock; it is released once the funds are withdrawn or the
// transaction fails. Rejections release it before returning.
func (a *Authorizer) AuthorizeTransaction(ctx context.Context, cmd models.AuthorizeTransactionCommand) (models.Decision, error) {
	if err := cmd.Validate(); err != nil {
		return models.Decision{}, errors.ValidationFailedErr(err)
	}
	if cmd.SenderNumber == cmd.RecipientNumber {
		return models.Rejected(models.ReasonInvalidRecipient), nil
	}

	lockKey := utils.CardLockKey(cmd.SenderNumber)
	locked, err := a.Locks.Acquire(ctx, lockKey, a.Policy.LockTTL())
	if err != nil {
		return models.Decision{}, err
	}
	if !locked {
		return models.Rejected(models.ReasonCardLocked), nil
	}

	decision, err := a.admit(ctx, cmd)
	if err != nil || !decision.Authorized {
		if releaseErr := a.Locks.Release(ctx, lockKey); releaseErr != nil {
			a.Logger.Error("failed to release card lock", zap.String("card", utils.MaskCardNumber(cmd.SenderNumber)), zap.Error(releaseErr))
		}
	}
	if err != nil {
		a.Logger.Error("transaction authorization failed", zap.String("card", utils.MaskCardNumber(cmd.SenderNumber)), zap.Error(err))
		return models.Decision{}, err
	}
	if !decision.Authorized {
		a.Logger.Info("transaction rejected", zap.String("card", utils.MaskCardNumber(cmd.SenderNumber)), zap.String("reason", decision.Reason))
	}
	return decision, nil
}

func (a *Authorizer) admit(ctx context.Context, cmd models.AuthorizeTransactionCommand) (models.Decision, error) {
	fee, known, err := a.Fees.CurrentFee(ctx)
	if err != nil {
		return models.Decision{}, err
	}
	if !known {
		return models.Rejected(models.ReasonFeeNotFound), nil
	}
	if cmd.Amount.LessThanOrEqual(fee) {
		return models.Rejected(models.ReasonInvalidAmount), nil
	}

	active, err := a.Gate.IsActive(ctx, cmd.SenderNumber)
	if err != nil {
		return models.Decision{}, err
	}
	if !active {
		return models.Rejected(models.ReasonInactiveCard), nil
	}

	active, err = a.Gate.IsActive(ctx, cmd.RecipientNumber)
	if err != nil {
		return models.Decision{}, err
	}
	if !active {
		return models.Rejected(models.ReasonInvalidRecipient), nil
	}

	// The fraud window records the attempt before the funds check, so a transfer
	// rejected for funds counts as a duplicate when repeated inside the window.
	duplicate, err := a.Fraud.IsDuplicate(ctx, cmd.SenderNumber, cmd.RecipientNumber, cmd.Amount, a.Policy.FraudWindow())
	if err != nil {
		return models.Decision{}, err
	}
	if duplicate {
		return models.Rejected(models.ReasonDuplicateTransaction), nil
	}

	snapshot, err := a.senderSnapshot(ctx, cmd.SenderNumber)
	if err != nil {
		return models.Decision{}, err
	}
	if snapshot == nil {
		return models.Rejected(models.ReasonCardNotFound), nil
	}
	if !snapshot.HasSufficientFunds(cmd.Amount) {
		return models.Rejected(models.ReasonInsufficientFunds), nil
	}

	id := uuid.New()
	err = a.Publisher.Publish(ctx, models.TransactionAuthorized{
		TransactionID:   id,
		CardNumber:      cmd.SenderNumber,
		RecipientNumber: cmd.RecipientNumber,
		Amount:          cmd.Amount,
	})
	if err != nil {
		return models.Decision{}, err
	}

	a.Logger.Info("transaction authorized", zap.String("transaction_id", id.String()), zap.String("card", utils.MaskCardNumber(cmd.SenderNumber)))
	return models.Decision{Authorized: true, TransactionID: id}, nil
}

// senderSnapshot reads the cached card data, loading it from the card service on a miss.
func (a *Authorizer) senderSnapshot(ctx context.Context, cardNumber string) (*models.CachedCardData, error) {
	cached, err := a.Cache.GetCardData(ctx, cardNumber)
	if err != nil || cached != nil {
		return cached, err
	}

	view, err := a.Cards.GetCard(ctx, cardNumber)
	if err != nil || view == nil {
		return nil, err
	}

	data := models.CachedCardData{
		CardNumber:  view.CardNumber,
		Balance:     view.Balance,
		CreditLimit: view.CreditLimit,
		UsedCredit:  view.UsedCredit,
	}
	if err = a.Cache.SetCardData(ctx, data, a.Policy.CacheTTL()); err != nil {
		return nil, err
	}
	return &data, nil
}
