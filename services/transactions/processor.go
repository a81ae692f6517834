package transactions

import (
	// Go Internal Packages
	"context"
	"time"

	// Local Packages
	models "cardflow/models"
	utils "cardflow/utils"

	// External Packages
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type TxRepository interface {
	InsertTransaction(ctx context.Context, tx models.CardTransaction) (bool, error)
	GetTransaction(ctx context.Context, id uuid.UUID) (*models.CardTransaction, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status models.TransactionStatus) (bool, error)
}

type LockReleaser interface {
	Release(ctx context.Context, key string) error
}

type Publisher interface {
	Publish(ctx context.Context, event models.Event) error
}

// TxProcessor owns the transaction record and drives its status through the saga.
// Every transition is conditional on the current status, so redelivered events
// either re-emit the successor of a transition that already happened or are dropped.
type TxProcessor struct {
	Logger    *zap.Logger
	TxRepo    TxRepository
	Locks     LockReleaser
	Publisher Publisher
	Now       func() time.Time
}

func NewTxProcessor(logger *zap.Logger, txRepo TxRepository, locks LockReleaser, publisher Publisher) *TxProcessor {
	return &TxProcessor{Logger: logger, TxRepo: txRepo, Locks: locks, Publisher: publisher, Now: time.Now}
}

func (p *TxProcessor) HandleTransactionAuthorized(ctx context.Context, event models.TransactionAuthorized) error {
	logger := p.stepLogger(event.TransactionID, "record")
	now := p.Now().UTC()

	inserted, err := p.TxRepo.InsertTransaction(ctx, models.CardTransaction{
		ID:              event.TransactionID,
		SenderNumber:    event.CardNumber,
		RecipientNumber: event.RecipientNumber,
		Amount:          event.Amount,
		Status:          models.StatusAuthorized,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		logger.Error("failed to record transaction", zap.Error(err))
		return p.Publisher.Publish(ctx, models.TransactionFailed{
			TransactionID: event.TransactionID,
			Reason:        models.ReasonServerError,
			CardNumber:    event.CardNumber,
			Amount:        event.Amount,
		})
	}

	withdraw := models.WithdrawFunds{
		TransactionID:   event.TransactionID,
		CardNumber:      event.CardNumber,
		RecipientNumber: event.RecipientNumber,
		Amount:          event.Amount,
	}
	if inserted {
		logger.Info("transaction recorded")
		return p.Publisher.Publish(ctx, withdraw)
	}
	return p.redeliver(ctx, logger, event.TransactionID, models.StatusAuthorized, withdraw)
}

// HandleFundsWithdrawn marks the withdrawal and hands the sender lock back before
// asking for the deposit.
func (p *TxProcessor) HandleFundsWithdrawn(ctx context.Context, event models.FundsWithdrawn) error {
	logger := p.stepLogger(event.TransactionID, "withdrawn")

	deposit := models.DepositFunds{
		TransactionID: event.TransactionID,
		CardNumber:    event.RecipientNumber,
		SenderNumber:  event.CardNumber,
		Amount:        event.Amount,
	}

	moved, err := p.TxRepo.UpdateStatus(ctx, event.TransactionID, models.StatusWithdrawn)
	if err != nil {
		logger.Error("failed to mark funds withdrawn", zap.Error(err))
		return p.Publisher.Publish(ctx, models.TransactionFailed{
			TransactionID: event.TransactionID,
			Reason:        models.ReasonServerError,
			NeedRefund:    true,
			CardNumber:    event.CardNumber,
			Amount:        event.Amount,
		})
	}
	if !moved {
		return p.redeliver(ctx, logger, event.TransactionID, models.StatusWithdrawn, deposit)
	}

	p.releaseLock(ctx, logger, event.CardNumber)
	return p.Publisher.Publish(ctx, deposit)
}

func (p *TxProcessor) HandleTransactionCompleted(ctx context.Context, event models.TransactionCompleted) error {
	return p.finish(ctx, event.TransactionID, models.StatusCompleted)
}

func (p *TxProcessor) HandleTransactionRefunded(ctx context.Context, event models.TransactionRefunded) error {
	return p.finish(ctx, event.TransactionID, models.StatusRefunded)
}

// HandleTransactionFailed fails the transaction, or parks it as refund pending when
// money has left the sender. The sender lock is only released while the transaction
// has not passed the withdrawal; after that it was already handed back.
func (p *TxProcessor) HandleTransactionFailed(ctx context.Context, event models.TransactionFailed) error {
	logger := p.stepLogger(event.TransactionID, "fail").With(zap.String("reason", event.Reason))

	target := models.StatusFailed
	if event.NeedRefund {
		target = models.StatusRefundPending
	}

	current, err := p.TxRepo.GetTransaction(ctx, event.TransactionID)
	if err != nil {
		return err
	}
	if event.CardNumber != "" && (current == nil || current.Status == models.StatusAuthorized) {
		p.releaseLock(ctx, logger, event.CardNumber)
	}
	if current == nil {
		logger.Warn("failed transaction was never recorded")
		return nil
	}
	if current.Status.IsTerminal() {
		logger.Info("transaction already finished", zap.String("status", current.Status.String()))
		return nil
	}

	refund := models.RefundRequested{TransactionID: event.TransactionID, CardNumber: event.CardNumber, Amount: event.Amount}

	moved, err := p.TxRepo.UpdateStatus(ctx, event.TransactionID, target)
	if err != nil {
		logger.Error("failed to mark transaction failed", zap.Error(err))
		return err
	}
	if !moved {
		if !event.NeedRefund {
			logger.Info("transition refused", zap.String("status", current.Status.String()))
			return nil
		}
		return p.redeliver(ctx, logger, event.TransactionID, target, refund)
	}

	logger.Info("transaction failed", zap.String("status", target.String()))
	if !event.NeedRefund {
		return nil
	}
	return p.Publisher.Publish(ctx, refund)
}

func (p *TxProcessor) finish(ctx context.Context, id uuid.UUID, status models.TransactionStatus) error {
	logger := p.stepLogger(id, "finish")

	moved, err := p.TxRepo.UpdateStatus(ctx, id, status)
	if err != nil {
		logger.Error("failed to finish transaction", zap.String("status", status.String()), zap.Error(err))
		return err
	}
	if !moved {
		logger.Info("transition refused", zap.String("status", status.String()))
		return nil
	}
	logger.Info("transaction finished", zap.String("status", status.String()))
	return nil
}

// redeliver re-emits next when the transaction already sits in target, which means
// the current event was delivered before. Anything else is a stale event and dropped.
func (p *TxProcessor) redeliver(ctx context.Context, logger *zap.Logger, id uuid.UUID, target models.TransactionStatus, next models.Event) error {
	current, err := p.TxRepo.GetTransaction(ctx, id)
	if err != nil {
		return err
	}
	if current == nil || current.Status != target {
		logger.Info("dropping stale event", zap.String("target", target.String()))
		return nil
	}
	logger.Info("re-emitting after redelivery", zap.String("topic", next.Topic()))
	return p.Publisher.Publish(ctx, next)
}

func (p *TxProcessor) releaseLock(ctx context.Context, logger *zap.Logger, cardNumber string) {
	if err := p.Locks.Release(ctx, utils.CardLockKey(cardNumber)); err != nil {
		logger.Error("failed to release card lock", zap.String("card", utils.MaskCardNumber(cardNumber)), zap.Error(err))
	}
}

func (p *TxProcessor) stepLogger(id uuid.UUID, operation string) *zap.Logger {
	return p.Logger.With(zap.String("transaction_id", id.String()), zap.String("operation", operation))
}
