package cards

import (
	// Go Internal Packages
	"context"

	// Local Packages
	errors "cardflow/errors"
	models "cardflow/models"
	utils "cardflow/utils"

	// External Packages
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// HandleWithdrawFunds debits the sender. Nothing has moved when it fails, so the
// failure never asks for a refund.
func (s *Service) HandleWithdrawFunds(ctx context.Context, event models.WithdrawFunds) error {
	logger := s.stepLogger(event.TransactionID, "withdraw")

	outcome, err := s.Repo.Withdraw(ctx, models.LedgerOperation{
		Key:           utils.OperationKey(event.TransactionID, models.StepWithdraw),
		TransactionID: event.TransactionID,
		CardNumber:    event.CardNumber,
		Amount:        event.Amount,
		LogType:       models.LogWithdrawal,
	})
	if err != nil {
		logger.Error("withdrawal failed", zap.Error(err))
		return s.fail(ctx, event.TransactionID, models.ReasonServerError, false, event.CardNumber, event.Amount)
	}
	if !outcome.Applied {
		logger.Info("withdrawal rejected", zap.String("reason", outcome.Reason))
		return s.fail(ctx, event.TransactionID, outcome.Reason, false, event.CardNumber, event.Amount)
	}

	if !outcome.Replayed {
		s.announce(ctx, outcome.Card)
	}
	return s.Publisher.Publish(ctx, models.FundsWithdrawn{
		TransactionID:   event.TransactionID,
		CardNumber:      event.CardNumber,
		RecipientNumber: event.RecipientNumber,
		Amount:          event.Amount,
	})
}

// HandleDepositFunds credits the recipient with the amount net of the active fee.
// The sender has already been debited, so every failure asks for a refund.
func (s *Service) HandleDepositFunds(ctx context.Context, event models.DepositFunds) error {
	logger := s.stepLogger(event.TransactionID, "deposit")

	fee, known, err := s.Fees.CurrentFee(ctx)
	if err != nil {
		logger.Error("fee lookup failed", zap.Error(err))
		return s.fail(ctx, event.TransactionID, models.ReasonServerError, true, event.SenderNumber, event.Amount)
	}
	if !known {
		logger.Warn("fee unknown")
		return s.fail(ctx, event.TransactionID, models.ReasonFeeNotFound, true, event.SenderNumber, event.Amount)
	}

	outcome, err := s.Repo.Deposit(ctx, models.LedgerOperation{
		Key:           utils.OperationKey(event.TransactionID, models.StepDeposit),
		TransactionID: event.TransactionID,
		CardNumber:    event.CardNumber,
		Amount:        event.Amount,
		Fee:           fee,
		LogType:       models.LogDeposit,
	})
	if err != nil {
		logger.Error("deposit failed", zap.Error(err))
		return s.fail(ctx, event.TransactionID, models.ReasonServerError, true, event.SenderNumber, event.Amount)
	}
	if !outcome.Applied {
		logger.Info("deposit rejected", zap.String("reason", outcome.Reason))
		return s.fail(ctx, event.TransactionID, models.ReasonInvalidRecipient, true, event.SenderNumber, event.Amount)
	}

	if !outcome.Replayed {
		s.announce(ctx, outcome.Card)
	}
	return s.Publisher.Publish(ctx, models.TransactionCompleted{TransactionID: event.TransactionID})
}

// HandleRefundRequested returns the withdrawn amount to the sender, fee free. A
// refund that cannot be applied is returned as an error and parked for manual work.
func (s *Service) HandleRefundRequested(ctx context.Context, event models.RefundRequested) error {
	logger := s.stepLogger(event.TransactionID, "refund")

	outcome, err := s.Repo.Deposit(ctx, models.LedgerOperation{
		Key:           utils.OperationKey(event.TransactionID, models.StepRefund),
		TransactionID: event.TransactionID,
		CardNumber:    event.CardNumber,
		Amount:        event.Amount,
		Fee:           decimal.Zero,
		LogType:       models.LogRefund,
	})
	if err != nil {
		logger.Error("refund failed", zap.Error(err))
		return err
	}
	if !outcome.Applied {
		logger.Error("refund rejected", zap.String("reason", outcome.Reason))
		return errors.E(errors.Internal, "refund rejected: "+outcome.Reason, nil)
	}

	if !outcome.Replayed {
		s.announce(ctx, outcome.Card)
	}
	return s.Publisher.Publish(ctx, models.TransactionRefunded{TransactionID: event.TransactionID})
}

func (s *Service) fail(ctx context.Context, id uuid.UUID, reason string, needRefund bool, cardNumber string, amount decimal.Decimal) error {
	return s.Publisher.Publish(ctx, models.TransactionFailed{
		TransactionID: id,
		Reason:        reason,
		NeedRefund:    needRefund,
		CardNumber:    cardNumber,
		Amount:        amount,
	})
}

func (s *Service) stepLogger(id uuid.UUID, operation string) *zap.Logger {
	return s.Logger.With(zap.String("transaction_id", id.String()), zap.String("operation", operation))
}
