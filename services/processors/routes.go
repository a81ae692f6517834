package processors

import (
	// Go Internal Packages
	"context"

	// Local Packages
	models "cardflow/models"
)

type CardSaga interface {
	HandleWithdrawFunds(ctx context.Context, event models.WithdrawFunds) error
	HandleDepositFunds(ctx context.Context, event models.DepositFunds) error
	HandleRefundRequested(ctx context.Context, event models.RefundRequested) error
	HandleCardUpdated(ctx context.Context, event models.CardUpdated) error
}

type FeeListener interface {
	HandleFeeUpdated(ctx context.Context, event models.FeeUpdated) error
}

type TransactionSaga interface {
	HandleTransactionAuthorized(ctx context.Context, event models.TransactionAuthorized) error
	HandleFundsWithdrawn(ctx context.Context, event models.FundsWithdrawn) error
	HandleTransactionCompleted(ctx context.Context, event models.TransactionCompleted) error
	HandleTransactionFailed(ctx context.Context, event models.TransactionFailed) error
	HandleTransactionRefunded(ctx context.Context, event models.TransactionRefunded) error
}

type CardStatusListener interface {
	HandleCardUpdated(ctx context.Context, event models.CardUpdated) error
}

// RegisterCardHandlers subscribes the card management service to the ledger steps
// of the saga and to the card and fee announcements it caches.
func RegisterCardHandlers(d *Dispatcher, cards CardSaga, fees FeeListener) {
	d.Handle(models.TopicWithdrawFunds, JSON(cards.HandleWithdrawFunds))
	d.Handle(models.TopicDepositFunds, JSON(cards.HandleDepositFunds))
	d.Handle(models.TopicRefundRequested, JSON(cards.HandleRefundRequested))
	d.Handle(models.TopicCardUpdated, JSON(cards.HandleCardUpdated))
	d.Handle(models.TopicFeeUpdated, JSON(fees.HandleFeeUpdated))
}

func RegisterTransactionHandlers(d *Dispatcher, saga TransactionSaga) {
	d.Handle(models.TopicTransactionAuthorized, JSON(saga.HandleTransactionAuthorized))
	d.Handle(models.TopicFundsWithdrawn, JSON(saga.HandleFundsWithdrawn))
	d.Handle(models.TopicTransactionCompleted, JSON(saga.HandleTransactionCompleted))
	d.Handle(models.TopicTransactionFailed, JSON(saga.HandleTransactionFailed))
	d.Handle(models.TopicTransactionRefunded, JSON(saga.HandleTransactionRefunded))
}

// RegisterAuthorizationHandlers keeps the card status cache of the authorization
// service in step with card changes.
func RegisterAuthorizationHandlers(d *Dispatcher, gate CardStatusListener) {
	d.Handle(models.TopicCardUpdated, JSON(gate.HandleCardUpdated))
}
