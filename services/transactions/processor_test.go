package transactions

import (
	// Go Internal Packages
	"context"
	"testing"

	// Local Packages
	errors "cardflow/errors"
	models "cardflow/models"

	// External Packages
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	sender    = "111111111111111"
	recipient = "222222222222222"
)

type txRepoStub struct {
	txs       map[uuid.UUID]models.CardTransaction
	insertErr error
}

func newTxRepoStub() *txRepoStub {
	return &txRepoStub{txs: map[uuid.UUID]models.CardTransaction{}}
}

func (s *txRepoStub) InsertTransaction(_ context.Context, tx models.CardTransaction) (bool, error) {
	if s.insertErr != nil {
		return false, s.insertErr
	}
	if _, ok := s.txs[tx.ID]; ok {
		return false, nil
	}
	s.txs[tx.ID] = tx
	return true, nil
}

func (s *txRepoStub) GetTransaction(_ context.Context, id uuid.UUID) (*models.CardTransaction, error) {
	tx, ok := s.txs[id]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

func (s *txRepoStub) UpdateStatus(_ context.Context, id uuid.UUID, status models.TransactionStatus) (bool, error) {
	tx, ok := s.txs[id]
	if !ok || !tx.Status.CanTransitionTo(status) {
		return false, nil
	}
	tx.Status = status
	s.txs[id] = tx
	return true, nil
}

type lockStub struct {
	released []string
}

func (l *lockStub) Release(_ context.Context, key string) error {
	l.released = append(l.released, key)
	return nil
}

type publisherStub struct {
	events []models.Event
}

func (p *publisherStub) Publish(_ context.Context, e models.Event) error {
	p.events = append(p.events, e)
	return nil
}

func newProcessor() (*TxProcessor, *txRepoStub, *lockStub, *publisherStub) {
	repo := newTxRepoStub()
	locks := &lockStub{}
	pub := &publisherStub{}
	return NewTxProcessor(zap.NewNop(), repo, locks, pub), repo, locks, pub
}

func authorized(id uuid.UUID) models.TransactionAuthorized {
	return models.TransactionAuthorized{TransactionID: id, CardNumber: sender, RecipientNumber: recipient, Amount: decimal.NewFromInt(100)}
}

func TestTransactionAuthorizedRecordsAndWithdraws(t *testing.T) {
	ctx := context.Background()
	p, repo, _, pub := newProcessor()
	id := uuid.New()

	require.NoError(t, p.HandleTransactionAuthorized(ctx, authorized(id)))
	assert.Equal(t, models.StatusAuthorized, repo.txs[id].Status)
	require.Len(t, pub.events, 1)
	assert.Equal(t, models.WithdrawFunds{TransactionID: id, CardNumber: sender, RecipientNumber: recipient, Amount: decimal.NewFromInt(100)}, pub.events[0])

	// Redelivery while still authorized re-emits the withdrawal.
	require.NoError(t, p.HandleTransactionAuthorized(ctx, authorized(id)))
	assert.Len(t, pub.events, 2)

	// Redelivery after the saga moved on is dropped.
	_, _ = repo.UpdateStatus(ctx, id, models.StatusWithdrawn)
	require.NoError(t, p.HandleTransactionAuthorized(ctx, authorized(id)))
	assert.Len(t, pub.events, 2)
}

func TestTransactionAuthorizedStoreFailure(t *testing.T) {
	ctx := context.Background()
	p, repo, locks, pub := newProcessor()
	repo.insertErr = errors.New("no primary")
	id := uuid.New()

	require.NoError(t, p.HandleTransactionAuthorized(ctx, authorized(id)))
	require.Len(t, pub.events, 1)
	failed := pub.events[0].(models.TransactionFailed)
	assert.False(t, failed.NeedRefund)
	assert.Equal(t, sender, failed.CardNumber)

	// The failure releases the lock even though no record exists.
	require.NoError(t, p.HandleTransactionFailed(ctx, failed))
	assert.Equal(t, []string{"card:111111111111111:lock"}, locks.released)
}

func TestFundsWithdrawnReleasesLockAndDeposits(t *testing.T) {
	ctx := context.Background()
	p, repo, locks, pub := newProcessor()
	id := uuid.New()
	require.NoError(t, p.HandleTransactionAuthorized(ctx, authorized(id)))

	event := models.FundsWithdrawn{TransactionID: id, CardNumber: sender, RecipientNumber: recipient, Amount: decimal.NewFromInt(100)}
	require.NoError(t, p.HandleFundsWithdrawn(ctx, event))
	assert.Equal(t, models.StatusWithdrawn, repo.txs[id].Status)
	assert.Equal(t, []string{"card:111111111111111:lock"}, locks.released)
	assert.Equal(t, models.DepositFunds{TransactionID: id, CardNumber: recipient, SenderNumber: sender, Amount: decimal.NewFromInt(100)}, pub.events[len(pub.events)-1])

	require.NoError(t, p.HandleFundsWithdrawn(ctx, event))
	assert.IsType(t, models.DepositFunds{}, pub.events[len(pub.events)-1])
	assert.Len(t, pub.events, 3)
}

func TestCompletedIsTerminal(t *testing.T) {
	ctx := context.Background()
	p, repo, _, _ := newProcessor()
	id := uuid.New()
	require.NoError(t, p.HandleTransactionAuthorized(ctx, authorized(id)))

	require.NoError(t, p.HandleTransactionCompleted(ctx, models.TransactionCompleted{TransactionID: id}))
	assert.Equal(t, models.StatusAuthorized, repo.txs[id].Status, "cannot complete before withdrawal")

	_, _ = repo.UpdateStatus(ctx, id, models.StatusWithdrawn)
	require.NoError(t, p.HandleTransactionCompleted(ctx, models.TransactionCompleted{TransactionID: id}))
	assert.Equal(t, models.StatusCompleted, repo.txs[id].Status)

	require.NoError(t, p.HandleTransactionFailed(ctx, models.TransactionFailed{TransactionID: id, NeedRefund: true, CardNumber: sender}))
	assert.Equal(t, models.StatusCompleted, repo.txs[id].Status)
}

func TestFailureWithoutRefund(t *testing.T) {
	ctx := context.Background()
	p, repo, locks, pub := newProcessor()
	id := uuid.New()
	require.NoError(t, p.HandleTransactionAuthorized(ctx, authorized(id)))

	require.NoError(t, p.HandleTransactionFailed(ctx, models.TransactionFailed{TransactionID: id, Reason: models.ReasonInsufficientFunds, CardNumber: sender, Amount: decimal.NewFromInt(100)}))
	assert.Equal(t, models.StatusFailed, repo.txs[id].Status)
	assert.Equal(t, []string{"card:111111111111111:lock"}, locks.released)
	assert.Len(t, pub.events, 1, "no refund requested")
}

func TestFailureAfterWithdrawalRefunds(t *testing.T) {
	ctx := context.Background()
	p, repo, locks, pub := newProcessor()
	id := uuid.New()
	require.NoError(t, p.HandleTransactionAuthorized(ctx, authorized(id)))
	require.NoError(t, p.HandleFundsWithdrawn(ctx, models.FundsWithdrawn{TransactionID: id, CardNumber: sender, RecipientNumber: recipient, Amount: decimal.NewFromInt(100)}))

	failed := models.TransactionFailed{TransactionID: id, Reason: models.ReasonInvalidRecipient, NeedRefund: true, CardNumber: sender, Amount: decimal.NewFromInt(100)}
	require.NoError(t, p.HandleTransactionFailed(ctx, failed))
	assert.Equal(t, models.StatusRefundPending, repo.txs[id].Status)
	assert.Len(t, locks.released, 1, "the lock was already handed back at withdrawal")
	assert.Equal(t, models.RefundRequested{TransactionID: id, CardNumber: sender, Amount: decimal.NewFromInt(100)}, pub.events[len(pub.events)-1])

	// Redelivered failure asks for the refund again; the ledger deduplicates it.
	require.NoError(t, p.HandleTransactionFailed(ctx, failed))
	assert.IsType(t, models.RefundRequested{}, pub.events[len(pub.events)-1])

	require.NoError(t, p.HandleTransactionRefunded(ctx, models.TransactionRefunded{TransactionID: id}))
	assert.Equal(t, models.StatusRefunded, repo.txs[id].Status)
}
